// Package geometry builds continuous road centerlines from straight, arc and
// clothoid segment descriptions and answers pose and curvature queries by
// distance along the road.
//
// Coordinates use Y up. At heading zero the road runs along +Z with +X on
// its right; a positive heading change is a right turn. Distances are
// measured in plan view, with elevation carried as a function of distance.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/GruiaChiscop/top-speed/internal/alias"
)

// Kind is the shape of a segment.
type Kind int

const (
	KindStraight Kind = iota
	KindArc
	KindClothoid
)

// Direction is the turn direction of a curved segment.
type Direction int

const (
	DirStraight Direction = iota
	DirLeft
	DirRight
)

// Severity is a qualitative description of a curve, used for narration.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityEasy
	SeverityNormal
	SeverityHard
	SeverityHairpin
)

var (
	kindNames = alias.New(map[Kind][]string{
		KindStraight: {"straight", "line"},
		KindArc:      {"arc", "curve", "circular"},
		KindClothoid: {"clothoid", "spiral", "transition", "euler"},
	})
	directionNames = alias.New(map[Direction][]string{
		DirStraight: {"straight", "none", "ahead"},
		DirLeft:     {"left", "l"},
		DirRight:    {"right", "r"},
	})
	severityNames = alias.New(map[Severity][]string{
		SeverityNone:    {"none"},
		SeverityEasy:    {"easy", "gentle"},
		SeverityNormal:  {"normal", "medium"},
		SeverityHard:    {"hard", "sharp"},
		SeverityHairpin: {"hairpin"},
	})
)

// ErrUnknownValue is returned by the Parse functions for unrecognized names.
var ErrUnknownValue = errors.New("unknown value")

func (k Kind) String() string      { return kindNames.Name(k) }
func (d Direction) String() string { return directionNames.Name(d) }
func (s Severity) String() string  { return severityNames.Name(s) }

// ParseKind resolves a segment kind name.
func ParseKind(s string) (Kind, error) {
	if v, ok := kindNames.Lookup(s); ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: segment kind %q (want one of %v)", ErrUnknownValue, s, kindNames.Names())
}

// ParseDirection resolves a turn direction name.
func ParseDirection(s string) (Direction, error) {
	if v, ok := directionNames.Lookup(s); ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: direction %q (want one of %v)", ErrUnknownValue, s, directionNames.Names())
}

// ParseSeverity resolves a curve severity name.
func ParseSeverity(s string) (Severity, error) {
	if v, ok := severityNames.Lookup(s); ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: severity %q (want one of %v)", ErrUnknownValue, s, severityNames.Names())
}

// Segment describes one piece of road.
//
// Arcs use Radius. Clothoids use StartRadius and EndRadius, where zero or
// infinity means a straight end. Slopes are grades (rise over run) and banks
// are in degrees, positive lowering the right-hand side. A non-zero
// Elevation fixes the total rise over the segment; the slope profile is
// shifted as needed to meet it.
type Segment struct {
	Kind        Kind      `json:"kind" yaml:"kind"`
	Length      float64   `json:"length" yaml:"length"`
	Radius      float64   `json:"radius,omitempty" yaml:"radius,omitempty"`
	StartRadius float64   `json:"start_radius,omitempty" yaml:"start_radius,omitempty"`
	EndRadius   float64   `json:"end_radius,omitempty" yaml:"end_radius,omitempty"`
	Direction   Direction `json:"direction" yaml:"direction"`
	Severity    Severity  `json:"severity,omitempty" yaml:"severity,omitempty"`
	Elevation   float64   `json:"elevation,omitempty" yaml:"elevation,omitempty"`
	StartSlope  float64   `json:"start_slope,omitempty" yaml:"start_slope,omitempty"`
	EndSlope    float64   `json:"end_slope,omitempty" yaml:"end_slope,omitempty"`
	StartBank   float64   `json:"start_bank,omitempty" yaml:"start_bank,omitempty"`
	EndBank     float64   `json:"end_bank,omitempty" yaml:"end_bank,omitempty"`
}

// Straight returns a straight segment.
func Straight(length float64) Segment {
	return Segment{Kind: KindStraight, Length: length}
}

// Arc returns a constant-radius curve.
func Arc(length, radius float64, dir Direction, sev Severity) Segment {
	return Segment{Kind: KindArc, Length: length, Radius: radius, Direction: dir, Severity: sev}
}

// Clothoid returns a transition whose curvature changes linearly from
// 1/startRadius to 1/endRadius.
func Clothoid(length, startRadius, endRadius float64, dir Direction, sev Severity) Segment {
	return Segment{Kind: KindClothoid, Length: length, StartRadius: startRadius, EndRadius: endRadius, Direction: dir, Severity: sev}
}

func inverseRadius(r float64) float64 {
	if r == 0 || math.IsInf(r, 0) || math.IsNaN(r) {
		return 0
	}
	return 1 / math.Abs(r)
}

func (s Segment) sign() float64 {
	switch s.Direction {
	case DirRight:
		return 1
	case DirLeft:
		return -1
	}
	return 0
}

// StartCurvature returns the signed curvature at the segment's start.
func (s Segment) StartCurvature() float64 {
	switch s.Kind {
	case KindArc:
		return s.sign() * inverseRadius(s.Radius)
	case KindClothoid:
		return s.sign() * inverseRadius(s.StartRadius)
	}
	return 0
}

// EndCurvature returns the signed curvature at the segment's end.
func (s Segment) EndCurvature() float64 {
	switch s.Kind {
	case KindArc:
		return s.sign() * inverseRadius(s.Radius)
	case KindClothoid:
		return s.sign() * inverseRadius(s.EndRadius)
	}
	return 0
}

// CurvatureAt returns the signed curvature at local distance u.
func (s Segment) CurvatureAt(u float64) float64 {
	k0, k1 := s.StartCurvature(), s.EndCurvature()
	return k0 + (k1-k0)*clamp01(u/s.Length)
}

// HeadingChange returns the total heading change across the segment.
func (s Segment) HeadingChange() float64 {
	return (s.StartCurvature() + s.EndCurvature()) / 2 * s.Length
}

// headingAt integrates curvature exactly for the linear profile.
func (s Segment) headingAt(u float64) float64 {
	k0, k1 := s.StartCurvature(), s.EndCurvature()
	return k0*u + (k1-k0)*u*u/(2*s.Length)
}

func (s Segment) gradeOffset() float64 {
	if s.Elevation == 0 {
		return 0
	}
	return (s.Elevation - s.Length*(s.StartSlope+s.EndSlope)/2) / s.Length
}

// gradeAt returns dY/du at local distance u.
func (s Segment) gradeAt(u float64) float64 {
	return s.StartSlope + (s.EndSlope-s.StartSlope)*clamp01(u/s.Length) + s.gradeOffset()
}

// riseAt integrates gradeAt from 0 to u.
func (s Segment) riseAt(u float64) float64 {
	return (s.StartSlope+s.gradeOffset())*u + (s.EndSlope-s.StartSlope)*u*u/(2*s.Length)
}

// bankAt returns the bank angle in radians at local distance u.
func (s Segment) bankAt(u float64) float64 {
	deg := s.StartBank + (s.EndBank-s.StartBank)*clamp01(u/s.Length)
	return deg * math.Pi / 180
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate checks the segment's parameters.
func (s Segment) Validate() error {
	if !(s.Length > 0) || !finite(s.Length) {
		return fmt.Errorf("length %v must be positive and finite", s.Length)
	}
	for name, v := range map[string]float64{
		"elevation": s.Elevation, "start_slope": s.StartSlope, "end_slope": s.EndSlope,
	} {
		if !finite(v) {
			return fmt.Errorf("%s %v must be finite", name, v)
		}
	}
	for name, v := range map[string]float64{"start_bank": s.StartBank, "end_bank": s.EndBank} {
		if !finite(v) || math.Abs(v) >= 90 {
			return fmt.Errorf("%s %v must be within (-90, 90) degrees", name, v)
		}
	}

	switch s.Kind {
	case KindStraight:
		if s.Direction != DirStraight {
			return fmt.Errorf("straight segment cannot turn %s", s.Direction)
		}
	case KindArc:
		if !(s.Radius > 0) || !finite(s.Radius) {
			return fmt.Errorf("arc radius %v must be positive and finite", s.Radius)
		}
		if s.Direction == DirStraight {
			return errors.New("arc needs a left or right direction")
		}
	case KindClothoid:
		if s.StartRadius < 0 || s.EndRadius < 0 || math.IsNaN(s.StartRadius) || math.IsNaN(s.EndRadius) {
			return fmt.Errorf("clothoid radii %v -> %v must not be negative", s.StartRadius, s.EndRadius)
		}
		if inverseRadius(s.StartRadius) == 0 && inverseRadius(s.EndRadius) == 0 {
			return errors.New("clothoid with two straight ends has no curvature")
		}
		if s.Direction == DirStraight {
			return errors.New("clothoid needs a left or right direction")
		}
	default:
		return fmt.Errorf("unknown segment kind %d", int(s.Kind))
	}
	return nil
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func (k Kind) MarshalText() ([]byte, error)      { return []byte(k.String()), nil }
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }
func (s Severity) MarshalText() ([]byte, error)  { return []byte(s.String()), nil }
