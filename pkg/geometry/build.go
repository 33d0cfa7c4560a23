package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultSampleSpacing is the sample spacing in meters used when a Spec
// leaves it at zero.
const DefaultSampleSpacing = 1.0

// Closure tolerances for a Spec with EnforceClosure set.
const (
	ClosurePositionTolerance = 0.5
	ClosureHeadingTolerance  = 0.1
)

// maxSubstep bounds the integration step between samples.
const maxSubstep = 0.25

// MaxSamples caps the samples one Build may allocate.
const MaxSamples = 1 << 22

var (
	ErrInvalidSpec    = errors.New("invalid geometry spec")
	ErrInvalidSegment = errors.New("invalid segment")
	ErrClosure        = errors.New("geometry does not close")
)

// Spec is the ordered segment list of one road plus build options.
type Spec struct {
	Segments       []Segment `json:"segments" yaml:"segments"`
	SampleSpacing  float64   `json:"sample_spacing,omitempty" yaml:"sample_spacing,omitempty"`
	EnforceClosure bool      `json:"enforce_closure,omitempty" yaml:"enforce_closure,omitempty"`
}

// Length returns the summed segment length.
func (sp Spec) Length() float64 {
	total := 0.0
	for _, s := range sp.Segments {
		total += s.Length
	}
	return total
}

func (sp Spec) spacing() float64 {
	if sp.SampleSpacing == 0 {
		return DefaultSampleSpacing
	}
	return sp.SampleSpacing
}

// Validate checks the spec and every segment without building.
func (sp Spec) Validate() error {
	if len(sp.Segments) == 0 {
		return fmt.Errorf("%w: no segments", ErrInvalidSpec)
	}
	if sp.SampleSpacing < 0 || !finite(sp.SampleSpacing) {
		return fmt.Errorf("%w: sample spacing %v must be positive", ErrInvalidSpec, sp.SampleSpacing)
	}
	for i, s := range sp.Segments {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w %d (%s): %v", ErrInvalidSegment, i, s.Kind, err)
		}
	}
	if n := sp.Length()/sp.spacing() + 1; !finite(n) || n > MaxSamples {
		return fmt.Errorf("%w: length %v at spacing %v needs more than %d samples",
			ErrInvalidSpec, sp.Length(), sp.spacing(), MaxSamples)
	}
	return nil
}

// state is the running pose while walking segments.
type state struct {
	pos     mgl64.Vec3
	heading float64
}

// Build turns a spec into sampled geometry. With EnforceClosure set the
// first and last poses must coincide within the closure tolerances or Build
// fails with ErrClosure.
func Build(sp Spec) (*Geometry, error) {
	if err := sp.Validate(); err != nil {
		return nil, err
	}

	spacing := sp.spacing()
	g := &Geometry{
		spacing:  spacing,
		segments: append([]Segment(nil), sp.Segments...),
		starts:   make([]float64, len(sp.Segments)+1),
	}
	for i, s := range sp.Segments {
		g.starts[i+1] = g.starts[i] + s.Length
	}
	g.length = g.starts[len(sp.Segments)]

	n := int(math.Ceil(g.length/spacing-1e-9)) + 1
	if n < 2 {
		n = 2
	}
	g.samples = make([]sample, 0, n)

	var st state
	next := 0.0
	for i, seg := range g.segments {
		segStart := g.starts[i]
		u := 0.0
		pos := st.pos
		for next <= g.starts[i+1]+1e-9 && len(g.samples) < n-1 {
			target := math.Min(next-segStart, seg.Length)
			pos = advance(seg, st, pos, u, target)
			u = target
			g.samples = append(g.samples, sampleAt(seg, i, st, pos, u, segStart+u))
			next = float64(len(g.samples)) * spacing
		}
		end := advance(seg, st, pos, u, seg.Length)
		st = state{pos: end, heading: st.heading + seg.HeadingChange()}
	}
	last := g.segments[len(g.segments)-1]
	g.samples = append(g.samples, sample{
		s:       g.length,
		pos:     st.pos,
		heading: st.heading,
		pitch:   math.Atan(last.gradeAt(last.Length)),
		bank:    last.bankAt(last.Length),
		segment: len(g.segments) - 1,
	})

	if sp.EnforceClosure {
		dp, dh := g.ClosureError()
		if dp > ClosurePositionTolerance || dh > ClosureHeadingTolerance {
			return nil, fmt.Errorf("%w: end is %.3fm and %.3frad from start (tolerance %.1fm, %.1frad)",
				ErrClosure, dp, dh, ClosurePositionTolerance, ClosureHeadingTolerance)
		}
	}
	return g, nil
}

// advance integrates the plan position from local distance u0 to u1 along
// seg. Elevation is computed in closed form, so only X and Z are stepped.
// Each substep moves along the exact chord of a circle with the midpoint
// curvature, which is exact for straights and arcs.
func advance(seg Segment, st state, pos mgl64.Vec3, u0, u1 float64) mgl64.Vec3 {
	if u1 <= u0 {
		return pos
	}
	steps := int(math.Ceil((u1 - u0) / maxSubstep))
	du := (u1 - u0) / float64(steps)
	x, z := pos.X(), pos.Z()
	for j := 0; j < steps; j++ {
		mid := u0 + (float64(j)+0.5)*du
		h := st.heading + seg.headingAt(mid)
		chord := du
		if k := seg.CurvatureAt(mid); k != 0 {
			chord = 2 * math.Sin(k*du/2) / k
		}
		x += chord * math.Sin(h)
		z += chord * math.Cos(h)
	}
	return mgl64.Vec3{x, st.pos.Y() + seg.riseAt(u1), z}
}

func sampleAt(seg Segment, idx int, st state, pos mgl64.Vec3, u, s float64) sample {
	return sample{
		s:       s,
		pos:     pos,
		heading: st.heading + seg.headingAt(u),
		pitch:   math.Atan(seg.gradeAt(u)),
		bank:    seg.bankAt(u),
		segment: idx,
	}
}
