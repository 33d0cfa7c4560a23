package geometry

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

type sample struct {
	s       float64
	pos     mgl64.Vec3
	heading float64
	pitch   float64
	bank    float64
	segment int
}

// Geometry is a built road centerline sampled at uniform arc-length
// spacing. It is immutable and safe for concurrent use.
type Geometry struct {
	spacing  float64
	length   float64
	segments []Segment
	starts   []float64
	samples  []sample
}

// Pose is the position and orientation of the road at some distance.
// Tangent, Right and Up form an orthonormal basis. Heading is the
// accumulated heading from the start, not wrapped.
type Pose struct {
	Distance float64    `json:"distance" yaml:"distance"`
	Position mgl64.Vec3 `json:"position" yaml:"position"`
	Tangent  mgl64.Vec3 `json:"tangent" yaml:"tangent"`
	Right    mgl64.Vec3 `json:"right" yaml:"right"`
	Up       mgl64.Vec3 `json:"up" yaml:"up"`
	Heading  float64    `json:"heading" yaml:"heading"`
	Pitch    float64    `json:"pitch" yaml:"pitch"`
	Bank     float64    `json:"bank" yaml:"bank"`
}

// Length returns the total length in meters.
func (g *Geometry) Length() float64 { return g.length }

// SampleSpacing returns the spacing between samples.
func (g *Geometry) SampleSpacing() float64 { return g.spacing }

// SegmentCount returns the number of segments.
func (g *Geometry) SegmentCount() int { return len(g.segments) }

// Segment returns the i-th segment.
func (g *Geometry) Segment(i int) Segment { return g.segments[i] }

// SegmentStart returns the distance at which segment i begins.
func (g *Geometry) SegmentStart(i int) float64 { return g.starts[i] }

func (g *Geometry) clamp(s float64) float64 {
	if s < 0 || math.IsNaN(s) {
		return 0
	}
	if s > g.length {
		return g.length
	}
	return s
}

// SegmentAt returns the index of the segment containing distance s and the
// offset into it. Boundaries belong to the following segment.
func (g *Geometry) SegmentAt(s float64) (int, float64) {
	s = g.clamp(s)
	i := sort.Search(len(g.segments), func(i int) bool { return g.starts[i+1] > s })
	if i == len(g.segments) {
		i = len(g.segments) - 1
	}
	return i, s - g.starts[i]
}

// CurvatureAt returns the signed curvature at s: positive turns right.
func (g *Geometry) CurvatureAt(s float64) float64 {
	i, u := g.SegmentAt(s)
	return g.segments[i].CurvatureAt(u)
}

// GetPose returns the pose at distance s, clamped to [0, Length()].
func (g *Geometry) GetPose(s float64) Pose {
	s = g.clamp(s)
	j := int(s / g.spacing)
	if j >= len(g.samples)-1 {
		j = len(g.samples) - 2
	}
	a, b := g.samples[j], g.samples[j+1]
	t := 0.0
	if span := b.s - a.s; span > 1e-12 {
		t = (s - a.s) / span
	}
	p := poseFrom(
		lerp(a.heading, b.heading, t),
		lerp(a.pitch, b.pitch, t),
		lerp(a.bank, b.bank, t),
	)
	p.Distance = s
	p.Position = a.pos.Add(b.pos.Sub(a.pos).Mul(t))
	return p
}

// StartPose returns the pose at distance zero.
func (g *Geometry) StartPose() Pose { return g.GetPose(0) }

// EndPose returns the pose at the far end.
func (g *Geometry) EndPose() Pose { return g.GetPose(g.length) }

// GetEdges returns the left and right road boundary points at s for a road
// of the given width.
func (g *Geometry) GetEdges(s, width float64) (left, right mgl64.Vec3) {
	p := g.GetPose(s)
	half := p.Right.Mul(width / 2)
	return p.Position.Sub(half), p.Position.Add(half)
}

// ClosureError returns the position distance and the wrapped heading
// difference between the first and last pose.
func (g *Geometry) ClosureError() (position, heading float64) {
	first, last := g.samples[0], g.samples[len(g.samples)-1]
	return last.pos.Sub(first.pos).Len(), math.Abs(NormalizeAngle(last.heading - first.heading))
}

// Samples returns the sampled centerline positions in order.
func (g *Geometry) Samples() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(g.samples))
	for i, s := range g.samples {
		out[i] = s.pos
	}
	return out
}

// poseFrom builds the orientation basis for a heading, pitch and bank.
func poseFrom(heading, pitch, bank float64) Pose {
	sh, ch := math.Sincos(heading)
	sp, cp := math.Sincos(pitch)
	tangent := mgl64.Vec3{sh * cp, sp, ch * cp}
	flatRight := mgl64.Vec3{ch, 0, -sh}
	flatUp := tangent.Cross(flatRight)

	sb, cb := math.Sincos(bank)
	right := flatRight.Mul(cb).Sub(flatUp.Mul(sb))
	up := flatUp.Mul(cb).Add(flatRight.Mul(sb))
	return Pose{
		Tangent: tangent,
		Right:   right.Normalize(),
		Up:      up.Normalize(),
		Heading: heading,
		Pitch:   pitch,
		Bank:    bank,
	}
}

// NormalizeAngle wraps a to (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
