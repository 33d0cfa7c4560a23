package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Point2D is a point on the ground plane. X points right at heading zero,
// Z points forward; Y is up in the 3D track frame and is not stored here.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Z float64 `json:"z" yaml:"z"`
}

// Pt is a shorthand constructor for Point2D.
func Pt(x, z float64) Point2D {
	return Point2D{X: x, Z: z}
}

// FromOrb converts an orb point (X, Y) into a ground-plane point (X, Z).
func FromOrb(p orb.Point) Point2D {
	return Point2D{X: p[0], Z: p[1]}
}

// Orb returns the point as an orb.Point with Z mapped onto orb's Y axis.
func (p Point2D) Orb() orb.Point {
	return orb.Point{p.X, p.Z}
}

// Add returns p + q.
func (p Point2D) Add(q Point2D) Point2D {
	return Point2D{p.X + q.X, p.Z + q.Z}
}

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D {
	return Point2D{p.X - q.X, p.Z - q.Z}
}

// Scale returns p * s.
func (p Point2D) Scale(s float64) Point2D {
	return Point2D{p.X * s, p.Z * s}
}

// Dot returns the dot product of p and q.
func (p Point2D) Dot(q Point2D) float64 {
	return p.X*q.X + p.Z*q.Z
}

// Length returns the Euclidean length of the vector.
func (p Point2D) Length() float64 {
	return math.Hypot(p.X, p.Z)
}

// DistanceSq returns the squared distance from p to q.
func (p Point2D) DistanceSq(q Point2D) float64 {
	d := p.Sub(q)
	return d.Dot(d)
}

// Cross returns the plan-view cross product, positive when q points to the
// right of p.
func (p Point2D) Cross(q Point2D) float64 {
	return p.Z*q.X - p.X*q.Z
}

// Perp returns p turned a quarter turn clockwise: the right-hand normal of
// a direction.
func (p Point2D) Perp() Point2D {
	return Point2D{X: p.Z, Z: -p.X}
}

// Distance returns the Euclidean distance from p to q.
func (p Point2D) Distance(q Point2D) float64 {
	return p.Sub(q).Length()
}

// Rotate returns p rotated clockwise (seen from above) by heading radians,
// matching the track convention where a positive heading turns right.
func (p Point2D) Rotate(heading float64) Point2D {
	c, s := math.Cos(heading), math.Sin(heading)
	return Point2D{
		X: p.X*c + p.Z*s,
		Z: -p.X*s + p.Z*c,
	}
}

// Lerp returns the linear interpolation between p and q at t in [0,1].
func (p Point2D) Lerp(q Point2D, t float64) Point2D {
	return p.Add(q.Sub(p).Scale(t))
}
