package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Polyline is an ordered sequence of points forming a path.
type Polyline struct {
	Points []Point2D `json:"points" yaml:"points"`
}

// NewPolyline creates a polyline from a list of points.
func NewPolyline(pts ...Point2D) Polyline {
	return Polyline{Points: pts}
}

// Length returns the total arc length of the polyline.
func (pl Polyline) Length() float64 {
	total := 0.0
	for i := 1; i < len(pl.Points); i++ {
		total += pl.Points[i-1].Distance(pl.Points[i])
	}
	return total
}

// Bounds returns the bounding box of the polyline's points.
func (pl Polyline) Bounds() orb.Bound {
	return boundOf(pl.Points)
}

// DistanceSq returns the squared distance from p to the nearest point of the
// polyline. An empty polyline is infinitely far away.
func (pl Polyline) DistanceSq(p Point2D) float64 {
	_, _, d := pl.Nearest(p)
	return d
}

// Nearest returns the segment closest to p as the index of its first point,
// the clamped projection parameter along it and the squared distance. A
// single point is a degenerate segment with index 0.
func (pl Polyline) Nearest(p Point2D) (seg int, t, distSq float64) {
	switch len(pl.Points) {
	case 0:
		return -1, 0, math.Inf(1)
	case 1:
		return 0, 0, p.DistanceSq(pl.Points[0])
	}
	distSq = math.Inf(1)
	for i := 1; i < len(pl.Points); i++ {
		if u, d := project(p, pl.Points[i-1], pl.Points[i]); d < distSq {
			seg, t, distSq = i-1, u, d
		}
	}
	return seg, t, distSq
}

// WithinDistance reports whether p lies within d of any segment.
func (pl Polyline) WithinDistance(p Point2D, d float64) bool {
	if !(d >= 0) {
		return false
	}
	return pl.DistanceSq(p) <= d*d
}

// project returns the projection parameter of p onto segment ab, clamped to
// [0,1], and the squared distance to that point.
func project(p, a, b Point2D) (t, distSq float64) {
	ab := b.Sub(a)
	abLen2 := ab.Dot(ab)
	if abLen2 < 1e-12 {
		return 0, p.DistanceSq(a)
	}
	t = p.Sub(a).Dot(ab) / abLen2
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t, p.DistanceSq(a.Lerp(b, t))
}
