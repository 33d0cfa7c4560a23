package geo

import (
	"math"
	"testing"
)

const tolerance = 0.01

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestPointDistance(t *testing.T) {
	a := Pt(0, 0)
	b := Pt(3, 4)
	if !approxEqual(a.Distance(b), 5.0, tolerance) {
		t.Errorf("expected distance 5.0, got %f", a.Distance(b))
	}
	if !approxEqual(a.DistanceSq(b), 25.0, tolerance) {
		t.Errorf("expected squared distance 25.0, got %f", a.DistanceSq(b))
	}
}

func TestPointRotateClockwise(t *testing.T) {
	// Forward (+Z) rotated by a right turn of 90 degrees points to +X.
	r := Pt(0, 1).Rotate(math.Pi / 2)
	if !approxEqual(r.X, 1, tolerance) || !approxEqual(r.Z, 0, tolerance) {
		t.Errorf("expected (1,0), got (%f,%f)", r.X, r.Z)
	}
}

func TestPointOrbRoundTrip(t *testing.T) {
	p := Pt(2.5, -7)
	if got := FromOrb(p.Orb()); got != p {
		t.Errorf("FromOrb(Orb()) = %v, want %v", got, p)
	}
}

func TestPolygonArea(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	if !approxEqual(sq.Area(), 100, tolerance) {
		t.Errorf("expected area 100, got %f", sq.Area())
	}
}

func TestPolygonContains(t *testing.T) {
	sq := NewPolygon(Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10))
	if !sq.Contains(Pt(5, 5)) {
		t.Error("expected (5,5) inside square")
	}
	if sq.Contains(Pt(15, 5)) {
		t.Error("expected (15,5) outside square")
	}
	if sq.Contains(Pt(-1, 5)) {
		t.Error("expected (-1,5) outside square")
	}
}

func TestPolygonBounds(t *testing.T) {
	b := NewPolygon(Pt(-5, -3), Pt(10, 0), Pt(7, 12)).Bounds()
	if !approxEqual(b.Min[0], -5, tolerance) || !approxEqual(b.Min[1], -3, tolerance) {
		t.Errorf("expected min (-5,-3), got %v", b.Min)
	}
	if !approxEqual(b.Max[0], 10, tolerance) || !approxEqual(b.Max[1], 12, tolerance) {
		t.Errorf("expected max (10,12), got %v", b.Max)
	}
}

func TestPolylineLength(t *testing.T) {
	pl := NewPolyline(Pt(0, 0), Pt(100, 0), Pt(100, 100))
	if !approxEqual(pl.Length(), 200, tolerance) {
		t.Errorf("expected length 200, got %.1f", pl.Length())
	}
}

func TestPolylineDistanceSq(t *testing.T) {
	pl := NewPolyline(Pt(0, 0), Pt(100, 0))

	if d := pl.DistanceSq(Pt(50, 10)); !approxEqual(d, 100, tolerance) {
		t.Errorf("expected squared distance 100, got %.2f", d)
	}
	// Beyond the end the projection clamps to the endpoint.
	if d := pl.DistanceSq(Pt(103, 4)); !approxEqual(d, 25, tolerance) {
		t.Errorf("expected clamped squared distance 25, got %.2f", d)
	}
	if d := (Polyline{}).DistanceSq(Pt(0, 0)); !math.IsInf(d, 1) {
		t.Errorf("empty polyline distance = %v, want +Inf", d)
	}
}

func TestPolylineNearest(t *testing.T) {
	pl := NewPolyline(Pt(0, 0), Pt(0, 10), Pt(10, 10))

	seg, u, d := pl.Nearest(Pt(4, 12))
	if seg != 1 || !approxEqual(u, 0.4, 1e-9) || !approxEqual(d, 4, 1e-9) {
		t.Errorf("Nearest = (%d, %v, %v), want (1, 0.4, 4)", seg, u, d)
	}
	if seg, _, _ := (Polyline{}).Nearest(Pt(0, 0)); seg != -1 {
		t.Errorf("empty polyline segment = %d, want -1", seg)
	}
	if seg, u, d := NewPolyline(Pt(1, 1)).Nearest(Pt(4, 5)); seg != 0 || u != 0 || d != 25 {
		t.Errorf("single point Nearest = (%d, %v, %v)", seg, u, d)
	}
}

func TestCrossAndPerp(t *testing.T) {
	forward, right := Pt(0, 1), Pt(1, 0)
	if c := forward.Cross(right); c <= 0 {
		t.Errorf("right of forward should be positive, got %v", c)
	}
	if c := right.Cross(forward); c >= 0 {
		t.Errorf("forward is left of right, got %v", c)
	}
	if p := forward.Perp(); p != right {
		t.Errorf("Perp(forward) = %v, want %v", p, right)
	}
}

func TestLerp(t *testing.T) {
	got := Pt(1, 2).Lerp(Pt(5, -2), 0.25)
	if !approxEqual(got.X, 2, 1e-12) || !approxEqual(got.Z, 1, 1e-12) {
		t.Errorf("Lerp = %v, want (2, 1)", got)
	}
}
