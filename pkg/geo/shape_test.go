package geo

import "testing"

func TestContains(t *testing.T) {
	square := []Point2D{Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10)}
	road := []Point2D{Pt(0, 0), Pt(100, 0), Pt(100, 100)}

	tests := []struct {
		name  string
		shape Shape
		p     Point2D
		width float64
		want  bool
	}{
		{"rect inside", Rect(Pt(0, 0), Pt(10, 5)), Pt(5, 2), 0, true},
		{"rect edge", Rect(Pt(0, 0), Pt(10, 5)), Pt(10, 5), 0, true},
		{"rect outside", Rect(Pt(0, 0), Pt(10, 5)), Pt(5, 6), 0, false},
		{"rect negative size", Rect(Pt(10, 5), Pt(-10, -5)), Pt(5, 2), 0, true},
		{"circle inside", Circle(Pt(0, 0), 5), Pt(3, 4), 0, true},
		{"circle outside", Circle(Pt(0, 0), 5), Pt(4, 4), 0, false},
		{"circle ring band", CircleRing(Pt(0, 0), 10, 2), Pt(9, 0), 0, true},
		{"circle ring hole", CircleRing(Pt(0, 0), 10, 2), Pt(5, 0), 0, false},
		{"circle ring outside", CircleRing(Pt(0, 0), 10, 2), Pt(11, 0), 0, false},
		{"circle ring zero width", CircleRing(Pt(0, 0), 10, 0), Pt(9, 0), 0, false},
		{"circle ring negative width", CircleRing(Pt(0, 0), 10, -1), Pt(9, 0), 0, false},
		{"rect ring band", RectRing(Pt(0, 0), Pt(20, 20), 3), Pt(1, 10), 0, true},
		{"rect ring hole", RectRing(Pt(0, 0), Pt(20, 20), 3), Pt(10, 10), 0, false},
		{"rect ring zero width", RectRing(Pt(0, 0), Pt(20, 20), 0), Pt(1, 10), 0, false},
		{"polygon inside", PolygonShape(square...), Pt(5, 5), 0, true},
		{"polygon outside", PolygonShape(square...), Pt(11, 5), 0, false},
		{"polygon degenerate", PolygonShape(Pt(0, 0), Pt(10, 10)), Pt(5, 5), 0, false},
		{"polyline on road", PolylineShape(road...), Pt(50, 3), 8, true},
		{"polyline off road", PolylineShape(road...), Pt(50, 5), 8, false},
		{"polyline corner", PolylineShape(road...), Pt(102, 50), 8, true},
		{"polyline zero width", PolylineShape(road...), Pt(50, 0), 0, false},
		{"polyline negative width", PolylineShape(road...), Pt(50, 0), -2, false},
		{"none", Shape{}, Pt(0, 0), 10, false},
	}
	for _, tt := range tests {
		if got := Contains(tt.shape, tt.p, tt.width); got != tt.want {
			t.Errorf("%s: Contains(%v, %v) = %v, want %v", tt.name, tt.p, tt.width, got, tt.want)
		}
	}
}

func TestShapeWidth(t *testing.T) {
	if w := Circle(Pt(5, 5), 7).Width(); !approxEqual(w, 14, tolerance) {
		t.Errorf("circle width = %v, want 14", w)
	}
	if w := Rect(Pt(0, 0), Pt(12, 3)).Width(); !approxEqual(w, 12, tolerance) {
		t.Errorf("rect width = %v, want 12", w)
	}
}

func TestShapeTranslate(t *testing.T) {
	s := Circle(Pt(0, 0), 5).Translate(Pt(100, 0))
	if !s.Contains(Pt(102, 0), 0) {
		t.Error("translated circle should contain (102,0)")
	}
	if s.Contains(Pt(2, 0), 0) {
		t.Error("translated circle should not contain (2,0)")
	}

	orig := PolygonShape(Pt(0, 0), Pt(1, 0), Pt(0, 1))
	moved := orig.Translate(Pt(10, 10))
	if orig.Points[0] != Pt(0, 0) {
		t.Error("Translate must not modify the receiver's points")
	}
	if moved.Points[2] != Pt(10, 11) {
		t.Errorf("moved vertex = %v, want (10,11)", moved.Points[2])
	}
}

func TestParseShapeKind(t *testing.T) {
	for in, want := range map[string]ShapeKind{
		"circle": ShapeCircle, "Rect": ShapeRectangle, " ring ": ShapeRing, "POLYGON": ShapePolygon, "polyline": ShapePolyline,
	} {
		got, err := ParseShapeKind(in)
		if err != nil || got != want {
			t.Errorf("ParseShapeKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseShapeKind("hexagon"); err == nil {
		t.Error("expected error for unknown shape")
	}
}

func TestOutline(t *testing.T) {
	if got := len(Circle(Pt(0, 0), 1).Outline().Vertices); got != 32 {
		t.Errorf("circle outline vertices = %d, want 32", got)
	}
	if got := Rect(Pt(0, 0), Pt(4, 2)).Outline().Area(); !approxEqual(got, 8, tolerance) {
		t.Errorf("rect outline area = %v, want 8", got)
	}
	if !PolylineShape(Pt(0, 0), Pt(1, 1)).Outline().IsEmpty() {
		t.Error("polyline outline should be empty")
	}
}
