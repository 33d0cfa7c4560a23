package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

// ShapeKind identifies the geometric form of a Shape.
type ShapeKind int

const (
	ShapeNone ShapeKind = iota
	ShapeRectangle
	ShapeCircle
	ShapeRing
	ShapePolygon
	ShapePolyline
)

var shapeNames = map[ShapeKind]string{
	ShapeNone:      "none",
	ShapeRectangle: "rectangle",
	ShapeCircle:    "circle",
	ShapeRing:      "ring",
	ShapePolygon:   "polygon",
	ShapePolyline:  "polyline",
}

func (k ShapeKind) String() string {
	if s, ok := shapeNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ShapeKind(%d)", int(k))
}

func (k ShapeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ParseShapeKind resolves a shape name. "rect" is accepted for rectangle.
func ParseShapeKind(s string) (ShapeKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rectangle", "rect":
		return ShapeRectangle, nil
	case "circle":
		return ShapeCircle, nil
	case "ring":
		return ShapeRing, nil
	case "polygon":
		return ShapePolygon, nil
	case "polyline", "path":
		return ShapePolyline, nil
	}
	return ShapeNone, fmt.Errorf("unknown shape %q", s)
}

// Shape is an area or path on the ground plane.
//
// Rectangles use Min and Size. Circles use Center and Radius. A ring is the
// band of width RingWidth just inside an outer circle or rectangle, selected
// by RingOf. Polygons and polylines use Points.
type Shape struct {
	Kind      ShapeKind `json:"kind" yaml:"kind"`
	Min       Point2D   `json:"min,omitempty" yaml:"min,omitempty"`
	Size      Point2D   `json:"size,omitempty" yaml:"size,omitempty"`
	Center    Point2D   `json:"center,omitempty" yaml:"center,omitempty"`
	Radius    float64   `json:"radius,omitempty" yaml:"radius,omitempty"`
	RingOf    ShapeKind `json:"ring_of,omitempty" yaml:"ring_of,omitempty"`
	RingWidth float64   `json:"ring_width,omitempty" yaml:"ring_width,omitempty"`
	Points    []Point2D `json:"points,omitempty" yaml:"points,omitempty"`
}

// Rect returns an axis-aligned rectangle.
func Rect(min, size Point2D) Shape {
	return Shape{Kind: ShapeRectangle, Min: min, Size: size}
}

// Circle returns a circle.
func Circle(center Point2D, radius float64) Shape {
	return Shape{Kind: ShapeCircle, Center: center, Radius: radius}
}

// CircleRing returns the annulus between radius-width and radius.
func CircleRing(center Point2D, radius, width float64) Shape {
	return Shape{Kind: ShapeRing, RingOf: ShapeCircle, Center: center, Radius: radius, RingWidth: width}
}

// RectRing returns the rectangular frame of the given width inside a rectangle.
func RectRing(min, size Point2D, width float64) Shape {
	return Shape{Kind: ShapeRing, RingOf: ShapeRectangle, Min: min, Size: size, RingWidth: width}
}

// PolygonShape returns a closed polygon.
func PolygonShape(pts ...Point2D) Shape {
	return Shape{Kind: ShapePolygon, Points: pts}
}

// PolylineShape returns an open path; containment uses the query width.
func PolylineShape(pts ...Point2D) Shape {
	return Shape{Kind: ShapePolyline, Points: pts}
}

// Contains reports whether p lies in s. Width is only used by polylines,
// where p must lie within width/2 of some segment.
func Contains(s Shape, p Point2D, width float64) bool {
	switch s.Kind {
	case ShapeRectangle:
		return rectBound(s.Min, s.Size).Contains(p.Orb())
	case ShapeCircle:
		return circleContains(s.Center, s.Radius, p)
	case ShapeRing:
		return ringContains(s, p)
	case ShapePolygon:
		return Polygon{Vertices: s.Points}.Contains(p)
	case ShapePolyline:
		if !(width > 0) || math.IsInf(width, 1) {
			return false
		}
		return Polyline{Points: s.Points}.WithinDistance(p, width/2)
	}
	return false
}

// Contains is the method form of Contains.
func (s Shape) Contains(p Point2D, width float64) bool {
	return Contains(s, p, width)
}

func circleContains(center Point2D, radius float64, p Point2D) bool {
	if !(radius >= 0) {
		return false
	}
	return p.DistanceSq(center) <= radius*radius
}

func ringContains(s Shape, p Point2D) bool {
	w := s.RingWidth
	if !(w > 0) || math.IsInf(w, 1) {
		return false
	}
	switch s.RingOf {
	case ShapeCircle:
		if !circleContains(s.Center, s.Radius, p) {
			return false
		}
		inner := s.Radius - w
		if inner <= 0 {
			return true
		}
		return p.DistanceSq(s.Center) > inner*inner
	case ShapeRectangle:
		outer := rectBound(s.Min, s.Size)
		if !outer.Contains(p.Orb()) {
			return false
		}
		if 2*w >= outer.Right()-outer.Left() || 2*w >= outer.Top()-outer.Bottom() {
			return true
		}
		inner := orb.Bound{
			Min: orb.Point{outer.Min[0] + w, outer.Min[1] + w},
			Max: orb.Point{outer.Max[0] - w, outer.Max[1] - w},
		}
		pt := p.Orb()
		return !(pt[0] > inner.Min[0] && pt[0] < inner.Max[0] && pt[1] > inner.Min[1] && pt[1] < inner.Max[1])
	}
	return false
}

func rectBound(min, size Point2D) orb.Bound {
	a := min.Orb()
	return orb.Bound{Min: a, Max: a}.Extend(min.Add(size).Orb())
}

// Bounds returns the axis-aligned bounding box of the shape.
func (s Shape) Bounds() orb.Bound {
	switch s.Kind {
	case ShapeRectangle:
		return rectBound(s.Min, s.Size)
	case ShapeCircle:
		return orb.Bound{Min: s.Center.Orb(), Max: s.Center.Orb()}.Pad(s.Radius)
	case ShapeRing:
		if s.RingOf == ShapeCircle {
			return orb.Bound{Min: s.Center.Orb(), Max: s.Center.Orb()}.Pad(s.Radius)
		}
		return rectBound(s.Min, s.Size)
	case ShapePolygon, ShapePolyline:
		return boundOf(s.Points)
	}
	return orb.Bound{}
}

// Width returns the shape-derived width: the X extent of its bounds.
func (s Shape) Width() float64 {
	b := s.Bounds()
	return b.Right() - b.Left()
}

// Translate returns a copy of s moved by offset.
func (s Shape) Translate(offset Point2D) Shape {
	out := s
	out.Min = s.Min.Add(offset)
	out.Center = s.Center.Add(offset)
	if len(s.Points) > 0 {
		out.Points = make([]Point2D, len(s.Points))
		for i, p := range s.Points {
			out.Points[i] = p.Add(offset)
		}
	}
	return out
}

// Outline returns a polygon tracing the outer boundary of an area shape.
// Polylines have no outline.
func (s Shape) Outline() Polygon {
	switch s.Kind {
	case ShapeCircle:
		return ApproximateCircle(s.Center, s.Radius, 32)
	case ShapeRing:
		if s.RingOf == ShapeCircle {
			return ApproximateCircle(s.Center, s.Radius, 32)
		}
		fallthrough
	case ShapeRectangle:
		b := rectBound(s.Min, s.Size)
		return NewPolygon(
			Pt(b.Left(), b.Bottom()), Pt(b.Right(), b.Bottom()),
			Pt(b.Right(), b.Top()), Pt(b.Left(), b.Top()),
		)
	case ShapePolygon:
		return NewPolygon(s.Points...)
	}
	return Polygon{}
}
