package trackfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GruiaChiscop/top-speed/pkg/geo"
	"github.com/GruiaChiscop/top-speed/pkg/track"
)

type nodeBuilder struct {
	node track.Node
}

// areaKeys are the node keys that describe the intersection area rather
// than free-form metadata.
var areaKeys = map[string]bool{
	"area": true, "shape": true, "x": true, "z": true, "radius": true,
	"area_width": true, "area_height": true, "ring_width": true, "points": true,
}

func parseNode(id string, f *fields) (*nodeBuilder, error) {
	n := track.Node{ID: id}
	n.Name, _ = f.get(1, "name")
	n.ShortName, _ = f.get(-1, "short_name", "short")

	if kind, ok := f.get(-1, "area", "shape"); ok {
		area, err := parseArea(kind, f)
		if err != nil {
			return nil, err
		}
		n.Area = &area
	}

	for _, k := range f.extra() {
		if areaKeys[k] {
			if n.Area == nil {
				return nil, fmt.Errorf("%s given without area", k)
			}
			return nil, fmt.Errorf("%s does not apply to a %s area", k, n.Area.Kind)
		}
		if n.Metadata == nil {
			n.Metadata = make(map[string]string)
		}
		n.Metadata[k] = f.named[k]
	}
	return &nodeBuilder{node: n}, nil
}

func parseArea(kindName string, f *fields) (geo.Shape, error) {
	kind, err := geo.ParseShapeKind(kindName)
	if err != nil {
		return geo.Shape{}, err
	}

	num := func(key string, required bool) (float64, error) {
		v, ok, err := f.float(-1, key)
		if err != nil {
			return 0, err
		}
		if required && (!ok || !(v > 0)) {
			return 0, fmt.Errorf("%s area needs a positive %s", kind, key)
		}
		return v, nil
	}
	x, err := num("x", false)
	if err != nil {
		return geo.Shape{}, err
	}
	z, err := num("z", false)
	if err != nil {
		return geo.Shape{}, err
	}
	origin := geo.Pt(x, z)

	switch kind {
	case geo.ShapeCircle:
		r, err := num("radius", true)
		if err != nil {
			return geo.Shape{}, err
		}
		return geo.Circle(origin, r), nil

	case geo.ShapeRectangle:
		w, err := num("area_width", true)
		if err != nil {
			return geo.Shape{}, err
		}
		h, err := num("area_height", true)
		if err != nil {
			return geo.Shape{}, err
		}
		return geo.Rect(origin, geo.Pt(w, h)), nil

	case geo.ShapeRing:
		rw, err := num("ring_width", true)
		if err != nil {
			return geo.Shape{}, err
		}
		if _, ok := f.named["radius"]; ok {
			r, err := num("radius", true)
			if err != nil {
				return geo.Shape{}, err
			}
			return geo.CircleRing(origin, r, rw), nil
		}
		w, err := num("area_width", true)
		if err != nil {
			return geo.Shape{}, err
		}
		h, err := num("area_height", true)
		if err != nil {
			return geo.Shape{}, err
		}
		return geo.RectRing(origin, geo.Pt(w, h), rw), nil

	case geo.ShapePolygon, geo.ShapePolyline:
		s, _ := f.get(-1, "points")
		pts, err := parsePoints(s)
		if err != nil {
			return geo.Shape{}, err
		}
		if kind == geo.ShapePolygon {
			if len(pts) < 3 {
				return geo.Shape{}, fmt.Errorf("polygon area needs at least 3 points, got %d", len(pts))
			}
			return geo.PolygonShape(pts...), nil
		}
		if len(pts) < 2 {
			return geo.Shape{}, fmt.Errorf("polyline area needs at least 2 points, got %d", len(pts))
		}
		return geo.PolylineShape(pts...), nil
	}
	return geo.Shape{}, fmt.Errorf("unsupported area %q", kindName)
}

// parsePoints reads "x,z" pairs separated by whitespace or '|'.
func parsePoints(s string) ([]geo.Point2D, error) {
	var pts []geo.Point2D
	for _, pair := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '|' }) {
		xs, zs, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("invalid point %q, want x,z", pair)
		}
		x, err1 := strconv.ParseFloat(xs, 64)
		z, err2 := strconv.ParseFloat(zs, 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("invalid point %q, want x,z", pair)
		}
		pts = append(pts, geo.Pt(x, z))
	}
	return pts, nil
}
