package trackfile

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/GruiaChiscop/top-speed/pkg/geo"
	"github.com/GruiaChiscop/top-speed/pkg/geometry"
	"github.com/GruiaChiscop/top-speed/pkg/track"
)

// Write serializes a layout. Values equal to their defaults are omitted, so
// the output parses back to an equivalent layout and rewriting it is stable.
func Write(w io.Writer, l *track.Layout) error {
	_, err := w.Write(Format(l))
	return err
}

// Format returns the serialized form of a layout.
func Format(l *track.Layout) []byte {
	var wr writer
	wr.meta(l.Meta)
	wr.environment(l.Environment)
	if l.Graph != nil {
		wr.nodes(l.Graph)
		wr.edges(l.Graph)
		wr.routes(l.Graph)
		for _, e := range l.Graph.Edges() {
			wr.edgeBlocks(l.Environment, &e)
		}
	}
	return wr.buf.Bytes()
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func isZero(v float64) bool {
	s := ff(v)
	return s == "0.000" || s == "-0.000"
}

type writer struct {
	buf   bytes.Buffer
	lines []string
}

func (w *writer) add(format string, args ...any) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func (w *writer) prop(key, value string) {
	w.add("%s=%s", key, quote(value))
}

// flush emits the collected lines under a header, or nothing when empty.
func (w *writer) flush(header string) {
	if len(w.lines) == 0 {
		return
	}
	if w.buf.Len() > 0 {
		w.buf.WriteByte('\n')
	}
	fmt.Fprintf(&w.buf, "[%s]\n", header)
	for _, ln := range w.lines {
		w.buf.WriteString(ln)
		w.buf.WriteByte('\n')
	}
	w.lines = w.lines[:0]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (w *writer) pairs(m map[string]string) []string {
	var out []string
	for _, k := range sortedKeys(m) {
		out = append(out, k+"="+quote(m[k]))
	}
	return out
}

func (w *writer) meta(m track.Meta) {
	if m.Name != "" {
		w.prop("name", m.Name)
	}
	if m.Author != "" {
		w.prop("author", m.Author)
	}
	if m.Version != "" {
		w.prop("version", m.Version)
	}
	if len(m.Tags) > 0 {
		w.prop("tags", strings.Join(m.Tags, ", "))
	}
	if m.Description != "" {
		w.prop("description", m.Description)
	}
	for _, k := range sortedKeys(m.Extra) {
		w.prop(k, m.Extra[k])
	}
	w.flush("meta")
}

func (w *writer) environment(env track.Environment) {
	def := track.DefaultEnvironment()
	if env.Weather != def.Weather {
		w.prop("weather", env.Weather.String())
	}
	if env.Ambience != def.Ambience {
		w.prop("ambience", env.Ambience.String())
	}
	if env.DefaultSurface != def.DefaultSurface {
		w.prop("default_surface", env.DefaultSurface.String())
	}
	if env.DefaultNoise != def.DefaultNoise {
		w.prop("default_noise", env.DefaultNoise.String())
	}
	if ff(env.DefaultWidth) != ff(def.DefaultWidth) {
		w.prop("default_width", ff(env.DefaultWidth))
	}
	if ff(env.SampleSpacing) != ff(def.SampleSpacing) {
		w.prop("sample_spacing", ff(env.SampleSpacing))
	}
	if env.EnforceClosure {
		w.prop("enforce_closure", "true")
	}
	if env.PrimaryRoute != "" {
		w.prop("primary_route", env.PrimaryRoute)
	}
	w.flush("environment")
}

// nodes writes every node with attributes, plus bare nodes that no edge
// mentions, since those would not be recreated on parse.
func (w *writer) nodes(g *track.Graph) {
	used := make(map[string]bool)
	for _, e := range g.Edges() {
		used[e.From], used[e.To] = true, true
	}
	for _, n := range g.Nodes() {
		if n.Name == "" && n.ShortName == "" && n.Area == nil && len(n.Metadata) == 0 && used[n.ID] {
			continue
		}
		parts := []string{"id=" + quote(n.ID)}
		if n.Name != "" {
			parts = append(parts, "name="+quote(n.Name))
		}
		if n.ShortName != "" {
			parts = append(parts, "short_name="+quote(n.ShortName))
		}
		if n.Area != nil {
			parts = append(parts, areaPairs(*n.Area)...)
		}
		parts = append(parts, w.pairs(n.Metadata)...)
		w.add("%s", strings.Join(parts, " "))
	}
	w.flush("nodes")
}

func areaPairs(s geo.Shape) []string {
	parts := []string{"area=" + s.Kind.String()}
	at := func(p geo.Point2D) {
		if !isZero(p.X) {
			parts = append(parts, "x="+ff(p.X))
		}
		if !isZero(p.Z) {
			parts = append(parts, "z="+ff(p.Z))
		}
	}
	switch s.Kind {
	case geo.ShapeCircle:
		at(s.Center)
		parts = append(parts, "radius="+ff(s.Radius))
	case geo.ShapeRectangle:
		at(s.Min)
		parts = append(parts, "area_width="+ff(s.Size.X), "area_height="+ff(s.Size.Z))
	case geo.ShapeRing:
		if s.RingOf == geo.ShapeCircle {
			at(s.Center)
			parts = append(parts, "radius="+ff(s.Radius))
		} else {
			at(s.Min)
			parts = append(parts, "area_width="+ff(s.Size.X), "area_height="+ff(s.Size.Z))
		}
		parts = append(parts, "ring_width="+ff(s.RingWidth))
	case geo.ShapePolygon, geo.ShapePolyline:
		pts := make([]string, len(s.Points))
		for i, p := range s.Points {
			pts[i] = ff(p.X) + "," + ff(p.Z)
		}
		parts = append(parts, "points="+quote(strings.Join(pts, " ")))
	}
	return parts
}

func (w *writer) edges(g *track.Graph) {
	for _, e := range g.Edges() {
		parts := []string{"id=" + quote(e.ID), "from=" + quote(e.From), "to=" + quote(e.To)}
		if e.Turn != track.TurnNone {
			parts = append(parts, "turn="+e.Turn.String())
		}
		if len(e.ConnectorFrom) > 0 {
			parts = append(parts, "connector_from="+quote(strings.Join(e.ConnectorFrom, ",")))
		}
		w.add("%s", strings.Join(parts, " "))
	}
	w.flush("edges")
}

// isFallbackRoute reports whether the graph's only route is the one the
// parser would synthesize anyway.
func isFallbackRoute(g *track.Graph) bool {
	routes := g.Routes()
	if len(routes) != 1 || routes[0].ID != track.FallbackRouteID {
		return false
	}
	ids := make([]string, len(g.Edges()))
	for i, e := range g.Edges() {
		ids[i] = e.ID
	}
	return slices.Equal(ids, routes[0].Edges) && routes[0].IsLoop == g.InferLoop(ids)
}

func (w *writer) routes(g *track.Graph) {
	if isFallbackRoute(g) {
		return
	}
	for _, r := range g.Routes() {
		line := "id=" + quote(r.ID) + " edges=" + quote(strings.Join(r.Edges, ","))
		if r.IsLoop != g.InferLoop(r.Edges) {
			line += " is_loop=" + strconv.FormatBool(r.IsLoop)
		}
		w.add("%s", line)
	}
	w.flush("routes")
}

func (w *writer) edgeBlocks(env track.Environment, e *track.Edge) {
	def := env.EdgeDefaults()
	d := e.Profile.Defaults
	if d.Surface != def.Surface {
		w.prop("default_surface", d.Surface.String())
	}
	if d.Noise != def.Noise {
		w.prop("default_noise", d.Noise.String())
	}
	if ff(d.Width) != ff(def.Width) {
		w.prop("default_width", ff(d.Width))
	}
	if d.Weather != def.Weather {
		w.prop("weather", d.Weather.String())
	}
	if d.Ambience != def.Ambience {
		w.prop("ambience", d.Ambience.String())
	}
	if ff(e.Geometry.SampleSpacing) != ff(env.SampleSpacing) {
		w.prop("sample_spacing", ff(e.Geometry.SampleSpacing))
	}
	if e.Geometry.EnforceClosure != (env.EnforceClosure && e.From == e.To) {
		w.prop("enforce_closure", strconv.FormatBool(e.Geometry.EnforceClosure))
	}
	for _, k := range sortedKeys(e.Metadata) {
		w.prop(k, e.Metadata[k])
	}
	w.flush("edge " + e.ID)

	for _, s := range e.Geometry.Segments {
		w.add("%s", segmentLine(s))
	}
	w.flush("edge " + e.ID + ".geometry")

	p := e.Profile
	for _, z := range p.Widths {
		line := zoneHead(z.Start, z.End) + " " + ff(z.Value.Width)
		if !isZero(z.Value.ShoulderLeft) || !isZero(z.Value.ShoulderRight) {
			line += " " + ff(z.Value.ShoulderLeft) + " " + ff(z.Value.ShoulderRight)
		}
		w.add("%s", line)
	}
	w.flush("edge " + e.ID + ".width")

	writeEnumZones(w, e.ID, "surface", p.Surfaces)
	writeEnumZones(w, e.ID, "noise", p.Noises)

	for _, z := range p.SpeedLimits {
		w.add("%s %s", zoneHead(z.Start, z.End), ff(z.Value))
	}
	w.flush("edge " + e.ID + ".speed_limits")

	for _, m := range p.Markers {
		w.add("%s %s", quote(m.Name), ff(m.S))
	}
	w.flush("edge " + e.ID + ".markers")

	writeEnumZones(w, e.ID, "weather", p.Weathers)
	writeEnumZones(w, e.ID, "ambience", p.Ambiences)

	for _, z := range p.Hazards {
		line := zoneHead(z.Start, z.End) + " " + quote(z.Value.Kind)
		if !isZero(z.Value.Severity) {
			line += " " + ff(z.Value.Severity)
		}
		w.add("%s", line)
	}
	w.flush("edge " + e.ID + ".hazards")

	for _, z := range p.Checkpoints {
		line := zoneHead(z.Start, z.End) + " " + quote(z.Value.ID)
		if z.Value.Name != "" {
			line += " " + quote(z.Value.Name)
		}
		w.add("%s", line)
	}
	w.flush("edge " + e.ID + ".checkpoints")

	for _, z := range p.HitLanes {
		lanes := make([]string, len(z.Value))
		for i, n := range z.Value {
			lanes[i] = strconv.Itoa(n)
		}
		w.add("%s %s", zoneHead(z.Start, z.End), strings.Join(lanes, ","))
	}
	w.flush("edge " + e.ID + ".hit_lanes")

	if len(p.AllowedVehicles) > 0 {
		names := make([]string, len(p.AllowedVehicles))
		for i, v := range p.AllowedVehicles {
			names[i] = quote(v)
		}
		w.add("%s", strings.Join(names, " "))
	}
	w.flush("edge " + e.ID + ".allowed_vehicles")

	for _, z := range p.Emitters {
		line := zoneHead(z.Start, z.End) + " " + quote(z.Value.Sound)
		if !isZero(z.Value.Volume) {
			line += " volume=" + ff(z.Value.Volume)
		}
		if z.Value.Loop {
			line += " loop=true"
		}
		if z.Value.ID != "" {
			line += " id=" + quote(z.Value.ID)
		}
		w.add("%s", line)
	}
	w.flush("edge " + e.ID + ".emitters")

	for _, z := range p.Triggers {
		line := zoneHead(z.Start, z.End) + " " + quote(z.Value.ID) + " " + quote(z.Value.Action)
		if z.Value.Once {
			line += " once=true"
		}
		w.add("%s", line)
	}
	w.flush("edge " + e.ID + ".triggers")
}

func writeEnumZones[T fmt.Stringer](w *writer, id, kind string, zs track.ZoneSet[T]) {
	for _, z := range zs {
		w.add("%s %s", zoneHead(z.Start, z.End), z.Value.String())
	}
	w.flush("edge " + id + "." + kind)
}

func zoneHead(start, end float64) string {
	return ff(start) + " " + ff(end)
}

func segmentLine(s geometry.Segment) string {
	parts := []string{"kind=" + s.Kind.String(), "length=" + ff(s.Length)}
	switch s.Kind {
	case geometry.KindArc:
		parts = append(parts, "radius="+ff(s.Radius))
	case geometry.KindClothoid:
		parts = append(parts, "start="+ff(s.StartRadius), "end="+ff(s.EndRadius))
	}
	if s.Direction != geometry.DirStraight {
		parts = append(parts, "direction="+s.Direction.String())
	}
	if s.Severity != geometry.SeverityNone {
		parts = append(parts, "severity="+s.Severity.String())
	}
	for _, f := range []struct {
		key string
		v   float64
	}{
		{"elevation", s.Elevation},
		{"start_slope", s.StartSlope},
		{"end_slope", s.EndSlope},
		{"start_bank", s.StartBank},
		{"end_bank", s.EndBank},
	} {
		if !isZero(f.v) {
			parts = append(parts, f.key+"="+ff(f.v))
		}
	}
	return strings.Join(parts, " ")
}
