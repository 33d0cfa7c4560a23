package trackfile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/GruiaChiscop/top-speed/pkg/geometry"
	"github.com/GruiaChiscop/top-speed/pkg/track"
)

// errReported marks a builder whose problems were already recorded against
// their own lines.
var errReported = errors.New("already reported")

// edgeBuilder collects everything declared about one edge across sections.
type edgeBuilder struct {
	id       string
	line     int
	declared bool

	from, to      string
	turn          track.TurnDirection
	connectorFrom []string
	metadata      map[string]string

	surface  *track.Surface
	noise    *track.Noise
	width    *float64
	weather  *track.Weather
	ambience *track.Ambience

	segments    []geometry.Segment
	spacing     *float64
	closure     *bool
	badGeometry bool

	profile track.Profile
}

func newEdgeBuilder(id string, line int) *edgeBuilder {
	return &edgeBuilder{id: id, line: line}
}

func (e *edgeBuilder) property(key, value string) error {
	switch key {
	case "from":
		e.from = value
	case "to":
		e.to = value
	case "turn", "turn_direction":
		t, err := track.ParseTurnDirection(value)
		if err != nil {
			return err
		}
		e.turn = t
	case "connector_from", "connectors":
		e.connectorFrom = splitList(value)
	case "default_surface", "surface":
		v, err := track.ParseSurface(value)
		if err != nil {
			return err
		}
		e.surface = &v
	case "default_noise", "noise":
		v, err := track.ParseNoise(value)
		if err != nil {
			return err
		}
		e.noise = &v
	case "default_width", "width":
		v, err := parseWidth(value)
		if err != nil {
			return err
		}
		e.width = &v
	case "weather":
		v, err := track.ParseWeather(value)
		if err != nil {
			return err
		}
		e.weather = &v
	case "ambience":
		v, err := track.ParseAmbience(value)
		if err != nil {
			return err
		}
		e.ambience = &v
	case "sample_spacing", "spacing":
		v, err := parsePositive("sample_spacing", value)
		if err != nil {
			return err
		}
		e.spacing = &v
	case "enforce_closure", "closure":
		v, err := parseBool(value)
		if err != nil {
			return err
		}
		e.closure = &v
	default:
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
	return nil
}

// build freezes the edge against the track environment.
func (e *edgeBuilder) build(env track.Environment) (track.Edge, error) {
	switch {
	case !e.declared:
		return track.Edge{}, fmt.Errorf("edge %q is not declared in [edges]", e.id)
	case e.from == "":
		return track.Edge{}, fmt.Errorf("edge %q is missing from", e.id)
	case e.to == "":
		return track.Edge{}, fmt.Errorf("edge %q is missing to", e.id)
	case e.badGeometry:
		return track.Edge{}, errReported
	case len(e.segments) == 0:
		return track.Edge{}, fmt.Errorf("edge %q has no geometry", e.id)
	}

	spec := geometry.Spec{
		Segments:       e.segments,
		SampleSpacing:  env.SampleSpacing,
		EnforceClosure: env.EnforceClosure && e.from == e.to,
	}
	if e.spacing != nil {
		spec.SampleSpacing = *e.spacing
	}
	if e.closure != nil {
		spec.EnforceClosure = *e.closure
	}
	if _, err := geometry.Build(spec); err != nil {
		return track.Edge{}, fmt.Errorf("edge %q: %v", e.id, err)
	}

	profile := e.profile
	profile.Defaults = env.EdgeDefaults()
	if e.surface != nil {
		profile.Defaults.Surface = *e.surface
	}
	if e.noise != nil {
		profile.Defaults.Noise = *e.noise
	}
	if e.width != nil {
		profile.Defaults.Width = *e.width
	}
	if e.weather != nil {
		profile.Defaults.Weather = *e.weather
	}
	if e.ambience != nil {
		profile.Defaults.Ambience = *e.ambience
	}

	return track.Edge{
		ID:            e.id,
		From:          e.from,
		To:            e.to,
		Geometry:      spec,
		Profile:       profile,
		Turn:          e.turn,
		ConnectorFrom: e.connectorFrom,
		Metadata:      e.metadata,
	}, nil
}

// recordHandlers parse one line of an [edge <id>.<kind>] section.
var recordHandlers = map[string]func(*edgeBuilder, *fields) error{
	"geometry":         geometryRecord,
	"width":            widthRecord,
	"surface":          enumRecord(track.ParseSurface, func(p *track.Profile) *track.ZoneSet[track.Surface] { return &p.Surfaces }),
	"noise":            enumRecord(track.ParseNoise, func(p *track.Profile) *track.ZoneSet[track.Noise] { return &p.Noises }),
	"weather":          enumRecord(track.ParseWeather, func(p *track.Profile) *track.ZoneSet[track.Weather] { return &p.Weathers }),
	"ambience":         enumRecord(track.ParseAmbience, func(p *track.Profile) *track.ZoneSet[track.Ambience] { return &p.Ambiences }),
	"speed_limits":     speedLimitRecord,
	"markers":          markerRecord,
	"hazards":          hazardRecord,
	"checkpoints":      checkpointRecord,
	"hit_lanes":        hitLaneRecord,
	"allowed_vehicles": allowedVehiclesRecord,
	"emitters":         emitterRecord,
	"triggers":         triggerRecord,
}

func geometryRecord(e *edgeBuilder, f *fields) error {
	kindName, ok := f.get(0, "kind", "type")
	if !ok {
		return geometryOptions(e, f)
	}
	kind, err := geometry.ParseKind(kindName)
	if err != nil {
		return err
	}
	seg := geometry.Segment{Kind: kind}
	if seg.Length, err = f.require(1, "length", "len"); err != nil {
		return err
	}

	dirPos, sevPos := -1, -1
	switch kind {
	case geometry.KindArc:
		if seg.Radius, err = f.require(2, "radius"); err != nil {
			return err
		}
		dirPos, sevPos = 3, 4
	case geometry.KindClothoid:
		if seg.StartRadius, _, err = f.float(2, "start", "start_radius"); err != nil {
			return err
		}
		if seg.EndRadius, _, err = f.float(3, "end", "end_radius"); err != nil {
			return err
		}
		dirPos, sevPos = 4, 5
	}
	if v, ok := f.get(dirPos, "direction", "dir"); ok {
		if seg.Direction, err = geometry.ParseDirection(v); err != nil {
			return err
		}
	}
	if v, ok := f.get(sevPos, "severity"); ok {
		if seg.Severity, err = geometry.ParseSeverity(v); err != nil {
			return err
		}
	}

	for _, p := range []struct {
		keys []string
		dst  []*float64
	}{
		{[]string{"elevation", "rise"}, []*float64{&seg.Elevation}},
		{[]string{"slope"}, []*float64{&seg.StartSlope, &seg.EndSlope}},
		{[]string{"start_slope"}, []*float64{&seg.StartSlope}},
		{[]string{"end_slope"}, []*float64{&seg.EndSlope}},
		{[]string{"bank"}, []*float64{&seg.StartBank, &seg.EndBank}},
		{[]string{"start_bank"}, []*float64{&seg.StartBank}},
		{[]string{"end_bank"}, []*float64{&seg.EndBank}},
	} {
		v, ok, err := f.float(-1, p.keys...)
		if err != nil {
			return err
		}
		if ok {
			for _, d := range p.dst {
				*d = v
			}
		}
	}

	if err := seg.Validate(); err != nil {
		return err
	}
	e.segments = append(e.segments, seg)
	return nil
}

// geometryOptions handles a geometry line without a segment kind.
func geometryOptions(e *edgeBuilder, f *fields) error {
	set := false
	if v, ok := f.get(-1, "sample_spacing", "spacing"); ok {
		s, err := parsePositive("sample_spacing", v)
		if err != nil {
			return err
		}
		e.spacing, set = &s, true
	}
	if v, ok := f.get(-1, "enforce_closure", "closure"); ok {
		b, err := parseBool(v)
		if err != nil {
			return err
		}
		e.closure, set = &b, true
	}
	if !set {
		return errors.New("geometry line needs a kind")
	}
	return nil
}

// span reads the [start, end) bounds from the first two columns.
func span(f *fields) (start, end float64, err error) {
	if start, err = f.require(0, "start", "from"); err != nil {
		return 0, 0, err
	}
	if end, err = f.require(1, "end", "to"); err != nil {
		return 0, 0, err
	}
	if !(start >= 0) || math.IsInf(start, 1) {
		return 0, 0, fmt.Errorf("zone start %v must be a non-negative distance", start)
	}
	if !(end > start) {
		return 0, 0, fmt.Errorf("zone end %v must be greater than start %v", end, start)
	}
	return start, end, nil
}

func widthRecord(e *edgeBuilder, f *fields) error {
	start, end, err := span(f)
	if err != nil {
		return err
	}
	var w track.WidthSpec
	v, ok := f.get(2, "width")
	if !ok {
		return errors.New("missing width")
	}
	if w.Width, err = parseWidth(v); err != nil {
		return err
	}
	for _, s := range []struct {
		pos  int
		keys []string
		dst  *float64
	}{
		{3, []string{"shoulder_left", "sl"}, &w.ShoulderLeft},
		{4, []string{"shoulder_right", "sr"}, &w.ShoulderRight},
	} {
		v, _, err := f.float(s.pos, s.keys...)
		if err != nil {
			return err
		}
		if !(v >= 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%s %v must be a non-negative width", s.keys[0], v)
		}
		*s.dst = v
	}
	e.profile.Widths = append(e.profile.Widths, track.Zone[track.WidthSpec]{Start: start, End: end, Value: w})
	return nil
}

func enumRecord[T any](parse func(string) (T, error), zones func(*track.Profile) *track.ZoneSet[T]) func(*edgeBuilder, *fields) error {
	return func(e *edgeBuilder, f *fields) error {
		start, end, err := span(f)
		if err != nil {
			return err
		}
		name, ok := f.get(2, "value", "type")
		if !ok {
			return errors.New("missing value")
		}
		v, err := parse(name)
		if err != nil {
			return err
		}
		zs := zones(&e.profile)
		*zs = append(*zs, track.Zone[T]{Start: start, End: end, Value: v})
		return nil
	}
}

func speedLimitRecord(e *edgeBuilder, f *fields) error {
	start, end, err := span(f)
	if err != nil {
		return err
	}
	kph, err := f.require(2, "kph", "limit", "speed")
	if err != nil {
		return err
	}
	if math.IsNaN(kph) || math.IsInf(kph, 0) {
		return fmt.Errorf("speed limit %v must be finite", kph)
	}
	e.profile.SpeedLimits = append(e.profile.SpeedLimits, track.Zone[float64]{Start: start, End: end, Value: kph})
	return nil
}

func markerRecord(e *edgeBuilder, f *fields) error {
	name, ok := f.get(0, "name")
	if !ok || name == "" {
		return errors.New("marker is missing a name")
	}
	s, err := f.require(1, "s", "at", "position")
	if err != nil {
		return err
	}
	if !(s >= 0) || math.IsInf(s, 0) {
		return fmt.Errorf("marker position %v must be a non-negative distance", s)
	}
	e.profile.Markers = append(e.profile.Markers, track.Marker{Name: name, S: s})
	return nil
}

func hazardRecord(e *edgeBuilder, f *fields) error {
	start, end, err := span(f)
	if err != nil {
		return err
	}
	var h track.Hazard
	if h.Kind, err = f.text(2, "kind", "type"); err != nil {
		return err
	}
	if h.Severity, _, err = f.float(3, "severity"); err != nil {
		return err
	}
	e.profile.Hazards = append(e.profile.Hazards, track.Zone[track.Hazard]{Start: start, End: end, Value: h})
	return nil
}

func checkpointRecord(e *edgeBuilder, f *fields) error {
	start, end, err := span(f)
	if err != nil {
		return err
	}
	var cp track.Checkpoint
	if cp.ID, err = f.text(2, "id"); err != nil {
		return err
	}
	cp.Name, _ = f.get(3, "name")
	e.profile.Checkpoints = append(e.profile.Checkpoints, track.Zone[track.Checkpoint]{Start: start, End: end, Value: cp})
	return nil
}

func hitLaneRecord(e *edgeBuilder, f *fields) error {
	start, end, err := span(f)
	if err != nil {
		return err
	}
	list, err := f.text(2, "lanes")
	if err != nil {
		return err
	}
	var lanes track.HitLanes
	for _, s := range splitList(list) {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid lane %q", s)
		}
		lanes = append(lanes, n)
	}
	if len(lanes) == 0 {
		return errors.New("missing lanes")
	}
	e.profile.HitLanes = append(e.profile.HitLanes, track.Zone[track.HitLanes]{Start: start, End: end, Value: lanes})
	return nil
}

func allowedVehiclesRecord(e *edgeBuilder, f *fields) error {
	if v, ok := f.get(-1, "vehicles"); ok {
		e.profile.AllowedVehicles = append(e.profile.AllowedVehicles, splitList(v)...)
	}
	for _, v := range f.positional() {
		e.profile.AllowedVehicles = append(e.profile.AllowedVehicles, splitList(v)...)
	}
	return nil
}

func emitterRecord(e *edgeBuilder, f *fields) error {
	start, end, err := span(f)
	if err != nil {
		return err
	}
	var em track.Emitter
	if em.Sound, err = f.text(2, "sound"); err != nil {
		return err
	}
	if em.Volume, _, err = f.float(3, "volume"); err != nil {
		return err
	}
	if v, ok := f.get(4, "loop"); ok {
		if em.Loop, err = parseBool(v); err != nil {
			return err
		}
	}
	em.ID, _ = f.get(-1, "id")
	e.profile.Emitters = append(e.profile.Emitters, track.Zone[track.Emitter]{Start: start, End: end, Value: em})
	return nil
}

func triggerRecord(e *edgeBuilder, f *fields) error {
	start, end, err := span(f)
	if err != nil {
		return err
	}
	var t track.Trigger
	if t.ID, err = f.text(2, "id"); err != nil {
		return err
	}
	if t.Action, err = f.text(3, "action"); err != nil {
		return err
	}
	if v, ok := f.get(4, "once"); ok {
		if t.Once, err = parseBool(v); err != nil {
			return err
		}
	}
	e.profile.Triggers = append(e.profile.Triggers, track.Zone[track.Trigger]{Start: start, End: end, Value: t})
	return nil
}

// float reads an optional number.
func (f *fields) float(pos int, keys ...string) (float64, bool, error) {
	s, ok := f.get(pos, keys...)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, true, fmt.Errorf("invalid %s %q", keys[0], s)
	}
	return v, true, nil
}

// require reads a mandatory number.
func (f *fields) require(pos int, keys ...string) (float64, error) {
	v, ok, err := f.float(pos, keys...)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("missing %s", keys[0])
	}
	return v, nil
}

// text reads a mandatory non-empty string.
func (f *fields) text(pos int, keys ...string) (string, error) {
	s, ok := f.get(pos, keys...)
	if !ok || s == "" {
		return "", fmt.Errorf("missing %s", keys[0])
	}
	return s, nil
}

func parseWidth(s string) (float64, error) {
	return parsePositive("width", s)
}

func parsePositive(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !(v > 0) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s %q must be a positive number", name, s)
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}
