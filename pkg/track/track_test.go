package track

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GruiaChiscop/top-speed/pkg/geo"
	"github.com/GruiaChiscop/top-speed/pkg/geometry"
)

func straightSpec(length float64) geometry.Spec {
	return geometry.Spec{Segments: []geometry.Segment{geometry.Straight(length)}}
}

func testEdge(id, from, to string, length float64) Edge {
	return Edge{
		ID:       id,
		From:     from,
		To:       to,
		Geometry: straightSpec(length),
		Profile:  Profile{Defaults: DefaultEnvironment().EdgeDefaults()},
	}
}

func TestZoneHalfOpenBoundary(t *testing.T) {
	e := testEdge("e", "a", "b", 100)
	e.Profile.Widths = ZoneSet[WidthSpec]{
		{Start: 0, End: 50, Value: WidthSpec{Width: 8}},
		{Start: 50, End: 100, Value: WidthSpec{Width: 14}},
	}
	g, err := NewGraph(nil, []Edge{e}, nil, "")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	edge, _ := g.Edge("e")

	if got := edge.WidthAt(49.9); got != 8 {
		t.Errorf("WidthAt(49.9) = %v, want 8", got)
	}
	if got := edge.WidthAt(50); got != 14 {
		t.Errorf("WidthAt(50) = %v, want 14", got)
	}
	if got := edge.WidthAt(100); got != DefaultWidth {
		t.Errorf("WidthAt(100) = %v, want default %v", got, DefaultWidth)
	}
}

func TestZoneLastMatchWins(t *testing.T) {
	zs := ZoneSet[Surface]{
		{Start: 0, End: 100, Value: SurfaceGravel},
		{Start: 20, End: 40, Value: SurfaceSand},
	}.Sorted()

	tests := []struct {
		s    float64
		want Surface
	}{
		{10, SurfaceGravel},
		{20, SurfaceSand},
		{39.99, SurfaceSand},
		{40, SurfaceGravel},
		{100, SurfaceAsphalt},
		{-1, SurfaceAsphalt},
	}
	for _, tt := range tests {
		if got := zs.At(tt.s, SurfaceAsphalt); got != tt.want {
			t.Errorf("At(%v) = %s, want %s", tt.s, got, tt.want)
		}
	}
}

func TestZoneSortedIsStable(t *testing.T) {
	zs := ZoneSet[string]{
		{Start: 30, End: 40, Value: "late"},
		{Start: 0, End: 10, Value: "first"},
		{Start: 0, End: 10, Value: "second"},
	}
	got := zs.Sorted()
	want := ZoneSet[string]{
		{Start: 0, End: 10, Value: "first"},
		{Start: 0, End: 10, Value: "second"},
		{Start: 30, End: 40, Value: "late"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sorted mismatch (-want +got):\n%s", diff)
	}
	if zs[0].Value != "late" {
		t.Error("Sorted modified its receiver")
	}
	if v := got.At(5, ""); v != "second" {
		t.Errorf("At(5) = %q, want later declaration to win", v)
	}
}

func TestZoneAll(t *testing.T) {
	zs := ZoneSet[Hazard]{
		{Start: 0, End: 50, Value: Hazard{Kind: "rocks"}},
		{Start: 10, End: 20, Value: Hazard{Kind: "oil"}},
		{Start: 60, End: 70, Value: Hazard{Kind: "cows"}},
	}
	got := zs.All(15)
	want := []Hazard{{Kind: "rocks"}, {Kind: "oil"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("All(15) mismatch (-want +got):\n%s", diff)
	}
	if got := zs.All(55); len(got) != 0 {
		t.Errorf("All(55) = %v, want none", got)
	}
}

func TestEdgeProfileQueries(t *testing.T) {
	e := testEdge("e", "a", "b", 200)
	e.Profile.SpeedLimits = ZoneSet[float64]{{Start: 100, End: 200, Value: 80}}
	e.Profile.Checkpoints = ZoneSet[Checkpoint]{{Start: 190, End: 200, Value: Checkpoint{ID: "cp1"}}}
	e.Profile.Markers = []Marker{{Name: "bridge", S: 120}, {Name: "tunnel", S: 40}}
	e.Profile.Weathers = ZoneSet[Weather]{{Start: 0, End: 10, Value: WeatherFog}}
	e.Profile.AllowedVehicles = []string{"truck"}

	g, err := NewGraph(nil, []Edge{e}, nil, "")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	edge, _ := g.Edge("e")

	if _, ok := edge.SpeedLimitAt(50); ok {
		t.Error("SpeedLimitAt(50) should have no limit")
	}
	if v, ok := edge.SpeedLimitAt(150); !ok || v != 80 {
		t.Errorf("SpeedLimitAt(150) = %v, %v; want 80, true", v, ok)
	}
	if cp, ok := edge.CheckpointAt(195); !ok || cp.ID != "cp1" {
		t.Errorf("CheckpointAt(195) = %+v, %v", cp, ok)
	}
	if got := edge.WeatherAt(5); got != WeatherFog {
		t.Errorf("WeatherAt(5) = %s, want fog", got)
	}
	if got := edge.WeatherAt(50); got != WeatherSunny {
		t.Errorf("WeatherAt(50) = %s, want sunny", got)
	}
	markers := edge.MarkersBetween(0, 200)
	if len(markers) != 2 || markers[0].Name != "tunnel" {
		t.Errorf("MarkersBetween = %+v, want tunnel first", markers)
	}
	if edge.AllowsVehicle("car") || !edge.AllowsVehicle("truck") {
		t.Error("AllowsVehicle does not honor the allow list")
	}
}

func TestNewGraphCreatesNodesAndFallbackRoute(t *testing.T) {
	edges := []Edge{
		testEdge("e1", "a", "b", 100),
		testEdge("e2", "b", "a", 50),
	}
	g, err := NewGraph([]Node{{ID: "a", Name: "Start"}}, edges, nil, "")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}

	if len(g.Nodes()) != 2 {
		t.Fatalf("got %d nodes, want 2", len(g.Nodes()))
	}
	if n, ok := g.Node("b"); !ok || n.Name != "" {
		t.Errorf("auto-created node b = %+v, %v", n, ok)
	}
	r := g.PrimaryRoute()
	if r.ID != FallbackRouteID {
		t.Errorf("primary route = %q, want %q", r.ID, FallbackRouteID)
	}
	if diff := cmp.Diff([]string{"e1", "e2"}, r.Edges); diff != "" {
		t.Errorf("fallback route edges (-want +got):\n%s", diff)
	}
	if !r.IsLoop {
		t.Error("fallback route a->b->a should be a loop")
	}
	if got := g.RouteLength(r.ID); got != 150 {
		t.Errorf("RouteLength = %v, want 150", got)
	}
	if out := g.Outgoing("b"); len(out) != 1 || g.Edges()[out[0]].ID != "e2" {
		t.Errorf("Outgoing(b) = %v", out)
	}
	if in := g.Incoming("b"); len(in) != 1 || g.Edges()[in[0]].ID != "e1" {
		t.Errorf("Incoming(b) = %v", in)
	}
}

func TestInferLoopSingleEdge(t *testing.T) {
	g, err := NewGraph(nil, []Edge{testEdge("ring", "n", "n", 300)}, nil, "")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	if !g.InferLoop([]string{"ring"}) {
		t.Error("an edge from n to n should be a loop")
	}
	if g.InferLoop(nil) || g.InferLoop([]string{"missing"}) {
		t.Error("empty or unknown sequences are not loops")
	}
}

func TestNewGraphErrors(t *testing.T) {
	e := testEdge("e", "a", "b", 10)
	tests := []struct {
		name    string
		nodes   []Node
		edges   []Edge
		routes  []Route
		primary string
		want    error
	}{
		{"no edges", nil, nil, nil, "", ErrEmptyGraph},
		{"duplicate edge", nil, []Edge{e, e}, nil, "", ErrDuplicateID},
		{"duplicate node", []Node{{ID: "a"}, {ID: "a"}}, []Edge{e}, nil, "", ErrDuplicateID},
		{"blank endpoint", nil, []Edge{{ID: "x", From: "a"}}, nil, "", ErrUnknownNode},
		{"route edge", nil, []Edge{e}, []Route{{ID: "r", Edges: []string{"nope"}}}, "", ErrUnknownEdge},
		{"duplicate route", nil, []Edge{e}, []Route{{ID: "r", Edges: []string{"e"}}, {ID: "r"}}, "", ErrDuplicateID},
		{"primary", nil, []Edge{e}, nil, "elsewhere", ErrUnknownRoute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.nodes, tt.edges, tt.routes, tt.primary)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestResolvePrimaryEdge(t *testing.T) {
	loop, err := NewGraph(nil, []Edge{
		testEdge("e1", "a", "b", 100),
		testEdge("e2", "b", "a", 50),
	}, nil, "")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	open, err := NewGraph(nil, []Edge{
		testEdge("e1", "a", "b", 100),
		testEdge("e2", "b", "c", 50),
	}, nil, "")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}

	tests := []struct {
		name  string
		g     *Graph
		d     float64
		edge  string
		local float64
	}{
		{"start", loop, 0, "e1", 0},
		{"inside first", loop, 99, "e1", 99},
		{"boundary", loop, 100, "e2", 0},
		{"wrap", loop, 160, "e1", 10},
		{"negative wrap", loop, -10, "e2", 40},
		{"open clamp high", open, 500, "e2", 50},
		{"open clamp low", open, -5, "e1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s, ok := tt.g.ResolvePrimaryEdge(tt.d)
			if !ok {
				t.Fatal("ResolvePrimaryEdge failed")
			}
			if e.ID != tt.edge || math.Abs(s-tt.local) > 1e-9 {
				t.Errorf("got (%s, %v), want (%s, %v)", e.ID, s, tt.edge, tt.local)
			}
		})
	}

	if _, _, ok := loop.ResolvePrimaryEdge(math.NaN()); ok {
		t.Error("NaN distance should not resolve")
	}
}

func TestExplicitPrimaryRoute(t *testing.T) {
	edges := []Edge{testEdge("e1", "a", "b", 100), testEdge("e2", "b", "c", 40)}
	routes := []Route{
		{ID: "long", Edges: []string{"e1", "e2"}},
		{ID: "short", Edges: []string{"e2"}},
	}
	g, err := NewGraph(nil, edges, routes, "short")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	e, s, ok := g.ResolvePrimaryEdge(10)
	if !ok || e.ID != "e2" || s != 10 {
		t.Errorf("ResolvePrimaryEdge(10) = %v, %v, %v", e, s, ok)
	}
}

func TestNodeAreaWidth(t *testing.T) {
	rect := geo.Rect(geo.Pt(0, 0), geo.Pt(20, 10))
	tests := []struct {
		name string
		node Node
		want float64
		ok   bool
	}{
		{"none", Node{ID: "n"}, 0, false},
		{"shape", Node{ID: "n", Area: &rect}, 20, true},
		{"metadata first", Node{ID: "n", Area: &rect, Metadata: map[string]string{"width": "16"}}, 16, true},
		{"bad metadata", Node{ID: "n", Area: &rect, Metadata: map[string]string{"width": "wide"}}, 20, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.node.AreaWidth()
			if ok != tt.ok || got != tt.want {
				t.Errorf("AreaWidth() = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseEnums(t *testing.T) {
	if s, err := ParseSurface("Tarmac"); err != nil || s != SurfaceAsphalt {
		t.Errorf("ParseSurface(Tarmac) = %v, %v", s, err)
	}
	if w, err := ParseWeather("RAIN"); err != nil || w != WeatherRain {
		t.Errorf("ParseWeather(RAIN) = %v, %v", w, err)
	}
	if n, err := ParseNoise("helicopter"); err != nil || n != NoiseHelicopter {
		t.Errorf("ParseNoise(helicopter) = %v, %v", n, err)
	}
	if a, err := ParseAmbience("Forest"); err != nil || a != AmbienceForest {
		t.Errorf("ParseAmbience(Forest) = %v, %v", a, err)
	}
	if d, err := ParseTurnDirection("u-turn"); err != nil || d != TurnUTurn {
		t.Errorf("ParseTurnDirection(u-turn) = %v, %v", d, err)
	}
	if _, err := ParseSurface("lava"); !errors.Is(err, ErrUnknownValue) {
		t.Errorf("ParseSurface(lava) err = %v, want ErrUnknownValue", err)
	}
	for _, s := range []Surface{SurfaceAsphalt, SurfaceGravel, SurfaceWater, SurfaceSand, SurfaceSnow, SurfaceGrass, SurfaceDirt} {
		back, err := ParseSurface(s.String())
		if err != nil || back != s {
			t.Errorf("ParseSurface(%q) = %v, %v", s.String(), back, err)
		}
	}
}
