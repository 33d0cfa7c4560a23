// Package track is the validated, immutable course model: a graph of nodes
// and edges, each edge carrying a road geometry spec and a profile of
// distance-indexed zones.
package track

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/GruiaChiscop/top-speed/pkg/geo"
	"github.com/GruiaChiscop/top-speed/pkg/geometry"
)

// FallbackRouteID names the route synthesized when a graph declares none.
const FallbackRouteID = "main"

var (
	ErrDuplicateID  = errors.New("duplicate id")
	ErrUnknownEdge  = errors.New("unknown edge")
	ErrUnknownNode  = errors.New("unknown node")
	ErrUnknownRoute = errors.New("unknown route")
	ErrEmptyGraph   = errors.New("graph has no edges")
)

// Node is a junction or end point of the graph.
type Node struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name,omitempty" yaml:"name,omitempty"`
	ShortName string            `json:"short_name,omitempty" yaml:"short_name,omitempty"`
	Area      *geo.Shape        `json:"area,omitempty" yaml:"area,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// AreaWidth returns the intersection width of the node. An explicit
// "width" metadata entry takes precedence over the width of the area shape.
func (n Node) AreaWidth() (float64, bool) {
	if v, ok := n.Metadata["width"]; ok {
		if w, err := strconv.ParseFloat(v, 64); err == nil {
			return w, true
		}
	}
	if n.Area != nil && n.Area.Kind != geo.ShapeNone {
		return n.Area.Width(), true
	}
	return 0, false
}

// Edge is one drivable road between two nodes.
type Edge struct {
	ID            string            `json:"id" yaml:"id"`
	From          string            `json:"from" yaml:"from"`
	To            string            `json:"to" yaml:"to"`
	Geometry      geometry.Spec     `json:"geometry" yaml:"geometry"`
	Profile       Profile           `json:"profile" yaml:"profile"`
	Turn          TurnDirection     `json:"turn,omitempty" yaml:"turn,omitempty"`
	ConnectorFrom []string          `json:"connector_from,omitempty" yaml:"connector_from,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Length returns the road length of the edge.
func (e *Edge) Length() float64 { return e.Geometry.Length() }

// WidthAt returns the paved width at s.
func (e *Edge) WidthAt(s float64) float64 {
	return e.ShouldersAt(s).Width
}

// ShouldersAt returns the full width specification at s.
func (e *Edge) ShouldersAt(s float64) WidthSpec {
	return e.Profile.Widths.At(s, WidthSpec{Width: e.Profile.Defaults.Width})
}

// SurfaceAt returns the road surface at s.
func (e *Edge) SurfaceAt(s float64) Surface {
	return e.Profile.Surfaces.At(s, e.Profile.Defaults.Surface)
}

// NoiseAt returns the trackside noise at s.
func (e *Edge) NoiseAt(s float64) Noise {
	return e.Profile.Noises.At(s, e.Profile.Defaults.Noise)
}

// WeatherAt returns the weather at s.
func (e *Edge) WeatherAt(s float64) Weather {
	return e.Profile.Weathers.At(s, e.Profile.Defaults.Weather)
}

// AmbienceAt returns the ambience at s.
func (e *Edge) AmbienceAt(s float64) Ambience {
	return e.Profile.Ambiences.At(s, e.Profile.Defaults.Ambience)
}

// SpeedLimitAt returns the speed limit in km/h at s, if any.
func (e *Edge) SpeedLimitAt(s float64) (float64, bool) {
	return e.Profile.SpeedLimits.Find(s)
}

// HazardsAt returns every hazard active at s.
func (e *Edge) HazardsAt(s float64) []Hazard {
	return e.Profile.Hazards.All(s)
}

// CheckpointAt returns the checkpoint whose zone contains s.
func (e *Edge) CheckpointAt(s float64) (Checkpoint, bool) {
	return e.Profile.Checkpoints.Find(s)
}

// EmittersAt returns every sound emitter audible at s.
func (e *Edge) EmittersAt(s float64) []Emitter {
	return e.Profile.Emitters.All(s)
}

// TriggersAt returns every trigger armed at s.
func (e *Edge) TriggersAt(s float64) []Trigger {
	return e.Profile.Triggers.All(s)
}

// HitLanesAt returns the lane set at s.
func (e *Edge) HitLanesAt(s float64) (HitLanes, bool) {
	return e.Profile.HitLanes.Find(s)
}

// MarkersBetween returns the markers with a <= S < b.
func (e *Edge) MarkersBetween(a, b float64) []Marker {
	var out []Marker
	for _, m := range e.Profile.Markers {
		if m.S >= a && m.S < b {
			out = append(out, m)
		}
	}
	return out
}

// AllowsVehicle reports whether the named vehicle may use the edge. An
// empty allow list admits every vehicle.
func (e *Edge) AllowsVehicle(name string) bool {
	return len(e.Profile.AllowedVehicles) == 0 || slices.Contains(e.Profile.AllowedVehicles, name)
}

// Route is an ordered walk over edges.
type Route struct {
	ID     string   `json:"id" yaml:"id"`
	Edges  []string `json:"edges" yaml:"edges"`
	IsLoop bool     `json:"is_loop" yaml:"is_loop"`
}

// Graph is the immutable topology of a track. Build it with NewGraph.
type Graph struct {
	nodes   []Node
	edges   []Edge
	routes  []Route
	primary int

	nodeIndex  map[string]int
	edgeIndex  map[string]int
	routeIndex map[string]int
	outgoing   [][]int
	incoming   [][]int
}

// NewGraph indexes and checks the given entities. Nodes referenced by an
// edge but not listed are created. Without routes, a fallback route over
// every edge in order is added. An empty primary selects the first route.
func NewGraph(nodes []Node, edges []Edge, routes []Route, primary string) (*Graph, error) {
	if len(edges) == 0 {
		return nil, ErrEmptyGraph
	}
	g := &Graph{
		nodes:      append([]Node(nil), nodes...),
		edges:      make([]Edge, len(edges)),
		nodeIndex:  make(map[string]int, len(nodes)),
		edgeIndex:  make(map[string]int, len(edges)),
		routeIndex: make(map[string]int, len(routes)),
	}
	for i, n := range g.nodes {
		if _, dup := g.nodeIndex[n.ID]; dup {
			return nil, fmt.Errorf("%w: node %q", ErrDuplicateID, n.ID)
		}
		g.nodeIndex[n.ID] = i
	}
	for i, e := range edges {
		if _, dup := g.edgeIndex[e.ID]; dup {
			return nil, fmt.Errorf("%w: edge %q", ErrDuplicateID, e.ID)
		}
		if e.From == "" || e.To == "" {
			return nil, fmt.Errorf("%w: edge %q has a blank endpoint", ErrUnknownNode, e.ID)
		}
		e.Profile = e.Profile.sorted()
		g.edges[i] = e
		g.edgeIndex[e.ID] = i
		g.ensureNode(e.From)
		g.ensureNode(e.To)
	}

	g.outgoing = make([][]int, len(g.nodes))
	g.incoming = make([][]int, len(g.nodes))
	for i, e := range g.edges {
		from, to := g.nodeIndex[e.From], g.nodeIndex[e.To]
		g.outgoing[from] = append(g.outgoing[from], i)
		g.incoming[to] = append(g.incoming[to], i)
	}

	if len(routes) == 0 {
		ids := make([]string, len(g.edges))
		for i, e := range g.edges {
			ids[i] = e.ID
		}
		routes = []Route{{ID: FallbackRouteID, Edges: ids, IsLoop: g.InferLoop(ids)}}
	}
	g.routes = make([]Route, len(routes))
	for i, r := range routes {
		if _, dup := g.routeIndex[r.ID]; dup {
			return nil, fmt.Errorf("%w: route %q", ErrDuplicateID, r.ID)
		}
		for _, id := range r.Edges {
			if _, ok := g.edgeIndex[id]; !ok {
				return nil, fmt.Errorf("%w: route %q references %q", ErrUnknownEdge, r.ID, id)
			}
		}
		r.Edges = append([]string(nil), r.Edges...)
		g.routes[i] = r
		g.routeIndex[r.ID] = i
	}

	if primary != "" {
		idx, ok := g.routeIndex[primary]
		if !ok {
			return nil, fmt.Errorf("%w: primary route %q", ErrUnknownRoute, primary)
		}
		g.primary = idx
	}
	return g, nil
}

func (g *Graph) ensureNode(id string) {
	if _, ok := g.nodeIndex[id]; ok {
		return
	}
	g.nodeIndex[id] = len(g.nodes)
	g.nodes = append(g.nodes, Node{ID: id})
}

// InferLoop reports whether the last edge of the sequence ends at the node
// where the first one starts. Unknown or empty sequences are not loops.
func (g *Graph) InferLoop(edgeIDs []string) bool {
	if len(edgeIDs) == 0 {
		return false
	}
	first, ok1 := g.Edge(edgeIDs[0])
	last, ok2 := g.Edge(edgeIDs[len(edgeIDs)-1])
	return ok1 && ok2 && first.From == last.To
}

// Nodes returns every node in declaration order, auto-created nodes last.
func (g *Graph) Nodes() []Node { return g.nodes }

// Edges returns every edge in declaration order.
func (g *Graph) Edges() []Edge { return g.edges }

// Routes returns every route in declaration order.
func (g *Graph) Routes() []Route { return g.routes }

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	i, ok := g.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return &g.nodes[i], true
}

// NodeIndex returns the position of a node in Nodes.
func (g *Graph) NodeIndex(id string) (int, bool) {
	i, ok := g.nodeIndex[id]
	return i, ok
}

// Edge looks up an edge by id.
func (g *Graph) Edge(id string) (*Edge, bool) {
	i, ok := g.edgeIndex[id]
	if !ok {
		return nil, false
	}
	return &g.edges[i], true
}

// EdgeIndex returns the position of an edge in Edges.
func (g *Graph) EdgeIndex(id string) (int, bool) {
	i, ok := g.edgeIndex[id]
	return i, ok
}

// Route looks up a route by id.
func (g *Graph) Route(id string) (*Route, bool) {
	i, ok := g.routeIndex[id]
	if !ok {
		return nil, false
	}
	return &g.routes[i], true
}

// PrimaryRoute returns the route used for lap distances.
func (g *Graph) PrimaryRoute() *Route { return &g.routes[g.primary] }

// Outgoing returns the indices of edges leaving the node.
func (g *Graph) Outgoing(nodeID string) []int {
	if i, ok := g.nodeIndex[nodeID]; ok {
		return g.outgoing[i]
	}
	return nil
}

// Incoming returns the indices of edges arriving at the node.
func (g *Graph) Incoming(nodeID string) []int {
	if i, ok := g.nodeIndex[nodeID]; ok {
		return g.incoming[i]
	}
	return nil
}

// RouteLength returns the summed length of a route's edges.
func (g *Graph) RouteLength(id string) float64 {
	r, ok := g.Route(id)
	if !ok {
		return 0
	}
	total := 0.0
	for _, eid := range r.Edges {
		e, _ := g.Edge(eid)
		total += e.Length()
	}
	return total
}

// ResolvePrimaryEdge maps a lap distance onto an edge of the primary route
// and the offset into it. Loop routes wrap modulo their length; open routes
// clamp to their ends.
func (g *Graph) ResolvePrimaryEdge(distance float64) (*Edge, float64, bool) {
	r := g.PrimaryRoute()
	total := g.RouteLength(r.ID)
	if len(r.Edges) == 0 || !(total > 0) || math.IsNaN(distance) {
		return nil, 0, false
	}
	if r.IsLoop {
		distance = math.Mod(distance, total)
		if distance < 0 {
			distance += total
		}
	} else {
		distance = math.Max(0, math.Min(distance, total))
	}

	acc := 0.0
	for _, id := range r.Edges {
		e, _ := g.Edge(id)
		if distance < acc+e.Length() {
			return e, distance - acc, true
		}
		acc += e.Length()
	}
	last, _ := g.Edge(r.Edges[len(r.Edges)-1])
	return last, last.Length(), true
}

// graphDoc is the serialized form of a Graph.
type graphDoc struct {
	Nodes        []Node  `json:"nodes" yaml:"nodes"`
	Edges        []Edge  `json:"edges" yaml:"edges"`
	Routes       []Route `json:"routes" yaml:"routes"`
	PrimaryRoute string  `json:"primary_route" yaml:"primary_route"`
}

func (g *Graph) doc() graphDoc {
	return graphDoc{Nodes: g.nodes, Edges: g.edges, Routes: g.routes, PrimaryRoute: g.PrimaryRoute().ID}
}

// MarshalJSON encodes the graph's entities.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.doc())
}

// MarshalYAML encodes the graph's entities for gopkg.in/yaml.v3.
func (g *Graph) MarshalYAML() (any, error) {
	return g.doc(), nil
}
