// Package placement embeds a track graph into one world frame. Every edge's
// locally built geometry is given a world origin and heading by walking the
// graph breadth-first from the primary route's start node.
package placement

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"

	"github.com/GruiaChiscop/top-speed/pkg/geo"
	"github.com/GruiaChiscop/top-speed/pkg/geometry"
	"github.com/GruiaChiscop/top-speed/pkg/track"
)

// ComponentSpacing separates disconnected parts of a graph along +X.
const ComponentSpacing = 10000.0

// Transform places a local frame in the world: a translation plus a
// rotation about +Y.
type Transform struct {
	Origin  mgl64.Vec3 `json:"origin" yaml:"origin"`
	Heading float64    `json:"heading" yaml:"heading"`
}

// Apply maps a local point into the world.
func (t Transform) Apply(v mgl64.Vec3) mgl64.Vec3 {
	return t.Origin.Add(t.Rotate(v))
}

// Rotate maps a local direction into the world.
func (t Transform) Rotate(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Rotate3DY(t.Heading).Mul3x1(v)
}

// EdgeRuntime is an edge with its built geometry and world placement.
type EdgeRuntime struct {
	Edge      *track.Edge
	Geometry  *geometry.Geometry
	Transform Transform
	Component int

	path     geo.Polyline
	bound    orb.Bound
	maxWidth float64
}

// Pose returns the world pose at local distance s.
func (rt *EdgeRuntime) Pose(s float64) geometry.Pose {
	p := rt.Geometry.GetPose(s)
	p.Position = rt.Transform.Apply(p.Position)
	p.Tangent = rt.Transform.Rotate(p.Tangent)
	p.Right = rt.Transform.Rotate(p.Right)
	p.Up = rt.Transform.Rotate(p.Up)
	p.Heading += rt.Transform.Heading
	return p
}

// StartHeading returns the world heading at the edge's start.
func (rt *EdgeRuntime) StartHeading() float64 {
	return rt.Transform.Heading + rt.Geometry.StartPose().Heading
}

// EndHeading returns the world heading at the edge's end.
func (rt *EdgeRuntime) EndHeading() float64 {
	return rt.Transform.Heading + rt.Geometry.EndPose().Heading
}

// Mismatch records a node reached along two paths that disagree on where
// the node is.
type Mismatch struct {
	Node     string  `json:"node" yaml:"node"`
	Edge     string  `json:"edge" yaml:"edge"`
	Distance float64 `json:"distance" yaml:"distance"`
	Heading  float64 `json:"heading" yaml:"heading"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("node %q reached via edge %q is off by %.3fm and %.3frad", m.Node, m.Edge, m.Distance, m.Heading)
}

// World is a placed layout. It is read-only once built and safe for
// concurrent queries.
type World struct {
	layout     *track.Layout
	edges      []EdgeRuntime
	nodes      []Transform
	placed     bitset
	mismatches []Mismatch
	components int
}

// Place builds every edge's geometry and assigns world transforms.
func Place(l *track.Layout) (*World, error) {
	if l == nil || l.Graph == nil {
		return nil, fmt.Errorf("placing layout: %w", track.ErrEmptyGraph)
	}
	g := l.Graph
	w := &World{
		layout: l,
		edges:  make([]EdgeRuntime, len(g.Edges())),
		nodes:  make([]Transform, len(g.Nodes())),
		placed: newBitset(len(g.Nodes())),
	}
	for i := range g.Edges() {
		e := &g.Edges()[i]
		geom, err := geometry.Build(e.Geometry)
		if err != nil {
			return nil, fmt.Errorf("building edge %q: %w", e.ID, err)
		}
		w.edges[i] = EdgeRuntime{Edge: e, Geometry: geom, maxWidth: maxWidth(e)}
	}

	built := newBitset(len(w.edges))
	seedEdge, _ := g.Edge(g.PrimaryRoute().Edges[0])
	seed, _ := g.NodeIndex(seedEdge.From)
	w.traverse(seed, Transform{}, built)

	for i := range w.edges {
		if built.has(i) {
			continue
		}
		from, _ := g.NodeIndex(w.edges[i].Edge.From)
		origin := mgl64.Vec3{float64(w.components) * ComponentSpacing, 0, 0}
		w.traverse(from, Transform{Origin: origin}, built)
	}

	for i := range w.edges {
		w.edges[i].finish()
	}
	return w, nil
}

// traverse places the component containing node seed with an explicit
// queue over node indices.
func (w *World) traverse(seed int, at Transform, built bitset) {
	g := w.layout.Graph
	comp := w.components
	w.components++

	w.nodes[seed] = at
	w.placed.set(seed)
	queue := []int{seed}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		id := g.Nodes()[u].ID

		for _, ei := range g.Outgoing(id) {
			if built.has(ei) {
				continue
			}
			rt := &w.edges[ei]
			rt.Transform, rt.Component = w.nodes[u], comp
			built.set(ei)
			to, _ := g.NodeIndex(rt.Edge.To)
			if w.reach(to, rt.endTransform(), rt.Edge.ID) {
				queue = append(queue, to)
			}
		}

		for _, ei := range g.Incoming(id) {
			if built.has(ei) {
				continue
			}
			rt := &w.edges[ei]
			rt.Component = comp
			built.set(ei)
			from, _ := g.NodeIndex(rt.Edge.From)
			if w.placed.has(from) {
				rt.Transform = w.nodes[from]
				w.reach(u, rt.endTransform(), rt.Edge.ID)
				continue
			}
			rt.Transform = rt.startFor(w.nodes[u])
			w.nodes[from] = rt.Transform
			w.placed.set(from)
			queue = append(queue, from)
		}
	}
}

// reach records a transform for node n computed along edge, returning true
// when the node was not placed before. A disagreeing second arrival is kept
// as a Mismatch.
func (w *World) reach(n int, t Transform, edge string) bool {
	if !w.placed.has(n) {
		w.nodes[n] = t
		w.placed.set(n)
		return true
	}
	known := w.nodes[n]
	dp := t.Origin.Sub(known.Origin).Len()
	dh := math.Abs(geometry.NormalizeAngle(t.Heading - known.Heading))
	if dp > geometry.ClosurePositionTolerance || dh > geometry.ClosureHeadingTolerance {
		w.mismatches = append(w.mismatches, Mismatch{
			Node:     w.layout.Graph.Nodes()[n].ID,
			Edge:     edge,
			Distance: dp,
			Heading:  dh,
		})
	}
	return false
}

// endTransform is the frame at the edge's far end.
func (rt *EdgeRuntime) endTransform() Transform {
	end := rt.Geometry.EndPose()
	return Transform{
		Origin:  rt.Transform.Apply(end.Position),
		Heading: rt.Transform.Heading + end.Heading,
	}
}

// startFor returns the edge transform that makes the edge end at t.
func (rt *EdgeRuntime) startFor(t Transform) Transform {
	end := rt.Geometry.EndPose()
	start := Transform{Heading: t.Heading - end.Heading}
	start.Origin = t.Origin.Sub(start.Rotate(end.Position))
	return start
}

// finish caches the world centerline used by spatial queries.
func (rt *EdgeRuntime) finish() {
	local := rt.Geometry.Samples()
	pts := make([]geo.Point2D, len(local))
	for i, p := range local {
		wp := rt.Transform.Apply(p)
		pts[i] = geo.Pt(wp.X(), wp.Z())
	}
	rt.path = geo.NewPolyline(pts...)
	rt.bound = rt.path.Bounds().Pad(rt.maxWidth / 2)
}

func maxWidth(e *track.Edge) float64 {
	w := e.Profile.Defaults.Width
	for _, z := range e.Profile.Widths {
		w = math.Max(w, z.Value.Width)
	}
	return w
}

// Layout returns the placed layout.
func (w *World) Layout() *track.Layout { return w.layout }

// Edges returns the placed edges, indexed like Graph.Edges.
func (w *World) Edges() []EdgeRuntime { return w.edges }

// Edge looks up a placed edge by id.
func (w *World) Edge(id string) (*EdgeRuntime, bool) {
	i, ok := w.layout.Graph.EdgeIndex(id)
	if !ok {
		return nil, false
	}
	return &w.edges[i], true
}

// NodeTransform returns the world frame of a node.
func (w *World) NodeTransform(id string) (Transform, bool) {
	i, ok := w.layout.Graph.NodeIndex(id)
	if !ok || !w.placed.has(i) {
		return Transform{}, false
	}
	return w.nodes[i], true
}

// Mismatches returns every inconsistent node arrival found while placing.
func (w *World) Mismatches() []Mismatch { return w.mismatches }

// Components returns the number of disconnected parts of the graph.
func (w *World) Components() int { return w.components }

// bitset is a fixed-size set of small integers.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) set(i int)      { b[i/64] |= 1 << (uint(i) % 64) }
func (b bitset) has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }
