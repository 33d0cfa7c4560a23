package placement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"

	"github.com/GruiaChiscop/top-speed/pkg/geo"
	"github.com/GruiaChiscop/top-speed/pkg/geometry"
)

func (w *World) runtime(pos Position) (*EdgeRuntime, bool) {
	if pos.Edge < 0 || pos.Edge >= len(w.edges) {
		return nil, false
	}
	return &w.edges[pos.Edge], true
}

// Pose returns the world pose at pos.
func (w *World) Pose(pos Position) (geometry.Pose, bool) {
	rt, ok := w.runtime(pos)
	if !ok {
		return geometry.Pose{}, false
	}
	return rt.Pose(pos.S), true
}

// Curvature returns the signed curvature at pos; positive turns right.
func (w *World) Curvature(pos Position) float64 {
	rt, ok := w.runtime(pos)
	if !ok {
		return 0
	}
	return rt.Geometry.CurvatureAt(pos.S)
}

// RoadEdges returns the world positions of the left and right road
// boundaries at pos, using the edge's width there.
func (w *World) RoadEdges(pos Position) (left, right mgl64.Vec3, ok bool) {
	rt, ok := w.runtime(pos)
	if !ok {
		return left, right, false
	}
	l, r := rt.Geometry.GetEdges(pos.S, rt.Edge.WidthAt(pos.S))
	return rt.Transform.Apply(l), rt.Transform.Apply(r), true
}

// LapPosition maps a lap distance on the primary route to a position.
func (w *World) LapPosition(distance float64) (Position, bool) {
	g := w.layout.Graph
	e, s, ok := g.ResolvePrimaryEdge(distance)
	if !ok {
		return Position{}, false
	}
	i, _ := g.EdgeIndex(e.ID)
	return Position{Edge: i, S: s}, true
}

// Bounds returns the plan-view extent of every road and node area.
func (w *World) Bounds() orb.Bound {
	var b orb.Bound
	first := true
	extend := func(o orb.Bound) {
		if first {
			b, first = o, false
			return
		}
		b = b.Union(o)
	}
	for i := range w.edges {
		extend(w.edges[i].bound)
	}
	for i, n := range w.layout.Graph.Nodes() {
		if n.Area == nil || !w.placed.has(i) {
			continue
		}
		extend(n.Area.Translate(w.nodeOffset(i)).Bounds())
	}
	return b
}

func (w *World) nodeOffset(i int) geo.Point2D {
	o := w.nodes[i].Origin
	return geo.Pt(o.X(), o.Z())
}

// NodeAreaAt returns the id of the first node whose area, centered on the
// node's world position, contains p.
func (w *World) NodeAreaAt(p geo.Point2D) (string, bool) {
	for i, n := range w.layout.Graph.Nodes() {
		if n.Area == nil || !w.placed.has(i) {
			continue
		}
		width, _ := n.AreaWidth()
		if n.Area.Translate(w.nodeOffset(i)).Contains(p, width) {
			return n.ID, true
		}
	}
	return "", false
}

// OnRoad finds the road position nearest to p among the edges whose paved
// width covers it.
func (w *World) OnRoad(p geo.Point2D) (Position, bool) {
	best, bestDist := Position{Edge: -1}, math.Inf(1)
	for i := range w.edges {
		rt := &w.edges[i]
		if !rt.bound.Contains(p.Orb()) {
			continue
		}
		seg, t, d := rt.path.Nearest(p)
		if seg < 0 || d >= bestDist {
			continue
		}
		s := w.sampleDistance(rt, seg, t)
		half := rt.Edge.WidthAt(s) / 2
		if d <= half*half {
			best, bestDist = Position{Edge: i, S: s}, d
		}
	}
	return best, best.Edge >= 0
}

// sampleDistance converts a point on the sampled path back to a distance.
func (w *World) sampleDistance(rt *EdgeRuntime, seg int, t float64) float64 {
	spacing := rt.Geometry.SampleSpacing()
	a := float64(seg) * spacing
	b := math.Min(a+spacing, rt.Geometry.Length())
	return a + (b-a)*t
}
