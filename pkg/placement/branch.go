package placement

import (
	"math"

	"github.com/GruiaChiscop/top-speed/pkg/geometry"
)

// BranchScore rates a candidate heading against the current one; higher is
// better. A negative hint prefers the leftmost branch, a positive hint the
// rightmost and zero the straightest continuation.
func BranchScore(candidate, current, hint float64) float64 {
	delta := geometry.NormalizeAngle(candidate - current)
	switch {
	case hint > 0:
		return delta
	case hint < 0:
		return -delta
	}
	return -math.Abs(delta)
}

// ChooseBranch returns the index of the best candidate heading, or -1 when
// there are none. Ties go to the earlier candidate.
func ChooseBranch(candidates []float64, current, hint float64) int {
	best, bestScore := -1, math.Inf(-1)
	for i, h := range candidates {
		if s := BranchScore(h, current, hint); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// Position is a place on the road: an index into World.Edges and a local
// distance along that edge.
type Position struct {
	Edge int     `json:"edge" yaml:"edge"`
	S    float64 `json:"s" yaml:"s"`
}

// Advance moves pos by ds along the road. Crossing an edge's end continues
// onto an outgoing edge of its end node; moving backwards past the start
// continues onto an incoming edge of its start node. At a junction the
// branch is picked with ChooseBranch and hint. Dead ends clamp.
func (w *World) Advance(pos Position, ds, hint float64) Position {
	g := w.layout.Graph
	if pos.Edge < 0 || pos.Edge >= len(w.edges) || math.IsNaN(ds) {
		return pos
	}
	rt := &w.edges[pos.Edge]
	s := pos.S + ds
	for {
		length := rt.Geometry.Length()
		switch {
		case s > length:
			out := g.Outgoing(rt.Edge.To)
			next := w.choose(out, rt.EndHeading(), hint, true)
			if next < 0 || math.IsInf(s, 1) {
				return Position{Edge: pos.Edge, S: length}
			}
			s -= length
			pos.Edge, rt = next, &w.edges[next]

		case s < 0:
			in := g.Incoming(rt.Edge.From)
			next := w.choose(in, rt.StartHeading()+math.Pi, hint, false)
			if next < 0 || math.IsInf(s, -1) {
				return Position{Edge: pos.Edge, S: 0}
			}
			pos.Edge, rt = next, &w.edges[next]
			s += rt.Geometry.Length()

		default:
			return Position{Edge: pos.Edge, S: s}
		}
	}
}

// choose picks among edge indices by where each one leads. Forward travel
// compares the heading at each candidate's end; reverse travel compares the
// heading at each candidate's start, turned around.
func (w *World) choose(edges []int, current, hint float64, forward bool) int {
	if len(edges) == 0 {
		return -1
	}
	headings := make([]float64, len(edges))
	for i, ei := range edges {
		if forward {
			headings[i] = w.edges[ei].EndHeading()
		} else {
			headings[i] = w.edges[ei].StartHeading() + math.Pi
		}
	}
	return edges[ChooseBranch(headings, current, hint)]
}
