package validation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/GruiaChiscop/top-speed/pkg/track"
)

// widthTolerance is how far a node's width metadata may drift from its
// area shape before it is reported.
const widthTolerance = 0.01

// ValidateLayout runs the semantic and structural lints on a parsed layout.
func ValidateLayout(l *track.Layout) *Report {
	r := NewReport()
	if l == nil || l.Graph == nil {
		r.AddError(Result{Level: LevelSemantic, Message: "layout has no graph"})
		return r
	}
	g := l.Graph
	for i := range g.Edges() {
		e := &g.Edges()[i]
		validateZones(e, r)
		validateSpeedLimits(e, r)
		validateConnectors(g, e, r)
	}
	validateRoutes(g, r)
	validateNodes(g, r)
	validateCoverage(g, r)
	validateCheckpoints(g, r)
	return r
}

type span struct {
	start, end float64
}

func spans[T any](zs track.ZoneSet[T]) []span {
	out := make([]span, len(zs))
	for i, z := range zs {
		out[i] = span{z.Start, z.End}
	}
	return out
}

// zoneKind is one zone set of an edge. Exclusive kinds resolve to a single
// value, so overlaps there hide part of a zone.
type zoneKind struct {
	name      string
	spans     []span
	exclusive bool
}

func zoneKinds(p *track.Profile) []zoneKind {
	return []zoneKind{
		{"width", spans(p.Widths), true},
		{"surface", spans(p.Surfaces), true},
		{"noise", spans(p.Noises), true},
		{"speed_limits", spans(p.SpeedLimits), true},
		{"weather", spans(p.Weathers), true},
		{"ambience", spans(p.Ambiences), true},
		{"hazards", spans(p.Hazards), false},
		{"checkpoints", spans(p.Checkpoints), true},
		{"hit_lanes", spans(p.HitLanes), true},
		{"emitters", spans(p.Emitters), false},
		{"triggers", spans(p.Triggers), false},
	}
}

func validateZones(e *track.Edge, r *Report) {
	length := e.Length()
	for _, k := range zoneKinds(&e.Profile) {
		reach := math.Inf(-1)
		for i, z := range k.spans {
			path := fmt.Sprintf("edges.%s.%s[%d]", e.ID, k.name, i)
			if z.start >= length {
				r.AddWarning(Result{
					Level:       LevelStructural,
					Message:     fmt.Sprintf("%s zone starts at %.3f, past the end of edge %q", k.name, z.start, e.ID),
					Path:        path,
					ActualValue: z.start,
					Expected:    fmt.Sprintf("< %.3f", length),
				})
			} else if z.end > length+1e-6 {
				r.AddWarning(Result{
					Level:       LevelStructural,
					Message:     fmt.Sprintf("%s zone ends at %.3f, past the end of edge %q", k.name, z.end, e.ID),
					Path:        path,
					ActualValue: z.end,
					Expected:    fmt.Sprintf("<= %.3f", length),
					Suggestions: []string{"Shorten the zone or extend the edge geometry"},
				})
			}
			if k.exclusive && z.start < reach {
				r.AddInfo(Result{
					Level:   LevelStructural,
					Message: fmt.Sprintf("%s zone at %.3f overlaps an earlier zone; the later zone wins", k.name, z.start),
					Path:    path,
				})
			}
			reach = math.Max(reach, z.end)
		}
	}
	for i, m := range e.Profile.Markers {
		if m.S < 0 || m.S > length {
			r.AddWarning(Result{
				Level:       LevelStructural,
				Message:     fmt.Sprintf("marker %q at %.3f is outside edge %q", m.Name, m.S, e.ID),
				Path:        fmt.Sprintf("edges.%s.markers[%d]", e.ID, i),
				ActualValue: m.S,
				Expected:    fmt.Sprintf("0..%.3f", length),
			})
		}
	}
}

func validateSpeedLimits(e *track.Edge, r *Report) {
	for i, z := range e.Profile.SpeedLimits {
		if z.Value <= 0 {
			r.AddError(Result{
				Level:       LevelSemantic,
				Message:     fmt.Sprintf("speed limit on edge %q must be positive", e.ID),
				Path:        fmt.Sprintf("edges.%s.speed_limits[%d]", e.ID, i),
				ActualValue: z.Value,
				Expected:    "> 0",
			})
		}
	}
}

func validateConnectors(g *track.Graph, e *track.Edge, r *Report) {
	for _, id := range e.ConnectorFrom {
		path := fmt.Sprintf("edges.%s.connector_from", e.ID)
		src, ok := g.Edge(id)
		if !ok {
			r.AddWarning(Result{
				Level:       LevelSemantic,
				Message:     fmt.Sprintf("edge %q connects from unknown edge %q", e.ID, id),
				Path:        path,
				ActualValue: id,
			})
			continue
		}
		if src.To != e.From {
			r.AddWarning(Result{
				Level:       LevelStructural,
				Message:     fmt.Sprintf("edge %q connects from %q, which ends at %q instead of %q", e.ID, id, src.To, e.From),
				Path:        path,
				ActualValue: src.To,
				Expected:    e.From,
			})
		}
	}
}

func validateRoutes(g *track.Graph, r *Report) {
	for _, rt := range g.Routes() {
		for i := 1; i < len(rt.Edges); i++ {
			checkJoin(g, rt.ID, rt.Edges[i-1], rt.Edges[i], r)
		}
		if rt.IsLoop && len(rt.Edges) > 0 {
			checkJoin(g, rt.ID, rt.Edges[len(rt.Edges)-1], rt.Edges[0], r)
		}
	}
}

func checkJoin(g *track.Graph, route, a, b string, r *Report) {
	ea, _ := g.Edge(a)
	eb, _ := g.Edge(b)
	if ea == nil || eb == nil || ea.To == eb.From {
		return
	}
	r.AddWarning(Result{
		Level:       LevelStructural,
		Message:     fmt.Sprintf("route %q jumps from %q (ends at %q) to %q (starts at %q)", route, a, ea.To, b, eb.From),
		Path:        "routes." + route,
		ActualValue: eb.From,
		Expected:    ea.To,
	})
}

func validateNodes(g *track.Graph, r *Report) {
	for _, n := range g.Nodes() {
		v, ok := n.Metadata["width"]
		if !ok {
			continue
		}
		path := fmt.Sprintf("nodes.%s.width", n.ID)
		w, err := strconv.ParseFloat(v, 64)
		if err != nil || w <= 0 || math.IsInf(w, 0) {
			r.AddWarning(Result{
				Level:       LevelSemantic,
				Message:     fmt.Sprintf("node %q width %q is not a positive number", n.ID, v),
				Path:        path,
				ActualValue: v,
			})
			continue
		}
		if n.Area == nil {
			continue
		}
		if sw := n.Area.Width(); math.Abs(sw-w) > widthTolerance {
			r.AddWarning(Result{
				Level:       LevelStructural,
				Message:     fmt.Sprintf("node %q width %.3f differs from its %s area width %.3f; the metadata width is used", n.ID, w, n.Area.Kind, sw),
				Path:        path,
				ActualValue: w,
				Expected:    strconv.FormatFloat(sw, 'f', 3, 64),
			})
		}
	}
}

func validateCoverage(g *track.Graph, r *Report) {
	used := make(map[string]bool)
	for _, rt := range g.Routes() {
		for _, id := range rt.Edges {
			used[id] = true
		}
	}
	for _, e := range g.Edges() {
		if !used[e.ID] {
			r.AddInfo(Result{
				Level:   LevelStructural,
				Message: fmt.Sprintf("edge %q is not part of any route", e.ID),
				Path:    "edges." + e.ID,
			})
		}
	}
}

func validateCheckpoints(g *track.Graph, r *Report) {
	rt := g.PrimaryRoute()
	if !rt.IsLoop {
		return
	}
	for _, id := range rt.Edges {
		if e, ok := g.Edge(id); ok && len(e.Profile.Checkpoints) > 0 {
			return
		}
	}
	r.AddInfo(Result{
		Level:       LevelStructural,
		Message:     fmt.Sprintf("loop route %q has no checkpoints", rt.ID),
		Path:        "routes." + rt.ID,
		Suggestions: []string{"Add a [edge <id>.checkpoints] zone so laps can be timed"},
	})
}
