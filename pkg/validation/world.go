package validation

import (
	"fmt"

	"github.com/GruiaChiscop/top-speed/pkg/placement"
)

// ValidateWorld reports placement findings: nodes whose position depends
// on the path taken to them, and graphs that fall apart into pieces.
func ValidateWorld(w *placement.World) *Report {
	r := NewReport()
	if w == nil {
		return r
	}
	for _, m := range w.Mismatches() {
		r.AddWarning(Result{
			Level:       LevelGeometry,
			Message:     m.String(),
			Path:        "nodes." + m.Node,
			ActualValue: m.Distance,
			Suggestions: []string{fmt.Sprintf("Check the geometry of edge %q and the edges meeting at %q", m.Edge, m.Node)},
		})
	}
	if n := w.Components(); n > 1 {
		r.AddInfo(Result{
			Level:       LevelStructural,
			Message:     fmt.Sprintf("track has %d disconnected parts", n),
			ActualValue: n,
			Expected:    "1",
		})
	}
	return r
}
