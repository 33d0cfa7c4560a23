package main

import (
	"fmt"
	"io"

	"github.com/GruiaChiscop/top-speed/pkg/loader"
	"github.com/GruiaChiscop/top-speed/pkg/placement"
	"github.com/GruiaChiscop/top-speed/pkg/validation"
)

func printResponse(w io.Writer, resp *loader.Response) {
	if resp.Path != "" {
		fmt.Fprintf(w, "Track: %s\n", resp.Path)
	}
	if resp.Layout != nil {
		g := resp.Layout.Graph
		fmt.Fprintf(w, "  %d nodes, %d edges, %d routes; primary %q is %.1fm\n",
			len(g.Nodes()), len(g.Edges()), len(g.Routes()),
			g.PrimaryRoute().ID, g.RouteLength(g.PrimaryRoute().ID))
	}
	fmt.Fprintln(w)
	printValidationReport(w, resp.Report)
	if resp.Report.Valid && !resp.Success {
		fmt.Fprintln(w, "Warnings are not allowed by the loader config.")
	}
}

func printResult(w io.Writer, r validation.Result, detail bool) {
	if r.Line > 0 {
		fmt.Fprintf(w, "  [%s] line %d: %s\n", r.Level, r.Line, r.Message)
	} else {
		fmt.Fprintf(w, "  [%s] %s\n", r.Level, r.Message)
	}
	if !detail {
		return
	}
	if r.Path != "" {
		if r.ActualValue != nil {
			fmt.Fprintf(w, "    -> %s = %v\n", r.Path, r.ActualValue)
		} else {
			fmt.Fprintf(w, "    -> %s\n", r.Path)
		}
	} else if r.ActualValue != nil {
		fmt.Fprintf(w, "    -> %v\n", r.ActualValue)
	}
	if r.Expected != "" {
		fmt.Fprintf(w, "    expected: %s\n", r.Expected)
	}
	for _, s := range r.Suggestions {
		fmt.Fprintf(w, "    * %s\n", s)
	}
}

func printValidationReport(w io.Writer, r *validation.Report) {
	sections := []struct {
		title   string
		results []validation.Result
		detail  bool
	}{
		{"ERRORS", r.Errors, true},
		{"WARNINGS", r.Warnings, true},
		{"INFO", r.Info, false},
	}
	for _, sec := range sections {
		if len(sec.results) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%d):\n", sec.title, len(sec.results))
		for _, res := range sec.results {
			printResult(w, res, sec.detail)
		}
		fmt.Fprintln(w)
	}

	if r.Valid {
		fmt.Fprintf(w, "Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Fprintf(w, "Result: INVALID (%s)\n", r.Summary)
	}
}

func printPose(w io.Writer, world *placement.World, pos placement.Position) {
	rt := &world.Edges()[pos.Edge]
	p, _ := world.Pose(pos)
	e := rt.Edge
	fmt.Fprintf(w, "edge %s at %.3fm of %.3fm\n", e.ID, pos.S, rt.Geometry.Length())
	fmt.Fprintf(w, "  position  %8.3f %8.3f %8.3f\n", p.Position.X(), p.Position.Y(), p.Position.Z())
	fmt.Fprintf(w, "  heading   %8.4f rad\n", p.Heading)
	fmt.Fprintf(w, "  pitch     %8.4f rad\n", p.Pitch)
	fmt.Fprintf(w, "  bank      %8.4f rad\n", p.Bank)
	fmt.Fprintf(w, "  curvature %8.5f 1/m\n", world.Curvature(pos))
	fmt.Fprintf(w, "  width     %8.3f m\n", e.WidthAt(pos.S))
	fmt.Fprintf(w, "  surface   %s\n", e.SurfaceAt(pos.S))
	if kph, ok := e.SpeedLimitAt(pos.S); ok {
		fmt.Fprintf(w, "  limit     %.0f km/h\n", kph)
	}
}
