package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/GruiaChiscop/top-speed/internal/server"
	"github.com/GruiaChiscop/top-speed/pkg/loader"
	"github.com/GruiaChiscop/top-speed/pkg/placement"
	"github.com/GruiaChiscop/top-speed/pkg/track"
	"github.com/GruiaChiscop/top-speed/pkg/trackfile"
	"github.com/GruiaChiscop/top-speed/pkg/validation"
)

// errInvalid reports a track that failed to load after its problems were
// printed.
var errInvalid = errors.New("track is invalid")

// newLoader builds a loader from the config file, with --root replacing
// the configured roots.
func newLoader(opts *options) (*loader.Loader, error) {
	cfg := loader.DefaultConfig()
	if opts.config != "" {
		var err error
		if cfg, err = loader.LoadConfig(opts.config); err != nil {
			return nil, err
		}
	}
	if len(opts.roots) > 0 {
		cfg.Roots = opts.roots
	}
	return loader.New(cfg), nil
}

// load runs a load and prints its problems when it failed.
func load(ctx context.Context, opts *options, out io.Writer, req func(*loader.Loader) loader.Request) (*loader.Response, error) {
	ld, err := newLoader(opts)
	if err != nil {
		return nil, err
	}
	resp := ld.Load(ctx, req(ld))
	if errors.Is(resp.Err, loader.ErrNotFound) {
		return nil, resp.Err
	}
	if !resp.Success {
		printResponse(out, resp)
		return resp, errInvalid
	}
	return resp, nil
}

func withStages(id string, validate, geometry bool) func(*loader.Loader) loader.Request {
	return func(ld *loader.Loader) loader.Request {
		req := ld.Request(id)
		req.Validate = validate
		req.BuildGeometry = geometry
		return req
	}
}

func runValidate(ctx context.Context, opts *options, out io.Writer, id string) error {
	resp, err := load(ctx, opts, out, withStages(id, true, true))
	if err != nil {
		return err
	}
	printResponse(out, resp)
	return nil
}

// buildDoc is the output of the build command.
type buildDoc struct {
	Path        string             `json:"path" yaml:"path"`
	Meta        track.Meta         `json:"meta" yaml:"meta"`
	Environment track.Environment  `json:"environment" yaml:"environment"`
	Graph       *track.Graph       `json:"graph" yaml:"graph"`
	Placed      []placedEdge       `json:"placed" yaml:"placed"`
	Components  int                `json:"components" yaml:"components"`
	Report      *validation.Report `json:"report" yaml:"report"`
}

type placedEdge struct {
	ID             string              `json:"id" yaml:"id"`
	Transform      placement.Transform `json:"transform" yaml:"transform"`
	Component      int                 `json:"component" yaml:"component"`
	Length         float64             `json:"length" yaml:"length"`
	End            [3]float64          `json:"end" yaml:"end"`
	EndHeading     float64             `json:"end_heading" yaml:"end_heading"`
	ClosureError   float64             `json:"closure_error" yaml:"closure_error"`
	ClosureHeading float64             `json:"closure_heading" yaml:"closure_heading"`
}

func runBuild(ctx context.Context, opts *options, out io.Writer, id, format string) error {
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q: want json or yaml", format)
	}
	resp, err := load(ctx, opts, out, withStages(id, true, true))
	if err != nil {
		return err
	}
	l, w := resp.Layout, resp.World
	doc := buildDoc{
		Path:        resp.Path,
		Meta:        l.Meta,
		Environment: l.Environment,
		Graph:       l.Graph,
		Components:  w.Components(),
		Report:      resp.Report,
	}
	for _, rt := range w.Edges() {
		end := rt.Pose(rt.Geometry.Length())
		dp, dh := rt.Geometry.ClosureError()
		doc.Placed = append(doc.Placed, placedEdge{
			ID:             rt.Edge.ID,
			Transform:      rt.Transform,
			Component:      rt.Component,
			Length:         rt.Geometry.Length(),
			End:            end.Position,
			EndHeading:     rt.EndHeading(),
			ClosureError:   dp,
			ClosureHeading: dh,
		})
	}

	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func runFmt(ctx context.Context, opts *options, out io.Writer, id string, write bool) error {
	resp, err := load(ctx, opts, out, withStages(id, false, false))
	if err != nil {
		return err
	}
	data := trackfile.Format(resp.Layout)
	if !write {
		_, err := out.Write(data)
		return err
	}
	if strings.HasSuffix(resp.Path, ".zst") {
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf)
		if err != nil {
			return err
		}
		if _, err := enc.Write(data); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	if err := os.WriteFile(resp.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing track file: %w", err)
	}
	opts.log.Info("formatted track", "path", resp.Path)
	return nil
}

func runPose(ctx context.Context, opts *options, out io.Writer, id string, distance, hint float64) error {
	resp, err := load(ctx, opts, out, withStages(id, false, true))
	if err != nil {
		return err
	}
	w := resp.World
	start, ok := w.LapPosition(0)
	if !ok {
		return fmt.Errorf("track %q has no primary route start", id)
	}
	printPose(out, w, w.Advance(start, distance, hint))
	return nil
}

func runDump(ctx context.Context, opts *options, out io.Writer, id string, depth int) error {
	resp, err := load(ctx, opts, out, withStages(id, false, false))
	if err != nil {
		return err
	}
	cfg := spew.ConfigState{
		Indent:                  "  ",
		MaxDepth:                depth,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	cfg.Fdump(out, resp.Layout)
	return nil
}

func runServe(ctx context.Context, opts *options, port int) error {
	ld, err := newLoader(opts)
	if err != nil {
		return err
	}
	return server.New(ld, port, opts.log).Start(ctx)
}
