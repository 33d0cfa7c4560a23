// Package loader finds track files, parses them and runs the requested
// build stages, reporting every problem in one response.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/GruiaChiscop/top-speed/pkg/placement"
	"github.com/GruiaChiscop/top-speed/pkg/track"
	"github.com/GruiaChiscop/top-speed/pkg/trackfile"
	"github.com/GruiaChiscop/top-speed/pkg/validation"
)

// ErrNotFound is returned by Resolve when no root holds the track.
var ErrNotFound = errors.New("track not found")

// Loader resolves and loads tracks according to a Config.
type Loader struct {
	cfg Config
}

// New returns a loader for cfg.
func New(cfg Config) *Loader {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultConfig().Extensions
	}
	return &Loader{cfg: cfg}
}

// Config returns the loader's configuration.
func (l *Loader) Config() Config { return l.cfg }

// Request asks for one track and the stages to run on it.
type Request struct {
	ID            string
	Validate      bool
	BuildGeometry bool
	AllowWarnings bool
}

// Request returns a request for id using the configured stages.
func (l *Loader) Request(id string) Request {
	return Request{
		ID:            id,
		Validate:      l.cfg.Validate,
		BuildGeometry: l.cfg.BuildGeometry,
		AllowWarnings: l.cfg.AllowWarnings,
	}
}

// Response is the outcome of a load. Layout is nil when parsing failed;
// World is nil unless geometry was requested and built. Report holds every
// finding from every stage that ran, parse errors included.
type Response struct {
	Path        string              `json:"path,omitempty"`
	Layout      *track.Layout       `json:"layout,omitempty"`
	World       *placement.World    `json:"-"`
	ParseErrors trackfile.ErrorList `json:"parse_errors,omitempty"`
	Report      *validation.Report  `json:"report"`
	Success     bool                `json:"success"`
	Err         error               `json:"-"`
}

// Resolve maps a track id to a file. An id naming an existing file is used
// as is; otherwise each root is tried with each extension in order.
func (l *Loader) Resolve(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: empty track id", ErrNotFound)
	}
	if isFile(id) {
		return id, nil
	}
	for _, root := range l.cfg.Roots {
		base := filepath.Join(root, id)
		if l.hasExtension(id) && isFile(base) {
			return base, nil
		}
		for _, ext := range l.cfg.Extensions {
			if p := base + ext; isFile(p) {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q in %s", ErrNotFound, id, strings.Join(l.cfg.Roots, ", "))
}

func (l *Loader) hasExtension(id string) bool {
	for _, ext := range l.cfg.Extensions {
		if strings.HasSuffix(id, ext) {
			return true
		}
	}
	return false
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// Open returns a reader over the track file at path, decompressing files
// ending in .zst.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening track file: %w", err)
	}
	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}
	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening zstd stream: %w", err)
	}
	return zstdFile{dec, f}, nil
}

type zstdFile struct {
	*zstd.Decoder
	f *os.File
}

func (z zstdFile) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

// Load resolves req.ID and runs the requested stages. It never returns
// nil; failures are recorded in the response. The context is checked
// between stages.
func (l *Loader) Load(ctx context.Context, req Request) *Response {
	start := time.Now()
	log := Logger().With("track", req.ID)
	resp := &Response{Report: validation.NewReport()}
	fail := func(level validation.Level, err error) *Response {
		resp.Err = err
		resp.Report.AddError(validation.Result{Level: level, Message: err.Error(), Path: resp.Path})
		log.Warn("track load failed", "err", err)
		return resp
	}

	path, err := l.Resolve(req.ID)
	if err != nil {
		return fail(validation.LevelSyntax, err)
	}
	resp.Path = path

	layout, err := l.parse(path)
	if err != nil {
		var list trackfile.ErrorList
		if errors.As(err, &list) {
			resp.ParseErrors = list
			resp.Report.Merge(FromParseErrors(list))
			resp.Err = err
			log.Info("track has parse errors", "path", path, "count", len(list))
			return resp
		}
		return fail(validation.LevelSyntax, err)
	}
	resp.Layout = layout
	log.Debug("parsed track", "path", path, "edges", len(layout.Graph.Edges()))

	if req.Validate {
		if err := ctx.Err(); err != nil {
			return fail(validation.LevelSemantic, err)
		}
		resp.Report.Merge(validation.ValidateLayout(layout))
	}

	if req.BuildGeometry {
		if err := ctx.Err(); err != nil {
			return fail(validation.LevelGeometry, err)
		}
		w, err := placement.Place(layout)
		if err != nil {
			return fail(validation.LevelGeometry, err)
		}
		resp.World = w
		if req.Validate {
			resp.Report.Merge(validation.ValidateWorld(w))
		}
	}

	resp.Success = resp.Report.Valid && (req.AllowWarnings || len(resp.Report.Warnings) == 0)
	log.Info("loaded track", "path", path, "success", resp.Success,
		"summary", resp.Report.Summary, "elapsed", time.Since(start))
	return resp
}

func (l *Loader) parse(path string) (*track.Layout, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return trackfile.Parse(rc)
}

// FromParseErrors converts parse errors to validation results. Errors tied
// to a source text are syntax errors; the rest were found after the pass.
func FromParseErrors(list trackfile.ErrorList) *validation.Report {
	r := validation.NewReport()
	for _, e := range list {
		res := validation.Result{Level: validation.LevelSemantic, Message: e.Msg, Line: e.Line}
		if e.Text != "" {
			res.Level = validation.LevelSyntax
			res.ActualValue = e.Text
		}
		r.AddError(res)
	}
	return r
}
