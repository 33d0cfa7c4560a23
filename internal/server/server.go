// Package server is the local development server. It loads tracks on
// demand and answers layout, validation and pose queries as JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GruiaChiscop/top-speed/pkg/geometry"
	"github.com/GruiaChiscop/top-speed/pkg/loader"
	"github.com/GruiaChiscop/top-speed/pkg/placement"
	"github.com/GruiaChiscop/top-speed/pkg/track"
)

// Server serves tracks found by a loader. Loaded tracks are cached until
// a request asks for a reload.
type Server struct {
	loader *loader.Loader
	port   int
	log    *slog.Logger

	mu    sync.RWMutex
	cache map[string]*loader.Response
}

// New creates a server. A nil logger uses slog.Default.
func New(l *loader.Loader, port int, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		loader: l,
		port:   port,
		log:    log,
		cache:  make(map[string]*loader.Response),
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/tracks/{id}", s.handleTrack).Methods(http.MethodGet).Name("track")
	r.HandleFunc("/api/tracks/{id}/validation", s.handleValidation).Methods(http.MethodGet).Name("validation")
	r.HandleFunc("/api/tracks/{id}/pose", s.handlePose).Methods(http.MethodGet).Name("pose")
	r.HandleFunc("/api/tracks/{id}/lap", s.handleLap).Methods(http.MethodGet).Name("lap")
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	return r
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	s.log.Info("track server starting", "addr", "http://localhost"+srv.Addr, "roots", s.loader.Config().Roots)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// load returns the cached response for id, loading it on a miss or when
// reload is set.
func (s *Server) load(ctx context.Context, id string, reload bool) *loader.Response {
	if !reload {
		s.mu.RLock()
		resp, ok := s.cache[id]
		s.mu.RUnlock()
		if ok {
			cacheLookups.WithLabelValues("hit").Inc()
			return resp
		}
	}
	cacheLookups.WithLabelValues("miss").Inc()

	start := time.Now()
	resp := s.loader.Load(ctx, s.loader.Request(id))
	trackLoadDuration.Observe(time.Since(start).Seconds())
	result := "ok"
	if !resp.Success {
		result = "failed"
	}
	trackLoads.WithLabelValues(result).Inc()

	if errors.Is(resp.Err, context.Canceled) || errors.Is(resp.Err, context.DeadlineExceeded) {
		return resp
	}
	s.mu.Lock()
	s.cache[id] = resp
	s.mu.Unlock()
	return resp
}

// Invalidate drops id from the cache, or every track when id is empty.
func (s *Server) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.cache = make(map[string]*loader.Response)
		return
	}
	delete(s.cache, id)
}

type trackView struct {
	Path        string               `json:"path"`
	Success     bool                 `json:"success"`
	Summary     string               `json:"summary"`
	Meta        track.Meta           `json:"meta"`
	Environment track.Environment    `json:"environment"`
	Nodes       []nodeView           `json:"nodes"`
	Edges       []edgeView           `json:"edges"`
	Routes      []routeView          `json:"routes"`
	Primary     string               `json:"primary_route"`
	Bounds      *orb.Bound           `json:"bounds,omitempty"`
	Mismatches  []placement.Mismatch `json:"mismatches,omitempty"`
}

type nodeView struct {
	ID       string               `json:"id"`
	Name     string               `json:"name,omitempty"`
	Position *placement.Transform `json:"position,omitempty"`
}

type edgeView struct {
	ID        string  `json:"id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Length    float64 `json:"length"`
	Component int     `json:"component"`
}

type routeView struct {
	ID     string   `json:"id"`
	Edges  []string `json:"edges"`
	IsLoop bool     `json:"is_loop"`
	Length float64  `json:"length"`
}

func newTrackView(resp *loader.Response) trackView {
	l, w := resp.Layout, resp.World
	g := l.Graph
	v := trackView{
		Path:        resp.Path,
		Success:     resp.Success,
		Summary:     resp.Report.Summary,
		Meta:        l.Meta,
		Environment: l.Environment,
		Primary:     g.PrimaryRoute().ID,
	}
	for _, n := range g.Nodes() {
		nv := nodeView{ID: n.ID, Name: n.Name}
		if w != nil {
			if t, ok := w.NodeTransform(n.ID); ok {
				nv.Position = &t
			}
		}
		v.Nodes = append(v.Nodes, nv)
	}
	for i, e := range g.Edges() {
		ev := edgeView{ID: e.ID, From: e.From, To: e.To, Length: e.Length()}
		if w != nil {
			ev.Component = w.Edges()[i].Component
		}
		v.Edges = append(v.Edges, ev)
	}
	for _, r := range g.Routes() {
		v.Routes = append(v.Routes, routeView{ID: r.ID, Edges: r.Edges, IsLoop: r.IsLoop, Length: g.RouteLength(r.ID)})
	}
	if w != nil {
		b := w.Bounds()
		v.Bounds = &b
		v.Mismatches = w.Mismatches()
	}
	return v
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.track(w, r, "track")
	if !ok {
		return
	}
	s.writeJSON(w, "track", http.StatusOK, newTrackView(resp))
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	resp := s.load(r.Context(), mux.Vars(r)["id"], reload(r))
	if errors.Is(resp.Err, loader.ErrNotFound) {
		s.writeError(w, "validation", http.StatusNotFound, resp.Err)
		return
	}
	s.writeJSON(w, "validation", http.StatusOK, map[string]any{
		"path":         resp.Path,
		"success":      resp.Success,
		"parse_errors": resp.ParseErrors,
		"report":       resp.Report,
	})
}

type poseView struct {
	placement.Position
	Route     string        `json:"route"`
	EdgeID    string        `json:"edge_id"`
	Curvature float64       `json:"curvature"`
	Width     float64       `json:"width"`
	Surface   track.Surface `json:"surface"`
	Noise     track.Noise   `json:"noise"`
	Pose      geometry.Pose `json:"pose"`
}

func (s *Server) pose(w *placement.World, pos placement.Position) poseView {
	rt := &w.Edges()[pos.Edge]
	p, _ := w.Pose(pos)
	return poseView{
		Position:  pos,
		Route:     w.Layout().Graph.PrimaryRoute().ID,
		EdgeID:    rt.Edge.ID,
		Curvature: w.Curvature(pos),
		Width:     rt.Edge.WidthAt(pos.S),
		Surface:   rt.Edge.SurfaceAt(pos.S),
		Noise:     rt.Edge.NoiseAt(pos.S),
		Pose:      p,
	}
}

// handlePose drives d meters from the start of the primary route, taking
// branches by hint.
func (s *Server) handlePose(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.world(w, r, "pose")
	if !ok {
		return
	}
	d, err := floatParam(r, "d", 0)
	if err != nil {
		s.writeError(w, "pose", http.StatusBadRequest, err)
		return
	}
	hint, err := floatParam(r, "hint", 0)
	if err != nil {
		s.writeError(w, "pose", http.StatusBadRequest, err)
		return
	}
	world := resp.World
	start, ok := world.LapPosition(0)
	if !ok {
		s.writeError(w, "pose", http.StatusUnprocessableEntity, errors.New("primary route has no start"))
		return
	}
	s.writeJSON(w, "pose", http.StatusOK, s.pose(world, world.Advance(start, d, hint)))
}

// handleLap maps a lap distance on the primary route to a position,
// wrapping on loops.
func (s *Server) handleLap(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.world(w, r, "lap")
	if !ok {
		return
	}
	d, err := floatParam(r, "d", 0)
	if err != nil {
		s.writeError(w, "lap", http.StatusBadRequest, err)
		return
	}
	pos, ok := resp.World.LapPosition(d)
	if !ok {
		s.writeError(w, "lap", http.StatusUnprocessableEntity, fmt.Errorf("distance %v is not on the primary route", d))
		return
	}
	s.writeJSON(w, "lap", http.StatusOK, s.pose(resp.World, pos))
}

// track loads the requested track and writes an error if it has no layout.
func (s *Server) track(w http.ResponseWriter, r *http.Request, endpoint string) (*loader.Response, bool) {
	resp := s.load(r.Context(), mux.Vars(r)["id"], reload(r))
	switch {
	case errors.Is(resp.Err, loader.ErrNotFound):
		s.writeError(w, endpoint, http.StatusNotFound, resp.Err)
		return nil, false
	case resp.Layout == nil:
		s.writeJSON(w, endpoint, http.StatusUnprocessableEntity, map[string]any{
			"error":  errString(resp.Err),
			"report": resp.Report,
		})
		return nil, false
	}
	return resp, true
}

// world is track for endpoints that need a placed world.
func (s *Server) world(w http.ResponseWriter, r *http.Request, endpoint string) (*loader.Response, bool) {
	resp, ok := s.track(w, r, endpoint)
	if !ok {
		return nil, false
	}
	if resp.World == nil {
		s.writeJSON(w, endpoint, http.StatusUnprocessableEntity, map[string]any{
			"error":  "track geometry was not built: " + errString(resp.Err),
			"report": resp.Report,
		})
		return nil, false
	}
	return resp, true
}

func errString(err error) string {
	if err == nil {
		return "no error"
	}
	return err.Error()
}

func reload(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("reload"))
	return v
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s: %q is not a number", name, v)
	}
	return f, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, endpoint string, code int, v any) {
	queries.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("writing response", "endpoint", endpoint, "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, endpoint string, code int, err error) {
	s.writeJSON(w, endpoint, code, map[string]string{"error": err.Error()})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>Track Layout</title></head>
<body style="margin:0;background:#111;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>Track Layout</h1>
<p>Try <code>/api/tracks/&lt;id&gt;</code>, <code>/validation</code>, <code>/pose?d=100</code> or <code>/lap?d=100</code>.</p>
</div>
</body></html>`)
}
