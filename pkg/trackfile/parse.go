// Package trackfile reads and writes the line-oriented track description
// format.
//
// A file is a sequence of [section] blocks. [meta], [environment] and
// [edge <id>] hold key=value properties; [nodes], [edges], [routes] and the
// per-edge [edge <id>.<kind>] blocks hold one record per line, made of
// key=value pairs and positional values. Text after '#' or ';' outside
// quotes is a comment.
package trackfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/GruiaChiscop/top-speed/pkg/track"
)

type sectionKind int

const (
	secNone sectionKind = iota
	secSkip
	secMeta
	secEnvironment
	secNodes
	secEdges
	secRoutes
	secEdge
	secEdgeRecords
)

type section struct {
	kind sectionKind
	edge *edgeBuilder
	sub  string
}

// parser accumulates builders for every entity while reading lines, then
// freezes them into a track.Layout.
type parser struct {
	errs ErrorList
	sec  section

	meta        track.Meta
	env         track.Environment
	primaryLine int

	nodes   []*nodeBuilder
	nodeIdx map[string]*nodeBuilder
	edges   []*edgeBuilder
	edgeIdx map[string]*edgeBuilder
	routes  []*routeBuilder
	routeID map[string]*routeBuilder
}

func newParser() *parser {
	return &parser{
		env:     track.DefaultEnvironment(),
		nodeIdx: make(map[string]*nodeBuilder),
		edgeIdx: make(map[string]*edgeBuilder),
		routeID: make(map[string]*routeBuilder),
	}
}

// Parse reads a track file. On any problem it returns a nil layout and an
// ErrorList holding every error found.
func Parse(r io.Reader) (*track.Layout, error) {
	p := newParser()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		p.line(n, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading track: %w", err)
	}
	return p.finish()
}

// ParseBytes parses an in-memory track file.
func ParseBytes(data []byte) (*track.Layout, error) {
	return Parse(bytes.NewReader(data))
}

// ParseFile parses the track file at path.
func ParseFile(path string) (*track.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening track file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func (p *parser) line(n int, raw string) {
	text := strings.TrimSpace(stripComment(raw))
	if text == "" {
		return
	}

	if name, ok, err := header(text); ok {
		if err != nil {
			p.errs.Add(n, raw, err.Error())
			p.sec = section{kind: secSkip}
			return
		}
		p.openSection(n, raw, name)
		return
	}

	var err error
	switch p.sec.kind {
	case secNone:
		err = fmt.Errorf("text outside of a section")
	case secSkip:
		return
	case secMeta:
		err = p.property(text, p.metaProperty)
	case secEnvironment:
		err = p.property(text, func(k, v string) error { return p.envProperty(n, k, v) })
	case secEdge:
		err = p.property(text, func(k, v string) error { return p.sec.edge.property(k, v) })
	default:
		err = p.record(n, text)
	}
	if err != nil {
		p.errs.Add(n, raw, err.Error())
	}
}

func (p *parser) openSection(n int, raw, name string) {
	parts := strings.Fields(name)
	if len(parts) == 1 {
		kinds := map[string]sectionKind{
			"meta":        secMeta,
			"environment": secEnvironment,
			"nodes":       secNodes,
			"edges":       secEdges,
			"routes":      secRoutes,
		}
		if k, ok := kinds[strings.ToLower(parts[0])]; ok {
			p.sec = section{kind: k}
			return
		}
	}
	if len(parts) == 2 && strings.EqualFold(parts[0], "edge") {
		id, sub := splitSubsection(parts[1])
		switch {
		case id == "":
			p.errs.Add(n, raw, "edge section needs an id")
		case sub == "":
			p.sec = section{kind: secEdge, edge: p.edge(id, n)}
			return
		default:
			p.sec = section{kind: secEdgeRecords, edge: p.edge(id, n), sub: sub}
			return
		}
		p.sec = section{kind: secSkip}
		return
	}
	p.errs.Add(n, raw, fmt.Sprintf("unknown section [%s]", name))
	p.sec = section{kind: secSkip}
}

// splitSubsection splits "id.sub" when sub names a record section. Any
// other dot belongs to the edge id.
func splitSubsection(name string) (id, sub string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		if s := strings.ToLower(name[i+1:]); recordHandlers[s] != nil {
			return name[:i], s
		}
	}
	return name, ""
}

// checkEdgeID rejects ids that cannot be written back: whitespace and
// characters with a meaning in headers or lists, or a suffix that reads as
// a record section.
func checkEdgeID(id string) error {
	if strings.ContainsFunc(id, unicode.IsSpace) || strings.ContainsAny(id, `,[]#;"`) {
		return fmt.Errorf("edge id %q must not contain whitespace or any of , [ ] # ; \"", id)
	}
	if _, sub := splitSubsection(id); sub != "" {
		return fmt.Errorf("edge id %q must not end in a section name", id)
	}
	return nil
}

// edge returns the builder for id, creating an undeclared one on first
// reference.
func (p *parser) edge(id string, n int) *edgeBuilder {
	if e, ok := p.edgeIdx[id]; ok {
		return e
	}
	e := newEdgeBuilder(id, n)
	p.edgeIdx[id] = e
	p.edges = append(p.edges, e)
	return e
}

func (p *parser) property(text string, set func(key, value string) error) error {
	key, value, err := splitProperty(text)
	if err != nil {
		return err
	}
	return set(key, value)
}

func (p *parser) metaProperty(key, value string) error {
	switch key {
	case "name", "title":
		p.meta.Name = value
	case "author":
		p.meta.Author = value
	case "version":
		p.meta.Version = value
	case "tags":
		p.meta.Tags = splitList(value)
	case "description":
		p.meta.Description = value
	default:
		if p.meta.Extra == nil {
			p.meta.Extra = make(map[string]string)
		}
		p.meta.Extra[key] = value
	}
	return nil
}

func (p *parser) envProperty(n int, key, value string) error {
	var err error
	switch key {
	case "weather":
		p.env.Weather, err = track.ParseWeather(value)
	case "ambience":
		p.env.Ambience, err = track.ParseAmbience(value)
	case "default_surface", "surface":
		p.env.DefaultSurface, err = track.ParseSurface(value)
	case "default_noise", "noise":
		p.env.DefaultNoise, err = track.ParseNoise(value)
	case "default_width", "width":
		p.env.DefaultWidth, err = parseWidth(value)
	case "sample_spacing", "spacing":
		p.env.SampleSpacing, err = parsePositive("sample_spacing", value)
	case "enforce_closure", "closure":
		p.env.EnforceClosure, err = parseBool(value)
	case "primary_route", "primary":
		p.env.PrimaryRoute = value
		p.primaryLine = n
	default:
		err = fmt.Errorf("unknown environment key %q", key)
	}
	return err
}

func (p *parser) record(n int, text string) error {
	toks, err := tokenize(text)
	if err != nil {
		return err
	}
	f := newFields(toks)
	switch p.sec.kind {
	case secNodes:
		return p.nodeRecord(f)
	case secEdges:
		return p.edgeRecord(n, f)
	case secRoutes:
		return p.routeRecord(n, f)
	}
	e := p.sec.edge
	if err := recordHandlers[p.sec.sub](e, f); err != nil {
		if p.sec.sub == "geometry" {
			e.badGeometry = true
		}
		return err
	}
	if extra := f.extra(); len(extra) > 0 {
		return fmt.Errorf("unknown key %q", extra[0])
	}
	return nil
}

func (p *parser) nodeRecord(f *fields) error {
	id, ok := f.get(0, "id")
	if !ok || id == "" {
		return fmt.Errorf("node is missing an id")
	}
	if _, dup := p.nodeIdx[id]; dup {
		return fmt.Errorf("duplicate node %q", id)
	}
	nb, err := parseNode(id, f)
	if err != nil {
		return err
	}
	p.nodeIdx[id] = nb
	p.nodes = append(p.nodes, nb)
	return nil
}

func (p *parser) edgeRecord(n int, f *fields) error {
	id, ok := f.get(0, "id")
	if !ok || id == "" {
		return fmt.Errorf("edge is missing an id")
	}
	if err := checkEdgeID(id); err != nil {
		return err
	}
	e := p.edge(id, n)
	if e.declared {
		return fmt.Errorf("duplicate edge %q", id)
	}
	e.declared = true
	e.line = n
	if v, ok := f.get(1, "from"); ok {
		e.from = v
	}
	if v, ok := f.get(2, "to"); ok {
		e.to = v
	}
	for _, k := range f.extra() {
		if err := e.property(k, f.named[k]); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) routeRecord(n int, f *fields) error {
	id, ok := f.get(0, "id")
	if !ok || id == "" {
		return fmt.Errorf("route is missing an id")
	}
	if _, dup := p.routeID[id]; dup {
		return fmt.Errorf("duplicate route %q", id)
	}
	r := &routeBuilder{id: id, line: n}
	if v, ok := f.get(-1, "edges"); ok {
		r.edges = splitList(v)
	} else {
		pos := f.positional()
		if _, named := f.named["id"]; !named {
			pos = pos[1:]
		}
		for _, v := range pos {
			r.edges = append(r.edges, splitList(v)...)
		}
	}
	if len(r.edges) == 0 {
		return fmt.Errorf("route %q has no edges", id)
	}
	if v, ok := f.get(-1, "is_loop", "loop"); ok {
		loop, err := parseBool(v)
		if err != nil {
			return err
		}
		r.loop = &loop
	}
	if extra := f.extra(); len(extra) > 0 {
		return fmt.Errorf("unknown key %q", extra[0])
	}
	p.routeID[id] = r
	p.routes = append(p.routes, r)
	return nil
}

// finish runs the semantic checks and freezes the builders.
func (p *parser) finish() (*track.Layout, error) {
	edges := make([]track.Edge, 0, len(p.edges))
	for _, e := range p.edges {
		if sec, ok := p.strayHeader(e); ok {
			p.errs.Add(e.line, "", fmt.Sprintf("unknown edge section %q", sec))
			continue
		}
		edge, err := e.build(p.env)
		if err != nil {
			if !errors.Is(err, errReported) {
				p.errs.Add(e.line, "", err.Error())
			}
			continue
		}
		edges = append(edges, edge)
	}

	routes := make([]track.Route, 0, len(p.routes))
	for _, r := range p.routes {
		route, err := r.build(p.edgeIdx)
		if err != nil {
			p.errs.Add(r.line, "", err.Error())
			continue
		}
		routes = append(routes, route)
	}

	if id := p.env.PrimaryRoute; id != "" {
		_, declared := p.routeID[id]
		if !declared && !(len(p.routes) == 0 && id == track.FallbackRouteID) {
			p.errs.Add(p.primaryLine, "", fmt.Sprintf("primary route %q is not declared", id))
		}
	}
	if len(p.edges) == 0 && len(p.errs) == 0 {
		p.errs.Add(0, "", "track declares no edges")
	}

	if len(p.errs) > 0 {
		p.errs.Sort()
		return nil, p.errs
	}

	nodes := make([]track.Node, len(p.nodes))
	for i, nb := range p.nodes {
		nodes[i] = nb.node
	}
	g, err := track.NewGraph(nodes, edges, routes, p.env.PrimaryRoute)
	if err != nil {
		return nil, ErrorList{{Msg: err.Error()}}
	}
	return &track.Layout{Meta: p.meta, Environment: p.env, Graph: g}, nil
}

// strayHeader reports an undeclared edge whose id is a declared edge plus a
// dotted suffix, which is a mistyped subsection header.
func (p *parser) strayHeader(e *edgeBuilder) (string, bool) {
	if e.declared {
		return "", false
	}
	i := strings.LastIndexByte(e.id, '.')
	if i < 0 {
		return "", false
	}
	if owner, ok := p.edgeIdx[e.id[:i]]; ok && owner.declared {
		return e.id[i+1:], true
	}
	return "", false
}

type routeBuilder struct {
	id    string
	line  int
	edges []string
	loop  *bool
}

func (r *routeBuilder) build(edges map[string]*edgeBuilder) (track.Route, error) {
	for _, id := range r.edges {
		if e, ok := edges[id]; !ok || !e.declared {
			return track.Route{}, fmt.Errorf("route %q references unknown edge %q", r.id, id)
		}
	}
	route := track.Route{ID: r.id, Edges: r.edges}
	if r.loop != nil {
		route.IsLoop = *r.loop
	} else {
		first, last := edges[r.edges[0]], edges[r.edges[len(r.edges)-1]]
		route.IsLoop = first.from == last.to
	}
	return route, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
