package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourorg/botapigen/internal/config"
	"github.com/yourorg/botapigen/internal/filter"
	"github.com/yourorg/botapigen/internal/generator"
	"github.com/yourorg/botapigen/internal/render"
	"github.com/yourorg/botapigen/internal/store"
	"github.com/yourorg/botapigen/pkg/types"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>botapigen</title></head>
<body>
<h1>botapigen snapshots</h1>
{{if .}}<table>
<tr><th>ID</th><th>Source</th><th>Size</th><th>Fetched</th><th>Render</th></tr>
{{range .}}<tr><td>{{.ID}}</td><td>{{.Source}}</td><td>{{.Size}}</td><td>{{.FetchedAt.Format "2006-01-02 15:04:05"}}</td><td><a href="/api/snapshots/{{.ID}}/render?format=typescript">typescript</a> <a href="/api/snapshots/{{.ID}}/render?format=markdown">markdown</a></td></tr>
{{end}}</table>{{else}}<p>No snapshots yet. Run <code>botapigen download --save</code>.</p>{{end}}
</body>
</html>
`))

var contentTypes = map[string]string{
	render.FormatTypeScript: "text/plain; charset=utf-8",
	render.FormatJSON:       "application/json; charset=utf-8",
	render.FormatMarkdown:   "text/markdown; charset=utf-8",
	render.FormatOpenAPI:    "application/yaml; charset=utf-8",
}

// Server exposes stored snapshots, runs and renders over HTTP.
type Server struct {
	cfg       *config.Config
	store     store.Store
	catalogue types.Catalogue
	mux       *http.ServeMux
}

// New constructs a new Server with routes registered. cat, narrowed by the
// configured filter, is the catalogue used by the render endpoint.
func New(cfg *config.Config, st store.Store, cat types.Catalogue) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if st == nil {
		return nil, errors.New("store is nil")
	}

	srv := &Server{
		cfg:       cfg,
		store:     st,
		catalogue: filter.Apply(cat, cfg.Filter),
		mux:       http.NewServeMux(),
	}
	srv.registerRoutes()
	return srv, nil
}

// Handler returns the http handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the server on addr.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/snapshots", s.handleSnapshots)
	s.mux.HandleFunc("/api/snapshots/", s.handleSnapshotRoutes)
	s.mux.HandleFunc("/api/runs/", s.handleRunRoutes)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snaps, err := s.store.ListSnapshots()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = indexTemplate.Execute(w, snaps)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snaps, err := s.store.ListSnapshots()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if snaps == nil {
		snaps = []types.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleSnapshotRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, tail, ok := splitPath(r.URL.Path, "/api/snapshots/")
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}
	switch tail {
	case "":
		s.handleSnapshotDetail(w, id)
	case "runs":
		s.handleSnapshotRuns(w, id)
	case "render":
		s.handleRender(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleSnapshotDetail(w http.ResponseWriter, id string) {
	snap, ok := s.snapshot(w, id)
	if !ok {
		return
	}
	snap.HTML = ""
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSnapshotRuns(w http.ResponseWriter, id string) {
	if _, ok := s.snapshot(w, id); !ok {
		return
	}
	runs, err := s.store.ListRuns(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request, id string) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = s.cfg.Output.Format
	}
	contentType, known := contentTypes[format]
	if !known {
		http.Error(w, "unknown format "+strconv.Quote(format), http.StatusBadRequest)
		return
	}
	snap, ok := s.snapshot(w, id)
	if !ok {
		return
	}
	res, err := generator.Generate(snap.HTML, s.catalogue, generator.Options{
		BaseURL:     s.cfg.Source.LinkBase(),
		Concurrency: s.cfg.Pipeline.Concurrency,
		Format:      format,
		ClassName:   s.cfg.Output.ClassName,
	}, nil)
	if err != nil {
		http.Error(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Diagnostics", strconv.Itoa(len(res.Schema.Diagnostics)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Output)
}

func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, tail, ok := splitPath(r.URL.Path, "/api/runs/")
	if !ok || tail != "diagnostics" {
		http.NotFound(w, r)
		return
	}
	runID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	diags, err := s.store.GetDiagnostics(runID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, diags)
}

// snapshot loads a snapshot or writes the error response.
func (s *Server) snapshot(w http.ResponseWriter, id string) (*types.Snapshot, bool) {
	snap, err := s.store.GetSnapshot(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "snapshot not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return snap, true
}

func splitPath(fullPath, prefix string) (string, string, bool) {
	if !strings.HasPrefix(fullPath, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(fullPath, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	tail := ""
	if len(parts) > 1 {
		tail = strings.Join(parts[1:], "/")
	}
	return id, tail, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
