// SPDX-License-Identifier: MPL-2.0

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/artinav/artinav/internal/discovery"
	"github.com/artinav/artinav/pkg/catalog"
	"github.com/artinav/artinav/pkg/navigator"
)

type (
	// TreeResponse is the body of GET /api/tree.
	TreeResponse struct {
		Generation uint64            `json:"generation"`
		Stats      catalog.Stats     `json:"stats"`
		Root       *catalog.TreeNode `json:"root"`
		// Error is set when the latest reload failed and an older catalog is served.
		Error string `json:"error,omitempty"`
	}

	// Entry is one listed child in a BrowseResponse.
	Entry struct {
		Name string       `json:"name"`
		Path string       `json:"path"`
		Kind catalog.Kind `json:"kind"`
	}

	// BrowseResponse is the body of GET /api/browse.
	BrowseResponse struct {
		Generation  uint64                 `json:"generation"`
		Path        []string               `json:"path"`
		Query       string                 `json:"query"`
		Breadcrumbs []navigator.Breadcrumb `json:"breadcrumbs"`
		Entries     []Entry                `json:"entries"`
		// Reset is true when the requested path no longer exists and the
		// listing fell back to the root.
		Reset bool `json:"reset"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(pattern, name string, h http.HandlerFunc) {
		mux.Handle(pattern, s.instrument(name, h))
	}
	route("GET /health", "health", s.handleHealth)
	route("GET "+discovery.ManifestPath, "manifest", s.handleManifest)
	route("GET /api/tree", "tree", s.handleTree)
	route("GET /api/browse", "browse", s.handleBrowse)
	route("POST /api/reload", "reload", s.handleReload)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// current returns the committed catalog, or writes 503 and returns nil.
func (s *Server) current(w http.ResponseWriter) (*discovery.Catalog, uint64) {
	cat, gen, ok := s.Catalog()
	if !ok {
		msg := "catalog not loaded"
		if err := s.LoadError(); err != nil {
			msg = err.Error()
		}
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msg})
		return nil, 0
	}
	return cat, uint64(gen)
}

func (s *Server) handleManifest(w http.ResponseWriter, _ *http.Request) {
	cat, _ := s.current(w)
	if cat == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, discovery.ManifestFor(cat.IDs))
}

func (s *Server) handleTree(w http.ResponseWriter, _ *http.Request) {
	cat, gen := s.current(w)
	if cat == nil {
		return
	}
	resp := TreeResponse{Generation: gen, Stats: cat.Root.Stats(), Root: cat.Root}
	if err := s.LoadError(); err != nil {
		resp.Error = err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	cat, gen := s.current(w)
	if cat == nil {
		return
	}

	q := r.URL.Query()
	nav := navigator.NewWithState(cat.Root, navigator.State{
		Path:  catalog.SplitPath(q.Get("path")),
		Query: q.Get("q"),
	})

	visible := nav.VisibleEntries()
	entries := make([]Entry, 0, len(visible))
	for _, n := range visible {
		entries = append(entries, Entry{Name: n.Name, Path: n.Path, Kind: n.Kind})
	}
	path := nav.CurrentPath()
	if path == nil {
		path = []string{}
	}

	s.writeJSON(w, http.StatusOK, BrowseResponse{
		Generation:  gen,
		Path:        path,
		Query:       nav.SearchQuery(),
		Breadcrumbs: nav.Breadcrumbs(),
		Entries:     entries,
		Reset:       errors.Is(nav.LastReset(), navigator.ErrNavigationInconsistency),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	_, gen, _ := s.Catalog()
	s.writeJSON(w, http.StatusOK, map[string]uint64{"generation": uint64(gen)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "err", err)
	}
}
