// SPDX-License-Identifier: MPL-2.0

// Package server serves the artifact catalog over HTTP and keeps it current.
//
// Reloads are ordered by generation: a reload that finishes after a newer one
// started is discarded. A failed reload keeps the previous catalog in place.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/artinav/artinav/internal/discovery"
	"github.com/artinav/artinav/internal/issue"
	"github.com/artinav/artinav/internal/notify"
	"github.com/artinav/artinav/internal/reload"
	"github.com/artinav/artinav/internal/serverbase"
	"github.com/artinav/artinav/internal/watch"
	"github.com/artinav/artinav/pkg/catalog"
)

const (
	defaultStartupTimeout = 10 * time.Second
	readHeaderTimeout     = 5 * time.Second
)

type (
	// Config configures a Server.
	Config struct {
		// Address is the TCP listen address; port 0 picks a free port.
		Address string
		// Source produces the artifact identifiers.
		Source discovery.Source
		// Order is the tree child ordering.
		Order catalog.Order
		// Watch enables filesystem-triggered reloads when non-nil.
		Watch *WatchConfig
		// Publisher announces committed reloads. Nil means no announcements.
		Publisher notify.Publisher
		// Registry receives the metrics. Nil creates a private registry.
		Registry *prometheus.Registry
		// Logger defaults to log.Default().
		Logger *log.Logger
		// StartupTimeout bounds listener setup. Zero means 10s.
		StartupTimeout time.Duration
	}

	// WatchConfig selects what the filesystem watcher observes.
	WatchConfig struct {
		Dir      string
		Patterns []string
		Ignore   []string
		Debounce time.Duration
	}

	// Server is the HTTP catalog server. It is single-use.
	Server struct {
		*serverbase.Base

		cfg      Config
		logger   *log.Logger
		metrics  *metrics
		registry *prometheus.Registry
		catalogs reload.Tracker[*discovery.Catalog]
		now      func() time.Time

		// applyMu serializes applying reload outcomes; applied is the newest
		// generation whose outcome was applied.
		applyMu sync.Mutex
		applied reload.Generation

		mu        sync.Mutex
		closeOnce sync.Once
		loadErr   error
		httpSrv   *http.Server
		listener  net.Listener
	}
)

// New validates cfg and returns a server in the created state.
func New(cfg Config) (*Server, error) {
	if cfg.Source == nil {
		return nil, errors.New("server: no artifact source configured")
	}
	if cfg.Publisher == nil {
		cfg.Publisher = notify.NopPublisher{}
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	m, reg := newMetrics(cfg.Registry)
	return &Server{
		Base:     serverbase.NewBase(),
		cfg:      cfg,
		logger:   logger.WithPrefix("server"),
		metrics:  m,
		registry: reg,
		now:      time.Now,
	}, nil
}

// Reload rebuilds the catalog from the source. A failure is returned and
// remembered, but the previously committed catalog keeps being served. A
// reload overtaken by a newer one is dropped silently.
func (s *Server) Reload(ctx context.Context) error {
	gen := s.catalogs.Begin()
	cat, err := discovery.Load(ctx, s.cfg.Source, s.cfg.Order)

	// The outcome of a reload (committed catalog, load error, gauges and the
	// announcement) is applied as one step, in generation order.
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	if err != nil {
		s.metrics.reloads.WithLabelValues(reloadError).Inc()
		if gen > s.applied && s.catalogs.IsCurrent(gen) {
			s.applied = gen
			s.setLoadErr(err)
		}
		s.logger.Error("catalog reload failed", "generation", gen, "err", err)
		return err
	}

	if gen <= s.applied || !s.catalogs.Commit(gen, cat) {
		s.metrics.reloads.WithLabelValues(reloadStale).Inc()
		s.logger.Debug("discarding superseded reload", "generation", gen)
		return nil
	}
	s.applied = gen
	s.setLoadErr(nil)
	s.metrics.reloads.WithLabelValues(reloadOK).Inc()

	stats := cat.Root.Stats()
	s.metrics.artifacts.Set(float64(stats.Files))
	s.metrics.folders.Set(float64(stats.Folders))
	s.metrics.generation.Set(float64(gen))
	for _, d := range cat.Diagnostics {
		s.logger.Debug(d.Message, "code", d.Code, "path", d.Path)
	}
	s.logger.Info("catalog loaded", "generation", gen, "artifacts", stats.Files, "folders", stats.Folders)

	ev := notify.Event{Generation: uint64(gen), Artifacts: stats.Files, Folders: stats.Folders, At: s.now().UTC()}
	if err := s.cfg.Publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("reload notification failed", "err", err)
	}
	return nil
}

// Catalog returns the committed catalog, its generation, and whether one has
// ever been loaded.
func (s *Server) Catalog() (*discovery.Catalog, reload.Generation, bool) {
	return s.catalogs.Current()
}

// LoadError returns the error of the most recent reload, or nil if it succeeded.
func (s *Server) LoadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

func (s *Server) setLoadErr(err error) {
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()
}

// Start listens, loads the initial catalog and begins serving. A failing
// initial load does not prevent startup; the API reports it until a reload
// succeeds.
func (s *Server) Start(ctx context.Context) error {
	if err := s.TransitionToStarting(ctx); err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer cancel()

	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", s.cfg.Address)
	if err != nil {
		s.TransitionToFailed(issue.NewErrorContext().
			WithOperation("start HTTP server").
			WithResource(s.cfg.Address).
			WithIssue(issue.ServerStartFailedId).
			Wrap(err).
			BuildError())
		return s.LastError()
	}

	var watcher *watch.Watcher
	if wc := s.cfg.Watch; wc != nil {
		watcher, err = watch.New(watch.Config{
			Dir:      wc.Dir,
			Patterns: wc.Patterns,
			Ignore:   wc.Ignore,
			Debounce: wc.Debounce,
			Logger:   s.logger,
			OnChange: func(ctx context.Context, _ []string) error {
				return s.Reload(ctx)
			},
		})
		if err != nil {
			_ = listener.Close()
			s.TransitionToFailed(fmt.Errorf("start watcher: %w", err))
			return s.LastError()
		}
	}

	_ = s.Reload(startupCtx)

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.mu.Lock()
	s.httpSrv = httpSrv
	s.listener = listener
	s.mu.Unlock()

	s.Go(func(context.Context) {
		s.TransitionToRunning()
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.SendError(fmt.Errorf("serve error: %w", err))
		}
	})
	if watcher != nil {
		s.Go(func(ctx context.Context) {
			if err := watcher.Run(ctx); err != nil {
				s.logger.Error("watcher stopped", "err", err)
				s.SendError(err)
			}
		})
	}

	select {
	case <-s.StartedChannel():
		s.logger.Info("HTTP server started", "address", listener.Addr().String())
		return nil
	case <-startupCtx.Done():
		s.TransitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		_ = s.Stop(context.Background())
		return s.LastError()
	}
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Stop shuts the server down gracefully within ctx, then closes the
// publisher. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	stopping := s.TransitionToStopping()
	if !stopping && s.State() != serverbase.StateFailed {
		s.Wait()
		return nil
	}

	s.mu.Lock()
	httpSrv := s.httpSrv
	listener := s.listener
	s.mu.Unlock()

	var err error
	if httpSrv != nil {
		err = httpSrv.Shutdown(ctx)
	} else if listener != nil {
		_ = listener.Close()
	}
	s.Wait()
	if stopping {
		s.TransitionToStopped()
	}
	s.closeOnce.Do(func() {
		if closeErr := s.cfg.Publisher.Close(); closeErr != nil {
			s.logger.Warn("close publisher", "err", closeErr)
		}
		s.logger.Info("HTTP server stopped")
	})
	return err
}
