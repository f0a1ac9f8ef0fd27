// SPDX-License-Identifier: MPL-2.0

// Package sshserver serves the catalog browser over SSH.
//
// Every session that requests a PTY gets its own browser with its own
// navigation state; the catalog itself is loaded per session through the
// configured Loader. When the user picks a file the session prints the
// selection and closes.
package sshserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"

	"github.com/artinav/artinav/internal/config"
	"github.com/artinav/artinav/internal/issue"
	"github.com/artinav/artinav/internal/serverbase"
	"github.com/artinav/artinav/internal/tui"
)

const (
	// HostKeyFile is the host key file name inside the config directory.
	HostKeyFile = "ssh_host_ed25519"

	defaultStartupTimeout  = 5 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Minute
)

// modelKey stores a session's browser in its ssh.Context.
type modelKey struct{}

type (
	// Config configures a Server.
	Config struct {
		// Address is the TCP listen address; port 0 picks a free port.
		Address string
		// HostKeyPath is created on first start when missing. Empty means
		// HostKeyFile inside config.ConfigDir().
		HostKeyPath string
		// Load produces the catalog for each session. Required.
		Load tui.Loader
		// ColorScheme applies to every session.
		ColorScheme config.ColorScheme
		// Logger defaults to log.Default().
		Logger *log.Logger
		// IdleTimeout closes sessions without input. Zero means 30m.
		IdleTimeout time.Duration
		// StartupTimeout zero means 5s; ShutdownTimeout zero means 10s.
		StartupTimeout  time.Duration
		ShutdownTimeout time.Duration
	}

	// Server is the SSH browser server. It is single-use.
	Server struct {
		*serverbase.Base

		cfg    Config
		logger *log.Logger

		srvMu    sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string
	}
)

// New validates cfg and returns a server in the created state.
func New(cfg Config) (*Server, error) {
	if cfg.Load == nil {
		return nil, errors.New("sshserver: no catalog loader configured")
	}
	if cfg.HostKeyPath == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, fmt.Errorf("sshserver: resolve host key location: %w", err)
		}
		cfg.HostKeyPath = filepath.Join(dir, HostKeyFile)
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = defaultStartupTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Server{
		Base:   serverbase.NewBase(),
		cfg:    cfg,
		logger: logger.WithPrefix("ssh"),
	}, nil
}

// Start listens and begins accepting sessions. It returns once the server
// is ready or has failed.
func (s *Server) Start(ctx context.Context) error {
	if err := s.TransitionToStarting(ctx); err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer cancel()

	if err := os.MkdirAll(filepath.Dir(s.cfg.HostKeyPath), 0o700); err != nil {
		s.TransitionToFailed(fmt.Errorf("create host key directory: %w", err))
		return s.LastError()
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", s.cfg.Address)
	if err != nil {
		s.TransitionToFailed(issue.NewErrorContext().
			WithOperation("start SSH server").
			WithResource(s.cfg.Address).
			WithIssue(issue.ServerStartFailedId).
			Wrap(err).
			BuildError())
		return s.LastError()
	}

	srv, err := wish.NewServer(
		wish.WithAddress(listener.Addr().String()),
		wish.WithHostKeyPath(s.cfg.HostKeyPath),
		wish.WithIdleTimeout(s.cfg.IdleTimeout),
		// Middlewares wrap in list order, so the selection handler is the
		// innermost one and bm calls it after the program has exited.
		wish.WithMiddleware(
			s.selectionMiddleware(),
			bm.Middleware(s.teaHandler),
			activeterm.Middleware(),
			logging.StructuredMiddlewareWithLogger(s.logger, log.InfoLevel),
		),
	)
	if err != nil {
		_ = listener.Close()
		s.TransitionToFailed(fmt.Errorf("create SSH server: %w", err))
		return s.LastError()
	}

	s.srvMu.Lock()
	s.srv = srv
	s.listener = listener
	s.addr = listener.Addr().String()
	s.srvMu.Unlock()

	s.Go(func(context.Context) {
		s.TransitionToRunning()
		if err := srv.Serve(listener); err != nil &&
			!errors.Is(err, ssh.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
			s.SendError(fmt.Errorf("serve error: %w", err))
		}
	})

	select {
	case <-s.StartedChannel():
		s.logger.Info("SSH server started", "address", s.addr)
		return nil
	case <-startupCtx.Done():
		s.TransitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		_ = s.Stop(context.Background())
		return s.LastError()
	}
}

// Stop closes the listener and waits for open sessions to end, up to the
// shutdown timeout or ctx, whichever comes first. It is safe to call more
// than once.
func (s *Server) Stop(ctx context.Context) error {
	stopping := s.TransitionToStopping()
	if !stopping && s.State() != serverbase.StateFailed {
		s.Wait()
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.srvMu.Lock()
	srv, listener := s.srv, s.listener
	s.srvMu.Unlock()

	var shutdownErr error
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil && !isClosedConnError(err) {
			s.logger.Error("shutdown error", "err", err)
			shutdownErr = err
		}
	}
	if listener != nil {
		_ = listener.Close()
	}
	s.Wait()

	if stopping {
		s.TransitionToStopped()
		s.logger.Info("SSH server stopped")
	}
	return shutdownErr
}

// Address returns the bound address, or "" before Start.
func (s *Server) Address() string {
	s.srvMu.Lock()
	defer s.srvMu.Unlock()
	return s.addr
}

// HostKeyPath returns the host key location in use.
func (s *Server) HostKeyPath() string {
	return s.cfg.HostKeyPath
}

// teaHandler builds the browser for one session. The session context is
// cancelled when the client disconnects, which also aborts pending loads.
func (s *Server) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	styles := tui.NewStyles(bm.MakeRenderer(sess), s.cfg.ColorScheme)
	m := tui.New(sess.Context(), tui.Options{
		Load:   s.cfg.Load,
		Title:  "artinav · " + sess.User(),
		Styles: &styles,
	})
	sess.Context().SetValue(modelKey{}, m)
	return m, []tea.ProgramOption{tea.WithAltScreen()}
}

// selectionMiddleware runs after the browser exits and reports the chosen
// artifact to the client.
func (s *Server) selectionMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			if m, ok := sess.Context().Value(modelKey{}).(*tui.Model); ok {
				if sel, picked := m.Selection(); picked {
					wish.Println(sess, selectionLine(sel.Path))
					s.logger.Info("artifact selected", "user", sess.User(), "path", sel.Path)
				}
			}
			next(sess)
		}
	}
}

func selectionLine(path string) string {
	return "selected: " + path
}

func isClosedConnError(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
