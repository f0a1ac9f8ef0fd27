// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/artinav/artinav/internal/config"
	"github.com/artinav/artinav/internal/discovery"
	"github.com/artinav/artinav/internal/notify"
	"github.com/artinav/artinav/internal/server"
	"github.com/artinav/artinav/internal/sshserver"
	"github.com/artinav/artinav/internal/watch"
)

const serveShutdownTimeout = 10 * time.Second

// newServeCommand creates the `artinav serve` command.
func newServeCommand(app *App) *cobra.Command {
	var (
		address    string
		sshAddress string
		noWatch    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP (and optionally SSH)",
		Long: `Serve the catalog over HTTP until interrupted.

Endpoints:
  GET  /health         liveness probe
  GET  /__artifacts    manifest of every artifact identifier
  GET  /api/tree       the whole catalog tree
  GET  /api/browse     one folder, with ?path= and ?q=
  POST /api/reload     rebuild the catalog now
  GET  /metrics        Prometheus metrics

A directory source is watched and reloaded on change unless --no-watch
is set. With --ssh-address the interactive browser is also served over
SSH.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.newSession(ctx)
			if err != nil {
				return err
			}
			if address != "" {
				s.cfg.Server.Address = address
			}
			if sshAddress != "" {
				s.cfg.Server.SSHAddress = sshAddress
			}
			if noWatch {
				s.cfg.Server.Watch = false
			}
			return runServe(ctx, app, s)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "HTTP listen address (default from config, "+config.DefaultAddress+")")
	cmd.Flags().StringVar(&sshAddress, "ssh-address", "", "also serve the browser over SSH on this address")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when the artifacts directory changes")
	return cmd
}

func runServe(ctx context.Context, app *App, s *session) error {
	order, err := s.cfg.Catalog.CatalogOrder()
	if err != nil {
		return err
	}

	pub, err := notify.NewPublisher(s.cfg.Notify, s.logger)
	if err != nil {
		s.logger.Warn("reload notifications disabled", "err", err)
		pub = notify.NopPublisher{}
	}

	var wc *server.WatchConfig
	if s.cfg.Server.Watch {
		if w, ok := dirWatchConfig(s.cfg); ok {
			if info, statErr := os.Stat(w.Dir); statErr == nil && info.IsDir() {
				wc = &w
			} else {
				s.logger.Warn("artifacts directory missing, not watching", "dir", w.Dir)
			}
		}
	}

	srv, err := server.New(server.Config{
		Address:   s.cfg.Server.Address,
		Source:    app.Sources(s.cfg.Artifacts),
		Order:     order,
		Watch:     wc,
		Publisher: pub,
		Logger:    s.logger,
	})
	if err != nil {
		_ = pub.Close()
		return err
	}
	if err := srv.Start(ctx); err != nil {
		app.renderIssue(err, s.cfg.UI.ColorScheme)
		_ = srv.Stop(context.Background())
		return err
	}
	defer stopWithTimeout(srv)

	if loadErr := srv.LoadError(); loadErr != nil {
		_, _ = fmt.Fprintln(app.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(loadErr, s.cfg.UI.Verbose))
	}
	_, _ = fmt.Fprintf(app.stdout, "%s Serving catalog at %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(srv.URL()))

	var sshErr <-chan error
	if s.cfg.Server.SSHAddress != "" {
		sshSrv, err := sshserver.New(sshserver.Config{
			Address:     s.cfg.Server.SSHAddress,
			HostKeyPath: s.cfg.Server.HostKey,
			Load:        app.catalogLoader(s),
			ColorScheme: s.cfg.UI.ColorScheme,
			Logger:      s.logger,
		})
		if err != nil {
			return err
		}
		if err := sshSrv.Start(ctx); err != nil {
			app.renderIssue(err, s.cfg.UI.ColorScheme)
			return err
		}
		defer stopWithTimeout(sshSrv)
		sshErr = sshSrv.Err()
		_, _ = fmt.Fprintf(app.stdout, "%s Serving browser over SSH at %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(sshSrv.Address()))
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-srv.Err():
		return err
	case err := <-sshErr:
		return err
	}
}

type stopper interface {
	Stop(ctx context.Context) error
}

func stopWithTimeout(srv stopper) {
	ctx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer cancel()
	_ = srv.Stop(ctx)
}

// dirWatchConfig returns what to watch when the configured source is a
// directory. Manifest and remote sources cannot be watched.
func dirWatchConfig(cfg *config.Config) (server.WatchConfig, bool) {
	a := cfg.Artifacts
	if a.URL != "" || a.Manifest != "" {
		return server.WatchConfig{}, false
	}
	exts := a.Extensions
	if len(exts) == 0 {
		exts = discovery.DefaultExtensions
	}
	return server.WatchConfig{
		Dir:      a.Dir,
		Patterns: watch.PatternsForExtensions(exts),
		Ignore:   a.Exclude,
		Debounce: cfg.Server.Debounce,
	}, true
}
