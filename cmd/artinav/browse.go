// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artinav/artinav/internal/discovery"
	"github.com/artinav/artinav/internal/notify"
	"github.com/artinav/artinav/internal/tui"
	"github.com/artinav/artinav/internal/watch"
)

// newBrowseCommand creates the `artinav browse` command.
func newBrowseCommand(app *App) *cobra.Command {
	var watchDir bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog interactively",
		Long: `Browse the catalog in a full-screen terminal UI.

Enter opens a folder or picks an artifact, backspace goes up, / searches
the current folder and r reloads. The picked artifact path is printed on
exit so it can be used by scripts.

The catalog reloads by itself when --watch is set and the source is a
directory, or when notify.nats_url is configured and a server announces
a reload.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			s, err := app.newSession(ctx)
			if err != nil {
				return err
			}

			changes := make(chan struct{}, 1)
			signal := func() {
				select {
				case changes <- struct{}{}:
				default:
				}
			}

			if url := s.cfg.Notify.NATSURL; url != "" {
				sub, err := notify.Subscribe(url, s.cfg.Notify.Subject, func(ev notify.Event) {
					s.logger.Debug("reload announced", "generation", ev.Generation)
					signal()
				})
				if err != nil {
					s.logger.Warn("reload notifications unavailable", "err", err)
				} else {
					defer func() { _ = sub.Close() }()
				}
			}

			if watchDir {
				wc, ok := dirWatchConfig(s.cfg)
				if !ok {
					return fmt.Errorf("--watch needs a directory source, not %s", app.Sources(s.cfg.Artifacts).Describe())
				}
				w, err := watch.New(watch.Config{
					Dir:      wc.Dir,
					Patterns: wc.Patterns,
					Ignore:   wc.Ignore,
					Debounce: wc.Debounce,
					Logger:   s.logger,
					OnChange: func(context.Context, []string) error {
						signal()
						return nil
					},
				})
				if err != nil {
					return err
				}
				go func() {
					if err := w.Run(ctx); err != nil {
						s.logger.Error("watcher stopped", "err", err)
					}
				}()
			}

			styles := tui.NewStyles(nil, s.cfg.UI.ColorScheme)
			sel, ok, err := tui.Run(ctx, tui.Options{
				Load:    app.catalogLoader(s),
				Styles:  &styles,
				Changes: changes,
			})
			if err != nil {
				return err
			}
			if ok {
				_, err = fmt.Fprintln(app.stdout, sel.Path)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&watchDir, "watch", false, "reload when the artifacts directory changes")
	return cmd
}

// catalogLoader returns a loader for front ends that render failures
// themselves, so nothing is written to stderr.
func (a *App) catalogLoader(s *session) tui.Loader {
	return func(ctx context.Context) (*discovery.Catalog, error) {
		order, err := s.cfg.Catalog.CatalogOrder()
		if err != nil {
			return nil, err
		}
		return discovery.Load(ctx, a.Sources(s.cfg.Artifacts), order)
	}
}
