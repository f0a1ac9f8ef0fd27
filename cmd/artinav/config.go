// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artinav/artinav/internal/config"
)

// newConfigCommand creates the `artinav config` command tree.
// Subcommands that read configuration use the App's ConfigProvider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage artinav configuration",
		Long: `Manage artinav configuration.

Configuration is stored in:
  - Linux: ~/.config/artinav/config.cue
  - macOS: ~/Library/Application Support/artinav/config.cue
  - Windows: %APPDATA%\artinav\config.cue

A config.cue in the working directory is used when the user file is
missing. ARTINAV_* environment variables override file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd.Context())
			if err != nil {
				return err
			}
			showConfig(app.stdout, s)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.CreateDefaultConfig()
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			if !created {
				_, err = fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
				return err
			}
			_, err = fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return err
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			cfgPath, err := config.DefaultPath()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
			_, err = fmt.Fprintf(app.stdout, "Config file: %s\n", cfgPath)
			return err
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, s *session) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	cfg := s.cfg

	_, _ = fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	_, _ = fmt.Fprintln(w)

	if s.cfgPath != "" {
		_, _ = fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), s.cfgPath)
	} else {
		_, _ = fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	section := func(name string, pairs ...string) {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "%s:\n", keyStyle.Render(name))
		for i := 0; i+1 < len(pairs); i += 2 {
			value := pairs[i+1]
			if value == "" {
				value = SubtitleStyle.Render("(not set)")
			} else {
				value = valueStyle.Render(value)
			}
			_, _ = fmt.Fprintf(w, "  %s: %s\n", pairs[i], value)
		}
	}

	section("artifacts",
		"dir", cfg.Artifacts.Dir,
		"extensions", strings.Join(cfg.Artifacts.Extensions, ", "),
		"exclude", strings.Join(cfg.Artifacts.Exclude, ", "),
		"index_name", cfg.Artifacts.IndexName,
		"manifest", cfg.Artifacts.Manifest,
		"url", cfg.Artifacts.URL,
	)
	section("catalog",
		"order", cfg.Catalog.Order,
	)
	section("server",
		"address", cfg.Server.Address,
		"ssh_address", cfg.Server.SSHAddress,
		"host_key", cfg.Server.HostKey,
		"watch", fmt.Sprintf("%v", cfg.Server.Watch),
		"debounce", cfg.Server.Debounce.String(),
	)
	section("notify",
		"nats_url", cfg.Notify.NATSURL,
		"subject", cfg.Notify.Subject,
	)
	section("ui",
		"color_scheme", cfg.UI.ColorScheme.String(),
		"verbose", fmt.Sprintf("%v", cfg.UI.Verbose),
	)
}
