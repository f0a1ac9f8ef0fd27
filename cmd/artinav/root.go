// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for artinav.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/artinav/artinav/internal/issue"
)

// exitCatalogFailed is the exit status when the catalog cannot be loaded.
const exitCatalogFailed = 2

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "artinav",
		Short: "Browse a hierarchical catalog of report artifacts",
		Long: TitleStyle.Render("artinav") + SubtitleStyle.Render(" - Browse a hierarchical catalog of report artifacts") + `

artinav turns a flat list of artifact identifiers such as
"finance/reports/Q1" into a folder tree and lets you walk it.
Identifiers come from a directory of page files, a manifest
file, or a remote manifest endpoint.

` + SubtitleStyle.Render("Examples:") + `
  artinav tree                  Print the whole catalog
  artinav ls finance -q q1      List a folder, filtered by name
  artinav browse                Browse interactively
  artinav serve                 Serve the catalog over HTTP
  artinav config show           Show current configuration`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/artinav/config.cue)")
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.flags.dir, "dir", "", "scan this artifacts directory")
	flags.StringVar(&app.flags.manifest, "manifest", "", "read identifiers from a JSON or YAML manifest file")
	flags.StringVar(&app.flags.url, "url", "", "fetch identifiers from a remote manifest endpoint")
	rootCmd.MarkFlagsMutuallyExclusive("dir", "manifest", "url")

	rootCmd.AddCommand(
		newTreeCommand(app),
		newLsCommand(app),
		newBrowseCommand(app),
		newServeCommand(app),
		newConfigCommand(app),
		newVersionCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the production App and runs the root command. It is called
// by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}

	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// catalogFailure wraps a catalog load failure with its exit status.
func catalogFailure(err error) error {
	return &ExitError{Code: exitCatalogFailed, Err: err}
}
