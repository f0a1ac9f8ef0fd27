// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"

	"github.com/artinav/artinav/internal/config"
	"github.com/artinav/artinav/internal/discovery"
	"github.com/artinav/artinav/internal/issue"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: every Cobra command handler receives an App reference and goes
	// through it for configuration, catalog loading and output.
	App struct {
		Config  ConfigProvider
		Sources SourceFactory
		stdout  io.Writer
		stderr  io.Writer
		flags   globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config  ConfigProvider
		Sources SourceFactory
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// ConfigProvider loads configuration using explicit options and reports the
	// file it came from.
	ConfigProvider interface {
		LoadWithSource(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}

	// SourceFactory turns the artifacts configuration into a discovery source.
	SourceFactory func(cfg config.ArtifactsConfig) discovery.Source

	// globalFlags holds the persistent root flags.
	globalFlags struct {
		configPath string
		verbose    bool
		dir        string
		manifest   string
		url        string
	}

	// session is the resolved configuration for one command invocation.
	session struct {
		cfg     *config.Config
		cfgPath string
		logger  *log.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Sources == nil {
		deps.Sources = discovery.SourceFromConfig
	}

	return &App{
		Config:  deps.Config,
		Sources: deps.Sources,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
	}, nil
}

// newSession loads the configuration and applies the global flag overrides on
// top of it. Flags always win over the file and the environment.
func (a *App) newSession(ctx context.Context) (*session, error) {
	cfg, cfgPath, err := a.Config.LoadWithSource(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		a.renderIssue(err, config.ColorSchemeAuto)
		return nil, err
	}
	a.applyFlags(cfg)

	return &session{cfg: cfg, cfgPath: cfgPath, logger: a.newLogger(cfg.UI.Verbose)}, nil
}

// applyFlags overlays the persistent flags onto cfg. Selecting one artifact
// source clears the others so the flag's choice is the one that is used.
func (a *App) applyFlags(cfg *config.Config) {
	switch {
	case a.flags.url != "":
		cfg.Artifacts.URL = a.flags.url
		cfg.Artifacts.Manifest = ""
	case a.flags.manifest != "":
		cfg.Artifacts.Manifest = a.flags.manifest
		cfg.Artifacts.URL = ""
	case a.flags.dir != "":
		cfg.Artifacts.Dir = a.flags.dir
		cfg.Artifacts.Manifest = ""
		cfg.Artifacts.URL = ""
	}
	if a.flags.verbose {
		cfg.UI.Verbose = true
	}
}

func (a *App) newLogger(verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix:          "artinav",
		Level:           level,
		ReportTimestamp: verbose,
	})
}

// loadCatalog discovers artifacts with the session's source and builds the
// tree. Diagnostics are rendered to stderr; failures also print their
// guidance page.
func (a *App) loadCatalog(ctx context.Context, s *session) (*discovery.Catalog, error) {
	order, err := s.cfg.Catalog.CatalogOrder()
	if err != nil {
		return nil, err
	}
	src := a.Sources(s.cfg.Artifacts)
	s.logger.Debug("loading catalog", "source", src.Describe(), "order", order)

	cat, err := discovery.Load(ctx, src, order)
	if err != nil {
		a.renderIssue(err, s.cfg.UI.ColorScheme)
		return nil, err
	}
	renderDiagnostics(a.stderr, cat.Diagnostics, s.cfg.UI.Verbose)
	s.logger.Debug("catalog loaded", "artifacts", len(cat.IDs))
	return cat, nil
}

// renderIssue prints the guidance page linked to err, if any.
func (a *App) renderIssue(err error, scheme config.ColorScheme) {
	iss := issue.IssueOf(err)
	if iss == nil {
		return
	}
	rendered, renderErr := iss.Render(glamourStyle(a.stderr, scheme))
	if renderErr != nil {
		_, _ = fmt.Fprintln(a.stderr, VerboseStyle.Render("could not render guidance: "+renderErr.Error()))
		return
	}
	_, _ = fmt.Fprint(a.stderr, rendered)
}

// glamourStyle picks the markdown style for w. Output that is not a terminal
// gets the plain style so logs and pipes stay free of escape codes.
func glamourStyle(w io.Writer, scheme config.ColorScheme) string {
	if !isTerminal(w) {
		return "notty"
	}
	if scheme == config.ColorSchemeLight {
		return "light"
	}
	return "dark"
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// renderDiagnostics prints discovery diagnostics. Routine skips (index pages
// and excluded files) are only shown in verbose mode.
func renderDiagnostics(w io.Writer, diags []discovery.Diagnostic, verbose bool) {
	for _, diag := range diags {
		if !verbose && (diag.Code == discovery.CodeIndexSkipped || diag.Code == discovery.CodeExcluded) {
			continue
		}

		prefix := WarningStyle.Render("warning")
		if diag.Severity == discovery.SeverityError {
			prefix = ErrorStyle.Render("error")
		}

		if diag.Path != "" {
			_, _ = fmt.Fprintf(w, "%s: %s (%s)\n", prefix, diag.Message, diag.Path)
			continue
		}

		_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, diag.Message)
	}
}
