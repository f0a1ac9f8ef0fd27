// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/artinav/artinav/internal/config"
	"github.com/artinav/artinav/internal/discovery"
	"github.com/artinav/artinav/internal/issue"
	"github.com/artinav/artinav/internal/testutil"
	"github.com/artinav/artinav/pkg/catalog"
)

// staticConfig is a ConfigProvider that never touches the filesystem.
type staticConfig struct {
	cfg  *config.Config
	path string
	err  error
}

func (p staticConfig) LoadWithSource(context.Context, config.LoadOptions) (*config.Config, string, error) {
	if p.err != nil {
		return nil, "", p.err
	}
	cfg := *config.DefaultConfig()
	if p.cfg != nil {
		cfg = *p.cfg
	}
	return &cfg, p.path, nil
}

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, provider ConfigProvider, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app, err := NewApp(Dependencies{Config: provider, Stdout: &stdout, Stderr: &stderr})
	if err != nil {
		t.Fatal(err)
	}
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err = root.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// artifactsDir writes a small artifacts tree and returns its path.
func artifactsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"zeta.tsx":                 "",
		"finance/q1-report.tsx":    "",
		"finance/q2-report.tsx":    "",
		"finance/archive/2023.jsx": "",
		"ops/runbook.tsx":          "",
		"index.tsx":                "",
		"finance/notes.md":         "",
	})
	return dir
}

func TestTree(t *testing.T) {
	t.Parallel()

	dir := artifactsDir(t)
	res := run(t, staticConfig{}, "tree", "--dir", dir)
	if res.err != nil {
		t.Fatalf("tree error = %v\nstderr: %s", res.err, res.stderr)
	}
	for _, want := range []string{"root", "finance/", "archive/", "2023", "q1-report", "ops/", "runbook", "zeta"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("tree output missing %q:\n%s", want, res.stdout)
		}
	}
	if strings.Contains(res.stdout, "notes") {
		t.Errorf("tree output lists a non-page file:\n%s", res.stdout)
	}
	if strings.Contains(res.stdout, "index") {
		t.Errorf("tree output lists the index page:\n%s", res.stdout)
	}
}

func TestTree_JSONOrderedByName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"b.tsx": "", "a/x.tsx": "", "c.tsx": ""})

	res := run(t, staticConfig{}, "tree", "--dir", dir, "--order", "name", "--json")
	if res.err != nil {
		t.Fatalf("tree error = %v", res.err)
	}
	var root struct {
		Name     string `json:"name"`
		Kind     string `json:"kind"`
		Children []struct {
			Name string `json:"name"`
		} `json:"children"`
	}
	if err := json.Unmarshal([]byte(res.stdout), &root); err != nil {
		t.Fatalf("decode: %v\n%s", err, res.stdout)
	}
	var names []string
	for _, c := range root.Children {
		names = append(names, c.Name)
	}
	if root.Kind != string(catalog.KindFolder) || !slices.Equal(names, []string{"a", "b", "c"}) {
		t.Errorf("root = %+v", root)
	}
}

func TestTree_InvalidOrder(t *testing.T) {
	t.Parallel()

	res := run(t, staticConfig{}, "tree", "--dir", t.TempDir(), "--order", "random")
	if res.err == nil {
		t.Fatal("tree with an unknown order should fail")
	}
}

func TestTree_MissingDirectory(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope")
	res := run(t, staticConfig{}, "tree", "--dir", missing)

	var exitErr *ExitError
	if !errors.As(res.err, &exitErr) || exitErr.Code != exitCatalogFailed {
		t.Fatalf("error = %v, want ExitError with code %d", res.err, exitCatalogFailed)
	}
	if !errors.Is(res.err, discovery.ErrCatalogLoad) {
		t.Errorf("error %v should wrap ErrCatalogLoad", res.err)
	}
	if !strings.Contains(res.stderr, "rtifacts directory") {
		t.Errorf("stderr should carry the guidance page:\n%s", res.stderr)
	}
}

func TestLs(t *testing.T) {
	t.Parallel()

	dir := artifactsDir(t)
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "root",
			args:    []string{"ls"},
			want:    []string{"root", "finance/", "ops/", "zeta"},
			notWant: []string{"q1-report"},
		},
		{
			name:    "folder",
			args:    []string{"ls", "finance"},
			want:    []string{"root / finance", "archive/", "q1-report", "q2-report"},
			notWant: []string{"zeta"},
		},
		{
			name: "slashes are ignored",
			args: []string{"ls", "/finance/"},
			want: []string{"q1-report"},
		},
		{
			name:    "query",
			args:    []string{"ls", "finance", "-q", "Q1"},
			want:    []string{`matching "Q1"`, "q1-report"},
			notWant: []string{"q2-report", "archive"},
		},
		{
			name: "no matches",
			args: []string{"ls", "-q", "missing"},
			want: []string{"no matches"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := run(t, staticConfig{}, append(tt.args, "--dir", dir)...)
			if res.err != nil {
				t.Fatalf("ls error = %v", res.err)
			}
			for _, want := range tt.want {
				if !strings.Contains(res.stdout, want) {
					t.Errorf("output missing %q:\n%s", want, res.stdout)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(res.stdout, notWant) {
					t.Errorf("output should not contain %q:\n%s", notWant, res.stdout)
				}
			}
		})
	}
}

func TestLs_JSON(t *testing.T) {
	t.Parallel()

	res := run(t, staticConfig{}, "ls", "finance/archive", "--json", "--dir", artifactsDir(t))
	if res.err != nil {
		t.Fatalf("ls error = %v", res.err)
	}
	var got listing
	if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, res.stdout)
	}
	if !slices.Equal(got.Path, []string{"finance", "archive"}) {
		t.Errorf("path = %v", got.Path)
	}
	if len(got.Breadcrumbs) != 3 || got.Breadcrumbs[2].Path != "finance/archive" {
		t.Errorf("breadcrumbs = %+v", got.Breadcrumbs)
	}
	want := []listingEntry{{Name: "2023", Path: "finance/archive/2023", Kind: catalog.KindFile}}
	if !slices.Equal(got.Entries, want) {
		t.Errorf("entries = %+v, want %+v", got.Entries, want)
	}
}

func TestLs_RootJSONHasEmptyPath(t *testing.T) {
	t.Parallel()

	res := run(t, staticConfig{}, "ls", "--json", "--dir", t.TempDir())
	if res.err != nil {
		t.Fatalf("ls error = %v", res.err)
	}
	if !strings.Contains(res.stdout, `"path": []`) || !strings.Contains(res.stdout, `"entries": []`) {
		t.Errorf("empty root should encode empty arrays:\n%s", res.stdout)
	}
}

func TestLs_FolderErrors(t *testing.T) {
	t.Parallel()

	dir := artifactsDir(t)
	for _, folder := range []string{"nope", "finance/q1-report", "finance/archive/2023/deeper"} {
		t.Run(folder, func(t *testing.T) {
			t.Parallel()

			res := run(t, staticConfig{}, "ls", folder, "--dir", dir)
			if res.err == nil {
				t.Fatalf("ls %s should fail", folder)
			}
			if iss := issue.IssueOf(res.err); iss == nil || iss.Id() != issue.FolderNotFoundId {
				t.Errorf("error %v should link the folder-not-found guidance", res.err)
			}
			if !strings.Contains(res.stderr, "Folder not found") {
				t.Errorf("stderr should carry the guidance page:\n%s", res.stderr)
			}
		})
	}
}

func TestManifestFlag(t *testing.T) {
	t.Parallel()

	manifest := filepath.Join(t.TempDir(), "artifacts.json")
	if err := os.WriteFile(manifest, []byte(`["sales/emea", "sales/apac", "overview"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	res := run(t, staticConfig{}, "ls", "sales", "--manifest", manifest)
	if res.err != nil {
		t.Fatalf("ls error = %v\nstderr: %s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "emea") || !strings.Contains(res.stdout, "apac") {
		t.Errorf("output:\n%s", res.stdout)
	}
}

func TestSourceFlagsAreExclusive(t *testing.T) {
	t.Parallel()

	res := run(t, staticConfig{}, "tree", "--dir", "a", "--url", "http://127.0.0.1:1/__artifacts")
	if res.err == nil {
		t.Fatal("--dir and --url together should be rejected")
	}
}

func TestConfigLoadFailure(t *testing.T) {
	t.Parallel()

	loadErr := issue.NewErrorContext().
		WithOperation("load configuration").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(errors.New("bad syntax")).
		BuildError()
	res := run(t, staticConfig{err: loadErr}, "tree")
	if !errors.Is(res.err, loadErr) {
		t.Fatalf("error = %v, want the config error", res.err)
	}
	if res.stderr == "" {
		t.Error("config failure should print guidance")
	}
}

func TestApplyFlags(t *testing.T) {
	t.Parallel()

	type source struct{ dir, manifest, url string }
	base := source{"src/artifacts", "m.yaml", "http://x/__artifacts"}
	tests := []struct {
		name  string
		flags globalFlags
		want  source
	}{
		{"none", globalFlags{}, base},
		{"dir", globalFlags{dir: "pages"}, source{dir: "pages"}},
		{"manifest", globalFlags{manifest: "a.json"}, source{dir: "src/artifacts", manifest: "a.json"}},
		{"url", globalFlags{url: "http://y"}, source{dir: "src/artifacts", url: "http://y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := &App{flags: tt.flags}
			cfg := config.DefaultConfig()
			cfg.Artifacts.Dir, cfg.Artifacts.Manifest, cfg.Artifacts.URL = base.dir, base.manifest, base.url
			app.applyFlags(cfg)
			got := source{cfg.Artifacts.Dir, cfg.Artifacts.Manifest, cfg.Artifacts.URL}
			if got != tt.want {
				t.Errorf("artifacts = %+v, want %+v", got, tt.want)
			}
		})
	}

	app := &App{flags: globalFlags{verbose: true}}
	cfg := config.DefaultConfig()
	app.applyFlags(cfg)
	if !cfg.UI.Verbose {
		t.Error("--verbose should enable ui.verbose")
	}
}

func TestRenderDiagnostics(t *testing.T) {
	t.Parallel()

	diags := []discovery.Diagnostic{
		{Severity: discovery.SeverityWarning, Code: discovery.CodeIndexSkipped, Message: "index page skipped", Path: "index.tsx"},
		{Severity: discovery.SeverityWarning, Code: discovery.CodeUnreadableEntry, Message: "cannot read", Path: "locked"},
		{Severity: discovery.SeverityError, Code: discovery.CodeDuplicateEntry, Message: "listed twice"},
	}

	var quiet bytes.Buffer
	renderDiagnostics(&quiet, diags, false)
	if strings.Contains(quiet.String(), "index page skipped") {
		t.Errorf("routine skips should be hidden:\n%s", quiet.String())
	}
	if !strings.Contains(quiet.String(), "cannot read (locked)") || !strings.Contains(quiet.String(), "listed twice") {
		t.Errorf("output:\n%s", quiet.String())
	}

	var verbose bytes.Buffer
	renderDiagnostics(&verbose, diags, true)
	if !strings.Contains(verbose.String(), "index page skipped (index.tsx)") {
		t.Errorf("verbose output:\n%s", verbose.String())
	}
}

func TestDirWatchConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	wc, ok := dirWatchConfig(cfg)
	if !ok || wc.Dir != config.DefaultArtifactsDir || wc.Debounce != config.DefaultDebounce {
		t.Errorf("dirWatchConfig() = %+v, %v", wc, ok)
	}
	if !slices.Equal(wc.Patterns, []string{"**/*.{tsx,jsx}"}) {
		t.Errorf("patterns = %v", wc.Patterns)
	}

	cfg.Artifacts.Manifest = "artifacts.json"
	if _, ok := dirWatchConfig(cfg); ok {
		t.Error("a manifest source cannot be watched")
	}
}

func TestConfigShow(t *testing.T) {
	t.Parallel()

	res := run(t, staticConfig{}, "config", "show", "--dir", "pages")
	if res.err != nil {
		t.Fatalf("config show error = %v", res.err)
	}
	for _, want := range []string{"(using defaults)", "dir: pages", "order: insertion", "address: " + config.DefaultAddress, "subject: " + config.DefaultSubject} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("output missing %q:\n%s", want, res.stdout)
		}
	}

	res = run(t, staticConfig{path: "/etc/artinav/config.cue"}, "config", "show")
	if !strings.Contains(res.stdout, "/etc/artinav/config.cue") {
		t.Errorf("output should name the config file:\n%s", res.stdout)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	res := run(t, staticConfig{}, "version")
	if res.err != nil || !strings.HasPrefix(res.stdout, "artinav ") {
		t.Errorf("version = %q, %v", res.stdout, res.err)
	}
}
