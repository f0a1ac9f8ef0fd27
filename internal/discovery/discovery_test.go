// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/artinav/artinav/internal/config"
	"github.com/artinav/artinav/internal/issue"
	"github.com/artinav/artinav/internal/testutil"
	"github.com/artinav/artinav/pkg/catalog"
)

func idStrings(ids []catalog.ArtifactID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func hasCode(diags []Diagnostic, code string) bool {
	return slices.ContainsFunc(diags, func(d Diagnostic) bool { return d.Code == code })
}

func TestDirSource_Discover(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"index.tsx":              "",
		"work-order-system.tsx":  "",
		"finance/q1.tsx":         "",
		"finance/q2.jsx":         "",
		"finance/notes.md":       "",
		"ops/runbook.tsx":        "",
		"ops/index.tsx":          "",
		"drafts/wip.tsx":         "",
		"finance/q1.stories.tsx": "",
	})

	src := &DirSource{
		Dir:       dir,
		Exclude:   []string{"drafts/**", "**/*.stories.tsx"},
		IndexName: "index",
	}
	res, err := src.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	// fs.WalkDir visits entries in lexical order.
	want := []string{"finance/q1", "finance/q2", "ops/runbook", "work-order-system"}
	if got := idStrings(res.IDs); !slices.Equal(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}
	if !hasCode(res.Diagnostics, CodeIndexSkipped) {
		t.Error("expected an index_skipped diagnostic")
	}
	if !hasCode(res.Diagnostics, CodeExcluded) {
		t.Error("expected an excluded diagnostic")
	}
}

func TestDirSource_DuplicateAcrossExtensions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"a.jsx": "", "a.tsx": ""})

	res, err := (&DirSource{Dir: dir}).Discover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := idStrings(res.IDs); !slices.Equal(got, []string{"a"}) {
		t.Errorf("IDs = %v, want [a]", got)
	}
	if !hasCode(res.Diagnostics, CodeDuplicateEntry) {
		t.Error("expected a duplicate_entry diagnostic")
	}
}

func TestDirSource_UnnamedPage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		".tsx":           "",
		"finance/.jsx":   "",
		"finance/q1.tsx": "",
	})

	res, err := (&DirSource{Dir: dir}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if got := idStrings(res.IDs); !slices.Equal(got, []string{"finance/q1"}) {
		t.Errorf("IDs = %v, want [finance/q1]", got)
	}
	if !hasCode(res.Diagnostics, CodeUnnamedPage) {
		t.Error("expected an unnamed_page diagnostic")
	}
	if _, err := Load(context.Background(), &DirSource{Dir: dir}, catalog.OrderInsertion); err != nil {
		t.Errorf("Load() error = %v, want unnamed pages skipped", err)
	}
}

func TestDirSource_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := (&DirSource{Dir: filepath.Join(t.TempDir(), "missing")}).Discover(context.Background())
	if !errors.Is(err, ErrArtifactsDirNotFound) {
		t.Fatalf("Discover() error = %v, want ErrArtifactsDirNotFound", err)
	}
	if iss := issue.IssueOf(err); iss == nil || iss.Id() != issue.ArtifactsDirNotFoundId {
		t.Errorf("IssueOf() = %v, want ArtifactsDirNotFoundId", iss)
	}
}

func TestDirSource_InvalidExclude(t *testing.T) {
	t.Parallel()

	_, err := (&DirSource{Dir: t.TempDir(), Exclude: []string{"[unclosed"}}).Discover(context.Background())
	if err == nil || !strings.Contains(err.Error(), "invalid exclude pattern") {
		t.Errorf("Discover() error = %v, want invalid exclude pattern", err)
	}
}

func TestDirSource_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"a.tsx": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&DirSource{Dir: dir}).Discover(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Discover() error = %v, want context.Canceled", err)
	}
}

func TestManifestFileSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "json objects",
			file:    "manifest.json",
			content: `[{"name":"q1","path":"finance/q1.tsx"},{"name":"runbook","path":"ops/runbook.jsx"}]`,
		},
		{
			name:    "json strings",
			file:    "manifest.json",
			content: `["finance/q1.tsx", "ops/runbook"]`,
		},
		{
			name:    "yaml mixed",
			file:    "manifest.yaml",
			content: "- finance/q1.tsx\n- name: runbook\n  path: ops/runbook.tsx\n",
		},
		{
			name:    "leading dot slash and slash",
			file:    "manifest.json",
			content: `[{"name":"q1","path":"./finance/q1.tsx"},"/ops/runbook.tsx"]`,
		},
		{
			name:    "leading prefix repeated",
			file:    "manifest.yml",
			content: "- .//finance/q1.tsx\n- name: ./ops/runbook.jsx\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			testutil.WriteFiles(t, dir, map[string]string{tt.file: tt.content})
			res, err := (&ManifestFileSource{Path: filepath.Join(dir, tt.file)}).Discover(context.Background())
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if got := idStrings(res.IDs); !slices.Equal(got, []string{"finance/q1", "ops/runbook"}) {
				t.Errorf("IDs = %v", got)
			}
		})
	}
}

func TestManifestFileSource_UnnamedAndMalformedEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"manifest.json": `["./.tsx", "finance/.tsx", "finance/q1.tsx", "a//b.tsx"]`,
	})
	res, err := (&ManifestFileSource{Path: filepath.Join(dir, "manifest.json")}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	// Doubled separators are left for the builder to reject.
	if got := idStrings(res.IDs); !slices.Equal(got, []string{"finance/q1", "a//b"}) {
		t.Errorf("IDs = %v, want [finance/q1 a//b]", got)
	}
	unnamed := 0
	for _, d := range res.Diagnostics {
		if d.Code == CodeUnnamedPage {
			unnamed++
		}
	}
	if unnamed != 2 {
		t.Errorf("unnamed_page diagnostics = %d, want 2", unnamed)
	}

	_, err = Load(context.Background(), &ManifestFileSource{Path: filepath.Join(dir, "manifest.json")}, catalog.OrderInsertion)
	if !errors.Is(err, catalog.ErrInvalidArtifactID) {
		t.Errorf("Load() error = %v, want ErrInvalidArtifactID for a//b", err)
	}
}

func TestManifestFileSource_TooLarge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{
		"big.json": `["` + strings.Repeat("a", maxManifestSize) + `"]`,
	})
	_, err := (&ManifestFileSource{Path: filepath.Join(dir, "big.json")}).Discover(context.Background())
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum size") {
		t.Errorf("Discover() error = %v, want size limit error", err)
	}
}

func TestManifestFileSource_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"bad.json": `{"not": "a list"}`})

	if _, err := (&ManifestFileSource{Path: filepath.Join(dir, "bad.json")}).Discover(context.Background()); err == nil {
		t.Error("Discover(object) expected error")
	}
	if _, err := (&ManifestFileSource{Path: filepath.Join(dir, "none.json")}).Discover(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Discover(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestHTTPSource(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ManifestPath:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"name":"a","path":"x/a.tsx"},{"name":"a","path":"./x/a.tsx"},{"name":"b","path":"/b.tsx"}]`))
		case "/broken":
			_, _ = w.Write([]byte(`<html>`))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)

	res, err := (&HTTPSource{URL: srv.URL + ManifestPath, Client: srv.Client()}).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if got := idStrings(res.IDs); !slices.Equal(got, []string{"x/a", "b"}) {
		t.Errorf("IDs = %v, want [x/a b]", got)
	}
	if !hasCode(res.Diagnostics, CodeDuplicateEntry) {
		t.Error("expected a duplicate_entry diagnostic")
	}

	for _, p := range []string{"/fail", "/broken"} {
		_, err := (&HTTPSource{URL: srv.URL + p, Client: srv.Client()}).Discover(context.Background())
		if iss := issue.IssueOf(err); iss == nil || iss.Id() != issue.ManifestFetchFailedId {
			t.Errorf("Discover(%s) error = %v, want ManifestFetchFailedId guidance", p, err)
		}
	}
}

type stubSource struct {
	res Result
	err error
}

func (s stubSource) Describe() string { return "stub" }

func (s stubSource) Discover(context.Context) (Result, error) { return s.res, s.err }

func TestLoad(t *testing.T) {
	t.Parallel()

	src := stubSource{res: Result{IDs: catalog.IDs("ops/b", "finance/q1", "ops/a")}}
	cat, err := Load(context.Background(), src, catalog.OrderByName)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var names []string
	for _, c := range cat.Root.Children() {
		names = append(names, c.Name)
	}
	if !slices.Equal(names, []string{"finance", "ops"}) {
		t.Errorf("root children = %v, want name order", names)
	}
	if len(cat.IDs) != 3 {
		t.Errorf("IDs = %v", cat.IDs)
	}
}

func TestLoad_Failures(t *testing.T) {
	t.Parallel()

	discoverErr := errors.New("boom")
	tests := []struct {
		name      string
		src       Source
		wantIs    error
		wantIssue issue.Id
	}{
		{"discover error", stubSource{err: discoverErr}, discoverErr, 0},
		{"collision", stubSource{res: Result{IDs: catalog.IDs("a", "a/b")}}, catalog.ErrPathCollision, issue.PathCollisionId},
		{"invalid id", stubSource{res: Result{IDs: catalog.IDs("a//b")}}, catalog.ErrInvalidArtifactID, issue.InvalidArtifactId},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cat, err := Load(context.Background(), tt.src, catalog.OrderInsertion)
			if cat != nil {
				t.Error("Load() returned a catalog alongside an error")
			}
			var loadErr *CatalogLoadError
			if !errors.As(err, &loadErr) || loadErr.Source != "stub" {
				t.Fatalf("Load() error = %v, want *CatalogLoadError", err)
			}
			if !errors.Is(err, ErrCatalogLoad) || !errors.Is(err, tt.wantIs) {
				t.Errorf("Load() error = %v, want Is(ErrCatalogLoad) and Is(%v)", err, tt.wantIs)
			}
			if tt.wantIssue != 0 {
				if iss := issue.IssueOf(err); iss == nil || iss.Id() != tt.wantIssue {
					t.Errorf("IssueOf() = %v, want %d", iss, tt.wantIssue)
				}
			}
		})
	}
}

func TestSourceFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig().Artifacts
	if _, ok := SourceFromConfig(cfg).(*DirSource); !ok {
		t.Error("default config should select DirSource")
	}
	cfg.Manifest = "m.yaml"
	if _, ok := SourceFromConfig(cfg).(*ManifestFileSource); !ok {
		t.Error("manifest config should select ManifestFileSource")
	}
	cfg.URL = "http://localhost/__artifacts"
	if _, ok := SourceFromConfig(cfg).(*HTTPSource); !ok {
		t.Error("url config should select HTTPSource")
	}
}

func TestManifestFor(t *testing.T) {
	t.Parallel()

	got := ManifestFor(catalog.IDs("finance/q1", "top"))
	want := []ManifestEntry{{Name: "q1", Path: "finance/q1"}, {Name: "top", Path: "top"}}
	if !slices.Equal(got, want) {
		t.Errorf("ManifestFor() = %v, want %v", got, want)
	}
}
