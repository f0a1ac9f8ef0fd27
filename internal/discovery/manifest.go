// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artinav/artinav/internal/issue"
	"github.com/artinav/artinav/pkg/catalog"
)

const (
	// ManifestPath is the HTTP path that serves a manifest.
	ManifestPath = "/__artifacts"

	maxManifestSize = 8 << 20
	defaultTimeout  = 10 * time.Second
)

type (
	// ManifestEntry is one artifact in a manifest. In JSON and YAML an entry
	// is either an object with name and path, or a bare path string.
	ManifestEntry struct {
		Name string `json:"name" yaml:"name"`
		Path string `json:"path" yaml:"path"`
	}

	// ManifestFileSource reads a local JSON (.json) or YAML (.yaml, .yml)
	// manifest.
	ManifestFileSource struct {
		Path string
		// Extensions are stripped from entry paths. Empty means DefaultExtensions.
		Extensions []string
	}

	// HTTPSource fetches a JSON manifest over HTTP.
	HTTPSource struct {
		URL string
		// Client defaults to an http.Client with a 10s timeout.
		Client *http.Client
		// Extensions are stripped from entry paths. Empty means DefaultExtensions.
		Extensions []string
	}

	manifestEntryFields ManifestEntry
)

// UnmarshalJSON accepts both "a/b.tsx" and {"name": "b", "path": "a/b.tsx"}.
func (e *ManifestEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*e = ManifestEntry{}
		return json.Unmarshal(data, &e.Path)
	}
	return json.Unmarshal(data, (*manifestEntryFields)(e))
}

// UnmarshalYAML accepts both a scalar path and a mapping with name and path.
func (e *ManifestEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*e = ManifestEntry{}
		return node.Decode(&e.Path)
	}
	return node.Decode((*manifestEntryFields)(e))
}

// ID returns the artifact identifier for the entry: Path (or Name when Path
// is empty) without its page extension and without a leading "./" or "/".
// Other irregularities such as "a//b" are kept so the builder reports them.
func (e ManifestEntry) ID(exts []string) catalog.ArtifactID {
	id, _ := stripExtension(e.rawPath(), exts)
	return catalog.ArtifactID(id)
}

func (e ManifestEntry) rawPath() string {
	if e.Path == "" {
		return trimRootPrefix(e.Name)
	}
	return trimRootPrefix(e.Path)
}

// trimRootPrefix removes any run of leading "./" and "/" from p.
func trimRootPrefix(p string) string {
	for {
		switch {
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		case strings.HasPrefix(p, "/"):
			p = p[1:]
		default:
			return p
		}
	}
}

// ManifestFor returns the manifest entries for ids, the format served on
// ManifestPath.
func ManifestFor(ids []catalog.ArtifactID) []ManifestEntry {
	entries := make([]ManifestEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, ManifestEntry{Name: id.Name(), Path: id.String()})
	}
	return entries
}

// Describe implements Source.
func (s *ManifestFileSource) Describe() string {
	return "manifest " + s.Path
}

// Discover implements Source.
func (s *ManifestFileSource) Discover(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return Result{}, fmt.Errorf("read manifest: %w", err)
	}
	defer func() { _ = f.Close() }()

	// One byte past the limit is enough to tell an oversized file apart.
	data, err := io.ReadAll(io.LimitReader(f, maxManifestSize+1))
	if err != nil {
		return Result{}, fmt.Errorf("read manifest: %w", err)
	}
	if len(data) > maxManifestSize {
		return Result{}, fmt.Errorf("%s: manifest exceeds maximum size of %d bytes", s.Path, maxManifestSize)
	}

	var entries []ManifestEntry
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &entries)
	default:
		err = json.Unmarshal(data, &entries)
	}
	if err != nil {
		return Result{}, fmt.Errorf("parse manifest %s: %w", s.Path, err)
	}
	return collect(entries, s.Extensions), nil
}

// Describe implements Source.
func (s *HTTPSource) Describe() string {
	return "endpoint " + s.URL
}

// Discover implements Source.
func (s *HTTPSource) Discover(ctx context.Context) (Result, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	fail := func(err error) error {
		return issue.NewErrorContext().
			WithOperation("fetch artifact manifest").
			WithResource(s.URL).
			WithIssue(issue.ManifestFetchFailedId).
			Wrap(err).
			BuildError()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, http.NoBody)
	if err != nil {
		return Result{}, fail(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fail(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fail(fmt.Errorf("unexpected status %s", resp.Status))
	}

	var entries []ManifestEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxManifestSize)).Decode(&entries); err != nil {
		return Result{}, fail(fmt.Errorf("decode manifest: %w", err))
	}
	return collect(entries, s.Extensions), nil
}

// collect converts manifest entries to identifiers, keeping first occurrences.
func collect(entries []ManifestEntry, exts []string) Result {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	res := Result{IDs: make([]catalog.ArtifactID, 0, len(entries))}
	seen := make(map[catalog.ArtifactID]struct{}, len(entries))
	for _, e := range entries {
		stem, stripped := stripExtension(e.rawPath(), exts)
		if stripped && unnamedPage(stem) {
			res.warn(CodeUnnamedPage, e.rawPath(), "entry has no page name before its extension", nil)
			continue
		}
		id := catalog.ArtifactID(stem)
		if _, dup := seen[id]; dup {
			res.warn(CodeDuplicateEntry, id.String(), fmt.Sprintf("%q is listed more than once", id), nil)
			continue
		}
		seen[id] = struct{}{}
		res.IDs = append(res.IDs, id)
	}
	return res
}
