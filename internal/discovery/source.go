// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/artinav/artinav/internal/issue"
	"github.com/artinav/artinav/pkg/catalog"
)

// ErrArtifactsDirNotFound is returned when a DirSource directory is missing.
var ErrArtifactsDirNotFound = errors.New("artifacts directory not found")

// DefaultExtensions are the page extensions recognized when none are configured.
var DefaultExtensions = []string{"tsx", "jsx"}

type (
	// Source produces the artifact identifiers a catalog is built from.
	Source interface {
		// Describe names the source for logs and error messages.
		Describe() string
		// Discover returns identifiers in discovery order. Duplicates are
		// dropped with a diagnostic.
		Discover(ctx context.Context) (Result, error)
	}

	// DirSource discovers artifact pages below a directory. An identifier is
	// the slash-separated path relative to Dir with the extension removed, so
	// "finance/Q1.tsx" becomes "finance/Q1".
	DirSource struct {
		// Dir is the directory to scan.
		Dir string
		// Extensions lists page extensions without the dot. Empty means DefaultExtensions.
		Extensions []string
		// Exclude lists doublestar globs, relative to Dir, to skip.
		Exclude []string
		// IndexName is the page name (without extension) that is never listed.
		// Empty disables the rule.
		IndexName string
	}
)

// Describe implements Source.
func (s *DirSource) Describe() string {
	return "directory " + s.Dir
}

// Discover implements Source. Unreadable entries are reported as warnings and
// skipped; a missing Dir is an error.
func (s *DirSource) Discover(ctx context.Context) (Result, error) {
	info, err := os.Stat(s.Dir)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", s.Dir)
		}
		return Result{}, issue.NewErrorContext().
			WithOperation("scan artifacts directory").
			WithResource(s.Dir).
			WithSuggestion("Run artinav from the project root or pass --dir").
			WithIssue(issue.ArtifactsDirNotFoundId).
			Wrap(fmt.Errorf("%w: %w", ErrArtifactsDirNotFound, err)).
			BuildError()
	}

	for _, pattern := range s.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return Result{}, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	exts := s.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	var res Result
	seen := make(map[catalog.ArtifactID]struct{})
	walkErr := fs.WalkDir(os.DirFS(s.Dir), ".", func(rel string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if rel == "." {
				return err
			}
			res.warn(CodeUnreadableEntry, rel, "skipped unreadable entry", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if rel == "." {
			return nil
		}
		if s.excluded(rel) {
			res.warn(CodeExcluded, rel, "excluded by pattern", nil)
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		id, ok := stripExtension(rel, exts)
		if !ok {
			return nil
		}
		if unnamedPage(id) {
			res.warn(CodeUnnamedPage, rel, "page file has no name before its extension", nil)
			return nil
		}
		if s.IndexName != "" && path.Base(id) == s.IndexName {
			res.warn(CodeIndexSkipped, rel, "index page is not listed", nil)
			return nil
		}
		artifact := catalog.ArtifactID(id)
		if _, dup := seen[artifact]; dup {
			res.warn(CodeDuplicateEntry, rel, fmt.Sprintf("%q is provided by more than one file", id), nil)
			return nil
		}
		seen[artifact] = struct{}{}
		res.IDs = append(res.IDs, artifact)
		return nil
	})
	if walkErr != nil {
		return Result{}, fmt.Errorf("scan %s: %w", s.Dir, walkErr)
	}

	return res, nil
}

func (s *DirSource) excluded(rel string) bool {
	return slices.ContainsFunc(s.Exclude, func(pattern string) bool {
		ok, _ := doublestar.Match(pattern, rel)
		return ok
	})
}

// unnamedPage reports whether a stripped identifier lost its last segment,
// as happens for a bare ".tsx" file.
func unnamedPage(id string) bool {
	return id == "" || strings.HasSuffix(id, "/")
}

// stripExtension removes a configured extension from name and reports whether
// one matched.
func stripExtension(name string, exts []string) (string, bool) {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" || !slices.Contains(exts, ext) {
		return name, false
	}
	return strings.TrimSuffix(name, "."+ext), true
}
