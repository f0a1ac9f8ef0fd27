// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/artinav/artinav/internal/config"
	"github.com/artinav/artinav/internal/issue"
	"github.com/artinav/artinav/pkg/catalog"
)

// ErrCatalogLoad is the sentinel wrapped by CatalogLoadError.
var ErrCatalogLoad = errors.New("catalog load failed")

type (
	// CatalogLoadError reports that no catalog could be produced from a
	// source. Front ends show it instead of a partial tree.
	CatalogLoadError struct {
		// Source describes where discovery ran.
		Source string
		// Cause is the discovery or build failure.
		Cause error
	}

	// Catalog is a successfully loaded tree together with the identifiers it
	// was built from.
	Catalog struct {
		Root        *catalog.TreeNode
		IDs         []catalog.ArtifactID
		Diagnostics []Diagnostic
	}
)

// Error implements the error interface.
func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("load catalog from %s: %v", e.Source, e.Cause)
}

// Unwrap returns both the sentinel and the cause so errors.Is and errors.As
// reach either.
func (e *CatalogLoadError) Unwrap() []error {
	return []error{ErrCatalogLoad, e.Cause}
}

// Load runs src and builds the catalog tree. Every failure, including
// malformed identifiers and path collisions, is returned as a
// *CatalogLoadError; on error no tree is returned.
func Load(ctx context.Context, src Source, order catalog.Order) (*Catalog, error) {
	res, err := src.Discover(ctx)
	if err != nil {
		return nil, &CatalogLoadError{Source: src.Describe(), Cause: err}
	}

	root, err := catalog.Build(res.IDs, catalog.WithOrder(order))
	if err != nil {
		return nil, &CatalogLoadError{Source: src.Describe(), Cause: annotateBuildError(err)}
	}

	return &Catalog{Root: root, IDs: res.IDs, Diagnostics: res.Diagnostics}, nil
}

// annotateBuildError links catalog build failures to their guidance.
func annotateBuildError(err error) error {
	id := issue.CatalogLoadFailedId
	switch {
	case errors.Is(err, catalog.ErrPathCollision):
		id = issue.PathCollisionId
	case errors.Is(err, catalog.ErrInvalidArtifactID):
		id = issue.InvalidArtifactId
	}
	return issue.NewErrorContext().
		WithOperation("build catalog").
		WithIssue(id).
		Wrap(err).
		BuildError()
}

// SourceFromConfig selects the configured source: URL, then Manifest, then Dir.
func SourceFromConfig(cfg config.ArtifactsConfig) Source {
	switch {
	case cfg.URL != "":
		return &HTTPSource{URL: cfg.URL, Extensions: cfg.Extensions}
	case cfg.Manifest != "":
		return &ManifestFileSource{Path: cfg.Manifest, Extensions: cfg.Extensions}
	default:
		return &DirSource{
			Dir:        cfg.Dir,
			Extensions: cfg.Extensions,
			Exclude:    cfg.Exclude,
			IndexName:  cfg.IndexName,
		}
	}
}
