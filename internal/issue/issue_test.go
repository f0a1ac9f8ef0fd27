// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValues_CoversEveryId(t *testing.T) {
	t.Parallel()

	ids := []Id{
		CatalogLoadFailedId,
		ArtifactsDirNotFoundId,
		PathCollisionId,
		InvalidArtifactId,
		ManifestFetchFailedId,
		ConfigLoadFailedId,
		ServerStartFailedId,
		FolderNotFoundId,
	}
	values := Values()
	if len(values) != len(ids) {
		t.Fatalf("len(Values()) = %d, want %d", len(values), len(ids))
	}
	for i, id := range ids {
		if values[i].Id() != id {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, values[i].Id(), id)
		}
		if strings.TrimSpace(string(Get(id).MarkdownMsg())) == "" {
			t.Errorf("issue %d has no guidance text", id)
		}
	}
	if CatalogLoadFailedId != 1 {
		t.Errorf("CatalogLoadFailedId = %d, want 1", CatalogLoadFailedId)
	}
}

func TestGet_Unknown(t *testing.T) {
	t.Parallel()

	if Get(0) != nil || Get(999) != nil {
		t.Error("Get() should return nil for unknown ids")
	}
}

//nolint:paralleltest // swaps the package-level renderer
func TestIssue_RenderAppendsLinks(t *testing.T) {
	orig := render
	t.Cleanup(func() { render = orig })

	var gotStyle, gotMd string
	render = func(in, style string) (string, error) {
		gotMd, gotStyle = in, style
		return "rendered", nil
	}

	iss := &Issue{id: 99, mdMsg: "# Title", docLinks: []HttpLink{"https://example.com/docs"}}
	out, err := iss.Render("notty")
	if err != nil || out != "rendered" {
		t.Fatalf("Render() = %q, %v", out, err)
	}
	if gotStyle != "notty" {
		t.Errorf("style = %q, want notty", gotStyle)
	}
	if !strings.HasPrefix(gotMd, "# Title") || !strings.Contains(gotMd, "https://example.com/docs") {
		t.Errorf("markdown = %q, want title and link", gotMd)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	root := errors.New("connection refused")
	err := NewErrorContext().
		WithOperation("fetch artifact manifest").
		WithResource("http://localhost/__artifacts").
		WithSuggestion("Check that the server is running").
		WithIssue(ManifestFetchFailedId).
		Wrap(fmt.Errorf("GET: %w", root)).
		Build()

	want := "failed to fetch artifact manifest: http://localhost/__artifacts: GET: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	short := err.Format(false)
	if !strings.Contains(short, "• Check that the server is running") {
		t.Errorf("Format(false) missing suggestion: %q", short)
	}
	if strings.Contains(short, "Error chain") {
		t.Error("Format(false) should not include the error chain")
	}
	verbose := err.Format(true)
	if !strings.Contains(verbose, "1. GET: connection refused") || !strings.Contains(verbose, "2. connection refused") {
		t.Errorf("Format(true) = %q, want numbered chain", verbose)
	}

	if !errors.Is(err, root) {
		t.Error("errors.Is should reach the root cause")
	}
	if err.Issue() == nil || err.Issue().Id() != ManifestFetchFailedId {
		t.Error("Issue() should return the linked guidance")
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if NewErrorContext().Build() != nil {
		t.Error("Build() without operation should be nil")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() without operation = %v, want untyped nil", err)
	}
}

func TestIssueOf(t *testing.T) {
	t.Parallel()

	inner := NewErrorContext().WithOperation("build catalog").WithIssue(PathCollisionId).BuildError()
	outer := WrapWithOperation(fmt.Errorf("reload: %w", inner), "serve catalog")

	iss := IssueOf(outer)
	if iss == nil || iss.Id() != PathCollisionId {
		t.Errorf("IssueOf() = %v, want PathCollisionId", iss)
	}
	if IssueOf(errors.New("plain")) != nil {
		t.Error("IssueOf(plain error) should be nil")
	}
	if WrapWithOperation(nil, "x") != nil {
		t.Error("WrapWithOperation(nil) should be nil")
	}
}
