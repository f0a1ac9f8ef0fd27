// SPDX-License-Identifier: MPL-2.0

package navigator

import (
	"errors"
	"slices"
	"testing"

	"github.com/artinav/artinav/pkg/catalog"
)

func names(nodes []*catalog.TreeNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func sampleTree(t *testing.T) *catalog.TreeNode {
	t.Helper()
	root, err := catalog.Build(catalog.IDs(
		"finance/q1",
		"finance/q2",
		"finance/archive/2023",
		"ops/log",
		"Report",
		"export",
		"summary",
	))
	if err != nil {
		t.Fatalf("catalog.Build() error = %v", err)
	}
	return root
}

func child(t *testing.T, n *catalog.TreeNode, name string) *catalog.TreeNode {
	t.Helper()
	c, ok := n.Child(name)
	if !ok {
		t.Fatalf("%q has no child %q", n.Path, name)
	}
	return c
}

func TestNavigator_StartsAtRoot(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	nav := New(root)
	if nav.CurrentNode() != root {
		t.Error("CurrentNode() should be the root initially")
	}
	if len(nav.CurrentPath()) != 0 || nav.SearchQuery() != "" {
		t.Errorf("initial state = %+v, want empty", nav.State())
	}
}

func TestNavigator_VisibleEntriesEmptyQuery(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	nav := New(root)
	want := []string{"finance", "ops", "Report", "export", "summary"}
	if got := names(nav.VisibleEntries()); !slices.Equal(got, want) {
		t.Errorf("VisibleEntries() = %v, want %v", got, want)
	}
}

func TestNavigator_VisibleEntriesSubstringFilter(t *testing.T) {
	t.Parallel()

	root := catalog.MustBuild(catalog.IDs("Report", "export", "summary")...)
	nav := New(root)

	nav.SetSearchQuery("ex")
	if got := names(nav.VisibleEntries()); !slices.Equal(got, []string{"export"}) {
		t.Errorf("query %q: VisibleEntries() = %v, want [export]", "ex", got)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{query: "", want: []string{"Report", "export", "summary"}},
		{query: "R", want: []string{"Report", "export", "summary"}},
		{query: "REPORT", want: []string{"Report"}},
		{query: "port", want: []string{"Report", "export"}},
		{query: "zzz", want: []string{}},
	}
	for _, tt := range tests {
		nav.SetSearchQuery(tt.query)
		if got := names(nav.VisibleEntries()); !slices.Equal(got, tt.want) {
			t.Errorf("query %q: VisibleEntries() = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestNavigator_SetSearchQueryKeepsPath(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	nav := New(root)
	if err := nav.EnterFolder(child(t, root, "finance")); err != nil {
		t.Fatalf("EnterFolder() error = %v", err)
	}
	nav.SetSearchQuery("  Q ")
	if nav.SearchQuery() != "  Q " {
		t.Errorf("SearchQuery() = %q, want verbatim %q", nav.SearchQuery(), "  Q ")
	}
	if got := nav.CurrentPath(); !slices.Equal(got, []string{"finance"}) {
		t.Errorf("CurrentPath() = %v, want [finance]", got)
	}
}

func TestNavigator_EnterThenBackRestoresPath(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	nav := New(root)

	var walk func(depth int)
	walk = func(depth int) {
		for _, entry := range nav.VisibleEntries() {
			if !entry.IsFolder() {
				continue
			}
			before := nav.CurrentPath()
			if err := nav.EnterFolder(entry); err != nil {
				t.Fatalf("EnterFolder(%q) error = %v", entry.Path, err)
			}
			if nav.CurrentNode() != entry {
				t.Errorf("after EnterFolder(%q) CurrentNode() = %q", entry.Path, nav.CurrentNode().Path)
			}
			walk(depth + 1)
			if err := nav.GoBack(); err != nil {
				t.Fatalf("GoBack() error = %v", err)
			}
			if got := nav.CurrentPath(); !slices.Equal(got, before) {
				t.Errorf("enter %q then back: path = %v, want %v", entry.Path, got, before)
			}
		}
	}
	walk(0)
}

func TestNavigator_EnterFolderRejectsFiles(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	nav := New(root)
	err := nav.EnterFolder(child(t, root, "Report"))
	if !errors.Is(err, ErrNotAFolder) {
		t.Errorf("EnterFolder(file) error = %v, want ErrNotAFolder", err)
	}
	if !nav.State().AtRoot() {
		t.Error("failed EnterFolder must not change the path")
	}
}

func TestNavigator_EnterFolderRejectsNonChildren(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	nav := New(root)
	archive, _ := root.Find("finance/archive")

	if err := nav.EnterFolder(archive); !errors.Is(err, ErrNotAChild) {
		t.Errorf("EnterFolder(grandchild) error = %v, want ErrNotAChild", err)
	}

	other := catalog.MustBuild(catalog.IDs("finance/x")...)
	foreign, _ := other.Child("finance")
	if err := nav.EnterFolder(foreign); !errors.Is(err, ErrNotAChild) {
		t.Errorf("EnterFolder(node from another tree) error = %v, want ErrNotAChild", err)
	}
	if !nav.State().AtRoot() {
		t.Error("failed EnterFolder must not change the path")
	}
}

func TestNavigator_GoBackAtRootIsNoop(t *testing.T) {
	t.Parallel()

	nav := New(sampleTree(t))
	err := nav.GoBack()
	if !errors.Is(err, ErrAtRoot) {
		t.Errorf("GoBack() at root error = %v, want ErrAtRoot", err)
	}
	if len(nav.CurrentPath()) != 0 {
		t.Errorf("CurrentPath() = %v, want empty", nav.CurrentPath())
	}
}

func TestNavigator_BreadcrumbZeroEqualsHome(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	viaCrumb := New(root)
	viaHome := New(root)
	for _, nav := range []*Navigator{viaCrumb, viaHome} {
		finance := child(t, root, "finance")
		if err := nav.EnterFolder(finance); err != nil {
			t.Fatal(err)
		}
		if err := nav.EnterFolder(child(t, finance, "archive")); err != nil {
			t.Fatal(err)
		}
		nav.SetSearchQuery("20")
	}

	if err := viaCrumb.GoToBreadcrumb(0); err != nil {
		t.Fatalf("GoToBreadcrumb(0) error = %v", err)
	}
	viaHome.GoHome()

	if !viaCrumb.State().Equal(viaHome.State()) {
		t.Errorf("GoToBreadcrumb(0) state %+v != GoHome() state %+v", viaCrumb.State(), viaHome.State())
	}
	if !viaCrumb.State().AtRoot() {
		t.Error("GoToBreadcrumb(0) should land on the root")
	}
}

func TestNavigator_GoToBreadcrumb(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	nav := NewWithState(root, State{Path: []string{"finance", "archive"}})

	crumbs := nav.Breadcrumbs()
	want := []Breadcrumb{
		{Index: 0, Name: "root", Path: "/"},
		{Index: 1, Name: "finance", Path: "finance"},
		{Index: 2, Name: "archive", Path: "finance/archive"},
	}
	if !slices.Equal(crumbs, want) {
		t.Errorf("Breadcrumbs() = %+v, want %+v", crumbs, want)
	}

	if err := nav.GoToBreadcrumb(3); !errors.Is(err, ErrBreadcrumbOutOfRange) {
		t.Errorf("GoToBreadcrumb(3) error = %v, want ErrBreadcrumbOutOfRange", err)
	}
	if err := nav.GoToBreadcrumb(-1); !errors.Is(err, ErrBreadcrumbOutOfRange) {
		t.Errorf("GoToBreadcrumb(-1) error = %v, want ErrBreadcrumbOutOfRange", err)
	}
	if err := nav.GoToBreadcrumb(2); err != nil {
		t.Errorf("GoToBreadcrumb(len) error = %v, want nil", err)
	}
	if err := nav.GoToBreadcrumb(1); err != nil {
		t.Fatalf("GoToBreadcrumb(1) error = %v", err)
	}
	if got := nav.CurrentPath(); !slices.Equal(got, []string{"finance"}) {
		t.Errorf("CurrentPath() = %v, want [finance]", got)
	}
}

func TestNavigator_ReloadKeepsResolvablePath(t *testing.T) {
	t.Parallel()

	nav := NewWithState(sampleTree(t), State{Path: []string{"finance"}, Query: "q"})
	if err := nav.Reload(catalog.MustBuild(catalog.IDs("finance/q3", "other")...)); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := names(nav.VisibleEntries()); !slices.Equal(got, []string{"q3"}) {
		t.Errorf("VisibleEntries() after reload = %v, want [q3]", got)
	}
}

func TestNavigator_ReloadResetsInconsistentPath(t *testing.T) {
	t.Parallel()

	nav := NewWithState(sampleTree(t), State{Path: []string{"finance", "archive"}, Query: "x"})
	err := nav.Reload(catalog.MustBuild(catalog.IDs("finance/q1")...))

	if !errors.Is(err, ErrNavigationInconsistency) {
		t.Fatalf("Reload() error = %v, want ErrNavigationInconsistency", err)
	}
	var navErr *NavigationInconsistencyError
	if !errors.As(err, &navErr) || navErr.Missing != "archive" {
		t.Errorf("error = %#v, want missing segment %q", err, "archive")
	}
	if !nav.State().AtRoot() {
		t.Errorf("path after inconsistent reload = %v, want root", nav.CurrentPath())
	}
	if nav.SearchQuery() != "x" {
		t.Errorf("query after reload = %q, want it kept", nav.SearchQuery())
	}
	if nav.LastReset() == nil {
		t.Error("LastReset() should report the recovery")
	}
}

func TestNavigator_CurrentNodeRecoversFromFilePath(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	nav := NewWithState(root, State{Path: []string{"Report"}})
	if nav.CurrentNode() != root {
		t.Error("a path naming a file should resolve to the root")
	}
	if !errors.Is(nav.LastReset(), ErrNavigationInconsistency) {
		t.Errorf("LastReset() = %v, want ErrNavigationInconsistency", nav.LastReset())
	}
}

func TestNavigator_Select(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	nav := New(root)

	sel, err := nav.Select(child(t, root, "finance"))
	if err != nil || sel != (Selection{}) {
		t.Fatalf("Select(folder) = %+v, %v; want zero selection", sel, err)
	}
	if got := nav.CurrentPath(); !slices.Equal(got, []string{"finance"}) {
		t.Errorf("Select(folder) path = %v, want [finance]", got)
	}

	q1 := child(t, nav.CurrentNode(), "q1")
	sel, err = nav.Select(q1)
	if err != nil {
		t.Fatalf("Select(file) error = %v", err)
	}
	if sel.Path != "finance/q1" || sel.Name != "q1" {
		t.Errorf("Select(file) = %+v, want finance/q1", sel)
	}

	if _, err := nav.Select(child(t, root, "Report")); !errors.Is(err, ErrNotAChild) {
		t.Errorf("Select(file outside folder) error = %v, want ErrNotAChild", err)
	}
	if _, err := nav.Select(nil); !errors.Is(err, ErrNotAChild) {
		t.Errorf("Select(nil) error = %v, want ErrNotAChild", err)
	}
}

func TestNavigator_NilRoot(t *testing.T) {
	t.Parallel()

	nav := New(nil)
	if entries := nav.VisibleEntries(); len(entries) != 0 {
		t.Errorf("VisibleEntries() on empty catalog = %v", names(entries))
	}
	if !nav.CurrentNode().IsRoot() {
		t.Error("empty catalog should still have a root")
	}
}
