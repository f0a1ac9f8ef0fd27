// SPDX-License-Identifier: MPL-2.0

package navigator

import (
	"errors"

	"github.com/artinav/artinav/pkg/catalog"
)

type (
	// Breadcrumb is one clickable element of the trail from the root to the
	// current folder.
	Breadcrumb struct {
		// Index is the value to pass to GoToBreadcrumb. The root crumb is 0.
		Index int `json:"index"`
		// Name is the display label.
		Name string `json:"name"`
		// Path is the catalog path of the folder.
		Path string `json:"path"`
	}

	// Selection is returned by Select for a file: the page-rendering
	// collaborator should display the artifact at Path.
	Selection struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}

	// Navigator pairs a catalog tree with a State for interactive front ends.
	// It is not safe for concurrent use; each view owns its own Navigator.
	Navigator struct {
		root  *catalog.TreeNode
		state State
		// lastReset records the most recent silent recovery to the root.
		lastReset error
	}
)

// New creates a Navigator positioned at the root of root. A nil root is an
// empty catalog.
func New(root *catalog.TreeNode) *Navigator {
	if root == nil {
		root = catalog.NewRoot()
	}
	return &Navigator{root: root}
}

// NewWithState creates a Navigator restored to s. If s does not resolve, the
// navigator starts at the root and LastReset reports why.
func NewWithState(root *catalog.TreeNode, s State) *Navigator {
	n := New(root)
	n.state = s.Clone()
	_, _ = n.resolve()
	return n
}

// Root returns the catalog root.
func (n *Navigator) Root() *catalog.TreeNode {
	return n.root
}

// State returns a copy of the navigator state.
func (n *Navigator) State() State {
	return n.state.Clone()
}

// CurrentPath returns a copy of the folder names from the root.
func (n *Navigator) CurrentPath() []string {
	return n.state.Clone().Path
}

// SearchQuery returns the active search query.
func (n *Navigator) SearchQuery() string {
	return n.state.Query
}

// LastReset returns the NavigationInconsistencyError from the most recent
// recovery to the root, or nil.
func (n *Navigator) LastReset() error {
	return n.lastReset
}

// CurrentNode returns the current folder. If the path no longer resolves,
// the navigator resets to the root and returns it.
func (n *Navigator) CurrentNode() *catalog.TreeNode {
	node, _ := n.resolve()
	return node
}

// Resolve is CurrentNode but also reports a recovery to the root.
func (n *Navigator) Resolve() (*catalog.TreeNode, error) {
	return n.resolve()
}

func (n *Navigator) resolve() (*catalog.TreeNode, error) {
	node, resolved, err := n.state.Resolve(n.root)
	if err != nil {
		n.state = resolved
		n.lastReset = err
	}
	return node, err
}

// VisibleEntries returns the current folder's children filtered by the
// search query, in stored order.
func (n *Navigator) VisibleEntries() []*catalog.TreeNode {
	return Filter(n.CurrentNode().Children(), n.state.Query)
}

// EnterFolder moves into node, a folder that is a direct child of the current
// folder. On error the state is unchanged, unless the current path had to be
// reset to the root.
func (n *Navigator) EnterFolder(node *catalog.TreeNode) error {
	next, err := n.state.EnterFolder(n.root, node)
	if err != nil {
		if errors.Is(err, ErrNavigationInconsistency) {
			n.state = next
			n.lastReset = err
		}
		return err
	}
	n.state = next
	return nil
}

// GoBack moves to the parent folder. At the root it does nothing and returns
// ErrAtRoot.
func (n *Navigator) GoBack() error {
	next, err := n.state.GoBack()
	if err != nil {
		return err
	}
	n.state = next
	return nil
}

// GoToBreadcrumb truncates the path to index segments; 0 is the root.
func (n *Navigator) GoToBreadcrumb(index int) error {
	next, err := n.state.GoToBreadcrumb(index)
	if err != nil {
		return err
	}
	n.state = next
	return nil
}

// GoHome moves to the root.
func (n *Navigator) GoHome() {
	n.state = n.state.GoHome()
}

// SetSearchQuery replaces the search query. The path is not changed.
func (n *Navigator) SetSearchQuery(query string) {
	n.state = n.state.WithQuery(query)
}

// Breadcrumbs returns the trail from the root to the current folder.
func (n *Navigator) Breadcrumbs() []Breadcrumb {
	_, _ = n.resolve()
	return BreadcrumbsFor(n.state.Path)
}

// Select handles a user choosing node from the listing. Folders are entered
// and yield a zero Selection; files yield the Selection the page renderer
// should open.
func (n *Navigator) Select(node *catalog.TreeNode) (Selection, error) {
	if node == nil {
		return Selection{}, ErrNotAChild
	}
	if node.IsFolder() {
		return Selection{}, n.EnterFolder(node)
	}
	if !n.CurrentNode().HasChild(node) {
		return Selection{}, ErrNotAChild
	}
	return Selection{Name: node.Name, Path: node.Path}, nil
}

// Reload installs a freshly built tree, keeping the current path when it
// still resolves. Otherwise the navigator resets to the root and the
// returned error is a NavigationInconsistencyError. The query is kept.
func (n *Navigator) Reload(root *catalog.TreeNode) error {
	if root == nil {
		root = catalog.NewRoot()
	}
	n.root = root
	n.lastReset = nil
	_, err := n.resolve()
	return err
}

// BreadcrumbsFor returns the breadcrumb trail for a folder path.
func BreadcrumbsFor(path []string) []Breadcrumb {
	crumbs := make([]Breadcrumb, 0, len(path)+1)
	crumbs = append(crumbs, Breadcrumb{Index: 0, Name: catalog.RootName, Path: catalog.RootPath})
	for i, seg := range path {
		crumbs = append(crumbs, Breadcrumb{Index: i + 1, Name: seg, Path: catalog.JoinPath(path[:i+1])})
	}
	return crumbs
}
