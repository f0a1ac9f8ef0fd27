// SPDX-License-Identifier: MPL-2.0

package navigator

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/artinav/artinav/pkg/catalog"
)

var (
	// ErrAtRoot is returned by GoBack when the path is already empty.
	ErrAtRoot = errors.New("already at catalog root")
	// ErrNotAFolder is returned when a file is passed where a folder is required.
	// Files go to page navigation (Select), never to EnterFolder.
	ErrNotAFolder = errors.New("node is not a folder")
	// ErrNotAChild is returned when the node is not a direct child of the
	// current folder.
	ErrNotAChild = errors.New("node is not a child of the current folder")
	// ErrBreadcrumbOutOfRange is returned for a breadcrumb index outside
	// [0, len(Path)].
	ErrBreadcrumbOutOfRange = errors.New("breadcrumb index out of range")
	// ErrNavigationInconsistency is the sentinel wrapped by
	// NavigationInconsistencyError.
	ErrNavigationInconsistency = errors.New("navigation path no longer resolves")
)

type (
	// State is the navigator's complete mutable state. It is a plain value:
	// every operation returns a new State and leaves the receiver untouched.
	State struct {
		// Path holds folder names from the root to the current folder. Empty
		// means the root.
		Path []string `json:"path"`
		// Query filters the listing by case-insensitive substring of the
		// entry name. Empty shows everything.
		Query string `json:"query"`
	}

	// NavigationInconsistencyError reports a Path that does not resolve
	// against the current tree, usually because the tree was rebuilt with
	// different contents. The navigator recovers by resetting to the root.
	NavigationInconsistencyError struct {
		// Path is the path that failed to resolve.
		Path []string
		// Missing is the first segment that was not found as a folder.
		Missing string
	}
)

// Error implements the error interface.
func (e *NavigationInconsistencyError) Error() string {
	return fmt.Sprintf("navigation path %q no longer resolves (missing folder %q); reset to root",
		catalog.JoinPath(e.Path), e.Missing)
}

// Unwrap returns ErrNavigationInconsistency for errors.Is compatibility.
func (e *NavigationInconsistencyError) Unwrap() error {
	return ErrNavigationInconsistency
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return State{Path: slices.Clone(s.Path), Query: s.Query}
}

// Depth returns the number of folders between the root and the current folder.
func (s State) Depth() int {
	return len(s.Path)
}

// AtRoot reports whether the current folder is the root.
func (s State) AtRoot() bool {
	return len(s.Path) == 0
}

// FolderPath returns the catalog path of the current folder.
func (s State) FolderPath() string {
	return catalog.JoinPath(s.Path)
}

// Equal reports whether s and o describe the same location and query.
func (s State) Equal(o State) bool {
	return s.Query == o.Query && slices.Equal(s.Path, o.Path)
}

// Resolve walks s.Path from root. When a segment is missing or names a file,
// it returns root, a copy of s with an empty Path, and a
// NavigationInconsistencyError. A nil root is treated as an empty catalog.
func (s State) Resolve(root *catalog.TreeNode) (*catalog.TreeNode, State, error) {
	if root == nil {
		root = catalog.NewRoot()
	}
	cur := root
	for _, seg := range s.Path {
		next, ok := cur.Child(seg)
		if !ok || !next.IsFolder() {
			reset := State{Query: s.Query}
			return root, reset, &NavigationInconsistencyError{Path: slices.Clone(s.Path), Missing: seg}
		}
		cur = next
	}
	return cur, s, nil
}

// Visible resolves s against root and returns the filtered listing of the
// current folder together with the (possibly reset) state.
func (s State) Visible(root *catalog.TreeNode) ([]*catalog.TreeNode, State, error) {
	node, resolved, err := s.Resolve(root)
	return Filter(node.Children(), resolved.Query), resolved, err
}

// EnterFolder returns s with node's name appended. node must be a folder and
// a direct child of the current folder.
func (s State) EnterFolder(root *catalog.TreeNode, node *catalog.TreeNode) (State, error) {
	if !node.IsFolder() {
		return s, ErrNotAFolder
	}
	cur, resolved, err := s.Resolve(root)
	if err != nil {
		return resolved, err
	}
	if !cur.HasChild(node) {
		return s, fmt.Errorf("%w: %q in %q", ErrNotAChild, node.Path, cur.Path)
	}
	next := s.Clone()
	next.Path = append(next.Path, node.Name)
	return next, nil
}

// GoBack drops the last path segment. At the root it returns s unchanged and
// ErrAtRoot.
func (s State) GoBack() (State, error) {
	if s.AtRoot() {
		return s, ErrAtRoot
	}
	next := s.Clone()
	next.Path = next.Path[:len(next.Path)-1]
	return next, nil
}

// GoToBreadcrumb truncates the path to index segments. Index 0 is the root.
func (s State) GoToBreadcrumb(index int) (State, error) {
	if index < 0 || index > len(s.Path) {
		return s, fmt.Errorf("%w: %d (depth %d)", ErrBreadcrumbOutOfRange, index, len(s.Path))
	}
	next := s.Clone()
	next.Path = next.Path[:index]
	return next, nil
}

// GoHome clears the path, keeping the query.
func (s State) GoHome() State {
	return State{Query: s.Query}
}

// WithQuery replaces the search query verbatim, keeping the path.
func (s State) WithQuery(query string) State {
	next := s.Clone()
	next.Query = query
	return next
}

// Filter returns the entries whose name contains query, case-insensitively,
// in their original order. An empty query returns entries unchanged.
func Filter(entries []*catalog.TreeNode, query string) []*catalog.TreeNode {
	if query == "" {
		return entries
	}
	needle := strings.ToLower(query)
	out := make([]*catalog.TreeNode, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			out = append(out, e)
		}
	}
	return out
}
