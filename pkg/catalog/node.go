// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// KindFolder marks a node that groups other nodes.
	KindFolder Kind = "folder"
	// KindFile marks a leaf node that stands for one artifact page.
	KindFile Kind = "file"

	// RootPath is the path of the catalog root.
	RootPath = "/"
	// RootName is the display name of the catalog root.
	RootName = "root"
	// Separator joins path segments.
	Separator = "/"
)

// ErrInvalidKind is returned when a Kind value is neither folder nor file.
var ErrInvalidKind = errors.New("invalid node kind")

// SkipChildren can be returned from a WalkFunc to stop descending into the
// current folder without aborting the walk.
var SkipChildren = errors.New("skip children")

type (
	// Kind distinguishes folders from files.
	Kind string

	// TreeNode is one entry of the catalog. Folder nodes own an ordered list of
	// children; file nodes never do. Nodes are not modified once Build returns.
	TreeNode struct {
		// Name is the last path segment, used as the display label.
		Name string
		// Path is the slash-joined path from the root. The root's path is "/".
		Path string
		// Kind is KindFolder or KindFile.
		Kind Kind

		children []*TreeNode
	}

	// WalkFunc is called for every node visited by Walk. depth is 0 for the
	// node Walk was called on.
	WalkFunc func(node *TreeNode, depth int) error

	// Stats summarizes a tree. The root folder is not counted.
	Stats struct {
		Folders int `json:"folders"`
		Files   int `json:"files"`
	}

	fileJSON struct {
		Name string `json:"name"`
		Path string `json:"path"`
		Kind Kind   `json:"kind"`
	}

	folderJSON struct {
		fileJSON
		Children []*TreeNode `json:"children"`
	}
)

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// Validate returns nil for KindFolder and KindFile.
func (k Kind) Validate() error {
	switch k {
	case KindFolder, KindFile:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
}

// IsFolder reports whether n is a folder.
func (n *TreeNode) IsFolder() bool {
	return n != nil && n.Kind == KindFolder
}

// IsFile reports whether n is a file.
func (n *TreeNode) IsFile() bool {
	return n != nil && n.Kind == KindFile
}

// IsRoot reports whether n is the catalog root.
func (n *TreeNode) IsRoot() bool {
	return n != nil && n.Kind == KindFolder && n.Path == RootPath
}

// Children returns the node's children in stored order. The returned slice is
// a copy; the nodes themselves are shared.
func (n *TreeNode) Children() []*TreeNode {
	if n == nil {
		return nil
	}
	return slices.Clone(n.children)
}

// Len returns the number of direct children.
func (n *TreeNode) Len() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

// Child returns the direct child called name.
func (n *TreeNode) Child(name string) (*TreeNode, bool) {
	if n == nil {
		return nil, false
	}
	for _, c := range n.children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// HasChild reports whether c is one of n's direct children, by identity.
func (n *TreeNode) HasChild(c *TreeNode) bool {
	if n == nil || c == nil {
		return false
	}
	return slices.Contains(n.children, c)
}

// Lookup walks child-by-name from n. An empty segment list returns n.
func (n *TreeNode) Lookup(segments []string) (*TreeNode, bool) {
	cur := n
	for _, seg := range segments {
		next, ok := cur.Child(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// Find resolves a slash-delimited path relative to n. "" and "/" return n.
func (n *TreeNode) Find(path string) (*TreeNode, bool) {
	return n.Lookup(SplitPath(path))
}

// Walk visits n and its descendants in pre-order. Returning SkipChildren from
// fn skips the current node's children; any other error stops the walk and is
// returned.
func (n *TreeNode) Walk(fn WalkFunc) error {
	if n == nil {
		return nil
	}
	err := n.walk(fn, 0)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	return err
}

func (n *TreeNode) walk(fn WalkFunc, depth int) error {
	if err := fn(n, depth); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.walk(fn, depth+1); err != nil && !errors.Is(err, SkipChildren) {
			return err
		}
	}
	return nil
}

// Files returns every file below n in pre-order.
func (n *TreeNode) Files() []*TreeNode {
	var files []*TreeNode
	_ = n.Walk(func(node *TreeNode, _ int) error {
		if node.IsFile() {
			files = append(files, node)
		}
		return nil
	})
	return files
}

// Stats counts the folders and files below n.
func (n *TreeNode) Stats() Stats {
	var s Stats
	_ = n.Walk(func(node *TreeNode, depth int) error {
		if depth == 0 {
			return nil
		}
		if node.IsFolder() {
			s.Folders++
		} else {
			s.Files++
		}
		return nil
	})
	return s
}

// MarshalJSON encodes the node and its subtree. Files omit "children"; folders
// always carry the array, even when empty.
func (n *TreeNode) MarshalJSON() ([]byte, error) {
	base := fileJSON{Name: n.Name, Path: n.Path, Kind: n.Kind}
	if !n.IsFolder() {
		return json.Marshal(base)
	}
	children := n.children
	if children == nil {
		children = []*TreeNode{}
	}
	return json.Marshal(folderJSON{fileJSON: base, Children: children})
}

// SplitPath splits a slash-delimited path into its segments, ignoring a
// leading or trailing separator. "" and "/" yield no segments.
func SplitPath(path string) []string {
	path = strings.Trim(path, Separator)
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// JoinPath joins folder segments into a node path. No segments yield RootPath.
func JoinPath(segments []string) string {
	if len(segments) == 0 {
		return RootPath
	}
	return strings.Join(segments, Separator)
}
