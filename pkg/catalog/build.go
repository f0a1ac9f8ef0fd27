// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"cmp"
	"fmt"
	"slices"
)

const (
	// OrderInsertion keeps children in first-encounter order.
	OrderInsertion Order = "insertion"
	// OrderByName stable-sorts children by name after construction.
	OrderByName Order = "name"
)

type (
	// Order selects how children are ordered within a folder.
	Order string

	// BuildOption configures Build.
	BuildOption func(*buildOptions)

	buildOptions struct {
		order Order
	}

	// builder holds the path index used only while a tree is constructed.
	builder struct {
		root  *TreeNode
		nodes map[string]*TreeNode
	}
)

// ParseOrder converts a configuration value to an Order. "" maps to
// OrderInsertion.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", OrderInsertion:
		return OrderInsertion, nil
	case OrderByName:
		return OrderByName, nil
	default:
		return "", fmt.Errorf("unknown catalog order %q (expected %q or %q)", s, OrderInsertion, OrderByName)
	}
}

// String returns the order name.
func (o Order) String() string {
	return string(o)
}

// WithOrder sets the child ordering. The default is OrderInsertion.
func WithOrder(o Order) BuildOption {
	return func(opts *buildOptions) {
		opts.order = o
	}
}

// NewRoot returns an empty catalog root.
func NewRoot() *TreeNode {
	return &TreeNode{Name: RootName, Path: RootPath, Kind: KindFolder}
}

// Build constructs the catalog tree for ids. Identifiers are processed in the
// given order, so the result is deterministic for a fixed input slice.
//
// Build fails on the first malformed identifier (InvalidArtifactIDError) or
// on the first file/folder naming collision (PathCollisionError). No partial
// tree is returned on error.
func Build(ids []ArtifactID, opts ...BuildOption) (*TreeNode, error) {
	options := buildOptions{order: OrderInsertion}
	for _, opt := range opts {
		opt(&options)
	}

	b := &builder{
		root:  NewRoot(),
		nodes: make(map[string]*TreeNode, len(ids)+1),
	}
	b.nodes[RootPath] = b.root

	for _, id := range ids {
		if err := b.add(id); err != nil {
			return nil, err
		}
	}

	if options.order == OrderByName {
		_ = b.root.Walk(func(n *TreeNode, _ int) error {
			slices.SortStableFunc(n.children, func(a, c *TreeNode) int {
				return cmp.Compare(a.Name, c.Name)
			})
			return nil
		})
	}

	return b.root, nil
}

// MustBuild is like Build but panics on error. Intended for tests and
// fixed, known-good inputs.
func MustBuild(ids ...ArtifactID) *TreeNode {
	root, err := Build(ids)
	if err != nil {
		panic(err)
	}
	return root
}

func (b *builder) add(id ArtifactID) error {
	segments, err := id.Segments()
	if err != nil {
		return err
	}

	parent := b.root
	for i := range len(segments) - 1 {
		parent, err = b.folder(parent, segments[:i+1])
		if err != nil {
			return err
		}
	}

	path := id.String()
	if existing, ok := b.nodes[path]; ok {
		return &PathCollisionError{Path: path, Existing: existing.Kind, Claimed: KindFile}
	}
	file := &TreeNode{Name: segments[len(segments)-1], Path: path, Kind: KindFile}
	parent.children = append(parent.children, file)
	b.nodes[path] = file
	return nil
}

// folder returns the folder for prefix, creating and attaching it to parent on
// first use.
func (b *builder) folder(parent *TreeNode, prefix []string) (*TreeNode, error) {
	path := JoinPath(prefix)
	if existing, ok := b.nodes[path]; ok {
		if !existing.IsFolder() {
			return nil, &PathCollisionError{Path: path, Existing: existing.Kind, Claimed: KindFolder}
		}
		return existing, nil
	}
	node := &TreeNode{Name: prefix[len(prefix)-1], Path: path, Kind: KindFolder}
	parent.children = append(parent.children, node)
	b.nodes[path] = node
	return node, nil
}
