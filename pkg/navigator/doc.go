// SPDX-License-Identifier: MPL-2.0

// Package navigator implements the browsing view-model over a catalog tree:
// the current folder path, a search filter, and the navigation actions a
// presentation layer binds to (enter folder, back, breadcrumb jump, home).
//
// State is an explicit value and every State method is pure, so front ends
// can hold state however they like and tests need no rendering environment.
// Navigator wraps a tree and a State for callers that prefer a stateful API.
//
// A path that stops resolving (the tree was rebuilt underneath) is never
// fatal: the navigator falls back to the root and reports a
// NavigationInconsistencyError for callers that want to log it.
package navigator
