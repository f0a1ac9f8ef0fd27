// SPDX-License-Identifier: MPL-2.0

// Package discovery produces the artifact identifiers a catalog is built from.
//
// A Source yields identifiers plus structured Diagnostics for non-fatal
// problems; the CLI decides how to render them. Load runs a Source and builds
// the catalog tree, wrapping every failure in a CatalogLoadError so callers
// never see a partially built tree.
package discovery
