// SPDX-License-Identifier: MPL-2.0

// Package catalog builds the hierarchical folder/file tree for a set of
// artifact identifiers.
//
// An artifact identifier is a slash-delimited string such as "finance/q1".
// Every segment but the last names a folder; the last names the artifact page
// itself. Build turns a list of identifiers into a single immutable tree
// rooted at "/". Folders are created once per distinct path and children keep
// first-encounter order unless OrderByName is requested.
package catalog
