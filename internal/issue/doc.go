// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors with remediation hints.
//
// ActionableError carries the failed operation, the resource involved and a
// list of suggestions. Known failure classes also map to an Issue: a Markdown
// guidance page rendered with glamour when the CLI reports the failure.
package issue
