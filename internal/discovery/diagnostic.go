// SPDX-License-Identifier: MPL-2.0

package discovery

import "github.com/artinav/artinav/pkg/catalog"

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"

	// CodeUnreadableEntry marks a directory entry that could not be read.
	CodeUnreadableEntry = "unreadable_entry"
	// CodeExcluded marks a page skipped by an exclude glob.
	CodeExcluded = "excluded"
	// CodeIndexSkipped marks an index page, which never becomes an entry.
	CodeIndexSkipped = "index_skipped"
	// CodeDuplicateEntry marks a manifest entry listed more than once.
	CodeDuplicateEntry = "duplicate_entry"
	// CodeUnnamedPage marks a page with nothing before its extension.
	CodeUnnamedPage = "unnamed_page"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic represents a structured discovery diagnostic that is returned
	// to callers (rather than written to stderr) for consistent rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "index_skipped").
		Code string
		// Message is the human-readable description.
		Message string
		// Path is the file path or manifest entry associated with this diagnostic (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}

	// Result bundles discovered identifiers, in discovery order, with the
	// diagnostics produced along the way.
	Result struct {
		IDs         []catalog.ArtifactID
		Diagnostics []Diagnostic
	}
)

func (r *Result) warn(code, path, msg string, cause error) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  msg,
		Path:     path,
		Cause:    cause,
	})
}
