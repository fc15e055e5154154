// Package diag defines the diagnostic model shared by the compiler driver,
// the CLI, and the language server. It carries no formatting policy beyond
// the short CLI form and performs no IO.
package diag

import (
	"gleam/internal/source"
)

// Location anchors a diagnostic to a position in a source file.
type Location struct {
	Path  string
	Range source.Range
}

// Diagnostic is the client-facing record of one compiler finding.
// Location is nil for findings with no source anchor (environment
// failures, IO errors and the like).
type Diagnostic struct {
	Severity Severity
	Message  string
	Location *Location
}

// Located reports whether the diagnostic is anchored to a file.
func (d Diagnostic) Located() bool {
	return d.Location != nil
}

// Path returns the anchored file path, or "" when unlocated.
func (d Diagnostic) Path() string {
	if d.Location == nil {
		return ""
	}
	return d.Location.Path
}
