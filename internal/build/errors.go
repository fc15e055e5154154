package build

import (
	"fmt"

	"gleam/internal/diag"
	"gleam/internal/source"
)

// ParseError is a fatal syntax error in one module.
type ParseError struct {
	Path    string
	Src     string
	Span    source.Span
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e ParseError) ToDiagnostic() diag.Diagnostic {
	return locatedDiagnostic(diag.SevError, e.Message, e.Path, e.Src, e.Span)
}

// TypeError is a fatal type-checking error in one module.
type TypeError struct {
	Path    string
	Src     string
	Span    source.Span
	Message string
}

func (e TypeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e TypeError) ToDiagnostic() diag.Diagnostic {
	return locatedDiagnostic(diag.SevError, e.Message, e.Path, e.Src, e.Span)
}

// FileIOError is a fatal filesystem failure. It mentions the offending
// path in its text but carries no source location, so it surfaces as a
// standalone message rather than a per-file diagnostic.
type FileIOError struct {
	Action string
	Path   string
	Detail string
}

func (e FileIOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %s", e.Action, e.Path, e.Detail)
}

func (e FileIOError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.SevError,
		Message:  e.Error(),
	}
}

// ProjectError is a fatal project configuration failure, raised before any
// compilation work happens (missing or invalid gleam.toml). Unlocated.
type ProjectError struct {
	Detail string
}

func (e ProjectError) Error() string {
	return e.Detail
}

func (e ProjectError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.SevError,
		Message:  e.Detail,
	}
}
