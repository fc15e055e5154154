package build

import (
	"gleam/internal/diag"
	"gleam/internal/source"
)

// TypeWarning is a warning produced by the type checker for one module.
// Src is the module's source text at the time the warning was produced; it
// is used to resolve the span into a client position.
type TypeWarning struct {
	Path    string
	Src     string
	Span    source.Span
	Message string
}

func (w TypeWarning) ToDiagnostic() diag.Diagnostic {
	return locatedDiagnostic(diag.SevWarning, w.Message, w.Path, w.Src, w.Span)
}

// DeprecatedWarning flags use of a deprecated construct.
type DeprecatedWarning struct {
	Path    string
	Src     string
	Span    source.Span
	Message string
}

func (w DeprecatedWarning) ToDiagnostic() diag.Diagnostic {
	return locatedDiagnostic(diag.SevWarning, w.Message, w.Path, w.Src, w.Span)
}

func locatedDiagnostic(sev diag.Severity, msg, path, src string, span source.Span) diag.Diagnostic {
	idx := source.NewLineIndex([]byte(src))
	return diag.Diagnostic{
		Severity: sev,
		Message:  msg,
		Location: &diag.Location{
			Path:  path,
			Range: idx.Resolve(span),
		},
	}
}
