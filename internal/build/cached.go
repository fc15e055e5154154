package build

import (
	"gleam/internal/diag"
	"gleam/internal/source"
)

// CachedWarning is a warning replayed from the build cache for a module
// that was not recompiled this pass. Its position was resolved when the
// warning was first produced, so no source text is needed.
type CachedWarning struct {
	Path    string
	Range   source.Range
	Message string
}

func (w CachedWarning) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.SevWarning,
		Message:  w.Message,
		Location: &diag.Location{Path: w.Path, Range: w.Range},
	}
}
