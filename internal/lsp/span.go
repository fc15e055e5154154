package lsp

import (
	"fortio.org/safecast"

	"gleam/internal/diag"
	"gleam/internal/source"
)

// LSP severity constants (DiagnosticSeverity / MessageType share values
// for error and warning).
const (
	lspSeverityError   = 1
	lspSeverityWarning = 2
	lspSeverityInfo    = 3
)

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return lspSeverityError
	case diag.SevWarning:
		return lspSeverityWarning
	default:
		return lspSeverityInfo
	}
}

// toLSPRange converts a 1-based source range into a 0-based LSP range.
func toLSPRange(r source.Range) lspRange {
	return lspRange{
		Start: position{Line: zeroBased(r.Start.Line), Character: zeroBased(r.Start.Col)},
		End:   position{Line: zeroBased(r.End.Line), Character: zeroBased(r.End.Col)},
	}
}

func zeroBased(n uint32) int {
	v, err := safecast.Conv[int](n)
	if err != nil || v < 1 {
		return 0
	}
	return v - 1
}

func toLSPDiagnostic(d diag.Diagnostic) lspDiagnostic {
	out := lspDiagnostic{
		Severity: lspSeverity(d.Severity),
		Source:   "gleam",
		Message:  d.Message,
	}
	if d.Location != nil {
		out.Range = toLSPRange(d.Location.Range)
	}
	return out
}
