package lsp

import (
	"sort"

	"gleam/internal/diag"
)

// publishFeedback applies one bookkeeping result to the client: a
// publishDiagnostics notification per path (full replace, an empty list
// clears) and a showMessage notification per standalone message.
func (s *Server) publishFeedback(feedback Feedback) {
	paths := make([]string, 0, len(feedback.Diagnostics))
	for path := range feedback.Diagnostics {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		uri := pathToURI(path)
		if uri == "" {
			continue
		}
		diags := feedback.Diagnostics[path]
		list := make([]lspDiagnostic, 0, len(diags))
		for _, d := range diags {
			list = append(list, toLSPDiagnostic(d))
		}
		if err := s.sendNotification("textDocument/publishDiagnostics", publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		}); err != nil {
			s.logf("failed to publish diagnostics: %v", err)
		}
		s.tracef("publishDiagnostics: uri=%s diags=%d", uri, len(list))
	}

	for _, message := range feedback.Messages {
		if err := s.sendNotification("window/showMessage", showMessageParams{
			Type:    messageType(message.Severity),
			Message: message.Message,
		}); err != nil {
			s.logf("failed to show message: %v", err)
		}
	}
}

func messageType(sev diag.Severity) int {
	// MessageType happens to share error/warning/info values with
	// DiagnosticSeverity.
	return lspSeverity(sev)
}
