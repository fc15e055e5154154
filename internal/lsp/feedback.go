package lsp

import (
	"gleam/internal/build"
	"gleam/internal/diag"
)

// Feedback is one bookkeeping call's output: a per-path diagnostic diff
// plus standalone messages with no file association. An empty list under a
// path tells the client to replace whatever it currently shows for that
// path with nothing.
type Feedback struct {
	Diagnostics map[string][]diag.Diagnostic
	Messages    []diag.Diagnostic
}

// NewFeedback returns an empty Feedback ready for aggregation.
func NewFeedback() Feedback {
	return Feedback{Diagnostics: make(map[string][]diag.Diagnostic)}
}

// ClearDiagnostics sets the diagnostics for a file to an empty list,
// overwriting any existing entry. Published as-is this erases whatever the
// client currently shows for the path.
func (f *Feedback) ClearDiagnostics(path string) {
	f.Diagnostics[path] = []diag.Diagnostic{}
}

// AppendDiagnostic adds a diagnostic to the end of the file's list,
// creating the entry if needed. Existing entries are never dropped or
// reordered, so a cleared entry can be repopulated in the same Feedback.
func (f *Feedback) AppendDiagnostic(path string, d diag.Diagnostic) {
	f.Diagnostics[path] = append(f.Diagnostics[path], d)
}

// AppendMessage adds a standalone, unanchored diagnostic.
func (f *Feedback) AppendMessage(d diag.Diagnostic) {
	f.Messages = append(f.Messages, d)
}

// BookKeeper converts compiler warnings and errors into Feedback for
// displaying to the user.
//
// Compilation is incremental, so we cannot erase all previous diagnostics
// and replace them each time new ones are available; if a file has not
// been recompiled then any diagnostics it had previously are still valid
// and must not be erased. To do this we keep track of which files have
// diagnostics and only overwrite them if the file has been recompiled.
//
// A BookKeeper lives for one editor session, owned by whatever drives
// compilation. Calls must be serialized by the caller; each call is a
// complete state transition.
type BookKeeper struct {
	filesWithWarnings map[string]struct{}
	filesWithErrors   map[string]struct{}
}

func NewBookKeeper() *BookKeeper {
	return &BookKeeper{
		filesWithWarnings: make(map[string]struct{}),
		filesWithErrors:   make(map[string]struct{}),
	}
}

// Compiled records the outcome of a pass that completed without a fatal
// error. compiled enumerates exactly the files freshly recompiled this
// pass; cached files are excluded. It returns diagnostics for the new
// warnings and clears diagnostics for files that compiled cleanly.
func (k *BookKeeper) Compiled(compiled []string, warnings []build.Warning) Feedback {
	feedback := NewFeedback()

	// Any existing warning diagnostics for recompiled files are no longer
	// valid, so clear them before the new warnings repopulate.
	for _, path := range compiled {
		if _, tracked := k.filesWithWarnings[path]; tracked {
			delete(k.filesWithWarnings, path)
			feedback.ClearDiagnostics(path)
		}
	}

	// The project compiled, so no error diagnostics remain anywhere. This
	// is not limited to recompiled files: the fix may have landed in a
	// dependency while the previously erroring file was served from cache.
	//
	// TODO: avoid clobbering warnings on error-cleared files. They should
	// be stored and re-sent rather than removed together with the errors.
	for path := range k.filesWithErrors {
		delete(k.filesWithErrors, path)
		feedback.ClearDiagnostics(path)
	}

	for _, warning := range warnings {
		k.insertWarning(&feedback, warning)
	}

	return feedback
}

// BuildWithError records the outcome of a pass that aborted with a fatal
// error: the Compiled bookkeeping runs first, then the error itself is
// attached to its file, or appended as a standalone message when it has no
// location. Messages are never retracted by later calls.
func (k *BookKeeper) BuildWithError(err build.Error, compiled []string, warnings []build.Warning) Feedback {
	diagnostic := err.ToDiagnostic()
	feedback := k.Compiled(compiled, warnings)

	if diagnostic.Located() {
		path := diagnostic.Path()
		k.filesWithErrors[path] = struct{}{}
		feedback.AppendDiagnostic(path, diagnostic)
	} else {
		feedback.AppendMessage(diagnostic)
	}

	return feedback
}

// Error records a failure that happened before any compilation work, such
// as an invalid project configuration.
func (k *BookKeeper) Error(err build.Error) Feedback {
	return k.BuildWithError(err, nil, nil)
}

func (k *BookKeeper) insertWarning(feedback *Feedback, warning build.Warning) {
	diagnostic := warning.ToDiagnostic()
	if !diagnostic.Located() {
		return
	}
	path := diagnostic.Path()
	k.filesWithWarnings[path] = struct{}{}
	feedback.AppendDiagnostic(path, diagnostic)
}
