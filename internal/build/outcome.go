// Package build defines the domain outcomes of a compilation pass and the
// seam through which the compiler front end is invoked. Warnings and errors
// produced here convert deterministically into diag.Diagnostic values for
// the language server and CLI surfaces.
package build

import (
	"gleam/internal/diag"
)

// Warning is a compile-pass finding that does not stop the build.
type Warning interface {
	ToDiagnostic() diag.Diagnostic
}

// Error is the single fatal outcome of a failed pass. The compiler stops
// at the first fatal error, so at most one is outstanding at a time.
type Error interface {
	error
	ToDiagnostic() diag.Diagnostic
}

// Outcome is the result of one compilation pass. Compiled enumerates
// exactly the files freshly recompiled this pass; files served from cache
// are excluded even though they remain part of the project. Err is nil
// when the pass completed without a fatal error.
type Outcome struct {
	Compiled []string
	Warnings []Warning
	Err      Error
}
