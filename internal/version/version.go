package version

import "github.com/fatih/color"

// Version information for the gleam toolchain.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgMagenta, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Major, Minor and Patch make up the semantic version.
	Major = "0"
	Minor = "1"
	Patch = "0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Colored renders the version with per-component colors for terminals.
func Colored() string {
	return versionMajorColor.Sprint(Major) + "." +
		versionMinorColor.Sprint(Minor) + "." +
		versionPatchColor.Sprint(Patch)
}

// Plain renders the version without any styling.
func Plain() string {
	return Major + "." + Minor + "." + Patch
}
