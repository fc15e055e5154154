package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gleam/internal/diag"
	"gleam/internal/driver"
)

var checkNoCache bool

func init() {
	checkCmd.Flags().BoolVar(&checkNoCache, "no-cache", false, "recompile every module, ignoring the disk cache")
}

var checkCmd = &cobra.Command{
	Use:          "check [dir]",
	Short:        "Compile the project and report diagnostics",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	startDir := "."
	if len(args) == 1 {
		startDir = args[0]
	}

	var cache *driver.DiskCache
	if !checkNoCache {
		opened, err := driver.OpenDiskCache()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "disk cache unavailable: %v\n", err)
		} else {
			cache = opened
		}
	}
	runner := driver.NewRunner(driver.Options{
		Cache:                cache,
		ReplayCachedWarnings: true,
	})

	outcome := runner.Compile(cmd.Context(), startDir, nil)

	diags := make([]diag.Diagnostic, 0, len(outcome.Warnings)+1)
	for _, warning := range outcome.Warnings {
		diags = append(diags, warning.ToDiagnostic())
	}
	if outcome.Err != nil {
		diags = append(diags, outcome.Err.ToDiagnostic())
	}

	width := 0
	colorize := false
	if isTerminal(os.Stdout) {
		colorize = true
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}
	if rendered := diag.FormatShort(diags, width, colorize); rendered != "" {
		fmt.Fprintln(cmd.OutOrStdout(), rendered)
	}

	if outcome.Err != nil {
		return errors.New("compilation failed")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "compiled %d module(s), %d warning(s)\n",
		len(outcome.Compiled), len(outcome.Warnings))
	return nil
}
