package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gleam/internal/driver"
	"gleam/internal/lsp"
)

var lspTrace bool

func init() {
	lspCmd.Flags().BoolVar(&lspTrace, "trace", false, "log pass scheduling and publishing to stderr")
}

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the Gleam language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func runLSP(cmd *cobra.Command, _ []string) error {
	// The language server keeps running without a disk cache; the session
	// is simply not incremental across restarts.
	cache, err := driver.OpenDiskCache()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gleam lsp: disk cache unavailable: %v\n", err)
		cache = nil
	}
	runner := driver.NewRunner(driver.Options{Cache: cache})

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Compile: runner.Compile,
		Trace:   lspTrace,
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
