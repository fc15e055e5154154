package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gleam/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "gleam",
	Short: "Gleam compiler toolchain",
	Long:  "Gleam is a compiler toolchain with incremental builds and live editor diagnostics",
}

func main() {
	rootCmd.Version = version.Plain()

	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
