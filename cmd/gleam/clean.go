package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gleam/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:          "clean",
	Short:        "Remove the build cache",
	SilenceUsage: true,
	RunE:         runClean,
}

func runClean(cmd *cobra.Command, _ []string) error {
	dir, err := driver.CacheDir()
	if err != nil {
		return fmt.Errorf("failed to locate cache: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", dir)
	return nil
}
