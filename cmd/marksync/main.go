package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marksync/marksync/internal/build"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "marksync",
		Short:   "A self-hosted bookmark service with live sync",
		Long:    "Marksync keeps one newest-first bookmark list converged across every open client.",
		Version: build.Version,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newRmCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newWatchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
