package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagedl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagedl",
		Short: "Crawl pages and download files by CSS selector rules",
		Long: `Pagedl crawls pages from seed URLs, applies extractor rules
(CSS selectors with optional URL patterns) to collect metadata and file
links, and downloads the files into directories built from that metadata.

Each saved file gets an info.json sidecar recording its source page,
metadata, and content digest. Crawl results can be kept in a local
run ledger and inspected later with the history command.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// getVerboseFlag reads the persistent verbose flag. Subcommands inherit
// it from the root command, so fall back to the root's flag set when the
// local lookup fails.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
