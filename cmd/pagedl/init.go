package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ks-yuzu/pagedl/internal/config"
)

//go:embed templates/pagedl.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a job file to start from",
		Long: `Init creates a new pagedl.yaml job file in the current directory.

The generated file includes:
- A commented example extractor with match rules and selectors
- The global save options with their defaults
- Documentation for the fetch and ledger settings

Examples:
  # Create pagedl.yaml in current directory
  pagedl init

  # Create the job file at a specific path
  pagedl init -o jobs/gallery.yaml

  # Force overwrite existing file
  pagedl init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the job file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing job file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("job file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/pagedl.yaml")
	if err != nil {
		return fmt.Errorf("failed to read job file template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write job file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write job file: %w", err)
	}

	fmt.Printf("Created job file: %s\n", outputPath)
	fmt.Println("\nEdit this file to describe your crawl:")
	fmt.Println("  - Seed page URLs under pages")
	fmt.Println("  - Extractor rules with CSS selectors under extractors")
	fmt.Println("  - Save directory layout under options")

	return nil
}
