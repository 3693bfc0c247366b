package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ks-yuzu/pagedl/internal/config"
	"github.com/ks-yuzu/pagedl/internal/database"
	"github.com/ks-yuzu/pagedl/internal/download"
	"github.com/ks-yuzu/pagedl/internal/engine"
	"github.com/ks-yuzu/pagedl/internal/extractor"
	"github.com/ks-yuzu/pagedl/internal/fetcher"
	"github.com/ks-yuzu/pagedl/internal/log"
	"github.com/ks-yuzu/pagedl/internal/model"
	"github.com/ks-yuzu/pagedl/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl pages and download the files the extractors match",
		Long: `Crawl walks pages breadth-first from the seed URLs, applies the
extractor rules from the job file to each page, and downloads the
matched files into directories built from the extracted metadata.

Seed URLs come from the job file's pages list; positional arguments
replace that list for one run. Every saved directory gets an info.json
sidecar with the merged metadata.

Examples:
  # Crawl using pagedl.yaml from the current or home directory
  pagedl crawl

  # Use an explicit job file
  pagedl crawl -c gallery.yaml

  # Override the seed list for one run
  pagedl crawl -c gallery.yaml https://example.com/albums

  # See what would be downloaded without fetching any files
  pagedl crawl --dry-run

  # Write a Markdown report next to the downloads
  pagedl crawl -m -o report.md

Job file (pagedl.yaml) example:
  pages:
    - https://example.com/albums
  extractors:
    - description: album page
      match:
        urlPattern: /albums/\d+
      fileSelector: "#photos a"
      metadataSelectors:
        - field: title
          selector: h1
  options:
    saveDir:
      root: ./download
      subDirs: ["{{title}}"]`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Job file
	cmd.Flags().StringP("config", "c", "",
		"Job file path (default: pagedl.yaml in current or home directory)")

	// Crawl behavior flags
	cmd.Flags().BoolP("dry-run", "n", false,
		"Walk pages and write metadata sidecars without downloading files")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request (overrides the job file)")

	// Ledger flags
	cmd.Flags().String("ledger-dir", "",
		"Directory for the run ledger database (default: XDG data directory)")
	cmd.Flags().Bool("no-ledger", false,
		"Do not record this run in the ledger")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from the job file plus flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging. The secure logger masks cookie and
	// header values that job files routinely carry.
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// buildConfig creates a Config from the job file and cobra command flags.
// Precedence per setting: built-in default, then job file, then flag.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the job file. If the user explicitly specified a path, error
	// when it is missing. Without a path, a missing pagedl.yaml just
	// means seeds must come from the command line.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load job file %s: %w", configPath, err)
		}
		if err := cfg.ApplyFile(file); err != nil {
			return nil, fmt.Errorf("failed to apply job file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a job file that doesn't exist
		return nil, fmt.Errorf("job file not found: %s", cfg.ConfigFilePath)
	}

	// Positional arguments replace the job file's seed list
	if len(args) > 0 {
		cfg.Pages = args
	}

	cfg.DryRun, err = cmd.Flags().GetBool("dry-run")
	if err != nil {
		return nil, err
	}

	// The timeout flag only overrides the job file when actually given;
	// its displayed default is informational. Sub-second values round up
	// because the job file stores whole seconds.
	if cmd.Flags().Changed("timeout") {
		timeout, err := cmd.Flags().GetDuration("timeout")
		if err != nil {
			return nil, err
		}
		cfg.Fetch.TimeoutSeconds = int((timeout + time.Second - 1) / time.Second)
	}

	ledgerDir, err := cmd.Flags().GetString("ledger-dir")
	if err != nil {
		return nil, err
	}
	if ledgerDir != "" {
		cfg.LedgerDir = ledgerDir
	}

	noLedger, err := cmd.Flags().GetBool("no-ledger")
	if err != nil {
		return nil, err
	}
	if noLedger {
		cfg.LedgerEnabled = false
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", len(cfg.Pages),
		"extractors", len(cfg.Extractors),
		"dryRun", cfg.DryRun,
		"ledger", cfg.LedgerEnabled,
	)

	// Open the ledger if recording is enabled
	var ledger *database.Ledger
	if cfg.LedgerEnabled {
		var err error
		ledger, err = database.Open(cfg.LedgerDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer ledger.Close()
		logger.Info("ledger opened", "dir", cfg.LedgerDir)
	}

	f, err := fetcher.New(cfg.Fetch)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	extractors, err := extractor.FromConfigs(cfg.Extractors)
	if err != nil {
		return fmt.Errorf("failed to build extractors: %w", err)
	}

	saver := download.NewSaver(f, download.WithLogger(logger))
	eng := engine.New(f, saver, extractors, cfg.Options, engine.WithLogger(logger))

	if cfg.DryRun {
		fmt.Printf("Dry run: pages are crawled and sidecars written, but no files are downloaded.\n\n")
	}
	fmt.Printf("Crawling from %d seed page(s)...\n", len(cfg.Pages))
	startTime := time.Now()

	summary, err := eng.Run(ctx, cfg.Pages, cfg.DryRun)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	elapsed := time.Since(startTime)
	if summary.Canceled {
		fmt.Printf("Crawl canceled after %s; results are partial\n\n", elapsed.Round(time.Millisecond))
	} else {
		fmt.Printf("Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))
	}

	// Generate and output report
	if err := outputReport(cfg, summary); err != nil {
		return fmt.Errorf("failed to output report: %w", err)
	}

	// Record the run in the ledger if enabled
	if err := recordRun(ctx, ledger, summary, logger); err != nil {
		logger.Error("failed to record run in ledger", "error", err)
	}

	return nil
}

// outputReport writes the crawl report in the requested format.
func outputReport(cfg *config.Config, summary *model.CrawlSummary) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Create/overwrite the output file with secure permissions (0600).
		// Reports can carry cookie-gated URLs that should stay private.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full summary wrapped with version and timestamp)
	if cfg.JSONReport {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(summary)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(summary)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	_, err := writer.Write(summary)
	return err
}

// recordRun saves the crawl summary to the ledger. If the ledger is nil,
// this function is a no-op. The crawl context may already be canceled
// when a run was interrupted, and a canceled run is exactly the kind
// history should show, so the record uses a detached context.
func recordRun(ctx context.Context, ledger *database.Ledger, summary *model.CrawlSummary, logger *slog.Logger) error {
	if ledger == nil {
		return nil
	}

	runID, err := ledger.RecordRun(context.WithoutCancel(ctx), summary)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	logger.Info("run recorded in ledger", "runID", runID)
	return nil
}
