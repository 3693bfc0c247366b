package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ks-yuzu/pagedl/internal/config"
	"github.com/ks-yuzu/pagedl/internal/database"
	"github.com/ks-yuzu/pagedl/internal/model"
)

// writeJobFile writes a job file into a temp directory and returns its
// path.
func writeJobFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pagedl.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write job file: %v", err)
	}
	return path
}

// minimalJobFile is a job file with just enough content to validate.
const minimalJobFile = `pages:
  - https://example.com/albums
`

// testCrawlSummary builds a small finished crawl summary for report and
// ledger tests.
func testCrawlSummary() *model.CrawlSummary {
	summary := model.NewCrawlSummary([]string{"http://gallery.test/albums"}, false)
	summary.StartedAt = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	summary.FinishedAt = summary.StartedAt.Add(45 * time.Second)

	summary.AddPage(model.PageRecord{
		URL:        "http://gallery.test/albums",
		Matched:    []string{"album index"},
		Discovered: 1,
	})
	summary.AddPage(model.PageRecord{
		URL:     "http://gallery.test/albums/1",
		Matched: []string{"album page"},
	})

	summary.AddFiles([]model.FileRecord{
		{
			PageURL: "http://gallery.test/albums/1",
			FileURL: "http://gallery.test/img/1.jpg",
			Path:    "/downloads/album/1.jpg",
			Size:    2048,
			Digest:  "5a77d1e9612d350b3734f6282259b7ff0a3f87d62cfef5f35e91a5604c0490a3",
			Outcome: model.OutcomeSaved,
		},
		{
			PageURL: "http://gallery.test/albums/1",
			FileURL: "http://gallery.test/img/2.jpg",
			Outcome: model.OutcomeFailed,
			Error:   "fetch file: status 404",
		},
	})
	return summary
}

// testLogger returns a logger that only surfaces errors during tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl [seed-url...]" {
			t.Errorf("expected use 'crawl [seed-url...]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has dry-run flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("dry-run")
		if flag == nil {
			t.Fatal("expected dry-run flag")
		}
		if flag.Shorthand != "n" {
			t.Errorf("expected shorthand 'n', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("timeout")
		if flag == nil {
			t.Fatal("expected timeout flag")
		}
		if flag.Shorthand != "t" {
			t.Errorf("expected shorthand 't', got %q", flag.Shorthand)
		}
	})

	t.Run("has ledger-dir flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("ledger-dir")
		if flag == nil {
			t.Fatal("expected ledger-dir flag")
		}
	})

	t.Run("has no-ledger flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("no-ledger")
		if flag == nil {
			t.Fatal("expected no-ledger flag")
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})

	t.Run("has markdown flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("markdown")
		if flag == nil {
			t.Fatal("expected markdown flag")
		}
		if flag.Shorthand != "m" {
			t.Errorf("expected shorthand 'm', got %q", flag.Shorthand)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})

	t.Run("does not have depth flag (crawl runs until the queue drains)", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("depth")
		if flag != nil {
			t.Error("depth flag should not exist")
		}
	})
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Run("returns false when flag not set", func(t *testing.T) {
		cmd := NewCrawlCmd()
		result := getVerboseFlag(cmd)
		if result {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		root := NewRootCmd()
		// Set verbose flag to true
		_ = root.PersistentFlags().Set("verbose", "true")

		// Get crawl subcommand
		crawlCmd, _, err := root.Find([]string{"crawl"})
		if err != nil {
			t.Fatalf("failed to find crawl command: %v", err)
		}

		result := getVerboseFlag(crawlCmd)
		if !result {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from the job file and
// flags.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		path := writeJobFile(t, minimalJobFile)

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if len(cfg.Pages) != 1 || cfg.Pages[0] != "https://example.com/albums" {
			t.Errorf("expected pages from job file, got %v", cfg.Pages)
		}
		if !cfg.LedgerEnabled {
			t.Error("expected LedgerEnabled to default to true")
		}
		if cfg.DryRun {
			t.Error("expected DryRun to default to false")
		}
		if cfg.Fetch.Timeout() != config.DefaultTimeout {
			t.Errorf("expected default timeout %s, got %s", config.DefaultTimeout, cfg.Fetch.Timeout())
		}
	})

	t.Run("positional arguments replace job file pages", func(t *testing.T) {
		path := writeJobFile(t, minimalJobFile)

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		cfg, err := buildConfig(cmd, []string{"https://other.test/a", "https://other.test/b"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Pages) != 2 || cfg.Pages[0] != "https://other.test/a" {
			t.Errorf("expected pages from arguments, got %v", cfg.Pages)
		}
	})

	t.Run("builds config with dry-run flag", func(t *testing.T) {
		path := writeJobFile(t, minimalJobFile)

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		_ = cmd.Flags().Set("dry-run", "true")
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.DryRun {
			t.Error("expected DryRun to be true")
		}
	})

	t.Run("builds config with JSON flag", func(t *testing.T) {
		path := writeJobFile(t, minimalJobFile)

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		_ = cmd.Flags().Set("json", "true")
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
	})

	t.Run("builds config with output file", func(t *testing.T) {
		path := writeJobFile(t, minimalJobFile)

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		_ = cmd.Flags().Set("output", "/tmp/report.json")
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ReportFile != "/tmp/report.json" {
			t.Errorf("expected ReportFile '/tmp/report.json', got %q", cfg.ReportFile)
		}
	})

	t.Run("no-ledger flag disables the ledger", func(t *testing.T) {
		path := writeJobFile(t, minimalJobFile)

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		_ = cmd.Flags().Set("no-ledger", "true")
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.LedgerEnabled {
			t.Error("expected LedgerEnabled to be false")
		}
	})

	t.Run("ledger-dir flag overrides the directory", func(t *testing.T) {
		path := writeJobFile(t, minimalJobFile)

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		_ = cmd.Flags().Set("ledger-dir", "/tmp/ledger")
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.LedgerDir != "/tmp/ledger" {
			t.Errorf("expected LedgerDir '/tmp/ledger', got %q", cfg.LedgerDir)
		}
	})

	t.Run("timeout flag overrides the job file", func(t *testing.T) {
		path := writeJobFile(t, minimalJobFile+`fetch:
  timeoutSeconds: 60
`)

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		_ = cmd.Flags().Set("timeout", "90s")
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Fetch.TimeoutSeconds != 90 {
			t.Errorf("expected timeout 90 seconds, got %d", cfg.Fetch.TimeoutSeconds)
		}
	})

	t.Run("unset timeout flag keeps the job file value", func(t *testing.T) {
		path := writeJobFile(t, minimalJobFile+`fetch:
  timeoutSeconds: 60
`)

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Fetch.TimeoutSeconds != 60 {
			t.Errorf("expected timeout 60 seconds from job file, got %d", cfg.Fetch.TimeoutSeconds)
		}
	})

	t.Run("sub-second timeout rounds up to one second", func(t *testing.T) {
		path := writeJobFile(t, minimalJobFile)

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		_ = cmd.Flags().Set("timeout", "500ms")
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Fetch.TimeoutSeconds != 1 {
			t.Errorf("expected timeout to round up to 1 second, got %d", cfg.Fetch.TimeoutSeconds)
		}
	})

	t.Run("loads extractors from the job file", func(t *testing.T) {
		path := writeJobFile(t, `pages:
  - https://example.com/albums
extractors:
  - description: album page
    match:
      urlPattern: /albums/\d+
    fileSelector: "#photos a"
    metadataSelectors:
      - field: title
        selector: h1
`)

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Extractors) != 1 {
			t.Fatalf("expected 1 extractor, got %d", len(cfg.Extractors))
		}
		if cfg.Extractors[0].Description != "album page" {
			t.Errorf("expected extractor description 'album page', got %q", cfg.Extractors[0].Description)
		}
	})

	t.Run("returns error for invalid job file", func(t *testing.T) {
		path := writeJobFile(t, `{invalid yaml`)

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		_, err := buildConfig(cmd, nil)
		if err == nil {
			t.Fatal("expected error for invalid job file")
		}
	})

	t.Run("returns error for explicitly missing job file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.yaml")

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		_, err := buildConfig(cmd, nil)
		if err == nil {
			t.Fatal("expected error for missing job file")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got %v", err)
		}
	})
}

// TestRunCrawlCmdValidation tests runCrawlCmd configuration validation
// through the root command.
func TestRunCrawlCmdValidation(t *testing.T) {
	t.Run("fails without seed pages", func(t *testing.T) {
		path := writeJobFile(t, `extractors:
  - description: album page
    fileSelector: "#photos a"
`)

		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"crawl", "-c", path})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for missing seed pages")
		}
		if !strings.Contains(err.Error(), "no seed pages") {
			t.Errorf("expected 'no seed pages' error, got: %v", err)
		}
	})

	t.Run("fails with conflicting report formats", func(t *testing.T) {
		path := writeJobFile(t, minimalJobFile)

		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"crawl", "-c", path, "--json", "--markdown"})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for conflicting report formats")
		}
		if !strings.Contains(err.Error(), "conflicting report formats") {
			t.Errorf("expected 'conflicting report formats' error, got: %v", err)
		}
	})

	t.Run("fails with invalid extractor pattern", func(t *testing.T) {
		path := writeJobFile(t, minimalJobFile+`extractors:
  - description: broken
    match:
      urlPattern: "["
`)

		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"crawl", "-c", path})

		err := rootCmd.Execute()
		if err == nil {
			t.Fatal("expected error for invalid urlPattern")
		}
		if !strings.Contains(err.Error(), "urlPattern") {
			t.Errorf("expected urlPattern error, got: %v", err)
		}
	})
}

// TestOutputReport tests the report output functionality.
func TestOutputReport(t *testing.T) {
	t.Run("outputs text report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.txt")

		cfg := &config.Config{
			ReportFile: outputPath,
		}

		err := outputReport(cfg, testCrawlSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}

		if !bytes.Contains(content, []byte("PAGEDL CRAWL REPORT")) {
			t.Error("expected text report header")
		}
		if !bytes.Contains(content, []byte("http://gallery.test/albums")) {
			t.Error("expected report to contain the seed URL")
		}
	})

	t.Run("outputs JSON report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.json")

		cfg := &config.Config{
			JSONReport: true,
			ReportFile: outputPath,
		}

		err := outputReport(cfg, testCrawlSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}

		var result map[string]interface{}
		if err := json.Unmarshal(content, &result); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}

		if result["version"] == "" {
			t.Error("expected version in JSON report")
		}
		summary, ok := result["summary"].(map[string]interface{})
		if !ok {
			t.Fatal("expected summary object in JSON report")
		}
		seeds, ok := summary["seeds"].([]interface{})
		if !ok || len(seeds) != 1 {
			t.Errorf("expected one seed in JSON report, got %v", summary["seeds"])
		}
	})

	t.Run("outputs Markdown report to file", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "report.md")

		cfg := &config.Config{
			MarkdownReport: true,
			ReportFile:     outputPath,
		}

		err := outputReport(cfg, testCrawlSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}

		if !bytes.Contains(content, []byte("# Pagedl Crawl Report")) {
			t.Error("expected Markdown report header")
		}
	})

	t.Run("creates parent directories", func(t *testing.T) {
		tmpDir := t.TempDir()
		outputPath := filepath.Join(tmpDir, "subdir", "nested", "report.json")

		cfg := &config.Config{
			JSONReport: true,
			ReportFile: outputPath,
		}

		err := outputReport(cfg, testCrawlSummary())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			t.Error("expected output file to be created in nested directory")
		}
	})

	// Note: Not using t.Parallel() because this test captures os.Stdout.
	t.Run("outputs to stdout when no file specified", func(t *testing.T) {
		cfg := &config.Config{}

		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := outputReport(cfg, testCrawlSummary())

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("outputReport() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		if !strings.Contains(buf.String(), "PAGEDL CRAWL REPORT") {
			t.Error("expected text report on stdout")
		}
	})
}

// TestRecordRun tests ledger recording from the crawl command.
func TestRecordRun(t *testing.T) {
	t.Parallel()

	logger := testLogger()

	t.Run("returns nil when ledger is nil", func(t *testing.T) {
		t.Parallel()

		err := recordRun(context.Background(), nil, testCrawlSummary(), logger)
		if err != nil {
			t.Errorf("expected nil error when ledger is nil, got %v", err)
		}
	})

	t.Run("records a run in the ledger", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		ledger, err := database.Open(tmpDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open ledger: %v", err)
		}
		defer ledger.Close()

		if err := recordRun(context.Background(), ledger, testCrawlSummary(), logger); err != nil {
			t.Fatalf("recordRun() error = %v", err)
		}

		latest, err := ledger.LatestRun(context.Background())
		if err != nil {
			t.Fatalf("failed to read back the run: %v", err)
		}
		if latest.PagesVisited != 2 {
			t.Errorf("expected 2 pages visited, got %d", latest.PagesVisited)
		}
		if latest.FilesSaved != 1 {
			t.Errorf("expected 1 file saved, got %d", latest.FilesSaved)
		}
		if latest.BytesSaved != 2048 {
			t.Errorf("expected 2048 bytes saved, got %d", latest.BytesSaved)
		}
	})

	t.Run("records even when the crawl context is canceled", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		ledger, err := database.Open(tmpDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open ledger: %v", err)
		}
		defer ledger.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		summary := testCrawlSummary()
		summary.Canceled = true

		if err := recordRun(ctx, ledger, summary, logger); err != nil {
			t.Fatalf("recordRun() with canceled context error = %v", err)
		}

		latest, err := ledger.LatestRun(context.Background())
		if err != nil {
			t.Fatalf("failed to read back the run: %v", err)
		}
		if latest.PagesVisited != 2 {
			t.Errorf("expected 2 pages visited, got %d", latest.PagesVisited)
		}
	})
}

// TestRunCrawlLedgerFailure tests that runCrawl fails fast when the
// ledger cannot be opened.
func TestRunCrawlLedgerFailure(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	blocker := filepath.Join(tmpDir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatalf("failed to create blocker file: %v", err)
	}

	cfg := config.NewConfig()
	cfg.Pages = []string{"http://127.0.0.1:1/"}
	// The parent of the ledger dir is a regular file, so opening must
	// fail before any page is fetched.
	cfg.LedgerDir = filepath.Join(blocker, "ledger")

	err := runCrawl(context.Background(), cfg, testLogger())
	if err == nil {
		t.Fatal("expected error when ledger cannot be opened")
	}
	if !strings.Contains(err.Error(), "failed to open ledger") {
		t.Errorf("expected ledger open error, got: %v", err)
	}
}

// TestRunCrawlUnreachableSeed tests a full runCrawl pass where the only
// seed cannot be fetched. The run itself succeeds; the failure lands in
// the report.
func TestRunCrawlUnreachableSeed(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	reportPath := filepath.Join(tmpDir, "report.txt")

	zero := 0
	cfg := config.NewConfig()
	// Port 1 is practically never listening, so the fetch fails fast.
	cfg.Pages = []string{"http://127.0.0.1:1/"}
	cfg.LedgerEnabled = false
	cfg.ReportFile = reportPath
	cfg.Fetch.RetryCount = &zero
	cfg.Options.SaveDir.Root = filepath.Join(tmpDir, "download")

	err := runCrawl(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("runCrawl() error = %v", err)
	}

	content, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !bytes.Contains(content, []byte("Pages failed:  1")) {
		t.Errorf("expected one failed page in report, got:\n%s", content)
	}
}
