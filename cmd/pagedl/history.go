package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ks-yuzu/pagedl/internal/config"
	"github.com/ks-yuzu/pagedl/internal/database"
	"github.com/ks-yuzu/pagedl/internal/model"
)

// NewHistoryCmd creates the history command.
// It reads the run ledger written by the crawl command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List crawl runs recorded in the ledger",
		Long: `History lists the crawl runs recorded in the run ledger.

Every crawl (unless started with --no-ledger) appends one run with its
page and file records. This command only reads the ledger; it never
creates one, so it fails with a hint when no crawl has run yet.

Examples:
  # List the 20 most recent runs
  pagedl history

  # List every run started on or after a date
  pagedl history --since 2026-08-01 --limit 0

  # Show one run in detail, including every file download attempt
  pagedl history --run 3 --files

  # Machine-readable output
  pagedl history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	// Listing flags
	cmd.Flags().IntP("limit", "l", 20,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().StringP("since", "s", "",
		"Only list runs started on or after this date (format: YYYY-MM-DD)")

	// Detail flags
	cmd.Flags().Int64P("run", "r", 0,
		"Show details for a single run by ID (use the list to see IDs)")
	cmd.Flags().BoolP("files", "f", false,
		"With --run, list every file download attempt of the run")
	cmd.Flags().BoolP("pages", "p", false,
		"With --run, list every page visited by the run")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output history in JSON format")
	cmd.Flags().String("ledger-dir", "",
		"Directory holding the ledger database (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	ledgerDir, err := cmd.Flags().GetString("ledger-dir")
	if err != nil {
		return err
	}
	if ledgerDir == "" {
		ledgerDir = config.XDGDataDir()
	}

	// Open read-only in the sense that a missing ledger is an error
	// instead of a fresh empty database.
	ledger, err := database.Open(ledgerDir, database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("failed to open ledger (run 'pagedl crawl' to record a run first): %w", err)
	}
	defer ledger.Close()

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}

	ctx := context.Background()

	if runID > 0 {
		showFiles, err := cmd.Flags().GetBool("files")
		if err != nil {
			return err
		}
		showPages, err := cmd.Flags().GetBool("pages")
		if err != nil {
			return err
		}
		return showRun(ctx, ledger, runID, showPages, showFiles, jsonOutput)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}
	var since time.Time
	if sinceDate != "" {
		since, err = time.Parse("2006-01-02", sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}

	return listRuns(ctx, ledger, since, limit, jsonOutput)
}

// listRuns prints the recorded runs, newest first.
func listRuns(ctx context.Context, ledger *database.Ledger, since time.Time, limit int, jsonOutput bool) error {
	runs, err := ledger.Runs(ctx, since, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if jsonOutput {
		if runs == nil {
			runs = []database.RunRecord{}
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No crawl runs recorded.")
		fmt.Println("\nUse 'pagedl crawl' to crawl and record a run.")
		return nil
	}

	fmt.Printf("Crawl history (%d runs):\n\n", len(runs))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Started", "Duration", "Seeds", "Pages", "Files", "Bytes"})
	for _, run := range runs {
		files := formatCount(run.FilesSaved, run.FilesFailed)
		if run.DryRun {
			files = "dry run"
		}
		t.AppendRow(table.Row{
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			formatRunDuration(run.StartedAt, run.FinishedAt),
			formatSeeds(run.Seeds),
			formatCount(run.PagesVisited, run.PagesFailed),
			files,
			humanize.IBytes(uint64(run.BytesSaved)),
		})
	}
	t.Render()

	fmt.Println("\nUse 'pagedl history --run <id>' to see the pages and files of a run.")
	return nil
}

// runDetail is the JSON shape of the --run output.
type runDetail struct {
	// Run is the run's ledger row.
	Run *database.RunRecord `json:"run"`

	// Pages holds the run's page records when --pages is given.
	Pages []model.PageRecord `json:"pages,omitempty"`

	// Files holds the run's file records when --files is given.
	Files []model.FileRecord `json:"files,omitempty"`
}

// showRun prints one recorded run, optionally with its page and file
// records.
func showRun(ctx context.Context, ledger *database.Ledger, runID int64, showPages, showFiles, jsonOutput bool) error {
	run, err := ledger.Run(ctx, runID)
	if database.IsNotFound(err) {
		return fmt.Errorf("run %d not found (use 'pagedl history' to list recorded runs)", runID)
	}
	if err != nil {
		return err
	}

	var pages []model.PageRecord
	if showPages {
		pages, err = ledger.Pages(ctx, runID)
		if err != nil {
			return fmt.Errorf("failed to load pages: %w", err)
		}
	}

	var files []model.FileRecord
	if showFiles {
		files, err = ledger.Files(ctx, runID)
		if err != nil {
			return fmt.Errorf("failed to load files: %w", err)
		}
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runDetail{Run: run, Pages: pages, Files: files})
	}

	fmt.Printf("Run %d\n", run.ID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\nStarted:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Finished: %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Duration: %s\n", formatRunDuration(run.StartedAt, run.FinishedAt))
	if run.DryRun {
		fmt.Println("Dry run:  yes")
	}
	for i, seed := range run.Seeds {
		if i == 0 {
			fmt.Printf("Seeds:    %s\n", seed)
		} else {
			fmt.Printf("          %s\n", seed)
		}
	}

	fmt.Printf("\nPages:    %d visited, %d matched, %d failed\n",
		run.PagesVisited, run.PagesMatched, run.PagesFailed)
	fmt.Printf("Files:    %d saved, %d skipped, %d failed\n",
		run.FilesSaved, run.FilesSkipped, run.FilesFailed)
	fmt.Printf("Bytes:    %s\n", humanize.IBytes(uint64(run.BytesSaved)))

	if showPages {
		printPages(pages)
	}
	if showFiles {
		printFiles(files)
	}
	return nil
}

// printPages renders the page records of a run as a table.
func printPages(pages []model.PageRecord) {
	if len(pages) == 0 {
		fmt.Println("\nNo pages recorded for this run.")
		return
	}

	fmt.Printf("\nPages (%d):\n", len(pages))
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"URL", "Matched", "Links", "Error"})
	for _, page := range pages {
		t.AppendRow(table.Row{
			truncate(page.URL, 50),
			strings.Join(page.Matched, ", "),
			page.Discovered,
			truncate(page.Error, 40),
		})
	}
	t.Render()
}

// printFiles renders the file records of a run as a table.
func printFiles(files []model.FileRecord) {
	if len(files) == 0 {
		fmt.Println("\nNo files recorded for this run.")
		return
	}

	fmt.Printf("\nFiles (%d):\n", len(files))
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Outcome", "Size", "File", "Error"})
	for _, file := range files {
		size := "-"
		if file.Outcome == model.OutcomeSaved {
			size = humanize.IBytes(uint64(file.Size))
		}
		// Failed downloads have no local path yet, so fall back to the
		// source URL.
		location := file.Path
		if location == "" {
			location = file.FileURL
		}
		t.AppendRow(table.Row{
			file.Outcome.String(),
			size,
			truncate(location, 50),
			truncate(file.Error, 40),
		})
	}
	t.Render()
}

// formatSeeds renders a seed list as a single table cell.
func formatSeeds(seeds []string) string {
	if len(seeds) == 0 {
		return "-"
	}
	cell := truncate(seeds[0], 40)
	if len(seeds) > 1 {
		cell += fmt.Sprintf(" (+%d more)", len(seeds)-1)
	}
	return cell
}

// formatRunDuration renders the elapsed time of a run, tolerating the
// zero timestamps an interrupted record can carry.
func formatRunDuration(started, finished time.Time) string {
	if started.IsZero() || finished.IsZero() || finished.Before(started) {
		return "-"
	}
	return finished.Sub(started).Round(time.Second).String()
}

// formatCount renders a counter with its failure count when non-zero.
func formatCount(total, failed int) string {
	if failed > 0 {
		return fmt.Sprintf("%d (%d failed)", total, failed)
	}
	return strconv.Itoa(total)
}

// truncate shortens a string to a maximum length for table display.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
