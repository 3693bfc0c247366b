package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ks-yuzu/pagedl/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables the saved file listing in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with the full saved file listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the crawl summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.CrawlSummary) (int, error) {
	var sb strings.Builder

	// Header
	w.writeHeader(&sb, summary)

	// Counters
	w.writeSummary(&sb, summary)

	// Failures
	w.writeFailedPages(&sb, summary)
	w.writeFailedFiles(&sb, summary)

	// Saved files (verbose only)
	w.writeSavedFiles(&sb, summary)

	// Footer
	w.writeFooter(&sb)

	// Write to output
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         PAGEDL CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	for i, seed := range summary.Seeds {
		if i == 0 {
			sb.WriteString(fmt.Sprintf("Seeds:      %s\n", seed))
		} else {
			sb.WriteString(fmt.Sprintf("            %s\n", seed))
		}
	}
	sb.WriteString(fmt.Sprintf("Started:    %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:   %s\n", summary.Duration().Round(time.Millisecond)))

	switch {
	case summary.Canceled:
		sb.WriteString("Status:     CANCELED (partial results)\n")
	case summary.DryRun:
		sb.WriteString("Status:     Complete (dry run)\n")
	default:
		sb.WriteString("Status:     Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the page and file counter section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Pages visited: %d\n", summary.PagesVisited()))
	sb.WriteString(fmt.Sprintf("  Pages matched: %d\n", summary.PagesMatched()))
	sb.WriteString(fmt.Sprintf("  Pages failed:  %d\n", summary.PagesFailed()))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  Files saved:   %d\n", summary.FilesSaved()))
	sb.WriteString(fmt.Sprintf("  Files skipped: %d\n", summary.FilesSkipped()))
	sb.WriteString(fmt.Sprintf("  Files failed:  %d\n", summary.FilesFailed()))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  Bytes saved:   %s\n", humanize.IBytes(uint64(summary.BytesSaved()))))
	sb.WriteString("\n")
}

// writeFailedPages writes the failed page section.
func (w *SimpleWriter) writeFailedPages(sb *strings.Builder, summary *model.CrawlSummary) {
	failed := make([]model.PageRecord, 0, len(summary.Pages))
	for _, page := range summary.Pages {
		if page.Failed() {
			failed = append(failed, page)
		}
	}

	if len(failed) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(failed) == 0 {
		sb.WriteString("  No failed pages\n")
	}
	for _, page := range failed {
		sb.WriteString(fmt.Sprintf("  * %s\n", page.URL))
		sb.WriteString(fmt.Sprintf("    Error: %s\n", page.Error))
	}
	sb.WriteString("\n")
}

// writeFailedFiles writes the failed file section.
func (w *SimpleWriter) writeFailedFiles(sb *strings.Builder, summary *model.CrawlSummary) {
	failed := make([]model.FileRecord, 0, len(summary.Files))
	for _, file := range summary.Files {
		if file.Outcome == model.OutcomeFailed {
			failed = append(failed, file)
		}
	}

	if len(failed) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED FILES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(failed) == 0 {
		sb.WriteString("  No failed files\n")
	}
	for _, file := range failed {
		sb.WriteString(fmt.Sprintf("  * %s\n", file.FileURL))
		if file.PageURL != "" {
			sb.WriteString(fmt.Sprintf("    Page: %s\n", file.PageURL))
		}
		if file.Error != "" {
			sb.WriteString(fmt.Sprintf("    Error: %s\n", file.Error))
		}
	}
	sb.WriteString("\n")
}

// writeSavedFiles writes the saved file listing in verbose mode.
func (w *SimpleWriter) writeSavedFiles(sb *strings.Builder, summary *model.CrawlSummary) {
	if !w.verbose {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SAVED FILES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	saved := 0
	for _, file := range summary.Files {
		if file.Outcome != model.OutcomeSaved {
			continue
		}
		sb.WriteString(fmt.Sprintf("  [+] %s (%s)\n", file.Path, humanize.IBytes(uint64(file.Size))))
		saved++
	}
	if saved == 0 {
		sb.WriteString("  No files saved\n")
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by pagedl\n")
	sb.WriteString("https://github.com/ks-yuzu/pagedl\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
