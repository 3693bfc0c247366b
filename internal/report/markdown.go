package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ks-yuzu/pagedl/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the crawl summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.CrawlSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, summary)

	// Counters
	w.writeSummary(md, summary)

	// Failures
	w.writeFailures(md, summary)

	// Saved files
	w.writeSavedFiles(md, summary)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H1("Pagedl Crawl Report")
	md.PlainText("")

	seeds := make([]string, 0, len(summary.Seeds))
	for _, seed := range summary.Seeds {
		seeds = append(seeds, "`"+seed+"`")
	}

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seeds", strings.Join(seeds, "<br>")},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration().String()},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the run state.
func (w *MarkdownWriter) getStatusText(summary *model.CrawlSummary) string {
	if summary.Canceled {
		return "⚠️ Canceled (partial results)"
	}
	if summary.DryRun {
		return "✅ Complete (dry run)"
	}
	return "✅ Complete"
}

// writeSummary writes the page and file counter section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Crawl Summary")
	md.PlainText("")

	// Counter table
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages visited", strconv.Itoa(summary.PagesVisited())},
			{"Pages matched", strconv.Itoa(summary.PagesMatched())},
			{"Pages failed", strconv.Itoa(summary.PagesFailed())},
			{"Files saved", strconv.Itoa(summary.FilesSaved())},
			{"Files skipped", strconv.Itoa(summary.FilesSkipped())},
			{"Files failed", strconv.Itoa(summary.FilesFailed())},
			{"**Bytes saved**", "**" + humanize.IBytes(uint64(summary.BytesSaved())) + "**"},
		},
	})
	md.PlainText("")

	// Add pie chart if any file attempts were made
	if len(summary.Files) > 0 {
		w.writePieChart(md, summary)
	}

	// Add alert based on run state
	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart for the file outcome distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.CrawlSummary) {
	counts := make(map[model.FileOutcome]int)
	for _, file := range summary.Files {
		counts[file.Outcome]++
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("File Outcome Distribution"),
		piechart.WithShowData(true),
	)

	outcomes := []struct {
		outcome model.FileOutcome
		label   string
	}{
		{model.OutcomeSaved, "Saved"},
		{model.OutcomeExists, "Already existed"},
		{model.OutcomeDryRun, "Dry run"},
		{model.OutcomeUndersized, "Undersized"},
		{model.OutcomeFailed, "Failed"},
	}

	for _, o := range outcomes {
		if counts[o.outcome] > 0 {
			chart.LabelAndIntValue(o.label, uint64(counts[o.outcome]))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run state.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.CrawlSummary) {
	switch {
	case summary.Canceled:
		md.Warningf(
			"The crawl was canceled before the queue drained. %d page(s) were visited; results are partial.",
			summary.PagesVisited(),
		)
	case summary.PagesFailed() > 0 || summary.FilesFailed() > 0:
		md.Cautionf(
			"%d page(s) and %d file(s) failed. See the failure tables below.",
			summary.PagesFailed(),
			summary.FilesFailed(),
		)
	case summary.DryRun:
		md.Note("Dry run. No files were fetched or written.")
	default:
		md.Tip("All pages and files were processed without errors.")
	}
	md.PlainText("")
}

// writeFailures writes the failed pages and failed files sections.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *model.CrawlSummary) {
	failedPages := make([]model.PageRecord, 0, len(summary.Pages))
	for _, page := range summary.Pages {
		if page.Failed() {
			failedPages = append(failedPages, page)
		}
	}

	failedFiles := make([]model.FileRecord, 0, len(summary.Files))
	for _, file := range summary.Files {
		if file.Outcome == model.OutcomeFailed {
			failedFiles = append(failedFiles, file)
		}
	}

	md.H2("Failures")
	md.PlainText("")

	if len(failedPages) == 0 && len(failedFiles) == 0 {
		md.PlainText("No failures recorded.")
		md.PlainText("")
		return
	}

	if len(failedPages) > 0 {
		md.PlainText("### Failed Pages")
		md.PlainText("")
		w.writeFailedPagesTable(md, failedPages)
	}

	if len(failedFiles) > 0 {
		md.PlainText("### Failed Files")
		md.PlainText("")
		w.writeFailedFilesTable(md, failedFiles)
	}
}

// writeFailedPagesTable writes a table of failed pages with errors.
func (w *MarkdownWriter) writeFailedPagesTable(md *markdown.Markdown, pages []model.PageRecord) {
	rows := make([][]string, len(pages))
	for i, page := range pages {
		rows[i] = []string{
			truncateString(page.URL, 60),
			truncateString(page.Error, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Page", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailedFilesTable writes a table of failed file attempts with errors.
func (w *MarkdownWriter) writeFailedFilesTable(md *markdown.Markdown, files []model.FileRecord) {
	rows := make([][]string, len(files))
	for i, file := range files {
		rows[i] = []string{
			truncateString(file.FileURL, 50),
			truncateString(file.PageURL, 40),
			truncateString(file.Error, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"File URL", "Page", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSavedFiles writes a table of the files written to disk.
func (w *MarkdownWriter) writeSavedFiles(md *markdown.Markdown, summary *model.CrawlSummary) {
	saved := make([]model.FileRecord, 0, len(summary.Files))
	for _, file := range summary.Files {
		if file.Outcome == model.OutcomeSaved {
			saved = append(saved, file)
		}
	}

	if len(saved) == 0 {
		return
	}

	md.H2("Saved Files")
	md.PlainText("")

	rows := make([][]string, len(saved))
	for i, file := range saved {
		rows[i] = []string{
			truncateString(file.Path, 60),
			humanize.IBytes(uint64(file.Size)),
			truncateString(file.Digest, 19),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Path", "Size", "SHA3-256"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pagedl](https://github.com/ks-yuzu/pagedl)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
