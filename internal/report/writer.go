package report

import (
	"fmt"
	"io"

	"github.com/ks-yuzu/pagedl/internal/model"
)

// Writer is the interface for crawl report output.
// Implementations format a crawl summary and write it to their
// configured destination, returning the number of bytes written.
type Writer interface {
	// Write outputs the crawl summary.
	Write(summary *model.CrawlSummary) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	// output is the destination for the report.
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// MultiWriter writes a report to multiple writers in sequence.
// It is useful for producing terminal output and a JSON file from
// the same crawl run.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a MultiWriter that writes to all given writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all writers. It stops at the first
// error and returns the total number of bytes written so far.
func (m *MultiWriter) Write(summary *model.CrawlSummary) (int, error) {
	total := 0
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, fmt.Errorf("failed to write report: %w", err)
		}
	}
	return total, nil
}
