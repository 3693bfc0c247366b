package model

import "time"

// CrawlSummary is the aggregate result of one crawl run.
type CrawlSummary struct {
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the queue drained or the run was canceled.
	FinishedAt time.Time `json:"finished_at"`

	// Seeds are the page URLs the crawl started from.
	Seeds []string `json:"seeds"`

	// DryRun is true when file fetching and writing were suppressed.
	DryRun bool `json:"dry_run"`

	// Canceled is true when the run stopped early on context
	// cancellation instead of draining the queue.
	Canceled bool `json:"canceled,omitempty"`

	// Pages holds one record per visited page, in visit order.
	Pages []PageRecord `json:"pages"`

	// Files holds one record per file download attempt, in the order
	// the attempts were made.
	Files []FileRecord `json:"files"`
}

// NewCrawlSummary creates a summary for a run over the given seeds.
func NewCrawlSummary(seeds []string, dryRun bool) *CrawlSummary {
	return &CrawlSummary{
		StartedAt: time.Now(),
		Seeds:     append([]string(nil), seeds...),
		DryRun:    dryRun,
		Pages:     make([]PageRecord, 0),
		Files:     make([]FileRecord, 0),
	}
}

// AddPage appends one page outcome.
func (s *CrawlSummary) AddPage(page PageRecord) {
	s.Pages = append(s.Pages, page)
}

// AddFiles appends a batch of file outcomes.
func (s *CrawlSummary) AddFiles(files []FileRecord) {
	s.Files = append(s.Files, files...)
}

// Duration is the wall-clock time the run took.
func (s *CrawlSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// PagesVisited is the number of pages popped from the queue and
// processed, including failed ones.
func (s *CrawlSummary) PagesVisited() int {
	return len(s.Pages)
}

// PagesMatched is the number of visited pages at least one extractor
// applied to.
func (s *CrawlSummary) PagesMatched() int {
	count := 0
	for _, p := range s.Pages {
		if len(p.Matched) > 0 {
			count++
		}
	}
	return count
}

// PagesFailed is the number of pages whose fetch or processing failed.
func (s *CrawlSummary) PagesFailed() int {
	count := 0
	for _, p := range s.Pages {
		if p.Failed() {
			count++
		}
	}
	return count
}

// FilesSaved is the number of files written to disk.
func (s *CrawlSummary) FilesSaved() int {
	return s.countFiles(func(f FileRecord) bool { return f.Outcome == OutcomeSaved })
}

// FilesSkipped is the number of files deliberately not written, split
// across the exists, dry run, and undersized outcomes.
func (s *CrawlSummary) FilesSkipped() int {
	return s.countFiles(func(f FileRecord) bool { return f.Outcome.Skipped() })
}

// FilesFailed is the number of file attempts that ended in an error.
func (s *CrawlSummary) FilesFailed() int {
	return s.countFiles(func(f FileRecord) bool { return f.Outcome == OutcomeFailed })
}

// BytesSaved is the total number of bytes written to disk.
func (s *CrawlSummary) BytesSaved() int64 {
	var total int64
	for _, f := range s.Files {
		if f.Outcome == OutcomeSaved {
			total += f.Size
		}
	}
	return total
}

func (s *CrawlSummary) countFiles(match func(FileRecord) bool) int {
	count := 0
	for _, f := range s.Files {
		if match(f) {
			count++
		}
	}
	return count
}
