package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ks-yuzu/pagedl/internal/config"
	"github.com/ks-yuzu/pagedl/internal/download"
	"github.com/ks-yuzu/pagedl/internal/extractor"
	"github.com/ks-yuzu/pagedl/internal/fetcher"
	"github.com/ks-yuzu/pagedl/internal/metadata"
	"github.com/ks-yuzu/pagedl/internal/model"
	"github.com/ks-yuzu/pagedl/internal/savepath"
)

// ErrEmptyQueuePop is returned when the queue is popped while empty.
// The run loop checks the queue length first, so hitting this means the
// engine state is corrupted and the run must stop.
var ErrEmptyQueuePop = errors.New("pop from empty work queue")

// queueItem is one entry in the crawl queue: a page URL and the
// metadata snapshot inherited from the page that discovered it.
type queueItem struct {
	url  string
	meta metadata.Metadata
}

// Engine crawls pages breadth-first and hands extracted files to the
// Saver. It processes one page at a time; there is no parallel
// fetching.
type Engine struct {
	// fetcher retrieves and decodes pages.
	fetcher *fetcher.Fetcher

	// saver writes extracted files and metadata sidecars.
	saver *download.Saver

	// extractors are evaluated in declaration order on every page.
	extractors []*extractor.Extractor

	// opts are the resolved global saving options. Extractor overrides
	// are applied on top per match.
	opts config.Options

	// logger is used for structured logging during the run.
	logger *slog.Logger

	// queue is the FIFO page work queue.
	queue []queueItem

	// visited tracks page URLs already processed. It grows for the
	// lifetime of the engine and is never trimmed.
	visited map[string]bool
}

// Option is a function that configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
// If not set, the process default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine over the given collaborators. The extractor
// order is preserved: it decides evaluation order on every page.
func New(f *fetcher.Fetcher, s *download.Saver, extractors []*extractor.Extractor, opts config.Options, engineOpts ...Option) *Engine {
	e := &Engine{
		fetcher:    f,
		saver:      s,
		extractors: extractors,
		opts:       opts,
		visited:    make(map[string]bool),
	}
	for _, opt := range engineOpts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Run crawls from the seeds until the queue drains. Page failures are
// recorded in the summary and do not stop the run; the returned error
// is non-nil only for the queue invariant violation. Cancellation via
// ctx stops the run between pages and marks the summary canceled.
func (e *Engine) Run(ctx context.Context, seeds []string, dryRun bool) (*model.CrawlSummary, error) {
	summary := model.NewCrawlSummary(seeds, dryRun)
	defer func() {
		summary.FinishedAt = time.Now()
	}()

	for _, seed := range seeds {
		e.push(queueItem{url: seed, meta: metadata.New()})
	}
	e.logger.Info("starting crawl", "seeds", len(seeds), "extractors", len(e.extractors), "dry_run", dryRun)

	for len(e.queue) > 0 {
		select {
		case <-ctx.Done():
			summary.Canceled = true
			e.logger.Info("crawl canceled", "queued", len(e.queue), "visited", len(e.visited))
			return summary, nil
		default:
		}

		item, err := e.pop()
		if err != nil {
			return summary, err
		}
		e.step(ctx, item, dryRun, summary)
	}

	e.logger.Info("crawl finished",
		"pages", summary.PagesVisited(),
		"files_saved", summary.FilesSaved(),
		"files_skipped", summary.FilesSkipped(),
		"files_failed", summary.FilesFailed())
	return summary, nil
}

// push appends an item to the back of the queue.
func (e *Engine) push(item queueItem) {
	e.queue = append(e.queue, item)
}

// pop removes and returns the front of the queue.
func (e *Engine) pop() (queueItem, error) {
	if len(e.queue) == 0 {
		return queueItem{}, ErrEmptyQueuePop
	}
	item := e.queue[0]
	e.queue = e.queue[1:]
	return item, nil
}

// step handles one popped queue item. The page URL is stamped into the
// metadata before the visited check so every processed page sees its
// own URL under the reserved key, whatever it inherited.
func (e *Engine) step(ctx context.Context, item queueItem, dryRun bool, summary *model.CrawlSummary) {
	item.meta[metadata.KeyURL] = metadata.String(item.url)

	if e.visited[item.url] {
		e.logger.Debug("skip visited page", "url", item.url)
		return
	}
	e.visited[item.url] = true

	rec, files := e.processPage(ctx, item, dryRun)
	summary.AddPage(rec)
	summary.AddFiles(files)
}

// processPage fetches one page and runs every matching extractor over
// it. A panic from an extractor hook is contained here and recorded as
// the page's error.
func (e *Engine) processPage(ctx context.Context, item queueItem, dryRun bool) (rec model.PageRecord, files []model.FileRecord) {
	rec = model.PageRecord{URL: item.url}
	defer func() {
		if r := recover(); r != nil {
			rec.Error = fmt.Sprintf("panic: %v", r)
			e.logger.Error("page processing panicked", "url", item.url, "panic", r)
		}
	}()

	e.logger.Info("processing page", "url", item.url)

	page, err := e.fetcher.Fetch(ctx, item.url)
	if err != nil {
		rec.Error = err.Error()
		e.logger.Warn("fetch page", "url", item.url, "error", err)
		return rec, files
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Text))
	if err != nil {
		rec.Error = fmt.Sprintf("parse page: %v", err)
		e.logger.Warn("parse page", "url", item.url, "error", err)
		return rec, files
	}

	base, err := url.Parse(item.url)
	if err != nil {
		rec.Error = fmt.Sprintf("parse page url: %v", err)
		e.logger.Warn("parse page url", "url", item.url, "error", err)
		return rec, files
	}

	for i, ex := range e.extractors {
		if !ex.Matches(item.url, doc) {
			continue
		}
		name := describeExtractor(i, ex)
		rec.Matched = append(rec.Matched, name)
		e.logger.Debug("extractor matched", "url", item.url, "extractor", name)

		// Extracted fields win over inherited ones. Files are saved
		// before follow-up pages are enqueued.
		newMeta := metadata.Merge(item.meta, ex.ExtractMetadata(item.url, doc))
		files = append(files, e.saveFiles(ctx, ex, base, doc, newMeta, dryRun)...)

		for _, pageURL := range ex.PageURLs(base, doc) {
			e.push(queueItem{url: pageURL, meta: newMeta.Clone()})
			rec.Discovered++
		}
	}

	if len(rec.Matched) == 0 {
		e.logger.Warn("no extractor matched", "url", item.url)
	}
	return rec, files
}

// saveFiles resolves the save directory for one extractor match and
// hands the extracted file URLs to the Saver. Directory resolution or
// creation failures cost only this batch: every URL is recorded as
// failed and the page goes on.
func (e *Engine) saveFiles(ctx context.Context, ex *extractor.Extractor, base *url.URL, doc *goquery.Document, meta metadata.Metadata, dryRun bool) []model.FileRecord {
	opts := e.opts.With(ex.Options)
	pageURL := base.String()
	urls := ex.FileURLs(base, doc)

	dir, err := savepath.ResolveDir(opts.SaveDir.Root, opts.SaveDir.SubDirs, meta)
	if err != nil {
		e.logger.Warn("resolve save directory", "url", pageURL, "error", err)
		return failedRecords(pageURL, urls, err)
	}

	records, err := e.saver.SaveBatch(ctx, download.Request{
		Dir:       dir,
		URLs:      urls,
		Meta:      meta,
		PageURL:   pageURL,
		NameLevel: opts.File.NameLevel,
		Overwrite: opts.File.Overwrite,
		MinSize:   opts.File.MinSize,
		Exif:      opts.File.Exif,
		DryRun:    dryRun,
	})
	if err != nil {
		e.logger.Warn("save files", "dir", dir, "error", err)
		records = append(records, failedRecords(pageURL, urls[len(records):], err)...)
	}
	return records
}

// describeExtractor names an extractor for records and logs.
func describeExtractor(i int, ex *extractor.Extractor) string {
	if ex.Description != "" {
		return ex.Description
	}
	return fmt.Sprintf("extractor %d", i)
}

// failedRecords marks a list of file URLs failed with a shared error.
func failedRecords(pageURL string, urls []string, err error) []model.FileRecord {
	records := make([]model.FileRecord, 0, len(urls))
	for _, u := range urls {
		records = append(records, model.FileRecord{
			PageURL: pageURL,
			FileURL: u,
			Outcome: model.OutcomeFailed,
			Error:   err.Error(),
		})
	}
	return records
}
