package model

// PageRecord is the outcome of one visited page.
type PageRecord struct {
	// URL is the absolute URL of the page.
	URL string `json:"url"`

	// Matched lists the descriptions of the extractors that applied to
	// this page, in evaluation order. Empty when no extractor matched.
	Matched []string `json:"matched,omitempty"`

	// Discovered is the number of follow-up page URLs enqueued from
	// this page. Already-visited URLs are still counted here; they are
	// dropped when they reach the front of the queue.
	Discovered int `json:"discovered"`

	// Error holds the failure message when fetching or processing the
	// page failed. A failed page never contributes files or follow-up
	// URLs, but the crawl continues with the remaining queue.
	Error string `json:"error,omitempty"`
}

// Failed reports whether processing this page ended in an error.
func (p PageRecord) Failed() bool {
	return p.Error != ""
}
