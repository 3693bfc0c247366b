// Package engine drives the crawl: one queue, one worker, breadth-first.
//
// The engine owns the FIFO work queue and the visited set. Each queue
// entry carries a page URL plus the metadata inherited from the page
// that discovered it. Processing a page means fetching it, running
// every extractor that matches it in declaration order, saving the
// files each match produced, and enqueueing the follow-up page URLs
// with a fresh copy of the merged metadata.
//
// Page-level failures (fetch errors, extraction panics) are recorded on
// the page's record and the crawl moves on; the queue keeps draining.
// The run ends when the queue is empty or the context is canceled.
// There is no depth or page bound: termination relies on the visited
// set, so an extractor set that keeps emitting novel URLs crawls until
// canceled.
package engine
