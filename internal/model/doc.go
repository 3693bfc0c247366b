// Package model defines the result data structures shared across pagedl.
//
// This package contains the following main types:
//   - FileRecord: The outcome of one file download attempt
//   - PageRecord: The outcome of one visited page
//   - CrawlSummary: The aggregate result of a whole crawl run
//
// Multiple packages (engine, download, report, database) need these
// types, so they live in their own leaf package. All of them serialize
// to JSON for report output and ledger storage.
package model
