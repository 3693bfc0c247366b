// Package main provides the entry point for the pagedl CLI.
//
// Pagedl is a rule-driven page crawler and file downloader. It walks
// pages from seed URLs, applies CSS-selector extractor rules to collect
// metadata and file links, and saves the files into directories built
// from that metadata.
//
// Usage:
//
//	pagedl crawl
//	pagedl crawl -c job.yaml https://example.com/gallery
//
// See --help for all available options.
package main

// main is the entry point for pagedl.
func main() {
	Execute()
}
