// Package download saves extracted files and their metadata sidecars.
//
// The engine hands the Saver one batch per extractor match: a resolved
// target directory, the file URLs found on the page, and the merged
// metadata. The Saver creates the directory, writes the metadata to
// info.json, and then works through the URLs one at a time. Each URL
// produces exactly one FileRecord whatever happens to it, so the run
// summary accounts for every attempt.
//
// Per-file failures are recorded and logged but never stop the batch.
// Only two things abort a batch: failing to create the target directory
// and context cancellation.
package download
