// Package fetcher provides the HTTP client used for both page documents
// and file downloads.
//
// Page fetches return decoded text alongside the raw bytes. The character
// encoding is auto-detected from the Content-Type header, byte order
// marks, and document content, falling back to UTF-8; a job can also pin
// an explicit encoding, which bypasses detection entirely.
//
// Transient failures (transport errors, 5xx, 429) are retried internally
// with a bounded count, so callers treat any returned error as final for
// that URL. The crawl loop never retries on its own.
package fetcher
