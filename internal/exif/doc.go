// Package exif extracts EXIF tags from downloaded image bytes.
//
// The crawl engine offers EXIF extraction as an opt-in saving option:
// when enabled, every saved file is scanned and any tags found are
// written to a sidecar JSON file next to it. Extraction failures never
// fail a download. Most files simply have no EXIF segment, which is
// reported as ErrNotFound so callers can skip the sidecar quietly.
package exif
