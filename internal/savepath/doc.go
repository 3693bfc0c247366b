// Package savepath derives local save locations from crawl metadata and
// file URLs.
//
// Save directories are built from a root directory plus a list of
// templated sub-directory names. A template substitutes {{key}}
// placeholders with single-string metadata values and the result is
// sanitized so it cannot escape the directory or contain characters that
// are unsafe in common filesystems.
//
// Filenames come from the file URL itself: the scheme and query string
// are stripped, the remaining host/path is split on "/", and the last
// nameLevel segments are joined with "_". A nameLevel of 0 keeps every
// segment.
package savepath
