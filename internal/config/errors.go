package config

import "errors"

// Validation errors returned by Config.Validate. Package-level sentinels
// so callers can branch with errors.Is while the messages stay
// human-readable.
var (
	// ErrNoPages is returned when the job file declares no seed URLs.
	ErrNoPages = errors.New("no seed pages: the pages list must contain at least one URL")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are requested. Only one report format can be written.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrNoSaveRoot is returned when the save root directory is empty.
	ErrNoSaveRoot = errors.New("saveDir.root must not be empty")

	// ErrInvalidNameLevel is returned for a negative nameLevel.
	// Use 0 to keep every URL path segment.
	ErrInvalidNameLevel = errors.New("invalid nameLevel: must be non-negative")

	// ErrInvalidMinSize is returned for a negative minSize.
	ErrInvalidMinSize = errors.New("invalid minSize: must be non-negative")

	// ErrInvalidTimeout is returned when the fetch timeout is not
	// positive.
	ErrInvalidTimeout = errors.New("invalid fetch timeout: must be positive")

	// ErrInvalidRetry is returned for negative retry settings. Use
	// retryCount 0 to disable retrying.
	ErrInvalidRetry = errors.New("invalid retry settings: count and wait must be non-negative")

	// ErrNoSelectorField is returned when a metadata selector has no
	// field name.
	ErrNoSelectorField = errors.New("metadata selector is missing a field name")

	// ErrSelectorShape is returned when a metadata selector declares
	// neither shape, both shapes, or an incomplete entry/key/value triple.
	ErrSelectorShape = errors.New("metadata selector needs either selector or all of entry/key/value")

	// ErrBadURLPattern is returned when a match urlPattern does not
	// compile as a regular expression.
	ErrBadURLPattern = errors.New("invalid match urlPattern")
)
