package model

// FileOutcome classifies what happened to one file download attempt.
type FileOutcome string

const (
	// OutcomeSaved means the file was fetched and written to disk.
	OutcomeSaved FileOutcome = "saved"

	// OutcomeExists means the target path already existed and
	// overwriting was disabled, so the file was not fetched.
	OutcomeExists FileOutcome = "exists"

	// OutcomeDryRun means the run was a dry run, so the file was
	// neither fetched nor written.
	OutcomeDryRun FileOutcome = "dryrun"

	// OutcomeUndersized means the fetched body was smaller than the
	// configured minimum size and was discarded.
	OutcomeUndersized FileOutcome = "undersized"

	// OutcomeFailed means the fetch or the write failed.
	OutcomeFailed FileOutcome = "failed"
)

// String returns the outcome as stored in reports and the ledger.
func (o FileOutcome) String() string {
	return string(o)
}

// Skipped reports whether the file was deliberately not written,
// as opposed to saved or failed.
func (o FileOutcome) Skipped() bool {
	switch o {
	case OutcomeExists, OutcomeDryRun, OutcomeUndersized:
		return true
	default:
		return false
	}
}

// FileRecord is the outcome of one file download attempt.
type FileRecord struct {
	// PageURL is the page the file URL was extracted from.
	PageURL string `json:"page_url"`

	// FileURL is the absolute URL the file was fetched from.
	FileURL string `json:"file_url"`

	// Path is the local path the file was written to, or would have
	// been written to for skipped outcomes.
	Path string `json:"path"`

	// Size is the number of bytes written. Zero unless Outcome is
	// OutcomeSaved.
	Size int64 `json:"size"`

	// Digest is the lowercase hex SHA3-256 of the written bytes.
	// Empty unless Outcome is OutcomeSaved.
	Digest string `json:"digest,omitempty"`

	// Outcome classifies the attempt.
	Outcome FileOutcome `json:"outcome"`

	// Error holds the failure message when Outcome is OutcomeFailed.
	Error string `json:"error,omitempty"`
}
