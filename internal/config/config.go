package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "pagedl"

	// DefaultSaveRoot is the directory files are saved under when the job
	// file does not set saveDir.root.
	DefaultSaveRoot = "./download"

	// DefaultNameLevel keeps only the last URL path segment as the
	// filename. 0 would keep every segment.
	DefaultNameLevel = 1

	// DefaultMinSize accepts downloads of any size. Files smaller than
	// the configured minimum are discarded without error.
	DefaultMinSize = 0

	// DefaultTimeout is the per-request timeout. It covers a single HTTP
	// call, not the whole crawl.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryCount is the number of internal retries per HTTP call.
	DefaultRetryCount = 3

	// DefaultRetryWait is the base wait between retries.
	DefaultRetryWait = 1 * time.Second

	// DefaultMaxBodyBytes caps how much of a page document is read for
	// parsing. It applies to page fetches only, never to file downloads.
	DefaultMaxBodyBytes = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent identifies pagedl in HTTP requests.
	DefaultUserAgent = "pagedl/1.0 (+https://github.com/ks-yuzu/pagedl)"
)

// Config holds all settings for one crawl run. It is populated from the
// job file plus CLI flags and passed through the application explicitly.
type Config struct {
	// ConfigFilePath is the job file path. Empty means search the default
	// locations (see FindConfigFile).
	ConfigFilePath string

	// Pages is the list of seed URLs the crawl starts from.
	Pages []string

	// Extractors is the ordered extractor rule list from the job file.
	// Order matters: every extractor whose match rule accepts a page runs,
	// in declaration order.
	Extractors []ExtractorConfig

	// Options is the resolved global save options (defaults plus the job
	// file's global overrides). Per-extractor overrides are applied on top
	// of this at extraction time via Options.With.
	Options Options

	// Fetch is the merged HTTP fetch settings.
	Fetch FetchConfig

	// LedgerEnabled controls whether run outcomes are recorded in the
	// SQLite ledger. The ledger is write-only bookkeeping for the history
	// command; crawling never reads it.
	LedgerEnabled bool

	// LedgerDir is the directory holding the ledger database.
	// Defaults to the XDG data directory.
	LedgerDir string

	// DryRun suppresses the per-file fetch and write steps. Directories
	// and metadata sidecars are still written.
	DryRun bool

	// Verbose enables slog.LevelDebug output. When false, only warnings
	// and errors are logged.
	Verbose bool

	// JSONReport selects JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to this path instead of stdout.
	// Parent directories are created as needed.
	ReportFile string
}

// NewConfig creates a Config with default values. Fields whose defaults
// are non-zero are set here so flag and file application only has to
// override what the user actually specified.
func NewConfig() *Config {
	return &Config{
		Options:       DefaultOptions(),
		Fetch:         DefaultFetchConfig(),
		LedgerEnabled: true,
		LedgerDir:     XDGDataDir(),
	}
}

// ApplyFile merges a loaded job file into the config.
func (c *Config) ApplyFile(f *File) error {
	if f == nil {
		return nil
	}
	c.Pages = append([]string(nil), f.Pages...)
	c.Extractors = f.Extractors
	c.Options = DefaultOptions().With(&f.Options)

	merged, err := MergeFetch(DefaultFetchConfig(), f.Fetch)
	if err != nil {
		return fmt.Errorf("failed to merge fetch settings: %w", err)
	}
	c.Fetch = merged

	if f.Ledger.Enabled != nil {
		c.LedgerEnabled = *f.Ledger.Enabled
	}
	if f.Ledger.Dir != "" {
		c.LedgerDir = f.Ledger.Dir
	}
	return nil
}

// Validate checks the configuration for errors that would make a run
// meaningless or ambiguous.
func (c *Config) Validate() error {
	if len(c.Pages) == 0 {
		return ErrNoPages
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.Options.SaveDir.Root == "" {
		return ErrNoSaveRoot
	}
	if c.Options.File.NameLevel < 0 {
		return ErrInvalidNameLevel
	}
	if c.Options.File.MinSize < 0 {
		return ErrInvalidMinSize
	}
	if c.Fetch.Timeout() <= 0 {
		return ErrInvalidTimeout
	}
	if c.Fetch.Retries() < 0 || c.Fetch.RetryWait() < 0 {
		return ErrInvalidRetry
	}
	for i := range c.Extractors {
		if err := c.Extractors[i].validate(); err != nil {
			return fmt.Errorf("extractor %d (%s): %w", i, c.Extractors[i].Description, err)
		}
	}
	return nil
}

// XDGDataDir returns the XDG data directory for pagedl.
// On Linux: ~/.local/share/pagedl
// On macOS: ~/Library/Application Support/pagedl
// On Windows: %LOCALAPPDATA%\pagedl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagedl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
