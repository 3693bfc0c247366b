package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the job file name searched for when no explicit
// path is given.
const DefaultConfigFile = "pagedl.yaml"

// ErrConfigNotFound is returned when the job file does not exist.
var ErrConfigNotFound = errors.New("job file not found")

// File is the YAML shape of a job file.
type File struct {
	// Pages is the list of seed URLs.
	Pages []string `yaml:"pages"`

	// Extractors is the ordered extractor rule list.
	Extractors []ExtractorConfig `yaml:"extractors,omitempty"`

	// Options is the global save option override applied over the
	// built-in defaults.
	Options OptionsPatch `yaml:"options,omitempty"`

	// Fetch is the HTTP fetch settings override.
	Fetch FetchConfig `yaml:"fetch,omitempty"`

	// Ledger configures the download history ledger.
	Ledger LedgerConfig `yaml:"ledger,omitempty"`
}

// LedgerConfig configures where and whether run outcomes are recorded.
type LedgerConfig struct {
	// Enabled turns the ledger off when explicitly false.
	// Unset means enabled.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Dir overrides the ledger database directory.
	Dir string `yaml:"dir,omitempty"`
}

// LoadConfigFile reads and parses a job file. A missing file yields
// ErrConfigNotFound so callers can distinguish "no job file" from a
// malformed one.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided job file path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindConfigFile locates the job file:
//  1. an explicit path is used as-is (empty result when it is missing)
//  2. pagedl.yaml in the current directory
//  3. pagedl.yaml in the user's home directory
//
// Returns the path, or empty string when nothing was found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
