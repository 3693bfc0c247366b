package config

import (
	"fmt"
	"regexp"
)

// ExtractorConfig is one extractor rule bundle as declared in the job
// file. All fields are optional: an absent match rule accepts every page,
// absent selectors yield empty URL lists, and absent metadata selectors
// extract nothing.
type ExtractorConfig struct {
	// Description labels the extractor in logs and reports.
	Description string `yaml:"description,omitempty"`

	// Match restricts which pages this extractor applies to. Nil accepts
	// every page.
	Match *MatchConfig `yaml:"match,omitempty"`

	// PageSelector selects elements whose href attributes become new
	// pages on the crawl queue.
	PageSelector string `yaml:"pageSelector,omitempty"`

	// FileSelector selects elements whose href/src/data-src attributes
	// become file download URLs.
	FileSelector string `yaml:"fileSelector,omitempty"`

	// Article additionally extracts readability metadata (title, byline,
	// excerpt, siteName) before the metadata selectors run. Selector
	// fields of the same name win.
	Article bool `yaml:"article,omitempty"`

	// MetadataSelectors is the ordered list of metadata field rules.
	MetadataSelectors []MetadataSelectorConfig `yaml:"metadataSelectors,omitempty"`

	// Options overrides global save options while this extractor runs.
	Options *OptionsPatch `yaml:"options,omitempty"`
}

// MatchConfig decides whether an extractor applies to a page. When both
// fields are set, both must hold.
type MatchConfig struct {
	// URLPattern is a regular expression matched against the page URL.
	URLPattern string `yaml:"urlPattern,omitempty"`

	// Selector is a CSS selector; the page matches when the document
	// contains at least one matching element.
	Selector string `yaml:"selector,omitempty"`
}

// MetadataSelectorConfig declares one metadata field. Exactly one shape
// must be used: a plain selector (string-or-list field) or an
// entry/key/value triple (table field).
type MetadataSelectorConfig struct {
	// Field is the metadata field name to store under.
	Field string `yaml:"field"`

	// Selector collects the text of matching elements. One match stores a
	// bare string, any other count stores an ordered list.
	Selector string `yaml:"selector,omitempty"`

	// Entry selects the row elements of a key/value table.
	Entry string `yaml:"entry,omitempty"`

	// Key selects the key element inside each entry.
	Key string `yaml:"key,omitempty"`

	// Value selects the value element inside each entry.
	Value string `yaml:"value,omitempty"`
}

// IsEntry reports whether the selector declares a table-shaped field.
func (m *MetadataSelectorConfig) IsEntry() bool {
	return m.Entry != ""
}

func (e *ExtractorConfig) validate() error {
	if e.Match != nil && e.Match.URLPattern != "" {
		if _, err := regexp.Compile(e.Match.URLPattern); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrBadURLPattern, e.Match.URLPattern, err)
		}
	}
	for i := range e.MetadataSelectors {
		if err := e.MetadataSelectors[i].validate(); err != nil {
			return fmt.Errorf("metadataSelectors[%d]: %w", i, err)
		}
	}
	return e.Options.validate()
}

func (m *MetadataSelectorConfig) validate() error {
	if m.Field == "" {
		return ErrNoSelectorField
	}
	plain := m.Selector != ""
	entry := m.Entry != "" || m.Key != "" || m.Value != ""
	if plain == entry {
		return ErrSelectorShape
	}
	if entry && (m.Entry == "" || m.Key == "" || m.Value == "") {
		return ErrSelectorShape
	}
	return nil
}
