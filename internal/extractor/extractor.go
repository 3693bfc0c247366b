package extractor

import (
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/ks-yuzu/pagedl/internal/config"
	"github.com/ks-yuzu/pagedl/internal/metadata"
)

// MatchFunc reports whether an extractor applies to the page at pageURL
// with the parsed document doc.
type MatchFunc func(pageURL string, doc *goquery.Document) bool

// FileURLModifierFunc rewrites one selector-produced file URL into zero
// or more replacement URLs. Returning nil or an empty slice drops the
// URL; returning multiple URLs fans it out.
type FileURLModifierFunc func(fileURL, pageURL string) []string

// MetadataModifierFunc rewrites the value extracted for a single
// metadata field before it is stored.
type MetadataModifierFunc func(field string, value metadata.Value) metadata.Value

// AdditionalExtractor bundles the hooks that contribute results beyond
// what the CSS selectors find. All fields are optional.
type AdditionalExtractor struct {
	// File returns extra file URLs for the page. They may be relative;
	// the engine resolves them against the page URL. They are appended
	// after the selector-produced URLs and are not passed through
	// FileURLModifier.
	File func(pageURL string, doc *goquery.Document) []string

	// Page returns extra page URLs to enqueue, appended after the
	// selector-produced ones.
	Page func(pageURL string, doc *goquery.Document) []string

	// Metadata returns extra metadata fields. On key collision with
	// selector-extracted fields the values returned here win.
	Metadata func(pageURL string, doc *goquery.Document) metadata.Metadata
}

// MetadataSelector describes how one metadata field is read from a page.
//
// Exactly one of two shapes is valid. The string shape sets Selector
// only: each match contributes its trimmed text, a single match yields a
// string value and any other count yields a list. The table shape sets
// Entry, Key, and Value: each Entry match becomes one table row whose
// key and value are the trimmed text of the Key and Value selectors
// scoped to that entry.
type MetadataSelector struct {
	Field    string
	Selector string
	Entry    string
	Key      string
	Value    string
}

func (s MetadataSelector) isEntry() bool {
	return s.Entry != ""
}

// Extractor is one extraction rule bundle.
type Extractor struct {
	// Description names the rule in logs and reports.
	Description string

	// IsMatched decides whether this extractor applies to a page.
	// A nil IsMatched matches every page.
	IsMatched MatchFunc

	// PageSelector selects elements whose href attributes become
	// follow-up page URLs.
	PageSelector string

	// FileSelector selects elements whose href, src, and data-src
	// attributes become file download URLs.
	FileSelector string

	// MetadataSelectors are evaluated in order; later fields overwrite
	// earlier ones on collision.
	MetadataSelectors []MetadataSelector

	// FileURLModifier, when set, maps each selector-produced file URL
	// to its replacements after resolution against the page URL.
	FileURLModifier FileURLModifierFunc

	// MetadataModifier, when set, post-processes each selector-extracted
	// field value.
	MetadataModifier MetadataModifierFunc

	// Additional contributes file URLs, page URLs, and metadata beyond
	// the selectors.
	Additional AdditionalExtractor

	// Article enables readability-based article extraction. The fields
	// it yields (title, byline, excerpt, siteName) seed the metadata
	// before the selectors run, so selector fields of the same name
	// take precedence.
	Article bool

	// Options overrides saving options for files found by this
	// extractor. Nil means the global options apply unchanged.
	Options *config.OptionsPatch
}

// Matches reports whether the extractor applies to the given page.
func (e *Extractor) Matches(pageURL string, doc *goquery.Document) bool {
	if e.IsMatched == nil {
		return true
	}
	return e.IsMatched(pageURL, doc)
}

// FromConfig compiles a declarative extractor rule into an Extractor.
// The URL pattern, if any, is compiled once here so that a bad pattern
// fails at startup rather than mid-crawl.
func FromConfig(cfg config.ExtractorConfig) (*Extractor, error) {
	e := &Extractor{
		Description:  cfg.Description,
		PageSelector: cfg.PageSelector,
		FileSelector: cfg.FileSelector,
		Article:      cfg.Article,
		Options:      cfg.Options,
	}
	for _, ms := range cfg.MetadataSelectors {
		e.MetadataSelectors = append(e.MetadataSelectors, MetadataSelector{
			Field:    ms.Field,
			Selector: ms.Selector,
			Entry:    ms.Entry,
			Key:      ms.Key,
			Value:    ms.Value,
		})
	}

	if m := cfg.Match; m != nil && (m.URLPattern != "" || m.Selector != "") {
		var re *regexp.Regexp
		if m.URLPattern != "" {
			var err error
			re, err = regexp.Compile(m.URLPattern)
			if err != nil {
				return nil, fmt.Errorf("extractor %q: %w: %w", cfg.Description, config.ErrBadURLPattern, err)
			}
		}
		sel := m.Selector
		e.IsMatched = func(pageURL string, doc *goquery.Document) bool {
			if re != nil && !re.MatchString(pageURL) {
				return false
			}
			if sel != "" && doc.Find(sel).Length() == 0 {
				return false
			}
			return true
		}
	}
	return e, nil
}

// FromConfigs compiles a list of declarative rules, preserving order.
func FromConfigs(cfgs []config.ExtractorConfig) ([]*Extractor, error) {
	extractors := make([]*Extractor, 0, len(cfgs))
	for i, cfg := range cfgs {
		e, err := FromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("extractor %d: %w", i, err)
		}
		extractors = append(extractors, e)
	}
	return extractors, nil
}
