package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fileAttrs are the attributes inspected on each FileSelector match.
// Every attribute that is present and non-empty contributes a candidate.
var fileAttrs = []string{"href", "src", "data-src"}

// FileURLs collects the file download URLs an extractor finds on a page.
//
// Selector matches are inspected attribute by attribute; data: URIs and
// empty values are discarded, everything else is resolved against base.
// When FileURLModifier is set each resolved URL is replaced by whatever
// the modifier returns, so one URL can be dropped, rewritten, or fanned
// out into several. Additional.File results come last: they are resolved
// against base but bypass both the data: filter and the modifier.
func (e *Extractor) FileURLs(base *url.URL, doc *goquery.Document) []string {
	var urls []string
	if e.FileSelector != "" {
		doc.Find(e.FileSelector).Each(func(_ int, s *goquery.Selection) {
			for _, attr := range fileAttrs {
				raw, ok := s.Attr(attr)
				if !ok || raw == "" || strings.HasPrefix(raw, "data:") {
					continue
				}
				abs, ok := resolveRef(base, raw)
				if !ok {
					continue
				}
				if e.FileURLModifier != nil {
					urls = append(urls, e.FileURLModifier(abs, base.String())...)
					continue
				}
				urls = append(urls, abs)
			}
		})
	}
	if e.Additional.File != nil {
		for _, raw := range e.Additional.File(base.String(), doc) {
			if abs, ok := resolveRef(base, raw); ok {
				urls = append(urls, abs)
			}
		}
	}
	return urls
}

// PageURLs collects the follow-up page URLs an extractor finds on a
// page. Only href attributes are read from PageSelector matches.
// Additional.Page results are resolved and appended after them.
func (e *Extractor) PageURLs(base *url.URL, doc *goquery.Document) []string {
	var urls []string
	if e.PageSelector != "" {
		doc.Find(e.PageSelector).Each(func(_ int, s *goquery.Selection) {
			raw, ok := s.Attr("href")
			if !ok || raw == "" {
				return
			}
			if abs, ok := resolveRef(base, raw); ok {
				urls = append(urls, abs)
			}
		})
	}
	if e.Additional.Page != nil {
		for _, raw := range e.Additional.Page(base.String(), doc) {
			if abs, ok := resolveRef(base, raw); ok {
				urls = append(urls, abs)
			}
		}
	}
	return urls
}

// resolveRef resolves ref against base, returning false for values that
// do not parse as a URL reference.
func resolveRef(base *url.URL, ref string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false
	}
	return base.ResolveReference(u).String(), true
}
