package extractor

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/ks-yuzu/pagedl/internal/metadata"
)

// ExtractMetadata reads the extractor's metadata fields from one page.
//
// Contributions are layered lowest to highest precedence: article
// extraction when enabled, then the metadata selectors in declaration
// order (each filtered through MetadataModifier when set), and finally
// Additional.Metadata. The returned map is freshly allocated and shares
// nothing with the document.
func (e *Extractor) ExtractMetadata(pageURL string, doc *goquery.Document) metadata.Metadata {
	out := metadata.New()

	if e.Article {
		e.applyArticle(pageURL, doc, out)
	}

	for _, sel := range e.MetadataSelectors {
		var value metadata.Value
		if sel.isEntry() {
			value = extractTable(doc, sel)
		} else {
			value = extractText(doc, sel.Selector)
		}
		if e.MetadataModifier != nil {
			value = e.MetadataModifier(sel.Field, value)
		}
		out[sel.Field] = value
	}

	if e.Additional.Metadata != nil {
		for field, value := range e.Additional.Metadata(pageURL, doc) {
			out[field] = value.Clone()
		}
	}
	return out
}

// extractText evaluates a string-shape selector. A single match collapses
// to a string value; zero or several matches yield a list so the caller
// can tell the cases apart.
func extractText(doc *goquery.Document, selector string) metadata.Value {
	texts := []string{}
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(s.Text()))
	})
	if len(texts) == 1 {
		return metadata.String(texts[0])
	}
	return metadata.List(texts)
}

// extractTable evaluates a table-shape selector. Rows keep the order the
// entries appear in the document. Rows whose key and value both trim to
// empty are dropped; rows with only one empty side are kept.
func extractTable(doc *goquery.Document, sel MetadataSelector) metadata.Value {
	table := metadata.NewTable()
	doc.Find(sel.Entry).Each(func(_ int, entry *goquery.Selection) {
		key := strings.TrimSpace(entry.Find(sel.Key).Text())
		value := strings.TrimSpace(entry.Find(sel.Value).Text())
		if key == "" && value == "" {
			return
		}
		table.Set(key, value)
	})
	return metadata.TableValue(table)
}

// applyArticle runs readability over the page and stores whichever of
// its fields came back non-empty. Extraction failure only costs the
// article fields, so it is logged at debug level and otherwise ignored.
func (e *Extractor) applyArticle(pageURL string, doc *goquery.Document, out metadata.Metadata) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	html, err := doc.Html()
	if err != nil {
		slog.Debug("render page for article extraction", "url", pageURL, "error", err)
		return
	}
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err != nil {
		slog.Debug("article extraction failed", "url", pageURL, "error", err)
		return
	}

	for field, text := range map[string]string{
		"title":    article.Title,
		"byline":   article.Byline,
		"excerpt":  article.Excerpt,
		"siteName": article.SiteName,
	} {
		if text != "" {
			out[field] = metadata.String(text)
		}
	}
}
