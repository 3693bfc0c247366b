// Package metadata defines the per-page metadata model threaded through a
// crawl.
//
// Metadata is a named field set scraped from a page. Each field holds a
// Value, which is one of three variants:
//   - a single string (selector matched exactly one element)
//   - an ordered list of strings (selector matched zero or several elements)
//   - a string table that preserves key insertion order (entry selectors)
//
// Values travel from a page to the pages it links to: the crawl engine
// merges each page's extracted fields over the fields inherited from its
// parent and hands every discovered link an independent deep copy. Merge
// and Clone exist to keep those copies independent; sharing a backing
// slice or table between two queued pages would let one page's hooks
// mutate another's inheritance.
//
// Metadata marshals to JSON for the info.json sidecar written next to
// downloaded files. Strings become JSON strings, lists become arrays, and
// tables become objects whose members appear in insertion order.
package metadata
