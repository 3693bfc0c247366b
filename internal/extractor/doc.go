// Package extractor implements the per-page extraction rules.
//
// An Extractor is a named rule bundle: a match rule deciding which pages
// it applies to, CSS selectors for discovering file URLs, follow-up page
// URLs, and metadata fields, and optional function hooks that filter,
// expand, or replace what the selectors produced. Every hook is optional;
// a nil hook means identity or no-op behavior, never an error.
//
// Extractors are evaluated in declaration order by the crawl engine, and
// several extractors may apply to the same page. The YAML job file
// compiles into the same Extractor struct via FromConfig; the function
// hooks (IsMatched beyond URL/selector rules, FileURLModifier,
// MetadataModifier, Additional) are available when the engine is driven
// from Go code.
package extractor
