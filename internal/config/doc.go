// Package config holds the crawl job configuration: seed pages, extractor
// rules, save options, fetch settings, and ledger settings.
//
// A job is described by a YAML file (see LoadConfigFile and FindConfigFile)
// and finished off by CLI flags. The runtime Config struct is flat and is
// passed through the application explicitly rather than via global state.
//
// Save options resolve in three levels: built-in defaults, the job file's
// global options, and a per-extractor override that applies only while
// that extractor runs. Override structs use pointer fields so an explicit
// zero (for example "nameLevel: 0") is distinguishable from an unset
// field; Options.With applies one override level over a resolved base.
package config
