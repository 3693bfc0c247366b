// Package database provides the SQLite-backed download ledger.
//
// The ledger keeps a history of crawl runs: one row per run plus the
// page and file outcomes that made it up. The crawl itself never reads
// the ledger; it only appends a finished run. The history command reads
// it back for display.
//
// SQLite is accessed through modernc.org/sqlite, a CGO-free driver, so
// the ledger works on any platform the binary cross-compiles to. The
// database is a single file in the data directory.
package database
