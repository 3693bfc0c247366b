package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ks-yuzu/pagedl/internal/model"
)

// dbFileName is the ledger file created inside the data directory.
const dbFileName = "pagedl.db"

// Ledger provides SQLite-based storage for crawl run history.
type Ledger struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Ledger behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// read performance.
	EnableWAL bool
}

// DefaultOptions returns the default ledger options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a Ledger in the given directory.
// If CreateIfNotExists is true, the directory and database file are
// created. If it is false and the database doesn't exist, an error is
// returned; the history command uses this so it never leaves an empty
// ledger behind.
func Open(dbDir string, opts Options) (*Ledger, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("ledger not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check ledger path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ledger := &Ledger{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := ledger.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return ledger, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// createTables creates the ledger schema if it doesn't exist.
func (l *Ledger) createTables() error {
	schema := `
	-- One row per crawl run with its aggregate counters
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		seeds TEXT NOT NULL,
		dry_run INTEGER NOT NULL DEFAULT 0,
		pages_visited INTEGER NOT NULL DEFAULT 0,
		pages_matched INTEGER NOT NULL DEFAULT 0,
		pages_failed INTEGER NOT NULL DEFAULT 0,
		files_saved INTEGER NOT NULL DEFAULT 0,
		files_skipped INTEGER NOT NULL DEFAULT 0,
		files_failed INTEGER NOT NULL DEFAULT 0,
		bytes_saved INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per visited page
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		matched TEXT,
		discovered INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);

	-- One row per file download attempt
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		page_url TEXT NOT NULL,
		file_url TEXT NOT NULL,
		path TEXT,
		size INTEGER NOT NULL DEFAULT 0,
		digest TEXT,
		outcome TEXT NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_files_run ON files(run_id);
	CREATE INDEX IF NOT EXISTS idx_files_url ON files(file_url);
	`

	_, err := l.db.ExecContext(context.Background(), schema)
	return err
}

// RecordRun appends one finished crawl run to the ledger and returns
// its row ID. The run row and all page and file rows are written in a
// single transaction, so a half-recorded run never appears in history.
func (l *Ledger) RecordRun(ctx context.Context, summary *model.CrawlSummary) (int64, error) {
	seedsJSON, err := json.Marshal(summary.Seeds)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize seeds: %w", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, finished_at, seeds, dry_run,
		pages_visited, pages_matched, pages_failed,
		files_saved, files_skipped, files_failed, bytes_saved)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.StartedAt.UTC().Format(time.RFC3339),
		summary.FinishedAt.UTC().Format(time.RFC3339),
		string(seedsJSON),
		boolToInt(summary.DryRun),
		summary.PagesVisited(),
		summary.PagesMatched(),
		summary.PagesFailed(),
		summary.FilesSaved(),
		summary.FilesSkipped(),
		summary.FilesFailed(),
		summary.BytesSaved(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, page := range summary.Pages {
		matchedJSON, err := json.Marshal(page.Matched)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize matched extractors: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO pages (run_id, url, matched, discovered, error)
		VALUES (?, ?, ?, ?, ?)
		`, runID, page.URL, string(matchedJSON), page.Discovered, page.Error); err != nil {
			return 0, fmt.Errorf("failed to insert page record: %w", err)
		}
	}

	for _, file := range summary.Files {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO files (run_id, page_url, file_url, path, size, digest, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, file.PageURL, file.FileURL, file.Path, file.Size,
			file.Digest, file.Outcome.String(), file.Error); err != nil {
			return 0, fmt.Errorf("failed to insert file record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// RunRecord is one row of crawl run history.
type RunRecord struct {
	// ID is the run's row ID in the ledger.
	ID int64 `json:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended.
	FinishedAt time.Time `json:"finished_at"`

	// Seeds are the page URLs the run started from.
	Seeds []string `json:"seeds"`

	// DryRun is true when the run suppressed file writes.
	DryRun bool `json:"dry_run"`

	// PagesVisited, PagesMatched, and PagesFailed are the page
	// counters recorded for the run.
	PagesVisited int `json:"pages_visited"`
	PagesMatched int `json:"pages_matched"`
	PagesFailed  int `json:"pages_failed"`

	// FilesSaved, FilesSkipped, and FilesFailed are the file counters
	// recorded for the run.
	FilesSaved   int `json:"files_saved"`
	FilesSkipped int `json:"files_skipped"`
	FilesFailed  int `json:"files_failed"`

	// BytesSaved is the total number of bytes written during the run.
	BytesSaved int64 `json:"bytes_saved"`
}

// Runs returns run history, newest first. A zero since returns all
// runs; a positive limit caps the row count.
func (l *Ledger) Runs(ctx context.Context, since time.Time, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, started_at, finished_at, seeds, dry_run,
		pages_visited, pages_matched, pages_failed,
		files_saved, files_skipped, files_failed, bytes_saved
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0, 2)

	if !since.IsZero() {
		query += " AND started_at >= ?"
		args = append(args, since.UTC().Format(time.RFC3339))
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedAt, finished, seedsJSON string
		var dryRun int
		if err := rows.Scan(
			&rec.ID, &startedAt, &finished, &seedsJSON, &dryRun,
			&rec.PagesVisited, &rec.PagesMatched, &rec.PagesFailed,
			&rec.FilesSaved, &rec.FilesSkipped, &rec.FilesFailed, &rec.BytesSaved,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		rec.StartedAt = parseTimestamp(startedAt)
		rec.FinishedAt = parseTimestamp(finished)
		rec.DryRun = dryRun != 0
		if seedsJSON != "" {
			if err := json.Unmarshal([]byte(seedsJSON), &rec.Seeds); err != nil {
				return nil, fmt.Errorf("failed to parse seeds: %w", err)
			}
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}

// Run returns a single run by ID. It returns sql.ErrNoRows wrapped in
// a descriptive error when the run doesn't exist.
func (l *Ledger) Run(ctx context.Context, runID int64) (*RunRecord, error) {
	var rec RunRecord
	var startedAt, finished, seedsJSON string
	var dryRun int

	err := l.db.QueryRowContext(ctx, `
	SELECT id, started_at, finished_at, seeds, dry_run,
		pages_visited, pages_matched, pages_failed,
		files_saved, files_skipped, files_failed, bytes_saved
	FROM runs
	WHERE id = ?
	`, runID).Scan(
		&rec.ID, &startedAt, &finished, &seedsJSON, &dryRun,
		&rec.PagesVisited, &rec.PagesMatched, &rec.PagesFailed,
		&rec.FilesSaved, &rec.FilesSkipped, &rec.FilesFailed, &rec.BytesSaved,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", runID, sql.ErrNoRows)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	rec.StartedAt = parseTimestamp(startedAt)
	rec.FinishedAt = parseTimestamp(finished)
	rec.DryRun = dryRun != 0
	if seedsJSON != "" {
		if err := json.Unmarshal([]byte(seedsJSON), &rec.Seeds); err != nil {
			return nil, fmt.Errorf("failed to parse seeds: %w", err)
		}
	}
	return &rec, nil
}

// LatestRun returns the most recent run, or sql.ErrNoRows when the
// ledger is empty.
func (l *Ledger) LatestRun(ctx context.Context) (*RunRecord, error) {
	runs, err := l.Runs(ctx, time.Time{}, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("ledger is empty: %w", sql.ErrNoRows)
	}
	return &runs[0], nil
}

// Files returns the file download attempts recorded for one run, in
// insertion order.
func (l *Ledger) Files(ctx context.Context, runID int64) ([]model.FileRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
	SELECT page_url, file_url, path, size, digest, outcome, error
	FROM files
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var results []model.FileRecord
	for rows.Next() {
		var (
			rec          model.FileRecord
			path, digest sql.NullString
			outcome      string
			errMsg       sql.NullString
		)
		if err := rows.Scan(&rec.PageURL, &rec.FileURL, &path, &rec.Size,
			&digest, &outcome, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan file record: %w", err)
		}
		rec.Path = path.String
		rec.Digest = digest.String
		rec.Outcome = model.FileOutcome(outcome)
		rec.Error = errMsg.String
		results = append(results, rec)
	}

	return results, rows.Err()
}

// Pages returns the page records for one run, in visit order.
func (l *Ledger) Pages(ctx context.Context, runID int64) ([]model.PageRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
	SELECT url, matched, discovered, error
	FROM pages
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var results []model.PageRecord
	for rows.Next() {
		var (
			rec         model.PageRecord
			matchedJSON sql.NullString
			errMsg      sql.NullString
		)
		if err := rows.Scan(&rec.URL, &matchedJSON, &rec.Discovered, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan page record: %w", err)
		}
		if matchedJSON.Valid && matchedJSON.String != "" {
			if err := json.Unmarshal([]byte(matchedJSON.String), &rec.Matched); err != nil {
				return nil, fmt.Errorf("failed to parse matched extractors: %w", err)
			}
		}
		rec.Error = errMsg.String
		results = append(results, rec)
	}

	return results, rows.Err()
}

// IsNotFound reports whether err means a requested run doesn't exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may
// return. The order matters: more specific formats come first.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. If parsing fails with all of them, it returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
