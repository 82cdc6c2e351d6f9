// Package history keeps a small SQLite ledger of past reconciliation
// runs. It is purely additive operator tooling: the reconciliation
// algorithm itself never reads it.
package history

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id          INTEGER PRIMARY KEY,
  started_at  DATETIME NOT NULL,
  finished_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  item_type   TEXT NOT NULL,
  total       INTEGER NOT NULL,
  new_count   INTEGER NOT NULL,
  stale_count INTEGER NOT NULL,
  error_count INTEGER NOT NULL,
  truncated   INTEGER NOT NULL CHECK (truncated IN (0,1))
);
CREATE INDEX IF NOT EXISTS idx_runs_time ON runs(finished_at);
CREATE INDEX IF NOT EXISTS idx_runs_type ON runs(item_type, finished_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Run is one recorded reconciliation pass for one item type.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	ItemType   string
	Total      int
	New        int
	Stale      int
	Errors     int
	Truncated  bool
}

// RecordRun appends a run to the ledger.
func (d *DB) RecordRun(ctx context.Context, r Run) error {
	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now().UTC()
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO runs(started_at, finished_at, item_type, total, new_count, stale_count, error_count, truncated) VALUES(?,?,?,?,?,?,?,?)`,
		r.StartedAt.UTC().Format(timeLayout),
		finished.Format(timeLayout),
		r.ItemType, r.Total, r.New, r.Stale, r.Errors, boolToInt(r.Truncated),
	)
	return err
}

// ListRecentRuns returns the most recent N runs across both item types.
func (d *DB) ListRecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	q := "SELECT started_at, finished_at, item_type, total, new_count, stale_count, error_count, truncated FROM runs ORDER BY finished_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var startedStr, finishedStr string
		var truncatedInt int
		if err := rows.Scan(&startedStr, &finishedStr, &r.ItemType, &r.Total, &r.New, &r.Stale, &r.Errors, &truncatedInt); err != nil {
			return nil, err
		}
		r.StartedAt = parseTimestamp(startedStr)
		r.FinishedAt = parseTimestamp(finishedStr)
		r.Truncated = truncatedInt == 1
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// parseTimestamp handles both the layout we write and SQLite's own
// CURRENT_TIMESTAMP format, falling back to RFC3339.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
