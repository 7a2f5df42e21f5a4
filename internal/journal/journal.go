// Package journal records commit attempts in an embedded SQLite database.
//
// Every attempt the scheduler makes (committed, nothing to commit or failed)
// becomes one row, so `nbake history` can show what was saved and when even
// though the scheduler itself keeps no state across restarts.
//
// The database runs in WAL mode so the CLI can read while a running
// scheduler writes.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DefaultLimit is the number of entries Recent returns when limit <= 0.
const DefaultLimit = 20

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded commit attempt.
type Entry struct {
	ID        int64
	Path      string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   string
	Head      string
	Error     string
}

// Journal wraps the SQLite connection.
type Journal struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the journal at path and ensures its schema.
//
// The caller MUST call Close() when done.
//
// Example:
//
//	j, err := journal.Open(filepath.Join(dataDir, "journal.db"))
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
func Open(path string) (*Journal, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	// One writer at a time; SQLite serializes writes anyway.
	conn.SetMaxOpenConns(1)

	j := &Journal{conn: conn, path: path}

	// Enable WAL mode for concurrent reads
	if _, err := j.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout to 5 seconds
	if _, err := j.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := j.InitSchema(context.Background()); err != nil {
		_ = j.Close()
		return nil, err
	}

	return j, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database connection.
// Performs a WAL checkpoint to ensure all changes are persisted.
func (j *Journal) Close() error {
	if j.conn == nil {
		return nil
	}

	// Checkpoint WAL before closing
	if _, err := j.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := j.conn.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}

	j.conn = nil
	return nil
}

// InitSchema creates the commits table if it doesn't exist.
// This is idempotent.
func (j *Journal) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS commits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,  -- committed, nothing, failed
		head TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_commits_path ON commits(path, started_at);
	CREATE INDEX IF NOT EXISTS idx_commits_started ON commits(started_at);
	`

	if _, err := j.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record inserts e and returns its row ID.
func (j *Journal) Record(ctx context.Context, e Entry) (int64, error) {
	res, err := j.conn.ExecContext(ctx, `
		INSERT INTO commits (path, started_at, duration_ms, outcome, head, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		e.Path,
		e.StartedAt.UTC().Format(timeFormat),
		e.Duration.Milliseconds(),
		e.Outcome,
		nullString(e.Head),
		nullString(e.Error),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record commit for %s: %w", e.Path, err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first. An empty path returns
// entries for every target.
func (j *Journal) Recent(ctx context.Context, path string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `
		SELECT id, path, started_at, duration_ms, outcome, head, error
		FROM commits
	`
	args := []any{}
	if path != "" {
		query += " WHERE path = ?"
		args = append(args, path)
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			startedAt  string
			durationMs int64
			head, msg  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Path, &startedAt, &durationMs, &e.Outcome, &head, &msg); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		e.StartedAt, err = time.Parse(timeFormat, startedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.Head = head.String
		e.Error = msg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
