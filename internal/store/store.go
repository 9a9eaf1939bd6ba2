// Package store keeps a SQLite history of extraction runs and the records they produced.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/llmmapper/internal/model"
	"github.com/ppiankov/llmmapper/internal/util"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run id has no entry in the history
var ErrRunNotFound = errors.New("run not found")

// Store is a SQLite-backed run history
type Store struct {
	db     *sql.DB
	dbPath string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	source          TEXT NOT NULL,
	lines           INTEGER NOT NULL,
	chunks          INTEGER NOT NULL,
	skipped_chunks  INTEGER NOT NULL,
	fallback_chunks INTEGER NOT NULL,
	records         INTEGER NOT NULL,
	started_at      TEXT NOT NULL,
	finished_at     TEXT NOT NULL,
	duration_ms     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	run_id       TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	release_date TEXT,
	season       TEXT,
	confidence   REAL NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Open opens (and creates if needed) the database at path.
// Pass ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	path = util.ExpandPath(path)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, dbPath: path}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a finished run and its records in one transaction
func (s *Store) SaveRun(ctx context.Context, stats model.RunStats, records model.ResultSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, source, lines, chunks, skipped_chunks, fallback_chunks, records, started_at, finished_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.RunID, stats.Source, stats.Lines, stats.Chunks, stats.SkippedChunks, stats.FallbackChunks,
		len(records), formatTime(stats.StartedAt), formatTime(stats.FinishedAt), stats.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (run_id, position, release_date, season, confidence)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare records: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range records {
		releaseDate, err := encodeValue(r.ReleaseDate)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		season, err := encodeValue(r.Season)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, stats.RunID, i, releaseDate, season, r.Confidence); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunStats, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, source, lines, chunks, skipped_chunks, fallback_chunks, records, started_at, finished_at, duration_ms
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.RunStats
	for rows.Next() {
		var (
			stats                 model.RunStats
			startedAt, finishedAt string
			durationMs            int64
		)
		if err := rows.Scan(&stats.RunID, &stats.Source, &stats.Lines, &stats.Chunks, &stats.SkippedChunks,
			&stats.FallbackChunks, &stats.Records, &startedAt, &finishedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		stats.StartedAt = parseTime(startedAt)
		stats.FinishedAt = parseTime(finishedAt)
		stats.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, stats)
	}
	return runs, rows.Err()
}

// RunRecords returns the records of one run in output order
func (s *Store) RunRecords(ctx context.Context, runID string) (model.ResultSet, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE run_id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT release_date, season, confidence
		FROM records
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := model.ResultSet{}
	for rows.Next() {
		var (
			releaseDate, season sql.NullString
			r                   model.Record
		)
		if err := rows.Scan(&releaseDate, &season, &r.Confidence); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if r.ReleaseDate, err = decodeValue(releaseDate); err != nil {
			return nil, err
		}
		if r.Season, err = decodeValue(season); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// encodeValue stores a field as JSON text so strings, numbers and nested values round-trip.
// nil becomes SQL NULL.
func encodeValue(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode value: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeValue(ns sql.NullString) (any, error) {
	if !ns.Valid {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(ns.String)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
