// Package archive is the pipeline's provenance store: an SQLite database
// recording one row per HTTP fetch attempt and one row per stage run.
//
// The dataset artifacts carry only the immutable fetch meta; everything
// else that happened on the way to an artifact (retries, fallbacks, stage
// timings, failures) lives here, where it can be queried after the fact.
// Recording is best-effort by contract: a failing archive must never fail
// a stage.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS fetches (
    id           TEXT PRIMARY KEY,
    kind         TEXT NOT NULL,
    language     TEXT NOT NULL DEFAULT '',
    page         TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL,
    status       INTEGER NOT NULL DEFAULT 0,
    bytes        INTEGER NOT NULL DEFAULT 0,
    content_hash TEXT NOT NULL DEFAULT '',
    error        TEXT NOT NULL DEFAULT '',
    duration_ms  INTEGER NOT NULL DEFAULT 0,
    fetched_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetches_time ON fetches(fetched_at DESC);

CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    stage       TEXT NOT NULL,
    input       TEXT NOT NULL DEFAULT '',
    output      TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT '',
    started_at  INTEGER NOT NULL,
    finished_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_runs_time ON runs(started_at DESC);
`

// Store wraps the provenance database.
type Store struct {
	db *sql.DB
}

// Fetch is one recorded HTTP attempt. Timestamps are unix milliseconds.
type Fetch struct {
	ID          string
	Kind        string
	Language    string
	Page        string
	URL         string
	Status      int
	Bytes       int
	ContentHash string
	Error       string
	DurationMs  int64
	FetchedAt   int64
}

// Run is one recorded stage execution. FinishedAt is zero while running.
type Run struct {
	ID         string
	Stage      string
	Input      string
	Output     string
	Status     string // running | ok | error
	Detail     string
	StartedAt  int64
	FinishedAt int64
}

// newID returns a time-sortable row id, so "recent" queries and raw table
// scans agree on ordering.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// RecordFetch inserts one fetch attempt. A zero ID or FetchedAt is filled
// in.
func (s *Store) RecordFetch(ctx context.Context, f Fetch) error {
	if f.ID == "" {
		f.ID = newID()
	}
	if f.FetchedAt == 0 {
		f.FetchedAt = time.Now().UnixMilli()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fetches (id, kind, language, page, url, status, bytes,
		content_hash, error, duration_ms, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Kind, f.Language, f.Page, f.URL, f.Status, f.Bytes,
		f.ContentHash, f.Error, f.DurationMs, f.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("archive: record fetch: %w", err)
	}
	return nil
}

// RecentFetches returns fetch rows, newest first.
func (s *Store) RecentFetches(ctx context.Context, limit int) ([]Fetch, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, language, page, url, status, bytes, content_hash,
		error, duration_ms, fetched_at
		FROM fetches ORDER BY fetched_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: query fetches: %w", err)
	}
	defer rows.Close()

	var result []Fetch
	for rows.Next() {
		var f Fetch
		if err := rows.Scan(&f.ID, &f.Kind, &f.Language, &f.Page, &f.URL,
			&f.Status, &f.Bytes, &f.ContentHash, &f.Error, &f.DurationMs, &f.FetchedAt); err != nil {
			return nil, fmt.Errorf("archive: scan fetch: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// BeginRun opens a run record for a stage and returns its id.
func (s *Store) BeginRun(ctx context.Context, stage, input string) (string, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, stage, input, status, started_at)
		VALUES (?, ?, ?, 'running', ?)`,
		id, stage, input, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("archive: begin run: %w", err)
	}
	return id, nil
}

// EndRun closes a run record: status ok on a nil error, otherwise status
// error with the message in detail.
func (s *Store) EndRun(ctx context.Context, id, output string, runErr error) error {
	status, detail := "ok", ""
	if runErr != nil {
		status, detail = "error", runErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET output = ?, status = ?, detail = ?, finished_at = ?
		WHERE id = ?`,
		output, status, detail, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("archive: end run: %w", err)
	}
	return nil
}

// RecentRuns returns run rows, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stage, input, output, status, detail, started_at,
		COALESCE(finished_at, 0)
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: query runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Stage, &r.Input, &r.Output, &r.Status,
			&r.Detail, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("archive: scan run: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
