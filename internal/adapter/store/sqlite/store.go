// Package sqlite persists the run marker and a small run history. The
// marker is the only state shared between runs; history exists for
// debugging repeated or suppressed runs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/critique-dev/critique/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS run_markers (
	repo        TEXT    NOT NULL,
	pull_number INTEGER NOT NULL,
	revision    TEXT    NOT NULL,
	updated_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (repo, pull_number)
);

CREATE TABLE IF NOT EXISTS run_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	repo        TEXT    NOT NULL,
	pull_number INTEGER NOT NULL,
	revision    TEXT    NOT NULL,
	outcome     TEXT    NOT NULL,
	findings    INTEGER NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
`

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. Use ":memory:" for
// tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Marker returns the run marker for a change request, or nil when no run
// has completed yet.
func (s *Store) Marker(ctx context.Context, repo string, pullNumber int) (*domain.RunMarker, error) {
	var revision string
	err := s.db.QueryRowContext(ctx,
		`SELECT revision FROM run_markers WHERE repo = ? AND pull_number = ?`,
		repo, pullNumber,
	).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading run marker: %w", err)
	}
	return &domain.RunMarker{RevisionID: revision}, nil
}

// SaveMarker overwrites the marker for a change request. Called only after
// a fully successful run; last writer wins.
func (s *Store) SaveMarker(ctx context.Context, repo string, pullNumber int, revision string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_markers (repo, pull_number, revision, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (repo, pull_number) DO UPDATE SET revision = excluded.revision, updated_at = excluded.updated_at`,
		repo, pullNumber, revision, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving run marker: %w", err)
	}
	return nil
}

// RunRecord is one row of run history.
type RunRecord struct {
	Repo       string
	PullNumber int
	Revision   string
	Outcome    string
	Findings   int
	CreatedAt  time.Time
}

// RecordRun appends a history row. Failures here should be logged, not
// propagated; history is diagnostic only.
func (s *Store) RecordRun(ctx context.Context, record RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_history (repo, pull_number, revision, outcome, findings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.Repo, record.PullNumber, record.Revision, record.Outcome, record.Findings, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// RecentRuns returns the latest history rows for a change request, newest
// first.
func (s *Store) RecentRuns(ctx context.Context, repo string, pullNumber, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT repo, pull_number, revision, outcome, findings, created_at
		 FROM run_history WHERE repo = ? AND pull_number = ?
		 ORDER BY id DESC LIMIT ?`,
		repo, pullNumber, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing run history: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.Repo, &r.PullNumber, &r.Revision, &r.Outcome, &r.Findings, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run history: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
