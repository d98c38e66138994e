// Package status persists a small per-channel download history so
// `r4fuse status` can report what the last run of each channel did
// without re-running it.
package status

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type RunSummary struct {
	Slug       string
	Downloaded int
	Skipped    int
	Failed     int
	FinishedAt time.Time
}

type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("status: create dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("status: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("status: ping: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			slug        TEXT NOT NULL,
			downloaded  INTEGER NOT NULL,
			skipped     INTEGER NOT NULL,
			failed      INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS runs_slug_finished_at ON runs (slug, finished_at DESC);
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("status: ensure schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun appends one row per completed download job. Satisfies
// downloadjob.Recorder.
func (s *Store) RecordRun(slug string, downloaded, skipped, failed int, finishedAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (slug, downloaded, skipped, failed, finished_at) VALUES (?, ?, ?, ?, ?)`,
		slug, downloaded, skipped, failed, finishedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("status: record run for %s: %w", slug, err)
	}
	return nil
}

// LastRun returns the most recent row recorded for slug, if any.
func (s *Store) LastRun(slug string) (RunSummary, bool, error) {
	var summary RunSummary
	var finishedAtUnix int64
	row := s.db.QueryRow(
		`SELECT slug, downloaded, skipped, failed, finished_at FROM runs WHERE slug = ? ORDER BY finished_at DESC LIMIT 1`,
		slug,
	)
	if err := row.Scan(&summary.Slug, &summary.Downloaded, &summary.Skipped, &summary.Failed, &finishedAtUnix); err != nil {
		if err == sql.ErrNoRows {
			return RunSummary{}, false, nil
		}
		return RunSummary{}, false, fmt.Errorf("status: last run for %s: %w", slug, err)
	}
	summary.FinishedAt = time.Unix(finishedAtUnix, 0)
	return summary, true, nil
}

// RecentRuns returns the most recent row per distinct slug, newest first,
// capped at limit slugs.
func (s *Store) RecentRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT slug, downloaded, skipped, failed, MAX(finished_at) AS finished_at
		FROM runs
		GROUP BY slug
		ORDER BY finished_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("status: recent runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var summary RunSummary
		var finishedAtUnix int64
		if err := rows.Scan(&summary.Slug, &summary.Downloaded, &summary.Skipped, &summary.Failed, &finishedAtUnix); err != nil {
			return nil, fmt.Errorf("status: scan run: %w", err)
		}
		summary.FinishedAt = time.Unix(finishedAtUnix, 0)
		out = append(out, summary)
	}
	return out, rows.Err()
}
