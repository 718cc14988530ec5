// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal keeps a per-output-directory SQLite history of phase
// executions across all invocations. The journal is best-effort: it feeds
// the verbose status view and the diagnostics bundle, and a journal failure
// is only ever a warning to the caller.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// DBFileName is the journal database inside the output directory.
const DBFileName = ".journal.db"

// Entry is one recorded phase execution.
type Entry struct {
	ID        int64
	Phase     int
	Step      string
	Status    types.StepStatus
	Duration  time.Duration
	Message   string
	StartedAt time.Time
}

// Journal records phase executions for one output directory.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database in dir.
func Open(dir string) (*Journal, error) {
	path := filepath.Join(dir, DBFileName)
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	_, err := j.db.Exec(`CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		phase INTEGER NOT NULL,
		step TEXT,
		status TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		message TEXT,
		started_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Record appends one execution row.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	startedAt := e.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO executions (phase, step, status, duration_ms, message, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Phase, e.Step, string(e.Status), e.Duration.Milliseconds(), e.Message,
		startedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording execution: %w", err)
	}
	return nil
}

// History returns all recorded executions, oldest first.
func (j *Journal) History(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, phase, step, status, duration_ms, message, started_at
		 FROM executions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status, startedAt string
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.Phase, &e.Step, &status, &durationMS, &e.Message, &startedAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Status = types.StepStatus(status)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			e.StartedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastRun returns the most recent execution per phase, keyed by phase.
func (j *Journal) LastRun(ctx context.Context) (map[int]Entry, error) {
	entries, err := j.History(ctx)
	if err != nil {
		return nil, err
	}
	last := map[int]Entry{}
	for _, e := range entries {
		last[e.Phase] = e
	}
	return last, nil
}
