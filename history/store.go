package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dendrascience/contentsync/contentsync"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrRunNotFound is returned by Actions for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one row of the runs table.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time
	DryRun   bool
	Copied   int
	Deleted  int
	Failed   int
}

// Duration returns the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Entry is one row of the actions table: a copy, a deletion or a failure.
type Entry struct {
	RunID    string
	Phase    contentsync.Phase
	Category string
	Op       contentsync.Op
	Name     string
	Hash     string
	DryRun   bool
	Error    string // empty for successful actions
}

// Store is the SQLite backed run ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the ledger at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		dry_run INTEGER NOT NULL,
		copied INTEGER NOT NULL,
		deleted INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS actions (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		phase TEXT NOT NULL,
		category TEXT NOT NULL,
		op TEXT NOT NULL,
		name TEXT NOT NULL,
		hash TEXT NOT NULL DEFAULT '',
		dry_run INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_actions_name ON actions(name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Observe records a finished run. It implements contentsync.Observer.
func (s *Store) Observe(ctx context.Context, report *contentsync.Report) error {
	copied, deleted, failed := report.Totals()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, dry_run, copied, deleted, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Started.UnixNano(), report.Finished.UnixNano(),
		report.DryRun, copied, deleted, failed)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", report.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO actions (run_id, seq, phase, category, op, name, hash, dry_run, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare action statement: %w", err)
	}
	defer stmt.Close()

	seq := 0
	for _, cr := range report.Categories() {
		for _, a := range cr.Actions {
			seq++
			if _, err := stmt.ExecContext(ctx, report.RunID, seq, string(cr.Phase), a.Category, string(a.Op), a.Name, a.Hash, a.DryRun, ""); err != nil {
				return fmt.Errorf("failed to insert action: %w", err)
			}
		}
		for _, f := range cr.Failures {
			seq++
			if _, err := stmt.ExecContext(ctx, report.RunID, seq, string(cr.Phase), f.Category, string(f.Op), filepath.Base(f.Path), "", report.DryRun, f.Err.Error()); err != nil {
				return fmt.Errorf("failed to insert failure: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, dry_run, copied, deleted, failed
		FROM runs
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &started, &finished, &r.DryRun, &r.Copied, &r.Deleted, &r.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Started = time.Unix(0, started)
		r.Finished = time.Unix(0, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Actions returns the recorded entries of one run in the order they happened.
func (s *Store) Actions(ctx context.Context, runID string) ([]Entry, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, phase, category, op, name, hash, dry_run, error
		FROM actions
		WHERE run_id = ?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RunID, &e.Phase, &e.Category, &e.Op, &e.Name, &e.Hash, &e.DryRun, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes runs that started before cutoff, with their actions.
// It returns the number of runs removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM actions WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`,
		cutoff.UnixNano()); err != nil {
		return 0, fmt.Errorf("failed to prune actions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}
