// Package store persists the run history in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lisa-cli/internal/model"
)

// Store records analysis runs using modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the run-history database at path, configures WAL
// mode, and applies the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	field        TEXT NOT NULL,
	contiguity   TEXT NOT NULL,
	units        INTEGER NOT NULL DEFAULT 0,
	permutations INTEGER NOT NULL,
	alpha        REAL NOT NULL,
	seed         INTEGER NOT NULL,
	hotspots     INTEGER NOT NULL DEFAULT 0,
	coldspots    INTEGER NOT NULL DEFAULT 0,
	outliers     INTEGER NOT NULL DEFAULT 0,
	non_sig      INTEGER NOT NULL DEFAULT 0,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'running',
	error        TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(migration)
	return eris.Wrap(err, "store: migrate")
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run in running state and returns its record.
func (s *Store) CreateRun(ctx context.Context, source, field, contiguity string, permutations int, alpha float64, seed int64) (*model.RunRecord, error) {
	rec := &model.RunRecord{
		ID:           uuid.New().String(),
		Source:       source,
		Field:        field,
		Contiguity:   contiguity,
		Permutations: permutations,
		Alpha:        alpha,
		Seed:         seed,
		Status:       model.RunStatusRunning,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, field, contiguity, permutations, alpha, seed, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.Field, rec.Contiguity, rec.Permutations,
		rec.Alpha, rec.Seed, string(rec.Status), rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert run")
	}
	return rec, nil
}

// FinishRun marks a run completed with its tallies and duration.
func (s *Store) FinishRun(ctx context.Context, id string, units, hotspots, coldspots, outliers, nonSig int, durationMs int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET units = ?, hotspots = ?, coldspots = ?, outliers = ?, non_sig = ?,
		 duration_ms = ?, status = ? WHERE id = ?`,
		units, hotspots, coldspots, outliers, nonSig, durationMs,
		string(model.RunStatusCompleted), id,
	)
	if err != nil {
		return eris.Wrapf(err, "store: finish run %s", id)
	}
	return checkRowsAffected(res, id)
}

// FailRun marks a run failed with the failure reason.
func (s *Store) FailRun(ctx context.Context, id, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ? WHERE id = ?`,
		string(model.RunStatusFailed), reason, id,
	)
	if err != nil {
		return eris.Wrapf(err, "store: fail run %s", id)
	}
	return checkRowsAffected(res, id)
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, field, contiguity, units, permutations, alpha, seed,
		        hotspots, coldspots, outliers, non_sig, duration_ms, status, error, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close()

	var recs []model.RunRecord
	for rows.Next() {
		var r model.RunRecord
		var status string
		if err := rows.Scan(
			&r.ID, &r.Source, &r.Field, &r.Contiguity, &r.Units, &r.Permutations,
			&r.Alpha, &r.Seed, &r.Hotspots, &r.Coldspots, &r.Outliers, &r.NonSig,
			&r.DurationMs, &status, &r.Error, &r.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan run")
		}
		r.Status = model.RunStatus(status)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate runs")
	}
	return recs, nil
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: run %s not found", id)
	}
	return nil
}
