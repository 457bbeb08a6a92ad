package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite persists run snapshots to a sqlite database through the pure-Go
// modernc.org/sqlite driver.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens dsn and ensures the snapshot table exists.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_snapshots (
			run_id        TEXT PRIMARY KEY,
			status        TEXT NOT NULL,
			node_statuses TEXT NOT NULL,
			results       TEXT NOT NULL,
			error         TEXT NOT NULL,
			updated_at    TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

func (s *SQLite) Save(ctx context.Context, snap Snapshot) error {
	nodeStatuses, err := json.Marshal(snap.NodeStatuses)
	if err != nil {
		return fmt.Errorf("store: marshal node statuses: %w", err)
	}
	results, err := json.Marshal(snap.Results)
	if err != nil {
		return fmt.Errorf("store: marshal results: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_snapshots (run_id, status, node_statuses, results, error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status = excluded.status,
			node_statuses = excluded.node_statuses,
			results = excluded.results,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		snap.RunID, snap.Status, string(nodeStatuses), string(results), snap.Error, time.Now())
	if err != nil {
		return fmt.Errorf("store: save snapshot: %w", err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, runID string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, status, node_statuses, results, error, updated_at
		FROM run_snapshots WHERE run_id = ?`, runID)

	var (
		snap                  Snapshot
		nodeStatuses, results string
	)
	if err := row.Scan(&snap.RunID, &snap.Status, &nodeStatuses, &results, &snap.Error, &snap.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("store: load snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(nodeStatuses), &snap.NodeStatuses); err != nil {
		return Snapshot{}, fmt.Errorf("store: unmarshal node statuses: %w", err)
	}
	if err := json.Unmarshal([]byte(results), &snap.Results); err != nil {
		return Snapshot{}, fmt.Errorf("store: unmarshal results: %w", err)
	}
	return snap, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }
