package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQL persists run snapshots to a MySQL/MariaDB database, for deployments
// where several engine instances share one downstream store.
type MySQL struct {
	db *sql.DB
}

// NewMySQL opens dsn (a go-sql-driver/mysql DSN) and ensures the snapshot
// table exists.
func NewMySQL(dsn string) (*MySQL, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open mysql: %w", err)
	}
	s := &MySQL{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MySQL) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS run_snapshots (
			run_id        VARCHAR(191) PRIMARY KEY,
			status        VARCHAR(32) NOT NULL,
			node_statuses JSON NOT NULL,
			results       JSON NOT NULL,
			error         TEXT NOT NULL,
			updated_at    DATETIME NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

func (s *MySQL) Save(ctx context.Context, snap Snapshot) error {
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
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			node_statuses = VALUES(node_statuses),
			results = VALUES(results),
			error = VALUES(error),
			updated_at = VALUES(updated_at)`,
		snap.RunID, snap.Status, string(nodeStatuses), string(results), snap.Error, time.Now())
	if err != nil {
		return fmt.Errorf("store: save snapshot: %w", err)
	}
	return nil
}

func (s *MySQL) Load(ctx context.Context, runID string) (Snapshot, error) {
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
func (s *MySQL) Close() error { return s.db.Close() }
