// Package postgres provides sqlx-backed persistence adapters.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"vitals/ports"
)

// assignmentStore implements ports.AssignmentStore on Postgres. Records
// are plain key/value rows; the assignment engine owns the JSON payload
// format, exactly as it would against browser storage.
type assignmentStore struct {
	db *sqlx.DB
}

// NewAssignmentStore creates a Postgres assignment store.
func NewAssignmentStore(db *sqlx.DB) ports.AssignmentStore {
	return &assignmentStore{db: db}
}

// Get returns the stored value for key.
func (s *assignmentStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM assignment_records WHERE key = $1`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read assignment record: %w", err)
	}
	return value, true, nil
}

// Set upserts the value under key.
func (s *assignmentStore) Set(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assignment_records (key, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write assignment record: %w", err)
	}
	return nil
}

// Delete removes key if present.
func (s *assignmentStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM assignment_records WHERE key = $1`, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete assignment record: %w", err)
	}
	return nil
}
