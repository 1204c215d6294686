package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simaogato/wealthsim-backend/internal/domain"
)

// kvStore implements domain.KeyValueStore
type kvStore struct {
	db *DB
}

// NewKVStore creates a new key-value store backed by the kv_records table
func NewKVStore(db *DB) domain.KeyValueStore {
	return &kvStore{db: db}
}

// Get retrieves the value stored under key
func (r *kvStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM kv_records
		WHERE key = $1
	`

	var value []byte
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no record found for key %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get record %s: %w", key, err)
	}

	return value, nil
}

// Put creates or replaces the value stored under key
func (r *kvStore) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_records (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to put record %s: %w", key, err)
	}

	return nil
}

// Delete removes key
func (r *kvStore) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_records WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", key, err)
	}

	return nil
}

// Has reports whether key is present
func (r *kvStore) Has(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM kv_records WHERE key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check record %s: %w", key, err)
	}

	return exists, nil
}
