// Package sqlite provides SQLite-backed storage for the game state.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/simaogato/wealthsim-backend/internal/domain"
)

// KVStore implements domain.KeyValueStore on a single SQLite table
type KVStore struct {
	conn *sqlx.DB
	now  func() time.Time
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*KVStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY between them.
	conn.SetMaxOpenConns(1)

	store := &KVStore{conn: conn, now: time.Now}
	if err := store.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

// Close closes the database connection
func (s *KVStore) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *KVStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv_records (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Get retrieves the value stored under key
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.conn.GetContext(ctx, &value, "SELECT value FROM kv_records WHERE key = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Put creates or replaces the value stored under key
func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO kv_records (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM kv_records WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Has reports whether key is present
func (s *KVStore) Has(ctx context.Context, key string) (bool, error) {
	var count int
	if err := s.conn.GetContext(ctx, &count, "SELECT COUNT(1) FROM kv_records WHERE key = ?", key); err != nil {
		return false, fmt.Errorf("has %s: %w", key, err)
	}
	return count > 0, nil
}

// Keys lists every stored key in order
func (s *KVStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.conn.SelectContext(ctx, &keys, "SELECT key FROM kv_records ORDER BY key"); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}
