// Package memory provides an in-process key-value store.
// It backs the session-scoped reset flags and the unit tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/simaogato/wealthsim-backend/internal/domain"
)

// KVStore implements domain.KeyValueStore on a map
type KVStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewKVStore creates an empty store
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, domain.ErrNotFound)
	}
	return append([]byte(nil), value...), nil
}

// Put stores a copy of value under key
func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key if present
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// Has reports whether key is present
func (s *KVStore) Has(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[key]
	return ok, nil
}

// Keys returns the stored keys in sorted order
func (s *KVStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
