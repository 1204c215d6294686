// Package kvjson stores JSON documents in a domain.KeyValueStore.
// Every failure it returns wraps domain.ErrPersistence.
package kvjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/simaogato/wealthsim-backend/internal/domain"
)

// Load decodes the document stored under key into v.
// It reports false without error when the key is absent.
func Load(ctx context.Context, store domain.KeyValueStore, key string, v any) (bool, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: read %s: %v", domain.ErrPersistence, key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", domain.ErrPersistence, key, err)
	}
	return true, nil
}

// Save encodes v and stores it under key
func Save(ctx context.Context, store domain.KeyValueStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrPersistence, key, err)
	}
	if err := store.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("%w: write %s: %v", domain.ErrPersistence, key, err)
	}
	return nil
}

// Remove deletes key and confirms it is gone
func Remove(ctx context.Context, store domain.KeyValueStore, key string) error {
	if err := store.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", domain.ErrPersistence, key, err)
	}
	return nil
}

// Present reports whether key is stored
func Present(ctx context.Context, store domain.KeyValueStore, key string) (bool, error) {
	ok, err := store.Has(ctx, key)
	if err != nil {
		return false, fmt.Errorf("%w: check %s: %v", domain.ErrPersistence, key, err)
	}
	return ok, nil
}
