package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/wealthsim-backend/internal/domain"
)

func openTestStore(t *testing.T) *KVStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "wealthsim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestKVStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.Get(ctx, "ledger.snapshot")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, store.Put(ctx, "ledger.snapshot", []byte(`{"v":1}`)))
	require.NoError(t, store.Put(ctx, "ledger.snapshot", []byte(`{"v":2}`)))

	value, err := store.Get(ctx, "ledger.snapshot")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(value))

	ok, err := store.Has(ctx, "ledger.snapshot")
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ledger.snapshot"}, keys)

	require.NoError(t, store.Delete(ctx, "ledger.snapshot"))
	require.NoError(t, store.Delete(ctx, "ledger.snapshot"))

	ok, err = store.Has(ctx, "ledger.snapshot")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKVStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wealthsim.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "character.wealth", []byte(`"10000"`)))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get(ctx, "character.wealth")
	require.NoError(t, err)
	assert.Equal(t, `"10000"`, string(value))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}
