package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/simaogato/wealthsim-backend/internal/adapter/repository/memory"
)

func TestFlags_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := NewFlags(memory.NewKVStore(), nil)

	assert.False(t, f.InProgress(ctx))
	assert.False(t, f.JustCompleted(ctx))

	f.MarkInProgress(ctx)
	assert.True(t, f.InProgress(ctx))
	assert.False(t, f.JustCompleted(ctx))

	f.MarkCompleted(ctx)
	assert.False(t, f.InProgress(ctx))
	assert.True(t, f.JustCompleted(ctx))

	f.Acknowledge(ctx)
	assert.False(t, f.JustCompleted(ctx))
}

func TestFlags_MarkInProgressDropsStaleCompleted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	f := NewFlags(store, nil)

	f.MarkCompleted(ctx)
	f.MarkInProgress(ctx)

	assert.Equal(t, []string{ResetInProgressKey}, store.Keys())

	f.Clear(ctx)
	assert.Empty(t, store.Keys())
}
