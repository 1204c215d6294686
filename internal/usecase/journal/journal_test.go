package journal

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/wealthsim-backend/internal/adapter/repository/memory"
	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
)

func TestJournal_CapacityDropsOldest(t *testing.T) {
	ctx := context.Background()
	j := NewJournal(memory.NewKVStore(), 3, nil)

	for i := 0; i < 5; i++ {
		j.Append(ctx, Entry{Kind: "records.changed", ID: fmt.Sprintf("r%d", i)})
	}

	recent := j.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "r4", recent[0].ID)
	assert.Equal(t, "r2", recent[2].ID)
	assert.Len(t, j.Recent(1), 1)
}

func TestJournal_AttachRecordsBusEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	bus := notify.NewBus(nil)

	j := NewJournal(store, 0, nil)
	detach := j.Attach(bus)

	bus.Publish(notify.Event{Kind: notify.RecordsChanged, Category: "stocks", ID: "AAPL", Detail: "add"})
	bus.Publish(notify.Event{Kind: notify.TimeAdvanced})
	detach()
	bus.Publish(notify.Event{Kind: notify.CashChanged})

	recent := j.Recent(10)
	require.Len(t, recent, 1)
	assert.Equal(t, "AAPL", recent[0].ID)

	reloaded := NewJournal(store, 0, nil)
	reloaded.Load(ctx)
	assert.Len(t, reloaded.Recent(10), 1)
}

func TestJournal_ResetAndVerify(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	j := NewJournal(store, 0, nil)
	j.Append(ctx, Entry{Kind: "cash.changed"})

	require.NoError(t, j.Reset(ctx))
	assert.Error(t, j.VerifyReset(ctx))

	require.NoError(t, store.Delete(ctx, JournalKey))
	assert.NoError(t, j.VerifyReset(ctx))
}
