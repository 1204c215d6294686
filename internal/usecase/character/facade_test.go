package character

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/wealthsim-backend/internal/adapter/repository/memory"
	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
)

// MockCashLedger is a mock implementation of CashLedger
type MockCashLedger struct {
	mock.Mock
}

func (m *MockCashLedger) SetCash(ctx context.Context, amount decimal.Decimal) {
	m.Called(ctx, amount)
}

func (m *MockCashLedger) TotalCash() decimal.Decimal {
	args := m.Called()
	return args.Get(0).(decimal.Decimal)
}

func amountEq(v int64) any {
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(v)) })
}

func TestFacade_WritesThroughToLedger(t *testing.T) {
	ctx := context.Background()
	ledger := new(MockCashLedger)
	ledger.On("SetCash", mock.Anything, amountEq(7_500)).Once()
	ledger.On("SetCash", mock.Anything, amountEq(20_000)).Once()

	bus := notify.NewBus(nil)
	var events int
	bus.Subscribe(func(notify.Event) { events++ }, notify.CashChanged)

	f := NewFacade(memory.NewKVStore(), ledger, decimal.NewFromInt(10_000), bus, nil)

	got := f.UpdateCash(ctx, decimal.NewFromInt(-2_500))
	assert.True(t, decimal.NewFromInt(7_500).Equal(got))

	f.SetWealth(ctx, decimal.NewFromInt(20_000))
	assert.True(t, decimal.NewFromInt(20_000).Equal(f.Wealth()))

	ledger.AssertExpectations(t)
	assert.Equal(t, 2, events)
}

func TestFacade_AlignDoesNotWriteThrough(t *testing.T) {
	ctx := context.Background()
	ledger := new(MockCashLedger)
	f := NewFacade(memory.NewKVStore(), ledger, decimal.Zero, nil, nil)

	f.Align(ctx, decimal.NewFromInt(3))

	assert.True(t, decimal.NewFromInt(3).Equal(f.Wealth()))
	ledger.AssertNotCalled(t, "SetCash", mock.Anything, mock.Anything)
}

func TestFacade_LoadAndReset(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	f := NewFacade(store, nil, decimal.NewFromInt(10_000), nil, nil)
	f.SetWealth(ctx, decimal.NewFromInt(123))

	reloaded := NewFacade(store, nil, decimal.NewFromInt(10_000), nil, nil)
	reloaded.Load(ctx)
	assert.True(t, decimal.NewFromInt(123).Equal(reloaded.Wealth()))
	assert.Error(t, reloaded.VerifyReset(ctx))

	require.NoError(t, reloaded.Reset(ctx))
	assert.NoError(t, reloaded.VerifyReset(ctx))

	require.NoError(t, store.Delete(ctx, WealthKey))
	fresh := NewFacade(store, nil, decimal.NewFromInt(10_000), nil, nil)
	fresh.Load(ctx)
	assert.True(t, decimal.NewFromInt(10_000).Equal(fresh.Wealth()))
}
