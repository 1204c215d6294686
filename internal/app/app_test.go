package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/wealthsim-backend/internal/adapter/repository/memory"
	"github.com/simaogato/wealthsim-backend/internal/config"
	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/dashboard"
	"github.com/simaogato/wealthsim-backend/internal/usecase/market"
	"github.com/simaogato/wealthsim-backend/internal/usecase/ownership"
	"github.com/simaogato/wealthsim-backend/internal/usecase/refresh"
	"github.com/simaogato/wealthsim-backend/internal/usecase/seeder"
)

func newTestApp(t *testing.T, cfg refresh.Config) (*App, *memory.KVStore) {
	t.Helper()
	store := memory.NewKVStore()
	a := New(Options{
		Store:        store,
		StartingCash: decimal.NewFromInt(10_000),
		Market:       market.Fixed(true),
		Refresh:      cfg,
	})
	t.Cleanup(a.Close)
	return a, store
}

func TestApp_StartSeedsAndRefreshes(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, refresh.Config{Debounce: time.Hour})

	res := a.Start(ctx)
	require.Equal(t, refresh.StatusCompleted, res.Status)
	assert.True(t, decimal.NewFromInt(10_000).Equal(res.Snapshot.TotalNetWorth))
	assert.Len(t, a.Prices.Quotes(), len(seeder.DefaultQuotes))

	price := a.Ledger.AssetPrice(ctx, "nvda")
	assert.True(t, decimal.NewFromInt(120).Equal(price))
}

func TestApp_EndToEnd(t *testing.T) {
	ctx := context.Background()
	a, store := newTestApp(t, refresh.Config{Debounce: time.Hour, Throttle: time.Hour})
	require.NoError(t, store.Put(ctx, ownership.HorsesKey,
		[]byte(`[{"id": "h1", "name": "Thunder", "price": 175000, "earnings": 20000}]`)))
	a.Start(ctx)

	_, err := a.Ledger.AddRecord(ctx, domain.PropertyHolding{
		ID:           "home",
		Name:         "Lake House",
		CurrentValue: decimal.NewFromInt(500_000),
		Mortgage:     decimal.NewFromInt(400_000),
	})
	require.NoError(t, err)
	a.Character.UpdateCash(ctx, decimal.NewFromInt(-2_500))

	res := a.Refresh.TriggerRefresh(ctx, refresh.Request{Source: "test", Force: true})
	require.Equal(t, refresh.StatusCompleted, res.Status)
	assert.False(t, res.Corrected)

	nw, err := a.Dashboard.GetNetWorth(ctx)
	require.NoError(t, err)
	assert.Equal(t, dashboard.SourceCache, nw.Source)
	// 7,500 cash + 100,000 equity + 195,000 horse
	assert.True(t, decimal.NewFromInt(302_500).Equal(nw.Total), "got %s", nw.Total)
	assert.True(t, decimal.NewFromInt(7_500).Equal(nw.Liquidity))
	assert.Equal(t, "Comfortable", nw.Tier.Name)

	assert.NotEmpty(t, a.Journal.Recent(0))
	assert.NotEmpty(t, a.Ledger.History())

	// Reset returns every component to its defaults
	report := a.PerformCompleteReset(ctx)
	require.True(t, report.Clean(), "failures: %v", report.Failures)

	nw, err = a.Dashboard.GetNetWorth(ctx)
	require.NoError(t, err)
	assert.Equal(t, dashboard.SourceLedger, nw.Source)
	assert.True(t, decimal.NewFromInt(10_000).Equal(nw.Total), "got %s", nw.Total)
	assert.True(t, a.Character.Wealth().Equal(a.Ledger.TotalCash()))
	assert.True(t, a.Ownership.TotalOwnershipValue(ctx).IsZero())
	assert.Equal(t, 0, a.Clock.Day())
	assert.Empty(t, a.Ledger.History())
	assert.Len(t, a.Prices.Quotes(), len(seeder.DefaultQuotes))

	has, err := store.Has(ctx, ownership.HorsesKey)
	require.NoError(t, err)
	assert.False(t, has)

	// The first refresh after the reset is not throttled, the next one is
	res = a.Refresh.TriggerRefresh(ctx, refresh.Request{Source: "test"})
	assert.Equal(t, refresh.StatusCompleted, res.Status)
	res = a.Refresh.TriggerRefresh(ctx, refresh.Request{Source: "test"})
	assert.Equal(t, refresh.ReasonThrottled, res.Reason)
}

func TestApp_ResetTwiceIsStable(t *testing.T) {
	ctx := context.Background()
	a, store := newTestApp(t, refresh.Config{Debounce: time.Hour})
	a.Start(ctx)

	_, err := a.Ledger.AddRecord(ctx, domain.StockHolding{ID: "AAPL", Shares: decimal.NewFromInt(3), CurrentPrice: decimal.NewFromInt(190)})
	require.NoError(t, err)

	first := a.PerformCompleteReset(ctx)
	keysAfterFirst := store.Keys()
	second := a.PerformCompleteReset(ctx)

	assert.True(t, first.Clean())
	assert.True(t, second.Clean())
	assert.Equal(t, keysAfterFirst, store.Keys())
	assert.Equal(t, 0, a.Ledger.Holdings().Len(domain.CategoryStocks))
}

func TestApp_ChangesScheduleRefresh(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, refresh.Config{Debounce: 10 * time.Millisecond})
	a.Start(ctx)

	_, err := a.Ledger.AddRecord(ctx, domain.LifestyleItem{ID: "car", Name: "Roadster", CurrentValue: decimal.NewFromInt(40_000)})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return decimal.NewFromInt(50_000).Equal(a.Ledger.NetWorthBreakdown().TotalNetWorth)
	}, time.Second, 5*time.Millisecond)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Store:        config.StoreSQLite,
		StartingCash: "2500.50",
		MarketTZ:     "UTC",
		Throttle:     time.Second,
		FreshViews:   []string{"portfolio"},
	}

	opts, err := OptionsFromConfig(cfg, memory.NewKVStore())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2500.50").Equal(opts.StartingCash))
	assert.Equal(t, time.Second, opts.Refresh.Throttle)
	assert.Equal(t, []string{"portfolio"}, opts.Refresh.FreshViews)

	cfg.StartingCash = "lots"
	_, err = OptionsFromConfig(cfg, nil)
	assert.Error(t, err)
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := &config.Config{Store: config.StoreSQLite, SQLitePath: t.TempDir() + "/game.db"}
	store, closer, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closer.Close()

	require.NoError(t, store.Put(context.Background(), "k", []byte("v")))

	_, _, err = OpenStore(context.Background(), &config.Config{Store: "floppy"})
	assert.Error(t, err)
}
