package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/wealthsim-backend/internal/domain"
)

func TestAddRecord_GeneratesID(t *testing.T) {
	l, _ := newTestLedger(t, true)
	id, err := l.AddRecord(context.Background(), domain.OtherInvestment{Name: "Fund", CurrentValue: d(10)})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, l.Holdings().Other[0].ID)
}

func TestAddRecord_RejectsInvalid(t *testing.T) {
	l, _ := newTestLedger(t, true)
	_, err := l.AddRecord(context.Background(), domain.StockHolding{ID: "X", Shares: d(-1)})
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))

	_, err = l.AddRecord(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))
	assert.Empty(t, l.Holdings().Stocks)
}

func TestAddRecord_MergeByID(t *testing.T) {
	ctx := context.Background()

	t.Run("stocks average the purchase price", func(t *testing.T) {
		l, _ := newTestLedger(t, true)
		_, err := l.AddRecord(ctx, domain.StockHolding{ID: "AAPL", Symbol: "AAPL", Shares: d(10), PurchasePrice: d(100), CurrentPrice: d(100)})
		require.NoError(t, err)
		_, err = l.AddRecord(ctx, domain.StockHolding{ID: "AAPL", Shares: d(30), PurchasePrice: d(200), CurrentPrice: d(210)})
		require.NoError(t, err)

		stocks := l.Holdings().Stocks
		require.Len(t, stocks, 1)
		assert.True(t, d(40).Equal(stocks[0].Shares))
		assert.True(t, d(175).Equal(stocks[0].PurchasePrice), "got %s", stocks[0].PurchasePrice)
		assert.True(t, d(210).Equal(stocks[0].CurrentPrice))
	})

	t.Run("closed market keeps stock price on merge", func(t *testing.T) {
		l, _ := newTestLedger(t, false)
		_, err := l.AddRecord(ctx, domain.StockHolding{ID: "AAPL", Shares: d(1), CurrentPrice: d(100)})
		require.NoError(t, err)
		_, err = l.AddRecord(ctx, domain.StockHolding{ID: "AAPL", Shares: d(1), CurrentPrice: d(300)})
		require.NoError(t, err)
		assert.True(t, d(100).Equal(l.Holdings().Stocks[0].CurrentPrice))
	})

	t.Run("property values and mortgage sum", func(t *testing.T) {
		l, _ := newTestLedger(t, true)
		for i := 0; i < 2; i++ {
			_, err := l.AddRecord(ctx, domain.PropertyHolding{ID: "flat", CurrentValue: d(100), Mortgage: d(40)})
			require.NoError(t, err)
		}
		p := l.Holdings().Properties
		require.Len(t, p, 1)
		assert.True(t, d(200).Equal(p[0].CurrentValue))
		assert.True(t, d(80).Equal(p[0].Mortgage))
	})

	t.Run("cash sums into the single record", func(t *testing.T) {
		l, _ := newTestLedger(t, true)
		_, err := l.AddRecord(ctx, domain.CashBalance{Amount: d(500)})
		require.NoError(t, err)
		assert.True(t, d(10_500).Equal(l.TotalCash()))
	})

	t.Run("bonds sum amount and maturity value", func(t *testing.T) {
		l, _ := newTestLedger(t, true)
		for i := 0; i < 2; i++ {
			_, err := l.AddRecord(ctx, domain.BondHolding{ID: "t-bill", Amount: d(1_000), MaturityValue: d(1_050)})
			require.NoError(t, err)
		}
		b := l.Holdings().Bonds[0]
		assert.True(t, d(2_000).Equal(b.Amount))
		assert.True(t, d(2_100).Equal(b.MaturityValue))
	})
}

func TestUpdateRecord(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, true)
	_, err := l.AddRecord(ctx, domain.PropertyHolding{ID: "home", CurrentValue: d(300_000), Mortgage: d(200_000)})
	require.NoError(t, err)

	require.NoError(t, l.UpdateRecord(ctx, domain.CategoryProperties, "home", Fields{FieldMortgage: d(150_000)}))
	assert.True(t, d(150_000).Equal(l.Holdings().Properties[0].Mortgage))

	err = l.UpdateRecord(ctx, domain.CategoryProperties, "home", Fields{FieldShares: d(1)})
	assert.True(t, errors.Is(err, domain.ErrInvalidField))

	err = l.UpdateRecord(ctx, domain.CategoryProperties, "home", Fields{FieldCurrentValue: d(-1)})
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))
	assert.True(t, d(300_000).Equal(l.Holdings().Properties[0].CurrentValue))

	// unknown ids are a logged no-op
	assert.NoError(t, l.UpdateRecord(ctx, domain.CategoryProperties, "ghost", Fields{FieldMortgage: d(1)}))

	err = l.UpdateRecord(ctx, domain.Category("yachts"), "home", nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidRecord))

	require.NoError(t, l.UpdateRecord(ctx, domain.CategoryCash, "", Fields{FieldAmount: d(42)}))
	assert.True(t, d(42).Equal(l.TotalCash()))
}

func TestRemoveRecord(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, true)
	_, err := l.AddRecord(ctx, domain.LifestyleItem{ID: "car", CurrentValue: d(80_000)})
	require.NoError(t, err)
	_, err = l.AddRecord(ctx, domain.LifestyleItem{ID: "watch", CurrentValue: d(5_000)})
	require.NoError(t, err)

	require.NoError(t, l.RemoveRecord(ctx, domain.CategoryLifestyle, "car"))
	items := l.Holdings().Lifestyle
	require.Len(t, items, 1)
	assert.Equal(t, "watch", items[0].ID)

	assert.NoError(t, l.RemoveRecord(ctx, domain.CategoryLifestyle, "car"))
	assert.Error(t, l.RemoveRecord(ctx, domain.CategoryCash, domain.CashRecordID))
}

func TestAssetPrice_Priority(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, true)
	l.prices = fakePrices{"AAPL": d(999)}

	_, err := l.AddRecord(ctx, domain.StockHolding{ID: "s-1", Symbol: "AAPL", Shares: d(1), CurrentPrice: d(150)})
	require.NoError(t, err)
	_, err = l.AddRecord(ctx, domain.StockHolding{ID: "s-2", Symbol: "MSFT", Shares: d(1), CurrentPrice: d(300)})
	require.NoError(t, err)
	_, err = l.AddRecord(ctx, domain.CryptoHolding{ID: "BTC", Symbol: "BTC", Amount: d(1), CurrentPrice: d(60_000)})
	require.NoError(t, err)
	_, err = l.AddRecord(ctx, domain.PropertyHolding{ID: "loft", CurrentValue: d(400_000)})
	require.NoError(t, err)

	assert.True(t, d(999).Equal(l.AssetPrice(ctx, "AAPL")), "price table wins")
	assert.True(t, d(300).Equal(l.AssetPrice(ctx, "msft")))
	assert.True(t, d(60_000).Equal(l.AssetPrice(ctx, "BTC")))
	assert.True(t, d(400_000).Equal(l.AssetPrice(ctx, "loft")))
	assert.True(t, l.AssetPrice(ctx, "nothing").IsZero())
}

func TestUnrealizedGains(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, true)
	_, err := l.AddRecord(ctx, domain.StockHolding{ID: "s", Symbol: "NVDA", Shares: d(4), PurchasePrice: d(100), CurrentPrice: d(90)})
	require.NoError(t, err)

	gains := l.UnrealizedGains()
	require.Len(t, gains, 1)
	assert.True(t, d(-40).Equal(gains[0].Gain))
	assert.True(t, d(400).Equal(gains[0].CostBasis))
}

type fakePrices map[string]decimal.Decimal

func (f fakePrices) Price(_ context.Context, id string) (decimal.Decimal, bool) {
	p, ok := f[id]
	return p, ok
}
