package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/kvjson"
	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
)

// fold sums every category of h into a snapshot without a version stamp.
// TotalNetWorth is always the sum of the named components.
func fold(h domain.Holdings, ownership decimal.Decimal, tiers domain.TierTable) domain.AggregateSnapshot {
	s := domain.AggregateSnapshot{
		TotalCash:             h.Cash.Amount,
		TotalStocks:           decimal.Zero,
		TotalCrypto:           decimal.Zero,
		TotalBonds:            decimal.Zero,
		TotalOtherInvestments: decimal.Zero,
		TotalPropertyValue:    decimal.Zero,
		TotalPropertyDebt:     decimal.Zero,
		TotalPropertyEquity:   decimal.Zero,
		TotalLifestyleValue:   decimal.Zero,
		TotalOwnershipValue:   ownership,
	}

	for _, st := range h.Stocks {
		s.TotalStocks = s.TotalStocks.Add(st.MarketValue())
	}
	for _, c := range h.Crypto {
		s.TotalCrypto = s.TotalCrypto.Add(c.MarketValue())
	}
	for _, b := range h.Bonds {
		s.TotalBonds = s.TotalBonds.Add(b.TotalValue())
	}
	for _, o := range h.Other {
		s.TotalOtherInvestments = s.TotalOtherInvestments.Add(o.CurrentValue)
	}
	for _, p := range h.Properties {
		s.TotalPropertyValue = s.TotalPropertyValue.Add(p.CurrentValue)
		s.TotalPropertyDebt = s.TotalPropertyDebt.Add(p.Mortgage)
		s.TotalPropertyEquity = s.TotalPropertyEquity.Add(p.Equity())
	}
	for _, li := range h.Lifestyle {
		s.TotalLifestyleValue = s.TotalLifestyleValue.Add(li.CurrentValue)
	}

	s.TotalNetWorth = s.ComponentSum()
	s.WealthTier = tiers.Classify(s.TotalNetWorth)
	return s
}

func (l *Ledger) ownershipValue(ctx context.Context) decimal.Decimal {
	if l.ownership == nil {
		return decimal.Zero
	}
	return l.ownership.TotalOwnershipValue(ctx)
}

// nextVersionLocked returns a nanosecond stamp strictly greater than the last one
func (l *Ledger) nextVersionLocked() int64 {
	v := l.now().UnixNano()
	if v <= l.lastVersion {
		v = l.lastVersion + 1
	}
	l.lastVersion = v
	return v
}

// RecalculateTotals recomputes the snapshot from the current records,
// persists it with the net-worth breakdown cache and records a history point.
// Two calls without an intervening mutation differ only in Version.
func (l *Ledger) RecalculateTotals(ctx context.Context) domain.AggregateSnapshot {
	l.mu.Lock()

	// 1. Fold the records with the ownership total
	snap := fold(l.holdings, l.ownershipValue(ctx), l.tiers)
	snap.Version = l.nextVersionLocked()
	l.snapshot = snap

	// 2. Record the history point
	l.history = append(l.history, domain.NetWorthPoint{
		At:       snap.VersionTime(),
		NetWorth: snap.TotalNetWorth,
		Cash:     snap.TotalCash,
		TierRank: snap.WealthTier.Rank,
		Version:  snap.Version,
	})
	if over := len(l.history) - l.historyLimit; over > 0 {
		l.history = append([]domain.NetWorthPoint(nil), l.history[over:]...)
	}

	// 3. Persist snapshot, cache and history
	l.saveRecordsLocked(ctx)
	if err := kvjson.Save(ctx, l.store, BreakdownKey, snap); err != nil {
		l.log.Error("net worth breakdown write failed", "err", err)
	}
	if err := kvjson.Save(ctx, l.store, HistoryKey, l.history); err != nil {
		l.log.Error("net worth history write failed", "err", err)
	}
	l.mu.Unlock()

	l.log.Debug("totals recalculated",
		"net_worth", snap.TotalNetWorth.String(),
		"tier", snap.WealthTier.Name,
		"version", snap.Version,
	)
	l.publish(notify.TotalsRecomputed, "", "", snap.TotalNetWorth.String())
	return snap
}

// NetWorthBreakdown returns the last computed snapshot without recomputing.
// Callers that need freshness must call RecalculateTotals first.
func (l *Ledger) NetWorthBreakdown() domain.AggregateSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot
}

// AssetPrice looks id up in the price table, then stocks, crypto, other
// investments and properties, in that order. A miss returns zero.
func (l *Ledger) AssetPrice(ctx context.Context, id string) decimal.Decimal {
	if l.prices != nil {
		if price, ok := l.prices.Price(ctx, id); ok {
			return price
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, s := range l.holdings.Stocks {
		if s.ID == id || strings.EqualFold(s.Symbol, id) {
			return s.CurrentPrice
		}
	}
	for _, c := range l.holdings.Crypto {
		if c.ID == id || strings.EqualFold(c.Symbol, id) {
			return c.CurrentPrice
		}
	}
	for _, o := range l.holdings.Other {
		if o.ID == id {
			return o.CurrentValue
		}
	}
	for _, p := range l.holdings.Properties {
		if p.ID == id {
			return p.CurrentValue
		}
	}

	l.log.Warn("asset price lookup missed", "id", id, "err", fmt.Errorf("%w: %s", domain.ErrLookupMiss, id))
	return decimal.Zero
}

// UnrealizedGains reports (current - purchase) × shares for every stock holding
func (l *Ledger) UnrealizedGains() []domain.StockGain {
	l.mu.Lock()
	defer l.mu.Unlock()

	gains := make([]domain.StockGain, 0, len(l.holdings.Stocks))
	for _, s := range l.holdings.Stocks {
		basis := s.CostBasis()
		value := s.MarketValue()
		gains = append(gains, domain.StockGain{
			ID:          s.ID,
			Symbol:      s.Symbol,
			CostBasis:   basis,
			MarketValue: value,
			Gain:        value.Sub(basis),
		})
	}
	return gains
}
