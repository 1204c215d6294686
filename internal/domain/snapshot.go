package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AggregateSnapshot is the derived fold of the ledger records.
// It is rebuilt on every recompute and never edited in place.
type AggregateSnapshot struct {
	TotalCash             decimal.Decimal `json:"totalCash"`
	TotalStocks           decimal.Decimal `json:"totalStocks"`
	TotalCrypto           decimal.Decimal `json:"totalCrypto"`
	TotalBonds            decimal.Decimal `json:"totalBonds"`
	TotalOtherInvestments decimal.Decimal `json:"totalOtherInvestments"`
	TotalPropertyValue    decimal.Decimal `json:"totalPropertyValue"`
	TotalPropertyDebt     decimal.Decimal `json:"totalPropertyDebt"`
	TotalPropertyEquity   decimal.Decimal `json:"totalPropertyEquity"`
	TotalLifestyleValue   decimal.Decimal `json:"totalLifestyleValue"`
	TotalOwnershipValue   decimal.Decimal `json:"totalOwnershipValue"`
	TotalNetWorth         decimal.Decimal `json:"totalNetWorth"`
	WealthTier            WealthTier      `json:"wealthTier"`
	Version               int64           `json:"version"`
}

// ComponentSum adds the named net-worth components.
// Property value and debt are excluded; their difference is the equity.
func (s AggregateSnapshot) ComponentSum() decimal.Decimal {
	return decimal.Sum(
		s.TotalCash,
		s.TotalStocks,
		s.TotalCrypto,
		s.TotalBonds,
		s.TotalOtherInvestments,
		s.TotalPropertyEquity,
		s.TotalLifestyleValue,
		s.TotalOwnershipValue,
	)
}

// SameTotals compares every field except Version
func (s AggregateSnapshot) SameTotals(o AggregateSnapshot) bool {
	return s.TotalCash.Equal(o.TotalCash) &&
		s.TotalStocks.Equal(o.TotalStocks) &&
		s.TotalCrypto.Equal(o.TotalCrypto) &&
		s.TotalBonds.Equal(o.TotalBonds) &&
		s.TotalOtherInvestments.Equal(o.TotalOtherInvestments) &&
		s.TotalPropertyValue.Equal(o.TotalPropertyValue) &&
		s.TotalPropertyDebt.Equal(o.TotalPropertyDebt) &&
		s.TotalPropertyEquity.Equal(o.TotalPropertyEquity) &&
		s.TotalLifestyleValue.Equal(o.TotalLifestyleValue) &&
		s.TotalOwnershipValue.Equal(o.TotalOwnershipValue) &&
		s.TotalNetWorth.Equal(o.TotalNetWorth) &&
		s.WealthTier.Rank == o.WealthTier.Rank
}

// VersionTime converts the version stamp back to a time
func (s AggregateSnapshot) VersionTime() time.Time {
	if s.Version == 0 {
		return time.Time{}
	}
	return time.Unix(0, s.Version)
}
