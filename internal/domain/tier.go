package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// WealthTier is a named net-worth band used for progression display
type WealthTier struct {
	Rank        int             `json:"rank"`
	Name        string          `json:"name"`
	MinNetWorth decimal.Decimal `json:"minNetWorth"`
}

// TierTable is an ordered list of bands with strictly increasing minimums
type TierTable []WealthTier

// DefaultTiers is the progression used by the game
var DefaultTiers = TierTable{
	{Rank: 0, Name: "Starter", MinNetWorth: decimal.Zero},
	{Rank: 1, Name: "Comfortable", MinNetWorth: decimal.NewFromInt(100_000)},
	{Rank: 2, Name: "Affluent", MinNetWorth: decimal.NewFromInt(500_000)},
	{Rank: 3, Name: "Millionaire", MinNetWorth: decimal.NewFromInt(1_000_000)},
	{Rank: 4, Name: "Multi-Millionaire", MinNetWorth: decimal.NewFromInt(10_000_000)},
	{Rank: 5, Name: "Tycoon", MinNetWorth: decimal.NewFromInt(100_000_000)},
	{Rank: 6, Name: "Billionaire", MinNetWorth: decimal.NewFromInt(1_000_000_000)},
}

// NewTierTable validates that tiers are non-empty and strictly increasing
func NewTierTable(tiers []WealthTier) (TierTable, error) {
	if len(tiers) == 0 {
		return nil, errors.New("tier table cannot be empty")
	}
	for i := 1; i < len(tiers); i++ {
		if !tiers[i].MinNetWorth.GreaterThan(tiers[i-1].MinNetWorth) {
			return nil, fmt.Errorf("tier %q must have a higher minimum than %q", tiers[i].Name, tiers[i-1].Name)
		}
	}
	out := make(TierTable, len(tiers))
	copy(out, tiers)
	return out, nil
}

// Classify returns the highest band whose minimum is at or below netWorth.
// A net worth below every band (negative equity) maps to the lowest band.
func (t TierTable) Classify(netWorth decimal.Decimal) WealthTier {
	if len(t) == 0 {
		return WealthTier{}
	}
	tier := t[0]
	for _, candidate := range t {
		if candidate.MinNetWorth.GreaterThan(netWorth) {
			break
		}
		tier = candidate
	}
	return tier
}

// Next returns the band above current, or false at the top
func (t TierTable) Next(current WealthTier) (WealthTier, bool) {
	for i, candidate := range t {
		if candidate.Rank == current.Rank && i+1 < len(t) {
			return t[i+1], true
		}
	}
	return WealthTier{}, false
}
