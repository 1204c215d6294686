package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NetWorthPoint is one entry of the net-worth history shown on dashboards.
// A point is recorded after every recompute, mirroring how market value
// history tracks the real value of the portfolio against its book value.
type NetWorthPoint struct {
	At       time.Time       `json:"at"`
	NetWorth decimal.Decimal `json:"netWorth"`
	Cash     decimal.Decimal `json:"cash"`
	TierRank int             `json:"tierRank"`
	Version  int64           `json:"version"`
}

// StockGain is the unrealized profit or loss of one stock holding.
// Gain = MarketValue - CostBasis
type StockGain struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	CostBasis   decimal.Decimal `json:"costBasis"`
	MarketValue decimal.Decimal `json:"marketValue"`
	Gain        decimal.Decimal `json:"gain"`
}
