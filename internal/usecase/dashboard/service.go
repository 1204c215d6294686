package dashboard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/kvjson"
	"github.com/simaogato/wealthsim-backend/internal/usecase/ledger"
	"github.com/simaogato/wealthsim-backend/internal/usecase/refresh"
)

// Where a net worth was read from
const (
	SourceCache  = "cache"
	SourceLedger = "ledger"
)

// NetWorthResult represents the net worth shown on the dashboard
type NetWorthResult struct {
	Total     decimal.Decimal   `json:"total"`
	Liquidity decimal.Decimal   `json:"liquidity"`
	Invested  decimal.Decimal   `json:"invested"`
	Equity    decimal.Decimal   `json:"equity"`
	Lifestyle decimal.Decimal   `json:"lifestyle"`
	Ownership decimal.Decimal   `json:"ownership"`
	Tier      domain.WealthTier `json:"tier"`
	Version   int64             `json:"version"`
	Source    string            `json:"source"`
}

// Dashboard is everything the main screen renders in one read
type Dashboard struct {
	NetWorth  *NetWorthResult           `json:"netWorth"`
	Snapshot  domain.AggregateSnapshot  `json:"snapshot"`
	Ownership domain.OwnershipBreakdown `json:"ownership"`
	Refresh   refresh.State             `json:"refresh"`
	History   []domain.NetWorthPoint    `json:"history"`
	Gains     []domain.StockGain        `json:"gains"`
	NextTier  *domain.WealthTier        `json:"nextTier,omitempty"`
}

// LedgerReader is the read side of the asset ledger
type LedgerReader interface {
	NetWorthBreakdown() domain.AggregateSnapshot
	History() []domain.NetWorthPoint
	UnrealizedGains() []domain.StockGain
}

// OwnershipReader values the specialty assets
type OwnershipReader interface {
	OwnershipBreakdown(ctx context.Context) domain.OwnershipBreakdown
}

// RefreshReader exposes the coordinator status
type RefreshReader interface {
	State() refresh.State
}

// ResetFlags are the session markers written by the reset choreographer
type ResetFlags interface {
	InProgress(ctx context.Context) bool
	JustCompleted(ctx context.Context) bool
	Acknowledge(ctx context.Context)
}

// DashboardService handles dashboard-related operations
type DashboardService struct {
	Store     domain.KeyValueStore
	Ledger    LedgerReader
	Ownership OwnershipReader
	Refresh   RefreshReader
	Flags     ResetFlags
	Tiers     domain.TierTable
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(
	store domain.KeyValueStore,
	ledgerReader LedgerReader,
	ownershipReader OwnershipReader,
	refreshReader RefreshReader,
	flags ResetFlags,
	tiers domain.TierTable,
) *DashboardService {
	if len(tiers) == 0 {
		tiers = domain.DefaultTiers
	}
	return &DashboardService{
		Store:     store,
		Ledger:    ledgerReader,
		Ownership: ownershipReader,
		Refresh:   refreshReader,
		Flags:     flags,
		Tiers:     tiers,
	}
}

// snapshot returns the net-worth breakdown cache, or the ledger's in-memory
// snapshot when a reset is running or has just completed
func (s *DashboardService) snapshot(ctx context.Context) (domain.AggregateSnapshot, string, error) {
	if s.Flags != nil {
		if s.Flags.InProgress(ctx) {
			return s.Ledger.NetWorthBreakdown(), SourceLedger, nil
		}
		if s.Flags.JustCompleted(ctx) {
			s.Flags.Acknowledge(ctx)
			return s.Ledger.NetWorthBreakdown(), SourceLedger, nil
		}
	}

	var cached domain.AggregateSnapshot
	found, err := kvjson.Load(ctx, s.Store, ledger.BreakdownKey, &cached)
	if err != nil {
		return domain.AggregateSnapshot{}, "", fmt.Errorf("failed to read net worth breakdown: %w", err)
	}
	if !found {
		return s.Ledger.NetWorthBreakdown(), SourceLedger, nil
	}
	return cached, SourceCache, nil
}

// GetNetWorth returns the net worth grouped the way the dashboard shows it
// Logic:
//   - Liquidity: cash
//   - Invested: stocks + crypto + bonds + other investments
//   - Equity: property value minus mortgages
//   - Total: the ledger's net worth, which also counts lifestyle and ownership
func (s *DashboardService) GetNetWorth(ctx context.Context) (*NetWorthResult, error) {
	// 1. Read the breakdown, falling back to the ledger after a reset
	snap, source, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Group the components
	invested := decimal.Sum(snap.TotalStocks, snap.TotalCrypto, snap.TotalBonds, snap.TotalOtherInvestments)

	return &NetWorthResult{
		Total:     snap.TotalNetWorth,
		Liquidity: snap.TotalCash,
		Invested:  invested,
		Equity:    snap.TotalPropertyEquity,
		Lifestyle: snap.TotalLifestyleValue,
		Ownership: snap.TotalOwnershipValue,
		Tier:      snap.WealthTier,
		Version:   snap.Version,
		Source:    source,
	}, nil
}

// GetDashboard assembles the full dashboard read model
func (s *DashboardService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	netWorth, err := s.GetNetWorth(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		NetWorth:  netWorth,
		Snapshot:  s.Ledger.NetWorthBreakdown(),
		Ownership: s.Ownership.OwnershipBreakdown(ctx),
		History:   s.Ledger.History(),
		Gains:     s.Ledger.UnrealizedGains(),
	}
	if s.Refresh != nil {
		d.Refresh = s.Refresh.State()
	}
	if next, ok := s.Tiers.Next(netWorth.Tier); ok {
		d.NextTier = &next
	}
	return d, nil
}
