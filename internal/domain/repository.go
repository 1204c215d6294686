package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// KeyValueStore defines the persistence contract shared by every core component.
// Each component owns a fixed set of keys and stores one JSON record per key.
type KeyValueStore interface {
	// Get returns the raw value stored under key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put creates or replaces the value stored under key
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error
	Delete(ctx context.Context, key string) error

	// Has reports whether key is present
	Has(ctx context.Context, key string) (bool, error)
}

// OwnershipValuer provides the total value of specialty ownership assets
type OwnershipValuer interface {
	TotalOwnershipValue(ctx context.Context) decimal.Decimal
}

// MarketHours decides whether market prices may move at a given instant
type MarketHours interface {
	IsOpen(t time.Time) bool
}

// PriceTable is the explicit market price lookup consulted before holdings
type PriceTable interface {
	Price(ctx context.Context, id string) (decimal.Decimal, bool)
}

// CashLedger is the ledger-side view the character facade writes through to
type CashLedger interface {
	SetCash(ctx context.Context, amount decimal.Decimal)
	TotalCash() decimal.Decimal
}
