// Package character holds the player's spendable cash used by gameplay.
package character

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/kvjson"
	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
)

// WealthKey is the storage key owned by the facade
const WealthKey = "character.wealth"

type record struct {
	Wealth decimal.Decimal `json:"wealth"`
}

// Facade is the gameplay view of cash. Every mutation writes through to
// the ledger's cash record, which stays the single authority.
type Facade struct {
	mu           sync.Mutex
	store        domain.KeyValueStore
	ledger       domain.CashLedger
	bus          *notify.Bus
	log          *slog.Logger
	startingCash decimal.Decimal
	wealth       decimal.Decimal
}

// NewFacade creates a facade holding startingCash
func NewFacade(
	store domain.KeyValueStore,
	ledger domain.CashLedger,
	startingCash decimal.Decimal,
	bus *notify.Bus,
	logger *slog.Logger,
) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{
		store:        store,
		ledger:       ledger,
		bus:          bus,
		log:          logger.With("component", "character"),
		startingCash: startingCash,
		wealth:       startingCash,
	}
}

// Load restores the persisted wealth; absent or unreadable state keeps the starting cash
func (f *Facade) Load(ctx context.Context) {
	var rec record
	found, err := kvjson.Load(ctx, f.store, WealthKey, &rec)
	if err != nil {
		f.log.Warn("character wealth unreadable, using starting cash", "err", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if found && err == nil {
		f.wealth = rec.Wealth
	} else {
		f.wealth = f.startingCash
	}
}

// Wealth returns the spendable cash
func (f *Facade) Wealth() decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wealth
}

// UpdateCash adds delta (negative to spend) and returns the new wealth
func (f *Facade) UpdateCash(ctx context.Context, delta decimal.Decimal) decimal.Decimal {
	f.mu.Lock()
	f.wealth = f.wealth.Add(delta)
	v := f.wealth
	f.persistLocked(ctx)
	f.mu.Unlock()

	f.writeThrough(ctx, v, "delta "+delta.String())
	return v
}

// SetWealth replaces the spendable cash
func (f *Facade) SetWealth(ctx context.Context, value decimal.Decimal) {
	f.mu.Lock()
	f.wealth = value
	f.persistLocked(ctx)
	f.mu.Unlock()

	f.writeThrough(ctx, value, "set "+value.String())
}

// Align overwrites the facade with the ledger's value during reconciliation.
// It neither writes through nor publishes.
func (f *Facade) Align(ctx context.Context, value decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wealth = value
	f.persistLocked(ctx)
}

func (f *Facade) writeThrough(ctx context.Context, value decimal.Decimal, detail string) {
	if f.ledger != nil {
		f.ledger.SetCash(ctx, value)
	}
	f.bus.Publish(notify.Event{Kind: notify.CashChanged, Category: string(domain.CategoryCash), Detail: detail})
}

func (f *Facade) persistLocked(ctx context.Context) {
	if err := kvjson.Save(ctx, f.store, WealthKey, record{Wealth: f.wealth}); err != nil {
		f.log.Error("character wealth write failed", "err", err)
	}
}

// StorageKeys lists the keys owned by the facade
func (f *Facade) StorageKeys() []string { return []string{WealthKey} }

// Reset restores the starting cash without touching the ledger
func (f *Facade) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wealth = f.startingCash
	f.persistLocked(ctx)
	return nil
}

// VerifyReset checks memory and storage both hold the starting cash
func (f *Facade) VerifyReset(ctx context.Context) error {
	if !f.Wealth().Equal(f.startingCash) {
		return domain.ResidualState(WealthKey, 1)
	}
	var rec record
	found, err := kvjson.Load(ctx, f.store, WealthKey, &rec)
	if err != nil {
		return err
	}
	if found && !rec.Wealth.Equal(f.startingCash) {
		return domain.ResidualState(WealthKey, 1)
	}
	return nil
}
