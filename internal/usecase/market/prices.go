package market

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/kvjson"
	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
)

// PricesKey is the storage key owned by the price table
const PricesKey = "economy.prices"

// Quote is one entry of the price table
type Quote struct {
	ID    string          `json:"id"`
	Price decimal.Decimal `json:"price"`
}

// PriceTable is the game economy's explicit market price list.
// Ids are matched case-insensitively.
type PriceTable struct {
	mu     sync.RWMutex
	store  domain.KeyValueStore
	bus    *notify.Bus
	log    *slog.Logger
	prices map[string]decimal.Decimal
}

// NewPriceTable creates an empty price table
func NewPriceTable(store domain.KeyValueStore, bus *notify.Bus, logger *slog.Logger) *PriceTable {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceTable{
		store:  store,
		bus:    bus,
		log:    logger.With("component", "economy"),
		prices: make(map[string]decimal.Decimal),
	}
}

func normalize(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Load reads the persisted table; read failures leave the table empty
func (p *PriceTable) Load(ctx context.Context) {
	var quotes []Quote
	if _, err := kvjson.Load(ctx, p.store, PricesKey, &quotes); err != nil {
		p.log.Warn("price table unreadable, starting empty", "err", err)
		quotes = nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices = make(map[string]decimal.Decimal, len(quotes))
	for _, q := range quotes {
		p.prices[normalize(q.ID)] = q.Price
	}
}

// Price implements domain.PriceTable
func (p *PriceTable) Price(_ context.Context, id string) (decimal.Decimal, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	price, ok := p.prices[normalize(id)]
	return price, ok
}

// SetPrice records a market price for id
func (p *PriceTable) SetPrice(ctx context.Context, id string, price decimal.Decimal) error {
	key := normalize(id)
	if key == "" {
		return fmt.Errorf("%w: empty price id", domain.ErrInvalidRecord)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: negative price %s for %s", domain.ErrInvalidRecord, price, key)
	}

	p.mu.Lock()
	p.prices[key] = price
	quotes := p.quotesLocked()
	p.mu.Unlock()

	p.persist(ctx, quotes)
	p.bus.Publish(notify.Event{Kind: notify.PricesChanged, ID: key})
	return nil
}

// Quotes returns the table sorted by id
func (p *PriceTable) Quotes() []Quote {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.quotesLocked()
}

func (p *PriceTable) quotesLocked() []Quote {
	quotes := make([]Quote, 0, len(p.prices))
	for id, price := range p.prices {
		quotes = append(quotes, Quote{ID: id, Price: price})
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].ID < quotes[j].ID })
	return quotes
}

func (p *PriceTable) persist(ctx context.Context, quotes []Quote) {
	if err := kvjson.Save(ctx, p.store, PricesKey, quotes); err != nil {
		p.log.Error("price table write failed", "err", err)
	}
}

// StorageKeys lists the keys owned by the price table
func (p *PriceTable) StorageKeys() []string { return []string{PricesKey} }

// Reset empties the in-memory table
func (p *PriceTable) Reset(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices = make(map[string]decimal.Decimal)
	return nil
}

// VerifyReset confirms the table is empty in memory and in storage
func (p *PriceTable) VerifyReset(ctx context.Context) error {
	if n := len(p.Quotes()); n > 0 {
		return domain.ResidualState(PricesKey, n)
	}
	var quotes []Quote
	if _, err := kvjson.Load(ctx, p.store, PricesKey, &quotes); err != nil {
		return err
	}
	if len(quotes) > 0 {
		return domain.ResidualState(PricesKey, len(quotes))
	}
	return nil
}
