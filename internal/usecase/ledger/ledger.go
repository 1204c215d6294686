// Package ledger is the canonical store of categorized asset records.
// It owns the authoritative recompute of the aggregate snapshot.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/kvjson"
	"github.com/simaogato/wealthsim-backend/internal/usecase/market"
	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
)

// Storage keys owned by the ledger
const (
	SnapshotKey  = "ledger.snapshot"
	BreakdownKey = "ledger.networth_breakdown"
	HistoryKey   = "ledger.history"
)

// DefaultHistoryLimit bounds the recorded net-worth points
const DefaultHistoryLimit = 365

// Config holds the ledger's rules and optional collaborators
type Config struct {
	StartingCash decimal.Decimal
	Tiers        domain.TierTable
	Market       domain.MarketHours
	Prices       domain.PriceTable
	HistoryLimit int
	Now          func() time.Time
}

// document is the persisted form of the ledger under SnapshotKey
type document struct {
	Holdings domain.Holdings          `json:"holdings"`
	Totals   domain.AggregateSnapshot `json:"totals"`

	// set while decoding
	coerced     []string
	skipped     []string
	staleTotals bool
}

// collectionKeys maps the JSON names of Holdings to their categories
var collectionKeys = []struct {
	key      string
	category domain.Category
}{
	{"stocks", domain.CategoryStocks},
	{"crypto", domain.CategoryCrypto},
	{"bonds", domain.CategoryBonds},
	{"otherInvestments", domain.CategoryOther},
	{"properties", domain.CategoryProperties},
	{"lifestyle", domain.CategoryLifestyle},
}

// UnmarshalJSON decodes the records one by one. A bad numeric field is
// zeroed and an unreadable record is skipped; neither drops the rest.
func (d *document) UnmarshalJSON(b []byte) error {
	var raw struct {
		Holdings map[string]json.RawMessage `json:"holdings"`
		Totals   json.RawMessage            `json:"totals"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*d = document{Holdings: domain.NewHoldings(decimal.Zero)}

	if cash, ok := raw.Holdings["cash"]; ok {
		r, err := domain.DecodeRecord(domain.CategoryCash, cash)
		if d.note(domain.CategoryCash, domain.CashRecordID, r, err) {
			d.Holdings.Cash = r.(domain.CashBalance)
		}
	}

	for _, c := range collectionKeys {
		var items []json.RawMessage
		if data, ok := raw.Holdings[c.key]; ok && !isNull(data) {
			if err := json.Unmarshal(data, &items); err != nil {
				d.skipped = append(d.skipped, c.key)
				continue
			}
		}
		for i, item := range items {
			r, err := domain.DecodeRecord(c.category, item)
			if !d.note(c.category, fmt.Sprintf("#%d", i), r, err) {
				continue
			}
			d.Holdings = appendRecord(d.Holdings, r)
		}
	}

	if len(raw.Totals) == 0 || json.Unmarshal(raw.Totals, &d.Totals) != nil {
		var stamp struct {
			Version int64 `json:"version"`
		}
		_ = json.Unmarshal(raw.Totals, &stamp)
		d.Totals = domain.AggregateSnapshot{Version: stamp.Version}
		d.staleTotals = true
	}
	if len(d.coerced) > 0 || len(d.skipped) > 0 {
		d.staleTotals = true
	}
	return nil
}

// note records the outcome of decoding one record and reports whether it is usable
func (d *document) note(c domain.Category, at string, r domain.Record, err error) bool {
	switch {
	case err == nil:
		return true
	case domain.Coerced(r, err):
		d.coerced = append(d.coerced, fmt.Sprintf("%s/%s: %v", c, r.RecordID(), err))
		return true
	default:
		d.skipped = append(d.skipped, fmt.Sprintf("%s/%s: %v", c, at, err))
		return false
	}
}

func isNull(data json.RawMessage) bool {
	return string(bytes.TrimSpace(data)) == "null"
}

// appendRecord adds r to the collection of its category
func appendRecord(h domain.Holdings, r domain.Record) domain.Holdings {
	switch v := r.(type) {
	case domain.StockHolding:
		h.Stocks = append(h.Stocks, v)
	case domain.CryptoHolding:
		h.Crypto = append(h.Crypto, v)
	case domain.BondHolding:
		h.Bonds = append(h.Bonds, v)
	case domain.OtherInvestment:
		h.Other = append(h.Other, v)
	case domain.PropertyHolding:
		h.Properties = append(h.Properties, v)
	case domain.LifestyleItem:
		h.Lifestyle = append(h.Lifestyle, v)
	}
	return h
}

// Ledger holds the asset records and the last computed snapshot.
// Every method is safe for concurrent use.
type Ledger struct {
	mu sync.Mutex

	store     domain.KeyValueStore
	ownership domain.OwnershipValuer
	market    domain.MarketHours
	prices    domain.PriceTable
	bus       *notify.Bus
	log       *slog.Logger
	now       func() time.Time

	tiers        domain.TierTable
	startingCash decimal.Decimal
	historyLimit int

	holdings    domain.Holdings
	snapshot    domain.AggregateSnapshot
	history     []domain.NetWorthPoint
	lastVersion int64
}

// NewLedger creates a ledger holding only the starting cash
func NewLedger(
	store domain.KeyValueStore,
	ownership domain.OwnershipValuer,
	cfg Config,
	bus *notify.Bus,
	logger *slog.Logger,
) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = domain.DefaultTiers
	}
	if cfg.Market == nil {
		cfg.Market = market.DefaultHours(nil)
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	l := &Ledger{
		store:        store,
		ownership:    ownership,
		market:       cfg.Market,
		prices:       cfg.Prices,
		bus:          bus,
		log:          logger.With("component", "ledger"),
		now:          cfg.Now,
		tiers:        cfg.Tiers,
		startingCash: cfg.StartingCash,
		historyLimit: cfg.HistoryLimit,
		holdings:     domain.NewHoldings(cfg.StartingCash),
	}
	l.snapshot = fold(l.holdings, decimal.Zero, l.tiers)
	return l
}

// StartingCash returns the cash a fresh game begins with
func (l *Ledger) StartingCash() decimal.Decimal { return l.startingCash }

// Load restores records, totals and history from storage.
// Unreadable or absent state falls back to a fresh ledger.
func (l *Ledger) Load(ctx context.Context) {
	var doc document
	found, err := kvjson.Load(ctx, l.store, SnapshotKey, &doc)
	if err != nil {
		l.log.Warn("ledger snapshot unreadable, using defaults", "err", err)
	}

	var history []domain.NetWorthPoint
	if _, err := kvjson.Load(ctx, l.store, HistoryKey, &history); err != nil {
		l.log.Warn("net worth history unreadable, starting empty", "err", err)
		history = nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if found && err == nil {
		if len(doc.coerced) > 0 {
			l.log.Warn("invalid ledger fields coerced to zero",
				"fields", doc.coerced,
				"err", fmt.Errorf("%w: %d records", domain.ErrCalculation, len(doc.coerced)),
			)
		}
		if len(doc.skipped) > 0 {
			l.log.Warn("unreadable ledger records skipped", "records", doc.skipped)
		}

		l.holdings = doc.Holdings.Clone()
		l.snapshot = doc.Totals
		if doc.staleTotals {
			l.snapshot = fold(l.holdings, doc.Totals.TotalOwnershipValue, l.tiers)
			l.snapshot.Version = doc.Totals.Version
		}
		if doc.Totals.Version > l.lastVersion {
			l.lastVersion = doc.Totals.Version
		}
	} else {
		l.holdings = domain.NewHoldings(l.startingCash)
		l.snapshot = fold(l.holdings, decimal.Zero, l.tiers)
	}
	l.history = history
}

// Holdings returns a deep copy of the categorized records
func (l *Ledger) Holdings() domain.Holdings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holdings.Clone()
}

// TotalCash implements domain.CashLedger
func (l *Ledger) TotalCash() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holdings.Cash.Amount
}

// SetCash implements domain.CashLedger.
// It replaces the cash record without publishing; the caller owns the notification.
func (l *Ledger) SetCash(ctx context.Context, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holdings.Cash = domain.CashBalance{Amount: amount}
	l.saveRecordsLocked(ctx)
}

// History returns the recorded net-worth points, oldest first
func (l *Ledger) History() []domain.NetWorthPoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.NetWorthPoint(nil), l.history...)
}

// saveRecordsLocked persists the records alongside the current (possibly stale) totals
func (l *Ledger) saveRecordsLocked(ctx context.Context) {
	doc := document{Holdings: l.holdings, Totals: l.snapshot}
	if err := kvjson.Save(ctx, l.store, SnapshotKey, doc); err != nil {
		l.log.Error("ledger write failed", "err", err)
	}
}

func (l *Ledger) publish(kind notify.Kind, category domain.Category, id, detail string) {
	l.bus.Publish(notify.Event{Kind: kind, Category: string(category), ID: id, Detail: detail})
}

// StorageKeys lists the keys owned by the ledger
func (l *Ledger) StorageKeys() []string {
	return []string{SnapshotKey, BreakdownKey, HistoryKey}
}

// Reset empties every collection, restores the starting cash and persists
// a cash-only snapshot. The history is dropped.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.holdings = domain.NewHoldings(l.startingCash)
	l.history = nil
	l.snapshot = fold(l.holdings, l.ownershipValue(ctx), l.tiers)
	l.snapshot.Version = l.nextVersionLocked()

	l.saveRecordsLocked(ctx)
	if err := kvjson.Save(ctx, l.store, BreakdownKey, l.snapshot); err != nil {
		l.log.Error("net worth breakdown write failed", "err", err)
	}
	if err := kvjson.Remove(ctx, l.store, HistoryKey); err != nil {
		l.log.Error("net worth history clear failed", "err", err)
	}
	return nil
}

// VerifyReset re-reads the persisted snapshot and checks it holds only the starting cash
func (l *Ledger) VerifyReset(ctx context.Context) error {
	l.mu.Lock()
	memory := document{Holdings: l.holdings.Clone(), Totals: l.snapshot}
	historyLen := len(l.history)
	l.mu.Unlock()

	if err := l.checkFresh("ledger records", memory); err != nil {
		return err
	}
	if historyLen > 0 {
		return domain.ResidualState(HistoryKey, historyLen)
	}

	var stored document
	found, err := kvjson.Load(ctx, l.store, SnapshotKey, &stored)
	if err != nil {
		return err
	}
	if found {
		if err := l.checkFresh(SnapshotKey, stored); err != nil {
			return err
		}
	}

	var history []domain.NetWorthPoint
	if _, err := kvjson.Load(ctx, l.store, HistoryKey, &history); err != nil {
		return err
	}
	if len(history) > 0 {
		return domain.ResidualState(HistoryKey, len(history))
	}
	return nil
}

func (l *Ledger) checkFresh(what string, doc document) error {
	for _, c := range domain.Collections {
		if n := doc.Holdings.Len(c); n > 0 {
			return domain.ResidualState(what+"."+string(c), n)
		}
	}
	if !doc.Holdings.Cash.Amount.Equal(l.startingCash) {
		return domain.ResidualState(what+".cash", 1)
	}
	if !doc.Totals.TotalNetWorth.Equal(doc.Totals.TotalCash) {
		return domain.ResidualState(what+".totals", 1)
	}
	return nil
}
