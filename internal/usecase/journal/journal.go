// Package journal records the player's recent asset activity.
package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/kvjson"
	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
)

// JournalKey is the storage key owned by the journal
const JournalKey = "events.journal"

// DefaultCapacity bounds the number of retained entries
const DefaultCapacity = 200

// Entry is one recorded activity
type Entry struct {
	At       time.Time `json:"at"`
	Kind     string    `json:"kind"`
	Category string    `json:"category,omitempty"`
	ID       string    `json:"id,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// Journal is a capped, persisted activity log; oldest entries drop first
type Journal struct {
	mu       sync.Mutex
	store    domain.KeyValueStore
	log      *slog.Logger
	capacity int
	entries  []Entry
}

// NewJournal creates an empty journal
func NewJournal(store domain.KeyValueStore, capacity int, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{store: store, capacity: capacity, log: logger.With("component", "events")}
}

// Load reads persisted entries; read failures start an empty journal
func (j *Journal) Load(ctx context.Context) {
	var entries []Entry
	if _, err := kvjson.Load(ctx, j.store, JournalKey, &entries); err != nil {
		j.log.Warn("journal unreadable, starting empty", "err", err)
		entries = nil
	}
	j.mu.Lock()
	j.entries = entries
	j.mu.Unlock()
}

// Attach records ledger, cash and reset events published on bus
func (j *Journal) Attach(bus *notify.Bus) func() {
	return bus.Subscribe(func(e notify.Event) {
		j.Append(context.Background(), Entry{
			At:       e.At,
			Kind:     string(e.Kind),
			Category: e.Category,
			ID:       e.ID,
			Detail:   e.Detail,
		})
	}, notify.RecordsChanged, notify.CashChanged, notify.ResetCompleted)
}

// Append adds an entry and persists the journal
func (j *Journal) Append(ctx context.Context, e Entry) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	j.mu.Lock()
	j.entries = append(j.entries, e)
	if over := len(j.entries) - j.capacity; over > 0 {
		j.entries = append([]Entry(nil), j.entries[over:]...)
	}
	snapshot := append([]Entry(nil), j.entries...)
	j.mu.Unlock()

	if err := kvjson.Save(ctx, j.store, JournalKey, snapshot); err != nil {
		j.log.Error("journal write failed", "err", err)
	}
}

// Recent returns up to n entries, newest first
func (j *Journal) Recent(n int) []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	if n <= 0 || n > len(j.entries) {
		n = len(j.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(j.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, j.entries[i])
	}
	return out
}

// StorageKeys lists the keys owned by the journal
func (j *Journal) StorageKeys() []string { return []string{JournalKey} }

// Reset drops every entry
func (j *Journal) Reset(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
	return nil
}

// VerifyReset confirms the journal is empty in memory and in storage
func (j *Journal) VerifyReset(ctx context.Context) error {
	if n := len(j.Recent(0)); n > 0 {
		return domain.ResidualState(JournalKey, n)
	}
	var entries []Entry
	if _, err := kvjson.Load(ctx, j.store, JournalKey, &entries); err != nil {
		return err
	}
	if len(entries) > 0 {
		return domain.ResidualState(JournalKey, len(entries))
	}
	return nil
}
