// Package notify carries change events between core components so that
// recomputation is driven by mutations instead of polling.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Kind names a change event
type Kind string

const (
	RecordsChanged   Kind = "records.changed"
	CashChanged      Kind = "cash.changed"
	TotalsRecomputed Kind = "totals.recalculated"
	TimeAdvanced     Kind = "time.advanced"
	PricesChanged    Kind = "prices.changed"
	ResetStarted     Kind = "reset.started"
	ResetCompleted   Kind = "reset.completed"
)

// Event describes one change
type Event struct {
	Kind     Kind
	Category string
	ID       string
	Detail   string
	At       time.Time
}

// Handler receives published events
type Handler func(Event)

type subscription struct {
	id    int
	kinds map[Kind]bool
	fn    Handler
}

// Bus dispatches events synchronously to subscribers in subscription order
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
	now    func() time.Time
	log    *slog.Logger
}

// NewBus creates an empty bus
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{now: time.Now, log: logger}
}

// Subscribe registers fn for the given kinds, or every kind when none is given.
// The returned function removes the subscription.
func (b *Bus) Subscribe(fn Handler, kinds ...Kind) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := subscription{id: b.nextID, fn: fn}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}
	b.subs = append(b.subs, sub)

	id := sub.id
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to every matching subscriber.
// A panicking handler is logged and does not stop delivery to the others.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.At.IsZero() {
		e.At = b.now()
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.kinds != nil && !s.kinds[e.Kind] {
			continue
		}
		b.deliver(s, e)
	}
}

func (b *Bus) deliver(s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", "kind", e.Kind, "panic", r)
		}
	}()
	s.fn(e)
}
