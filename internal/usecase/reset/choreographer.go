// Package reset tears down and re-initializes every core store in a fixed
// order and verifies the result. Each step is idempotent.
package reset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/platform/logging"
	"github.com/simaogato/wealthsim-backend/internal/usecase/kvjson"
	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
)

// Component is a store taking part in the reset
type Component interface {
	StorageKeys() []string
	Reset(ctx context.Context) error
	VerifyReset(ctx context.Context) error
}

// Phase names a component in the reset order
type Phase struct {
	Name      string
	Component Component
}

const (
	PhaseLedger    = "ledger"
	PhaseOwnership = "ownership"
	PhaseTime      = "time"
	PhaseCharacter = "character"
	PhaseEconomy   = "economy"
	PhaseEvents    = "events"
)

// Phases returns the components in reset order. Later phases may read the
// already-reset values of earlier ones.
func Phases(ledger, ownership, clock, character, economy, events Component) []Phase {
	return []Phase{
		{Name: PhaseLedger, Component: ledger},
		{Name: PhaseOwnership, Component: ownership},
		{Name: PhaseTime, Component: clock},
		{Name: PhaseCharacter, Component: character},
		{Name: PhaseEconomy, Component: economy},
		{Name: PhaseEvents, Component: events},
	}
}

// State is a step of the reset sequence
type State string

const (
	StateIdle           State = "idle"
	StateFlagged        State = "flagged"
	StateStorageCleared State = "storage_cleared"
	StateStoresReset    State = "stores_reset"
	StateVerified       State = "verified"
	StateCompleted      State = "completed"
)

// Flags are the session markers consulted by readers during a reset
type Flags interface {
	MarkInProgress(ctx context.Context)
	MarkCompleted(ctx context.Context)
}

// Failure records a phase or key that did not reset cleanly
type Failure struct {
	Phase string `json:"phase"`
	Err   string `json:"error"`
}

// Report describes one reset run
type Report struct {
	State       State     `json:"state"`
	Transitions []State   `json:"transitions"`
	ClearedKeys []string  `json:"clearedKeys"`
	StrayKeys   []string  `json:"strayKeys,omitempty"`
	Recovered   []string  `json:"recovered,omitempty"`
	Failures    []Failure `json:"failures,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// Clean reports whether every phase verified, possibly after one force-clear
func (r Report) Clean() bool { return len(r.Failures) == 0 }

// Choreographer runs complete resets one at a time
type Choreographer struct {
	mu     sync.Mutex
	store  domain.KeyValueStore
	flags  Flags
	phases []Phase
	bus    *notify.Bus
	log    *slog.Logger
	now    func() time.Time
	state  State
}

// NewChoreographer creates a choreographer over the persisted store and the phases in order
func NewChoreographer(store domain.KeyValueStore, flags Flags, phases []Phase, bus *notify.Bus, logger *slog.Logger) *Choreographer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Choreographer{
		store:  store,
		flags:  flags,
		phases: phases,
		bus:    bus,
		log:    logger.With("component", "reset"),
		now:    time.Now,
		state:  StateIdle,
	}
}

// State returns the step reached by the last or current reset
func (c *Choreographer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StorageKeys returns the explicit list of keys cleared by a reset
func (c *Choreographer) StorageKeys() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, p := range c.phases {
		for _, k := range p.Component.StorageKeys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// PerformCompleteReset clears storage, resets every phase, verifies each one
// and signals completion. It is not atomic and never aborts part way.
func (c *Choreographer) PerformCompleteReset(ctx context.Context) Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := Report{StartedAt: c.now()}
	c.state = StateIdle
	c.log.Info("complete reset started", "phases", len(c.phases))

	// 1. Flag the reset so readers skip cached snapshots
	c.flags.MarkInProgress(ctx)
	c.bus.Publish(notify.Event{Kind: notify.ResetStarted})
	c.advance(&report, StateFlagged)

	// 2. Clear every owned key and confirm it is gone
	report.ClearedKeys = c.StorageKeys()
	for _, key := range report.ClearedKeys {
		if stray := c.clearKey(ctx, key); stray {
			report.StrayKeys = append(report.StrayKeys, key)
		}
	}
	c.advance(&report, StateStorageCleared)

	// 3-5. Reset the phases in dependency order
	for _, p := range c.phases {
		if err := p.Component.Reset(ctx); err != nil {
			c.log.Error("phase reset failed", "phase", p.Name, "err", err)
		}
	}
	c.advance(&report, StateStoresReset)

	// 6. Verify, force-clearing a failing phase once
	for _, p := range c.phases {
		err := p.Component.VerifyReset(ctx)
		if err == nil {
			continue
		}
		c.log.Warn("phase verification failed, force clearing", "phase", p.Name, "err", err)
		c.forceClear(ctx, p)
		if err = p.Component.VerifyReset(ctx); err == nil {
			report.Recovered = append(report.Recovered, p.Name)
			continue
		}
		report.Failures = append(report.Failures, Failure{Phase: p.Name, Err: err.Error()})
		c.log.Log(ctx, logging.LevelCritical, "reset verification failed",
			"phase", p.Name,
			"err", fmt.Errorf("%w: %v", domain.ErrResetVerification, err),
		)
	}
	c.advance(&report, StateVerified)

	// 7. Hand off to the UI boundary
	c.flags.MarkCompleted(ctx)
	c.advance(&report, StateCompleted)
	report.FinishedAt = c.now()
	c.bus.Publish(notify.Event{Kind: notify.ResetCompleted, Detail: fmt.Sprintf("%d failures", len(report.Failures))})

	c.log.Info("complete reset finished",
		"cleared_keys", len(report.ClearedKeys),
		"recovered", report.Recovered,
		"failures", len(report.Failures),
	)
	return report
}

func (c *Choreographer) advance(r *Report, to State) {
	c.log.Debug("reset state", "from", c.state, "to", to)
	c.state = to
	r.State = to
	r.Transitions = append(r.Transitions, to)
}

// clearKey deletes key, re-removes it once if it reappeared, and reports
// whether a stray write was seen
func (c *Choreographer) clearKey(ctx context.Context, key string) bool {
	if err := kvjson.Remove(ctx, c.store, key); err != nil {
		c.log.Error("key removal failed", "key", key, "err", err)
	}
	present, err := kvjson.Present(ctx, c.store, key)
	if err != nil {
		c.log.Error("key check failed", "key", key, "err", err)
		return false
	}
	if !present {
		return false
	}

	c.log.Warn("key reappeared after removal, removing again", "key", key)
	if err := kvjson.Remove(ctx, c.store, key); err != nil {
		c.log.Error("key removal failed", "key", key, "err", err)
	}
	if present, _ := kvjson.Present(ctx, c.store, key); present {
		c.log.Log(ctx, logging.LevelCritical, "key survived removal", "key", key,
			"err", domain.ResidualState(key, 1))
	}
	return true
}

func (c *Choreographer) forceClear(ctx context.Context, p Phase) {
	for _, key := range p.Component.StorageKeys() {
		if err := kvjson.Remove(ctx, c.store, key); err != nil {
			c.log.Error("key removal failed", "key", key, "err", err)
		}
	}
	if err := p.Component.Reset(ctx); err != nil {
		c.log.Error("phase reset failed", "phase", p.Name, "err", err)
	}
}
