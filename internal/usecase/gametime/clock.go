// Package gametime keeps the simulated calendar of the game.
package gametime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/kvjson"
	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
)

// ClockKey is the storage key owned by the clock
const ClockKey = "time.clock"

// Epoch is the in-game date of day zero
var Epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// State is the persisted clock state
type State struct {
	Day int `json:"day"`
}

// Clock counts simulated days
type Clock struct {
	mu    sync.Mutex
	store domain.KeyValueStore
	bus   *notify.Bus
	log   *slog.Logger
	state State
}

// NewClock creates a clock at day zero
func NewClock(store domain.KeyValueStore, bus *notify.Bus, logger *slog.Logger) *Clock {
	if logger == nil {
		logger = slog.Default()
	}
	return &Clock{store: store, bus: bus, log: logger.With("component", "time")}
}

// Load reads the persisted day; read failures restart at day zero
func (c *Clock) Load(ctx context.Context) {
	var state State
	if _, err := kvjson.Load(ctx, c.store, ClockKey, &state); err != nil {
		c.log.Warn("clock unreadable, starting at day zero", "err", err)
		state = State{}
	}
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// Day returns the current simulated day
func (c *Clock) Day() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Day
}

// Date returns the in-game calendar date
func (c *Clock) Date() time.Time {
	return Epoch.AddDate(0, 0, c.Day())
}

// Advance moves the calendar forward and publishes time.advanced
func (c *Clock) Advance(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		return c.Day(), fmt.Errorf("days must be > 0")
	}

	c.mu.Lock()
	c.state.Day += days
	state := c.state
	c.mu.Unlock()

	if err := kvjson.Save(ctx, c.store, ClockKey, state); err != nil {
		c.log.Error("clock write failed", "err", err)
	}
	c.bus.Publish(notify.Event{Kind: notify.TimeAdvanced, Detail: fmt.Sprintf("day %d", state.Day)})
	return state.Day, nil
}

// Run advances one day every interval until ctx is done
func (c *Clock) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	c.log.Info("game clock started", "day", c.Day(), "every", every.String())
	for {
		select {
		case <-ctx.Done():
			c.log.Info("game clock stopped", "day", c.Day())
			return
		case <-ticker.C:
			if _, err := c.Advance(ctx, 1); err != nil {
				c.log.Error("advance failed", "err", err)
			}
		}
	}
}

// StorageKeys lists the keys owned by the clock
func (c *Clock) StorageKeys() []string { return []string{ClockKey} }

// Reset rewinds to day zero
func (c *Clock) Reset(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{}
	return nil
}

// VerifyReset confirms day zero in memory and no persisted progress
func (c *Clock) VerifyReset(ctx context.Context) error {
	if day := c.Day(); day != 0 {
		return fmt.Errorf("%w: clock at day %d", domain.ErrResetVerification, day)
	}
	var state State
	if _, err := kvjson.Load(ctx, c.store, ClockKey, &state); err != nil {
		return err
	}
	if state.Day != 0 {
		return fmt.Errorf("%w: persisted clock at day %d", domain.ErrResetVerification, state.Day)
	}
	return nil
}
