// Package ownership reads the player's specialty assets and values them.
package ownership

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/kvjson"
)

// Storage keys read by the registry, one per specialty asset type
const (
	F1TeamKey     = "ownership.f1_team"
	HorsesKey     = "ownership.horses"
	SportsTeamKey = "ownership.sports_team"
)

// Registry is a read and compute layer over the ownership collections.
// Ownership flows outside the core write the keys; the registry never does.
type Registry struct {
	mu    sync.Mutex
	store domain.KeyValueStore
	log   *slog.Logger
	last  *domain.OwnershipBreakdown
}

// NewRegistry creates a registry reading from store
func NewRegistry(store domain.KeyValueStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, log: logger.With("component", "ownership")}
}

// F1Team returns the persisted racing team, or nil when there is none
func (r *Registry) F1Team(ctx context.Context) *domain.F1Team {
	var team domain.F1Team
	if !r.load(ctx, F1TeamKey, &team) {
		return nil
	}
	return &team
}

// Horses returns the persisted horses, empty when there are none
func (r *Registry) Horses(ctx context.Context) []domain.Horse {
	var horses []domain.Horse
	if !r.load(ctx, HorsesKey, &horses) || horses == nil {
		return []domain.Horse{}
	}
	return horses
}

// SportsTeam returns the persisted franchise, or nil when there is none
func (r *Registry) SportsTeam(ctx context.Context) *domain.SportsTeam {
	var team domain.SportsTeam
	if !r.load(ctx, SportsTeamKey, &team) {
		return nil
	}
	return &team
}

// load decodes key into v; absent or unreadable keys report false
func (r *Registry) load(ctx context.Context, key string, v any) bool {
	found, err := kvjson.Load(ctx, r.store, key, v)
	if err != nil {
		r.log.Warn("ownership collection unreadable, treated as empty", "key", key, "err", err)
		return false
	}
	return found
}

// TotalOwnershipValue implements domain.OwnershipValuer
func (r *Registry) TotalOwnershipValue(ctx context.Context) decimal.Decimal {
	return r.OwnershipBreakdown(ctx).Total
}

// OwnershipBreakdown values every specialty asset and itemizes the result.
// Fields that failed to decode count as zero and are logged.
func (r *Registry) OwnershipBreakdown(ctx context.Context) domain.OwnershipBreakdown {
	b := domain.OwnershipBreakdown{
		F1TeamValue:     decimal.Zero,
		Horses:          []domain.HorseValuation{},
		HorsesValue:     decimal.Zero,
		SportsTeamValue: decimal.Zero,
	}

	if team := r.F1Team(ctx); team != nil {
		r.reportInvalid(F1TeamKey, team.Name, team.InvalidFields())
		b.F1Team = team
		b.F1TeamValue = team.Value()
	}

	for _, h := range r.Horses(ctx) {
		r.reportInvalid(HorsesKey, h.ID, h.InvalidFields())
		v := h.Value()
		b.Horses = append(b.Horses, domain.HorseValuation{ID: h.ID, Name: h.Name, Value: v})
		b.HorsesValue = b.HorsesValue.Add(v)
	}

	if team := r.SportsTeam(ctx); team != nil {
		r.reportInvalid(SportsTeamKey, team.Name, team.InvalidFields())
		b.SportsTeam = team
		b.SportsTeamValue = team.Value()
	}

	b.Total = decimal.Sum(b.F1TeamValue, b.HorsesValue, b.SportsTeamValue)

	r.mu.Lock()
	r.last = &b
	r.mu.Unlock()
	return b
}

func (r *Registry) reportInvalid(key, name string, fields []string) {
	if len(fields) == 0 {
		return
	}
	r.log.Warn("invalid ownership fields coerced to zero",
		"key", key,
		"name", name,
		"fields", fields,
		"err", fmt.Errorf("%w: %v", domain.ErrCalculation, fields),
	)
}

// LastBreakdown returns the most recent breakdown, or false before the first one
func (r *Registry) LastBreakdown() (domain.OwnershipBreakdown, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return domain.OwnershipBreakdown{}, false
	}
	return *r.last, true
}

// StorageKeys lists the ownership keys cleared by a reset
func (r *Registry) StorageKeys() []string {
	return []string{F1TeamKey, HorsesKey, SportsTeamKey}
}

// Reset drops the cached breakdown
func (r *Registry) Reset(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = nil
	return nil
}

// VerifyReset confirms no ownership collection remains in storage
func (r *Registry) VerifyReset(ctx context.Context) error {
	for _, key := range r.StorageKeys() {
		ok, err := kvjson.Present(ctx, r.store, key)
		if err != nil {
			return err
		}
		if ok {
			return domain.ResidualState(key, 1)
		}
	}
	if _, ok := r.LastBreakdown(); ok {
		return fmt.Errorf("%w: ownership breakdown still cached", domain.ErrResetVerification)
	}
	return nil
}
