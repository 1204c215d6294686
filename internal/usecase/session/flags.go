// Package session keeps the short-lived reset markers consulted by readers
// that must not trust cached snapshots right after a reset.
package session

import (
	"context"
	"log/slog"

	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/kvjson"
)

const (
	ResetInProgressKey = "session.reset_in_progress"
	ResetCompletedKey  = "session.reset_completed"
)

// Flags stores the reset markers in a session-scoped store.
// A marker is set when its key is present.
type Flags struct {
	store domain.KeyValueStore
	log   *slog.Logger
}

// NewFlags creates the reset markers on store
func NewFlags(store domain.KeyValueStore, logger *slog.Logger) *Flags {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flags{store: store, log: logger.With("component", "session")}
}

// MarkInProgress sets the in-progress marker and drops a stale completed one
func (f *Flags) MarkInProgress(ctx context.Context) {
	f.set(ctx, ResetInProgressKey)
	f.clear(ctx, ResetCompletedKey)
}

// MarkCompleted clears the in-progress marker and sets the completed one
func (f *Flags) MarkCompleted(ctx context.Context) {
	f.clear(ctx, ResetInProgressKey)
	f.set(ctx, ResetCompletedKey)
}

// InProgress reports whether a reset is running
func (f *Flags) InProgress(ctx context.Context) bool {
	return f.present(ctx, ResetInProgressKey)
}

// JustCompleted reports whether a reset finished and nobody acknowledged it yet
func (f *Flags) JustCompleted(ctx context.Context) bool {
	return f.present(ctx, ResetCompletedKey)
}

// Acknowledge clears the completed marker once a consumer has observed it
func (f *Flags) Acknowledge(ctx context.Context) {
	f.clear(ctx, ResetCompletedKey)
}

// Clear drops both markers
func (f *Flags) Clear(ctx context.Context) {
	f.clear(ctx, ResetInProgressKey)
	f.clear(ctx, ResetCompletedKey)
}

func (f *Flags) set(ctx context.Context, key string) {
	if err := kvjson.Save(ctx, f.store, key, true); err != nil {
		f.log.Error("session flag write failed", "key", key, "err", err)
	}
}

func (f *Flags) clear(ctx context.Context, key string) {
	if err := kvjson.Remove(ctx, f.store, key); err != nil {
		f.log.Error("session flag clear failed", "key", key, "err", err)
	}
}

func (f *Flags) present(ctx context.Context, key string) bool {
	ok, err := kvjson.Present(ctx, f.store, key)
	if err != nil {
		f.log.Warn("session flag unreadable", "key", key, "err", err)
		return false
	}
	return ok
}
