// Package app is the composition root. It builds every core component and
// hands each one its collaborators explicitly.
package app

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/simaogato/wealthsim-backend/internal/adapter/repository/memory"
	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/character"
	"github.com/simaogato/wealthsim-backend/internal/usecase/dashboard"
	"github.com/simaogato/wealthsim-backend/internal/usecase/gametime"
	"github.com/simaogato/wealthsim-backend/internal/usecase/journal"
	"github.com/simaogato/wealthsim-backend/internal/usecase/ledger"
	"github.com/simaogato/wealthsim-backend/internal/usecase/market"
	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
	"github.com/simaogato/wealthsim-backend/internal/usecase/ownership"
	"github.com/simaogato/wealthsim-backend/internal/usecase/refresh"
	"github.com/simaogato/wealthsim-backend/internal/usecase/reset"
	"github.com/simaogato/wealthsim-backend/internal/usecase/seeder"
	"github.com/simaogato/wealthsim-backend/internal/usecase/session"
)

// Options configures the application
type Options struct {
	// Store holds every persisted key
	Store domain.KeyValueStore
	// Session holds the reset markers; an in-memory store when nil
	Session domain.KeyValueStore

	StartingCash decimal.Decimal
	Tiers        domain.TierTable
	Market       domain.MarketHours
	Refresh      refresh.Config
	Quotes       []seeder.MarketQuote
	Logger       *slog.Logger
}

// App holds the wired components
type App struct {
	Bus       *notify.Bus
	Prices    *market.PriceTable
	Ownership *ownership.Registry
	Ledger    *ledger.Ledger
	Character *character.Facade
	Clock     *gametime.Clock
	Journal   *journal.Journal
	Flags     *session.Flags
	Refresh   *refresh.Coordinator
	Reset     *reset.Choreographer
	Dashboard *dashboard.DashboardService
	Seeder    *seeder.PriceSeeder

	log         *slog.Logger
	unsubscribe []func()
}

// New wires the components; nothing is read from storage until Start
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessionStore := opts.Session
	if sessionStore == nil {
		sessionStore = memory.NewKVStore()
	}

	a := &App{log: logger}
	a.Bus = notify.NewBus(logger)
	a.Prices = market.NewPriceTable(opts.Store, a.Bus, logger)
	a.Ownership = ownership.NewRegistry(opts.Store, logger)
	a.Ledger = ledger.NewLedger(opts.Store, a.Ownership, ledger.Config{
		StartingCash: opts.StartingCash,
		Tiers:        opts.Tiers,
		Market:       opts.Market,
		Prices:       a.Prices,
	}, a.Bus, logger)
	a.Character = character.NewFacade(opts.Store, a.Ledger, opts.StartingCash, a.Bus, logger)
	a.Clock = gametime.NewClock(opts.Store, a.Bus, logger)
	a.Journal = journal.NewJournal(opts.Store, journal.DefaultCapacity, logger)
	a.Flags = session.NewFlags(sessionStore, logger)
	a.Refresh = refresh.NewCoordinator(a.Ledger, a.Character, a.Flags, opts.Refresh, logger)
	a.Reset = reset.NewChoreographer(opts.Store, a.Flags,
		reset.Phases(a.Ledger, a.Ownership, a.Clock, a.Character, a.Prices, a.Journal),
		a.Bus, logger)
	a.Dashboard = dashboard.NewDashboardService(opts.Store, a.Ledger, a.Ownership, a.Refresh, a.Flags, opts.Tiers)
	a.Seeder = seeder.NewPriceSeeder(a.Prices, opts.Quotes)
	return a
}

// Start loads persisted state, seeds missing prices, subscribes the
// event-driven components and runs one forced refresh
func (a *App) Start(ctx context.Context) refresh.Result {
	a.Prices.Load(ctx)
	a.Ledger.Load(ctx)
	a.Character.Load(ctx)
	a.Clock.Load(ctx)
	a.Journal.Load(ctx)

	if err := a.Seeder.Seed(ctx); err != nil {
		a.log.Error("price seeding failed", "err", err)
	}

	a.unsubscribe = append(a.unsubscribe,
		a.Journal.Attach(a.Bus),
		a.Refresh.Subscribe(a.Bus),
	)
	return a.Refresh.TriggerRefresh(ctx, refresh.Request{Source: "startup", Force: true})
}

// PerformCompleteReset resets every store and seeds the opening prices again
func (a *App) PerformCompleteReset(ctx context.Context) reset.Report {
	report := a.Reset.PerformCompleteReset(ctx)
	if err := a.Seeder.Seed(ctx); err != nil {
		a.log.Error("price seeding after reset failed", "err", err)
	}
	return report
}

// Close stops background work started by Start
func (a *App) Close() {
	for _, stop := range a.unsubscribe {
		stop()
	}
	a.unsubscribe = nil
	a.Refresh.Close()
}
