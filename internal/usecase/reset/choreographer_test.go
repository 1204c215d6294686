package reset

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/wealthsim-backend/internal/adapter/repository/memory"
	"github.com/simaogato/wealthsim-backend/internal/domain"
	"github.com/simaogato/wealthsim-backend/internal/usecase/character"
	"github.com/simaogato/wealthsim-backend/internal/usecase/gametime"
	"github.com/simaogato/wealthsim-backend/internal/usecase/journal"
	"github.com/simaogato/wealthsim-backend/internal/usecase/ledger"
	"github.com/simaogato/wealthsim-backend/internal/usecase/market"
	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
	"github.com/simaogato/wealthsim-backend/internal/usecase/ownership"
	"github.com/simaogato/wealthsim-backend/internal/usecase/session"
)

type world struct {
	store     *memory.KVStore
	bus       *notify.Bus
	flags     *session.Flags
	ledger    *ledger.Ledger
	ownership *ownership.Registry
	clock     *gametime.Clock
	character *character.Facade
	prices    *market.PriceTable
	journal   *journal.Journal
	reset     *Choreographer
}

var startingCash = decimal.NewFromInt(10_000)

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{store: memory.NewKVStore(), bus: notify.NewBus(nil)}
	w.flags = session.NewFlags(memory.NewKVStore(), nil)
	w.ownership = ownership.NewRegistry(w.store, nil)
	w.prices = market.NewPriceTable(w.store, w.bus, nil)
	w.ledger = ledger.NewLedger(w.store, w.ownership, ledger.Config{
		StartingCash: startingCash,
		Market:       market.Fixed(true),
		Prices:       w.prices,
	}, w.bus, nil)
	w.clock = gametime.NewClock(w.store, w.bus, nil)
	w.character = character.NewFacade(w.store, w.ledger, startingCash, w.bus, nil)
	w.journal = journal.NewJournal(w.store, 0, nil)
	w.journal.Attach(w.bus)
	w.reset = NewChoreographer(w.store, w.flags,
		Phases(w.ledger, w.ownership, w.clock, w.character, w.prices, w.journal), w.bus, nil)
	return w
}

func (w *world) play(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	records := []domain.Record{
		domain.StockHolding{ID: "AAPL", Shares: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(150)},
		domain.CryptoHolding{ID: "BTC", Amount: decimal.NewFromInt(1), CurrentPrice: decimal.NewFromInt(60_000)},
		domain.BondHolding{ID: "b", Amount: decimal.NewFromInt(1_000)},
		domain.OtherInvestment{ID: "o", CurrentValue: decimal.NewFromInt(5)},
		domain.PropertyHolding{ID: "p", CurrentValue: decimal.NewFromInt(500_000), Mortgage: decimal.NewFromInt(400_000)},
		domain.LifestyleItem{ID: "l", CurrentValue: decimal.NewFromInt(80_000)},
	}
	for _, r := range records {
		_, err := w.ledger.AddRecord(ctx, r)
		require.NoError(t, err)
	}
	require.NoError(t, w.store.Put(ctx, ownership.HorsesKey, []byte(`[{"id":"h","price":1000}]`)))
	require.NoError(t, w.prices.SetPrice(ctx, "AAPL", decimal.NewFromInt(151)))
	_, err := w.clock.Advance(ctx, 30)
	require.NoError(t, err)
	w.character.UpdateCash(ctx, decimal.NewFromInt(-2_500))
	w.ledger.RecalculateTotals(ctx)
}

func (w *world) assertFresh(t *testing.T) {
	t.Helper()
	h := w.ledger.Holdings()
	for _, c := range domain.Collections {
		assert.Zero(t, h.Len(c), "collection %s", c)
	}
	snap := w.ledger.NetWorthBreakdown()
	assert.True(t, startingCash.Equal(snap.TotalCash), "cash %s", snap.TotalCash)
	assert.True(t, snap.TotalCash.Equal(snap.TotalNetWorth), "net worth %s", snap.TotalNetWorth)
	assert.True(t, startingCash.Equal(w.character.Wealth()))
	assert.Zero(t, w.clock.Day())
	assert.Empty(t, w.prices.Quotes())
	assert.True(t, w.ownership.TotalOwnershipValue(context.Background()).IsZero())
}

func TestPerformCompleteReset_Completeness(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	w.play(t)
	require.False(t, w.ledger.NetWorthBreakdown().TotalNetWorth.Equal(startingCash))

	report := w.reset.PerformCompleteReset(ctx)

	assert.True(t, report.Clean(), "failures: %v", report.Failures)
	assert.Equal(t, StateCompleted, report.State)
	assert.Equal(t, []State{StateFlagged, StateStorageCleared, StateStoresReset, StateVerified, StateCompleted}, report.Transitions)
	assert.ElementsMatch(t, []string{
		ledger.SnapshotKey, ledger.BreakdownKey, ledger.HistoryKey,
		ownership.F1TeamKey, ownership.HorsesKey, ownership.SportsTeamKey,
		gametime.ClockKey, character.WealthKey, market.PricesKey, journal.JournalKey,
	}, report.ClearedKeys)
	w.assertFresh(t)

	assert.False(t, w.flags.InProgress(ctx))
	assert.True(t, w.flags.JustCompleted(ctx))
	assert.Equal(t, StateCompleted, w.reset.State())
}

func TestPerformCompleteReset_Idempotent(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	w.play(t)

	first := w.reset.PerformCompleteReset(ctx)
	keysAfterFirst := w.store.Keys()
	second := w.reset.PerformCompleteReset(ctx)

	assert.True(t, first.Clean())
	assert.True(t, second.Clean())
	assert.Equal(t, keysAfterFirst, w.store.Keys())
	w.assertFresh(t)
}

func TestPerformCompleteReset_PublishesLifecycle(t *testing.T) {
	w := newWorld(t)
	var kinds []notify.Kind
	w.bus.Subscribe(func(e notify.Event) { kinds = append(kinds, e.Kind) }, notify.ResetStarted, notify.ResetCompleted)

	w.reset.PerformCompleteReset(context.Background())

	assert.Equal(t, []notify.Kind{notify.ResetStarted, notify.ResetCompleted}, kinds)
}

type fakeComponent struct {
	name        string
	keys        []string
	order       *[]string
	failVerify  int
	verifyCalls int
	resetCalls  int
}

func (f *fakeComponent) StorageKeys() []string { return f.keys }

func (f *fakeComponent) Reset(context.Context) error {
	f.resetCalls++
	*f.order = append(*f.order, f.name)
	return nil
}

func (f *fakeComponent) VerifyReset(context.Context) error {
	f.verifyCalls++
	if f.verifyCalls <= f.failVerify {
		return domain.ResidualState(f.name, 1)
	}
	return nil
}

type noFlags struct{}

func (noFlags) MarkInProgress(context.Context) {}
func (noFlags) MarkCompleted(context.Context)  {}

func fakePhases(order *[]string) (map[string]*fakeComponent, []Phase) {
	names := []string{PhaseLedger, PhaseOwnership, PhaseTime, PhaseCharacter, PhaseEconomy, PhaseEvents}
	byName := make(map[string]*fakeComponent, len(names))
	var comps []Component
	for _, n := range names {
		fc := &fakeComponent{name: n, keys: []string{n + ".state"}, order: order}
		byName[n] = fc
		comps = append(comps, fc)
	}
	return byName, Phases(comps[0], comps[1], comps[2], comps[3], comps[4], comps[5])
}

func TestPerformCompleteReset_PhaseOrder(t *testing.T) {
	var order []string
	_, phases := fakePhases(&order)
	c := NewChoreographer(memory.NewKVStore(), noFlags{}, phases, nil, nil)

	c.PerformCompleteReset(context.Background())

	assert.Equal(t, []string{PhaseLedger, PhaseOwnership, PhaseTime, PhaseCharacter, PhaseEconomy, PhaseEvents}, order)
}

func TestPerformCompleteReset_ForceClearsOnce(t *testing.T) {
	ctx := context.Background()
	var order []string
	byName, phases := fakePhases(&order)
	byName[PhaseTime].failVerify = 1
	byName[PhaseEvents].failVerify = 5

	store := memory.NewKVStore()
	c := NewChoreographer(store, noFlags{}, phases, nil, nil)

	report := c.PerformCompleteReset(ctx)

	assert.Equal(t, StateCompleted, report.State, "verification failures never abort")
	assert.Equal(t, []string{PhaseTime}, report.Recovered)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, PhaseEvents, report.Failures[0].Phase)
	assert.Equal(t, 2, byName[PhaseTime].resetCalls)
	assert.Equal(t, 2, byName[PhaseEvents].verifyCalls)
	assert.Equal(t, 1, byName[PhaseLedger].resetCalls)
}

// strayStore rewrites a key the first time it is deleted
type strayStore struct {
	*memory.KVStore
	key    string
	strays int
}

func (s *strayStore) Delete(ctx context.Context, key string) error {
	if err := s.KVStore.Delete(ctx, key); err != nil {
		return err
	}
	if key == s.key && s.strays == 0 {
		s.strays++
		return s.KVStore.Put(ctx, key, []byte(`"late write"`))
	}
	return nil
}

func TestPerformCompleteReset_RemovesStrayWrites(t *testing.T) {
	ctx := context.Background()
	var order []string
	_, phases := fakePhases(&order)
	store := &strayStore{KVStore: memory.NewKVStore(), key: PhaseTime + ".state"}
	require.NoError(t, store.Put(ctx, store.key, []byte(`1`)))

	c := NewChoreographer(store, noFlags{}, phases, nil, nil)
	report := c.PerformCompleteReset(ctx)

	assert.Equal(t, []string{store.key}, report.StrayKeys)
	has, err := store.Has(ctx, store.key)
	require.NoError(t, err)
	assert.False(t, has)
}
