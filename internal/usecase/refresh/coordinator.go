// Package refresh runs the ordered recompute pipeline that keeps the ledger
// totals and the character wealth consistent.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/simaogato/wealthsim-backend/internal/domain"
)

const tracerName = "github.com/simaogato/wealthsim-backend/internal/usecase/refresh"

// Tolerance is the largest cash drift accepted without correction
var Tolerance = decimal.NewFromFloat(0.01)

// Status is the outcome of one refresh request
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Reasons attached to skipped results
const (
	ReasonBusy            = "refresh already running"
	ReasonThrottled       = "throttled"
	ReasonResetInProgress = "reset in progress"
)

// Request describes who asked for a refresh
type Request struct {
	Source string
	View   string
	Force  bool
}

// Result reports what a refresh did
type Result struct {
	Status    Status
	Reason    string
	Snapshot  domain.AggregateSnapshot
	Corrected bool
	Err       error
}

// State is the process-wide refresh status shown by loading indicators
type State struct {
	LastRefreshTime time.Time `json:"lastRefreshTime"`
	IsRefreshing    bool      `json:"isRefreshing"`
}

// Ledger is the part of the asset ledger the pipeline drives
type Ledger interface {
	domain.CashLedger
	RecalculateTotals(ctx context.Context) domain.AggregateSnapshot
}

// Wealth is the part of the character facade the pipeline reconciles
type Wealth interface {
	Wealth() decimal.Decimal
	Align(ctx context.Context, value decimal.Decimal)
}

// ResetStatus reports whether a reset is running
type ResetStatus interface {
	InProgress(ctx context.Context) bool
}

// Config tunes throttling and debouncing
type Config struct {
	Throttle    time.Duration
	Debounce    time.Duration
	SettleDelay time.Duration
	FreshViews  []string
	Now         func() time.Time
}

// Coordinator runs at most one pipeline at a time
type Coordinator struct {
	ledger Ledger
	wealth Wealth
	resets ResetStatus
	log    *slog.Logger
	tracer trace.Tracer

	throttle   time.Duration
	debounce   time.Duration
	freshViews map[string]bool
	now        func() time.Time

	// Settle runs between the cash sync and the first recompute.
	// It waits SettleDelay by default and must honor ctx.
	Settle func(ctx context.Context) error

	running     atomic.Bool
	afterReset  atomic.Bool
	lastRefresh atomic.Int64

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending Request
	closed  bool
}

// NewCoordinator creates a coordinator over ledger and wealth
func NewCoordinator(ledger Ledger, wealth Wealth, resets ResetStatus, cfg Config, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	fresh := make(map[string]bool, len(cfg.FreshViews))
	for _, v := range cfg.FreshViews {
		fresh[v] = true
	}

	c := &Coordinator{
		ledger:     ledger,
		wealth:     wealth,
		resets:     resets,
		log:        logger.With("component", "refresh"),
		tracer:     otel.Tracer(tracerName),
		throttle:   cfg.Throttle,
		debounce:   cfg.Debounce,
		freshViews: fresh,
		now:        cfg.Now,
	}
	delay := cfg.SettleDelay
	c.Settle = func(ctx context.Context) error { return sleep(ctx, delay) }
	return c
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// State returns the current refresh status
func (c *Coordinator) State() State {
	s := State{IsRefreshing: c.running.Load()}
	if ns := c.lastRefresh.Load(); ns != 0 {
		s.LastRefreshTime = time.Unix(0, ns)
	}
	return s
}

// throttledFor returns how long req must still wait, zero when it may run
func (c *Coordinator) throttledFor(req Request) time.Duration {
	if req.Force || c.freshViews[req.View] || c.afterReset.Load() || c.throttle <= 0 {
		return 0
	}
	last := c.lastRefresh.Load()
	if last == 0 {
		return 0
	}
	if wait := c.throttle - c.now().Sub(time.Unix(0, last)); wait > 0 {
		return wait
	}
	return 0
}

// TriggerRefresh runs the pipeline unless another run is in flight, the
// request is throttled, or a reset is running. It never panics.
func (c *Coordinator) TriggerRefresh(ctx context.Context, req Request) (res Result) {
	if c.resets != nil && c.resets.InProgress(ctx) {
		return Result{Status: StatusSkipped, Reason: ReasonResetInProgress}
	}
	if c.throttledFor(req) > 0 {
		return Result{Status: StatusSkipped, Reason: ReasonThrottled}
	}
	if !c.running.CompareAndSwap(false, true) {
		return Result{Status: StatusSkipped, Reason: ReasonBusy}
	}
	defer c.running.Store(false)

	ctx, span := c.tracer.Start(ctx, "refresh.pipeline", trace.WithAttributes(
		attribute.String("refresh.source", req.Source),
		attribute.String("refresh.view", req.View),
		attribute.Bool("refresh.force", req.Force),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("refresh pipeline panicked: %v", r)
			res = Result{Status: StatusFailed, Err: err}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.log.Error("refresh failed", "source", req.Source, "err", err)
		}
	}()

	res = c.run(ctx)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		c.log.Error("refresh failed", "source", req.Source, "err", res.Err)
		return res
	}
	if res.Status == StatusSkipped {
		return res
	}

	c.lastRefresh.Store(c.now().UnixNano())
	c.afterReset.Store(false)
	span.SetAttributes(attribute.Bool("refresh.corrected", res.Corrected))
	c.log.Debug("refresh completed",
		"source", req.Source,
		"net_worth", res.Snapshot.TotalNetWorth.String(),
		"corrected", res.Corrected,
	)
	return res
}

func (c *Coordinator) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, "refresh."+name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// step runs a stage that cannot fail inside its own span
func (c *Coordinator) step(ctx context.Context, name string, fn func(ctx context.Context)) {
	ctx, span := c.tracer.Start(ctx, "refresh."+name)
	defer span.End()
	fn(ctx)
}

// interrupted reports whether a reset started while the pipeline was running.
// The remaining stages must not write pre-reset values back.
func (c *Coordinator) interrupted(ctx context.Context, stage string) bool {
	if c.resets == nil || !c.resets.InProgress(ctx) {
		return false
	}
	c.log.Info("refresh abandoned for reset", "before", stage)
	return true
}

// run executes the four stages in order
func (c *Coordinator) run(ctx context.Context) Result {
	var res Result
	abandoned := Result{Status: StatusSkipped, Reason: ReasonResetInProgress}

	// 1. Sync facade wealth into the ledger cash record
	c.step(ctx, "sync_cash", func(ctx context.Context) {
		c.ledger.SetCash(ctx, c.wealth.Wealth())
	})

	// 2. Let side effects settle, then recompute
	if err := c.stage(ctx, "settle", c.Settle); err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("settle: %w", err)}
	}
	if c.interrupted(ctx, "recalculate") {
		return abandoned
	}
	c.step(ctx, "recalculate", func(ctx context.Context) {
		c.ledger.RecalculateTotals(ctx)
	})

	// 3. Ledger wins any remaining drift
	if c.interrupted(ctx, "reconcile") {
		return abandoned
	}
	c.step(ctx, "reconcile", func(ctx context.Context) {
		ledgerCash := c.ledger.TotalCash()
		facadeCash := c.wealth.Wealth()
		if facadeCash.Sub(ledgerCash).Abs().GreaterThan(Tolerance) {
			c.wealth.Align(ctx, ledgerCash)
			res.Corrected = true
			c.log.Warn("cash drift corrected",
				"ledger", ledgerCash.String(),
				"character", facadeCash.String(),
				"err", domain.ErrConsistency,
			)
		}
	})

	// 4. Recompute again to reflect the correction
	c.step(ctx, "recalculate_final", func(ctx context.Context) {
		res.Snapshot = c.ledger.RecalculateTotals(ctx)
	})

	res.Status = StatusCompleted
	return res
}
