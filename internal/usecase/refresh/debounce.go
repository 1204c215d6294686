package refresh

import (
	"context"
	"time"

	"github.com/simaogato/wealthsim-backend/internal/usecase/notify"
)

// Schedule collapses bursts of requests into one trailing run after the
// debounce wait. A trailing run that is throttled or finds another run in
// flight is re-armed, so the last mutation is always followed by a refresh.
func (c *Coordinator) Schedule(req Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	req.Force = req.Force || c.pending.Force
	if req.View == "" {
		req.View = c.pending.View
	}
	c.pending = req
	c.armLocked(c.debounce)
}

func (c *Coordinator) armLocked(wait time.Duration) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(wait, func() { c.fire(gen) })
}

func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	req := c.pending
	c.pending = Request{}
	c.timer = nil
	c.mu.Unlock()

	res := c.TriggerRefresh(context.Background(), req)
	if res.Status != StatusSkipped {
		return
	}

	var wait time.Duration
	switch res.Reason {
	case ReasonThrottled:
		wait = c.throttledFor(req)
	case ReasonBusy:
		wait = c.debounce
	default:
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.timer != nil {
		return
	}
	c.pending = req
	c.armLocked(wait)
}

// Subscribe wires ledger, cash and clock changes to Schedule and lets the
// first refresh after a reset bypass the throttle
func (c *Coordinator) Subscribe(bus *notify.Bus) func() {
	stopChanges := bus.Subscribe(func(e notify.Event) {
		c.Schedule(Request{Source: string(e.Kind)})
	}, notify.RecordsChanged, notify.CashChanged, notify.TimeAdvanced)

	stopReset := bus.Subscribe(func(notify.Event) {
		c.afterReset.Store(true)
	}, notify.ResetCompleted)

	return func() {
		stopChanges()
		stopReset()
	}
}

// Close cancels any pending debounced run
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
