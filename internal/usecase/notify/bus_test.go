package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishFiltersByKind(t *testing.T) {
	bus := NewBus(nil)

	var all, cash []Kind
	bus.Subscribe(func(e Event) { all = append(all, e.Kind) })
	bus.Subscribe(func(e Event) { cash = append(cash, e.Kind) }, CashChanged)

	bus.Publish(Event{Kind: RecordsChanged})
	bus.Publish(Event{Kind: CashChanged})

	assert.Equal(t, []Kind{RecordsChanged, CashChanged}, all)
	assert.Equal(t, []Kind{CashChanged}, cash)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)

	calls := 0
	cancel := bus.Subscribe(func(Event) { calls++ })
	bus.Publish(Event{Kind: TimeAdvanced})
	cancel()
	bus.Publish(Event{Kind: TimeAdvanced})

	assert.Equal(t, 1, calls)
}

func TestBus_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus(nil)

	delivered := false
	bus.Subscribe(func(Event) { panic("boom") })
	bus.Subscribe(func(e Event) {
		delivered = true
		assert.False(t, e.At.IsZero())
	})

	assert.NotPanics(t, func() { bus.Publish(Event{Kind: ResetCompleted}) })
	assert.True(t, delivered)
}

func TestBus_NilIsNoop(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Publish(Event{Kind: CashChanged}) })
}
