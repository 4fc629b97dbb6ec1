package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lashdev/lash/pkg/types"
)

func TestSubscribeReceivesOnlyMatchingKind(t *testing.T) {
	b := New()
	defer b.Close()

	var mu sync.Mutex
	var got []types.AgentEvent
	b.Subscribe(types.EventDone, func(ev types.AgentEvent) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})

	b.PublishSync(types.DoneEvent())
	b.PublishSync(types.ErrorEvent("boom"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	require.Equal(t, types.EventDone, got[0].Kind)
}

func TestSubscribeAllReceivesEveryKind(t *testing.T) {
	b := New()
	defer b.Close()

	var mu sync.Mutex
	var kinds []types.AgentEventKind
	b.SubscribeAll(func(ev types.AgentEvent) {
		mu.Lock()
		kinds = append(kinds, ev.Kind)
		mu.Unlock()
	})

	b.PublishSync(types.DoneEvent())
	b.PublishSync(types.ErrorEvent("boom"))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []types.AgentEventKind{types.EventDone, types.EventError}, kinds)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	defer b.Close()

	var mu sync.Mutex
	count := 0
	unsub := b.Subscribe(types.EventDone, func(ev types.AgentEvent) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	b.PublishSync(types.DoneEvent())
	unsub()
	b.PublishSync(types.DoneEvent())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, count)
}

func TestPublishDeliversAsynchronously(t *testing.T) {
	b := New()
	defer b.Close()

	done := make(chan struct{})
	b.Subscribe(types.EventDone, func(ev types.AgentEvent) {
		close(done)
	})

	b.Publish(types.DoneEvent())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber was never called")
	}
}

func TestCloseStopsFurtherDelivery(t *testing.T) {
	b := New()

	count := 0
	b.Subscribe(types.EventDone, func(ev types.AgentEvent) { count++ })

	require.NoError(t, b.Close())
	b.PublishSync(types.DoneEvent())

	require.Equal(t, 0, count)
}

func TestResetClearsSubscribersButBusStaysUsable(t *testing.T) {
	b := New()
	defer b.Close()

	count := 0
	b.Subscribe(types.EventDone, func(ev types.AgentEvent) { count++ })
	b.Reset()

	b.PublishSync(types.DoneEvent())
	require.Equal(t, 0, count, "reset drops old subscribers")

	delivered := false
	b.Subscribe(types.EventDone, func(ev types.AgentEvent) { delivered = true })
	b.PublishSync(types.DoneEvent())
	require.True(t, delivered, "bus accepts new subscribers after reset")
}
