// Package event provides a pub/sub bus for fanning agent events out to the
// session journal and any other observers, grounded on the teacher's
// internal/event/bus.go.
package event

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/lashdev/lash/pkg/types"
)

// Subscriber receives agent events, either for one EventKind or (via
// SubscribeAll) for every kind.
type Subscriber func(ev types.AgentEvent)

type subscriberEntry struct {
	id uint64
	fn Subscriber
}

// Bus fans out AgentEvents by direct calls to its subscribers, so they
// receive typed AgentEvent values, not re-marshaled bytes. It also owns a
// watermill gochannel, exposed through PubSub and closed with the Bus;
// Publish and PublishSync do not send events through it.
type Bus struct {
	mu sync.RWMutex

	pubsub *gochannel.GoChannel

	subscribers map[types.AgentEventKind][]subscriberEntry
	global      []subscriberEntry

	nextID       uint64
	closed       bool
	closedCancel context.CancelFunc
	closedCtx    context.Context
}

// New creates a new, independent event bus.
func New() *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 100,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
		subscribers:  make(map[types.AgentEventKind][]subscriberEntry),
		closedCtx:    ctx,
		closedCancel: cancel,
	}
}

func (b *Bus) newID() uint64 {
	return atomic.AddUint64(&b.nextID, 1)
}

// Subscribe registers fn for events of exactly kind. The returned func
// unsubscribes it.
func (b *Bus) Subscribe(kind types.AgentEventKind, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.newID()
	b.subscribers[kind] = append(b.subscribers[kind], subscriberEntry{id: id, fn: fn})
	return func() { b.unsubscribe(kind, id) }
}

// SubscribeAll registers fn for every event kind, e.g. the session journal
// writer.
func (b *Bus) SubscribeAll(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.newID()
	b.global = append(b.global, subscriberEntry{id: id, fn: fn})
	return func() { b.unsubscribeGlobal(id) }
}

func (b *Bus) unsubscribe(kind types.AgentEventKind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[kind]
	for i, entry := range subs {
		if entry.id == id {
			b.subscribers[kind] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

func (b *Bus) unsubscribeGlobal(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, entry := range b.global {
		if entry.id == id {
			b.global = append(b.global[:i], b.global[i+1:]...)
			break
		}
	}
}

// Publish delivers ev to all matching subscribers asynchronously, one
// goroutine per subscriber, so a slow observer never blocks the agent
// loop.
func (b *Bus) Publish(ev types.AgentEvent) {
	subs := b.collect(ev.Kind)
	for _, sub := range subs {
		go sub(ev)
	}
}

// PublishSync delivers ev to all matching subscribers synchronously on the
// caller's goroutine, so every subscriber (such as an attached session
// journal writer) has handled ev before PublishSync returns.
func (b *Bus) PublishSync(ev types.AgentEvent) {
	subs := b.collect(ev.Kind)
	for _, sub := range subs {
		sub(ev)
	}
}

func (b *Bus) collect(kind types.AgentEventKind) []Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	subs := make([]Subscriber, 0, len(b.subscribers[kind])+len(b.global))
	for _, entry := range b.subscribers[kind] {
		subs = append(subs, entry.fn)
	}
	for _, entry := range b.global {
		subs = append(subs, entry.fn)
	}
	return subs
}

// Reset clears all subscribers and underlying transport, for test
// isolation between cases that share a Bus.
func (b *Bus) Reset() {
	b.mu.Lock()
	b.closed = true
	b.closedCancel()
	_ = b.pubsub.Close()
	b.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	fresh := New()
	b.mu.Lock()
	b.pubsub = fresh.pubsub
	b.subscribers = fresh.subscribers
	b.global = nil
	b.nextID = 0
	b.closed = false
	b.closedCtx = fresh.closedCtx
	b.closedCancel = fresh.closedCancel
	b.mu.Unlock()
}

// Close shuts the bus down; subsequent Publish/Subscribe calls are no-ops.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.closedCancel()
	b.subscribers = make(map[types.AgentEventKind][]subscriberEntry)
	b.global = nil
	b.mu.Unlock()

	return b.pubsub.Close()
}

// PubSub returns the underlying watermill GoChannel for advanced use,
// such as bridging events to a distributed backend later.
func (b *Bus) PubSub() *gochannel.GoChannel {
	return b.pubsub
}
