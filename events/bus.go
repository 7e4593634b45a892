package events

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pitabwire/util"
)

const DefaultSubscriberBuffer = 16

// Bus is a bounded, non-blocking fan-out of events to subscribers.
// A subscriber that falls behind loses its oldest queued events.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
	forwarder   *Forwarder
	published   atomic.Int64
}

type Option func(*Bus)

// WithForwarder also sends every published event to a queue publisher.
func WithForwarder(f *Forwarder) Option {
	return func(b *Bus) {
		b.forwarder = f
	}
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subscribers: make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ Publisher = (*Bus)(nil)

func (b *Bus) Publish(ctx context.Context, event Event) {
	if event == nil {
		return
	}
	b.published.Add(1)

	b.mu.RLock()
	for sub := range b.subscribers {
		sub.deliver(event)
	}
	b.mu.RUnlock()

	util.Log(ctx).WithField("event", event.Name()).Debug("event published")

	if b.forwarder != nil {
		b.forwarder.forward(ctx, event)
	}
}

// Published returns how many events went through the bus.
func (b *Bus) Published() int64 {
	return b.published.Load()
}

// Subscribe registers a subscriber holding at most buffer undelivered events.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	sub := &Subscription{
		bus:    b,
		events: make(chan Event, buffer),
	}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	delete(b.subscribers, sub)
	b.mu.Unlock()
}

// Subscribers returns the number of open subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

type Subscription struct {
	bus *Bus

	mu      sync.Mutex
	closed  bool
	events  chan Event
	dropped atomic.Int64
}

// Events is closed once the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Dropped counts events discarded because the buffer was full.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Subscription) Close() {
	s.bus.unsubscribe(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

func (s *Subscription) deliver(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	for {
		select {
		case s.events <- event:
			return
		default:
		}

		select {
		case <-s.events:
			s.dropped.Add(1)
		default:
		}
	}
}
