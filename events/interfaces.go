// Package events fans state change notifications out to in-process
// subscribers and, optionally, onto a queue topic.
package events

import (
	"context"
)

// HeaderName carries the event name in queue message metadata.
const HeaderName = "l10n.event"

// HeaderID carries a unique id per forwarded event.
const HeaderID = "l10n.event.id"

// Event is a notification published on the Bus. Its JSON encoding is the
// payload forwarded to the queue.
type Event interface {
	Name() string
}

// Publisher is the write side of the bus handed to producers.
type Publisher interface {
	// Publish never blocks and never fails from the caller's perspective.
	Publish(ctx context.Context, event Event)
}

// Consumer handles events of one name decoded from the queue topic.
type Consumer interface {
	Name() string

	// PayloadType returns a fresh pointer the raw payload is decoded into.
	PayloadType() any

	Execute(ctx context.Context, payload any) error
}
