package events

import (
	"context"
	"sync/atomic"

	"github.com/pitabwire/util"
	"github.com/rs/xid"

	"github.com/pitabwire/l10n/queue"
	"github.com/pitabwire/l10n/workerpool"
)

// Forwarder copies bus events onto a queue topic from the worker pool, so a
// slow or unavailable broker never holds up the publisher.
type Forwarder struct {
	qm        queue.Manager
	reference string
	workPool  workerpool.Manager

	sent    atomic.Int64
	dropped atomic.Int64
}

func NewForwarder(qm queue.Manager, reference string, workPool workerpool.Manager) *Forwarder {
	return &Forwarder{
		qm:        qm,
		reference: reference,
		workPool:  workPool,
	}
}

// Sent counts events accepted by the queue.
func (f *Forwarder) Sent() int64 {
	return f.sent.Load()
}

// Dropped counts events lost to pool saturation or publish failures.
func (f *Forwarder) Dropped() int64 {
	return f.dropped.Load()
}

func (f *Forwarder) forward(ctx context.Context, event Event) {
	fctx := context.WithoutCancel(ctx)
	headers := map[string]string{
		HeaderName: event.Name(),
		HeaderID:   xid.New().String(),
	}

	log := util.Log(fctx).
		WithField("event", event.Name()).
		WithField("event_id", headers[HeaderID]).
		WithField("queue", f.reference)

	err := f.workPool.Submit(fctx, func() {
		if err := f.qm.Publish(fctx, f.reference, event, headers); err != nil {
			f.dropped.Add(1)
			log.WithError(err).Warn("could not forward event to queue")
			return
		}
		f.sent.Add(1)
	})
	if err != nil {
		f.dropped.Add(1)
		log.WithError(err).Warn("event forwarding skipped, worker pool unavailable")
	}
}
