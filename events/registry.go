package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pitabwire/util"

	"github.com/pitabwire/l10n/internal"
	"github.com/pitabwire/l10n/queue"
)

var (
	ErrMissingEventHeader = errors.New("missing event header")
	ErrEventNotRegistered = errors.New("event not found in registry")
)

// Registry maps event names to consumers of the forwarded queue topic.
type Registry struct {
	mu        sync.RWMutex
	consumers map[string]Consumer
}

func NewRegistry(consumers ...Consumer) *Registry {
	r := &Registry{consumers: make(map[string]Consumer)}
	for _, c := range consumers {
		r.Add(c)
	}
	return r
}

func (r *Registry) Add(c Consumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumers[c.Name()] = c
}

func (r *Registry) Get(name string) (Consumer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.consumers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEventNotRegistered, name)
	}
	return c, nil
}

// Handler decodes queue messages and dispatches them to the registered consumer.
// Events nobody registered for are acknowledged and ignored.
func (r *Registry) Handler() queue.SubscribeWorker {
	return &queueHandler{registry: r}
}

type queueHandler struct {
	registry *Registry
}

func (h *queueHandler) Handle(ctx context.Context, header map[string]string, payload []byte) error {
	eventName := header[HeaderName]
	if eventName == "" {
		util.Log(ctx).Error("missing event header in message")
		return ErrMissingEventHeader
	}

	log := util.Log(ctx).WithField("event", eventName).WithField("event_id", header[HeaderID])

	consumer, err := h.registry.Get(eventName)
	if err != nil {
		log.Debug("no consumer registered, ignoring event")
		return nil
	}

	holder := consumer.PayloadType()
	if err = internal.Unmarshal(payload, holder); err != nil {
		log.WithError(err).Error("failed to unmarshal event payload")
		return err
	}

	if err = consumer.Execute(ctx, holder); err != nil {
		log.WithError(err).Error("event execution failed")
		return err
	}

	return nil
}
