package events_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/l10n/config"
	"github.com/pitabwire/l10n/events"
	"github.com/pitabwire/l10n/queue"
	"github.com/pitabwire/l10n/workerpool"
)

type keymapChanged struct {
	Keymap string `json:"keymap"`
}

func (keymapChanged) Name() string { return "KeymapChanged" }

type keymapConsumer struct {
	mu      sync.Mutex
	keymaps []string
}

func (c *keymapConsumer) Name() string { return "KeymapChanged" }

func (c *keymapConsumer) PayloadType() any { return &keymapChanged{} }

func (c *keymapConsumer) Execute(_ context.Context, payload any) error {
	evt, _ := payload.(*keymapChanged)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keymaps = append(c.keymaps, evt.Keymap)
	return nil
}

func (c *keymapConsumer) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.keymaps...)
}

func TestBusFansOutToEverySubscriber(t *testing.T) {
	bus := events.NewBus()
	first := bus.Subscribe(4)
	second := bus.Subscribe(4)
	require.Equal(t, 2, bus.Subscribers())

	bus.Publish(t.Context(), keymapChanged{Keymap: "us"})

	for _, sub := range []*events.Subscription{first, second} {
		select {
		case evt := <-sub.Events():
			assert.Equal(t, keymapChanged{Keymap: "us"}, evt)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
	assert.Equal(t, int64(1), bus.Published())
}

func TestBusDropsOldestWhenSubscriberIsFull(t *testing.T) {
	bus := events.NewBus()
	sub := bus.Subscribe(2)

	for _, keymap := range []string{"us", "de", "es", "cz"} {
		bus.Publish(t.Context(), keymapChanged{Keymap: keymap})
	}

	assert.Equal(t, int64(2), sub.Dropped())
	assert.Equal(t, keymapChanged{Keymap: "es"}, <-sub.Events())
	assert.Equal(t, keymapChanged{Keymap: "cz"}, <-sub.Events())
}

func TestBusPublishWithoutSubscribersNeverBlocks(t *testing.T) {
	bus := events.NewBus()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 1000 {
			bus.Publish(context.Background(), keymapChanged{Keymap: "us"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked")
	}
}

func TestSubscriptionClose(t *testing.T) {
	bus := events.NewBus()
	sub := bus.Subscribe(1)
	sub.Close()
	sub.Close()

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.Zero(t, bus.Subscribers())

	bus.Publish(t.Context(), keymapChanged{Keymap: "us"})
}

func TestForwarderDeliversToQueueConsumers(t *testing.T) {
	ctx := t.Context()
	cfg, err := config.FromEnv[config.ConfigurationDefault]()
	require.NoError(t, err)

	workPool, err := workerpool.NewManager(ctx, &cfg)
	require.NoError(t, err)
	defer func() { _ = workPool.Shutdown(context.Background()) }()

	qm := queue.NewQueueManager(ctx, workPool)
	defer func() { _ = qm.Close(context.Background()) }()

	url := "mem://events.test.forwarder"
	require.NoError(t, qm.AddPublisher(ctx, "events", url))

	consumer := &keymapConsumer{}
	registry := events.NewRegistry(consumer)
	require.NoError(t, qm.AddSubscriber(ctx, "events-consumer", url, registry.Handler()))

	forwarder := events.NewForwarder(qm, "events", workPool)
	bus := events.NewBus(events.WithForwarder(forwarder))

	bus.Publish(ctx, keymapChanged{Keymap: "cz(qwerty)"})

	require.Eventually(t, func() bool { return len(consumer.received()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"cz(qwerty)"}, consumer.received())
	assert.Equal(t, int64(1), forwarder.Sent())
	assert.Zero(t, forwarder.Dropped())
}

func TestForwarderCountsFailedPublishes(t *testing.T) {
	ctx := t.Context()
	cfg, err := config.FromEnv[config.ConfigurationDefault]()
	require.NoError(t, err)

	workPool, err := workerpool.NewManager(ctx, &cfg)
	require.NoError(t, err)
	defer func() { _ = workPool.Shutdown(context.Background()) }()

	qm := queue.NewQueueManager(ctx, workPool)
	forwarder := events.NewForwarder(qm, "not-registered", workPool)
	bus := events.NewBus(events.WithForwarder(forwarder))

	bus.Publish(ctx, keymapChanged{Keymap: "us"})

	require.Eventually(t, func() bool { return forwarder.Dropped() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, forwarder.Sent())
}

func TestRegistryHandler(t *testing.T) {
	consumer := &keymapConsumer{}
	registry := events.NewRegistry(consumer)
	handler := registry.Handler()

	testCases := []struct {
		name    string
		header  map[string]string
		payload string
		wantErr error
		fails   bool
	}{
		{
			name:    "missing header",
			header:  map[string]string{},
			payload: `{}`,
			wantErr: events.ErrMissingEventHeader,
		},
		{
			name:    "unregistered event is ignored",
			header:  map[string]string{events.HeaderName: "LocaleChanged"},
			payload: `{"locale":"de_DE.UTF-8"}`,
		},
		{
			name:    "malformed payload",
			header:  map[string]string{events.HeaderName: "KeymapChanged"},
			payload: `{`,
			fails:   true,
		},
		{
			name:    "registered event",
			header:  map[string]string{events.HeaderName: "KeymapChanged"},
			payload: `{"keymap":"de"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := handler.Handle(t.Context(), tc.header, []byte(tc.payload))
			switch {
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
			case tc.fails:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
		})
	}

	assert.Equal(t, []string{"de"}, consumer.received())

	_, err := registry.Get("Unknown")
	require.ErrorIs(t, err, events.ErrEventNotRegistered)
}
