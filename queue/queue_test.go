package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/l10n/config"
	"github.com/pitabwire/l10n/localization"
	"github.com/pitabwire/l10n/queue"
	"github.com/pitabwire/l10n/workerpool"
)

type received struct {
	metadata map[string]string
	body     string
}

type collector struct {
	mu       sync.Mutex
	messages []received
}

func (c *collector) Handle(_ context.Context, metadata map[string]string, message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, received{metadata: metadata, body: string(message)})
	return nil
}

func (c *collector) all() []received {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]received(nil), c.messages...)
}

type QueueTestSuite struct {
	suite.Suite

	workPool workerpool.Manager
	manager  queue.Manager
}

func TestQueueSuite(t *testing.T) {
	suite.Run(t, &QueueTestSuite{})
}

func (s *QueueTestSuite) SetupTest() {
	cfg, err := config.FromEnv[config.ConfigurationDefault]()
	s.Require().NoError(err)

	s.workPool, err = workerpool.NewManager(context.Background(), &cfg)
	s.Require().NoError(err)

	s.manager = queue.NewQueueManager(context.Background(), s.workPool)
}

func (s *QueueTestSuite) TearDownTest() {
	s.Require().NoError(s.manager.Close(context.Background()))
	s.Require().NoError(s.workPool.Shutdown(context.Background()))
}

func (s *QueueTestSuite) TestPublishAndReceive() {
	testCases := []struct {
		name     string
		url      string
		payload  any
		headers  map[string]string
		expected string
	}{
		{
			name:     "string payload",
			url:      "mem://queue.test.string",
			payload:  "hello",
			expected: "hello",
		},
		{
			name:     "struct payload with header",
			url:      "mem://queue.test.struct",
			payload:  map[string]string{"keymap": "us"},
			headers:  map[string]string{"l10n.event": "L10nConfigChanged"},
			expected: `{"keymap":"us"}`,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			t := s.T()
			ctx := t.Context()
			sink := &collector{}

			require.NoError(t, s.manager.AddPublisher(ctx, tc.name, tc.url))
			require.NoError(t, s.manager.AddSubscriber(ctx, tc.name, tc.url, sink))

			sub, err := s.manager.GetSubscriber(tc.name)
			require.NoError(t, err)
			require.True(t, sub.Initiated())

			require.NoError(t, s.manager.Publish(ctx, tc.name, tc.payload, tc.headers))

			require.Eventually(t, func() bool { return len(sink.all()) == 1 }, 5*time.Second, 10*time.Millisecond)
			msg := sink.all()[0]
			assert.Equal(t, tc.expected, msg.body)
			for k, v := range tc.headers {
				assert.Equal(t, v, msg.metadata[k])
			}

			require.Eventually(t, func() bool { return sub.Metrics().MessageCount() == 1 },
				5*time.Second, 10*time.Millisecond)
		})
	}
}

func (s *QueueTestSuite) TestLanguagesTravelInMetadata() {
	t := s.T()
	url := "mem://queue.test.languages"
	sink := queue.SubscribeWorkerFunc(func(ctx context.Context, _ map[string]string, _ []byte) error {
		if languages := localization.FromContext(ctx); len(languages) == 0 || languages[0] != "de" {
			return errors.New("languages not propagated")
		}
		return nil
	})

	require.NoError(t, s.manager.AddPublisher(t.Context(), "lang", url))
	require.NoError(t, s.manager.AddSubscriber(t.Context(), "lang", url, sink))

	ctx := localization.ToContext(t.Context(), []string{"de", "en"})
	require.NoError(t, s.manager.Publish(ctx, "lang", "payload"))

	sub, err := s.manager.GetSubscriber("lang")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return sub.Metrics().MessageCount() >= 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, sub.Metrics().ErrorCount())
}

func (s *QueueTestSuite) TestHandlerErrorsAreCounted() {
	t := s.T()
	url := "mem://queue.test.errors"
	failing := queue.SubscribeWorkerFunc(func(context.Context, map[string]string, []byte) error {
		return errors.New("cannot handle")
	})

	require.NoError(t, s.manager.AddPublisher(t.Context(), "errors", url))
	require.NoError(t, s.manager.AddSubscriber(t.Context(), "errors", url, failing))
	require.NoError(t, s.manager.Publish(t.Context(), "errors", "payload"))

	sub, err := s.manager.GetSubscriber("errors")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return sub.Metrics().ErrorCount() >= 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.manager.DiscardSubscriber(t.Context(), "errors"))
	require.False(t, sub.Initiated())
}

func (s *QueueTestSuite) TestLookupFailures() {
	t := s.T()

	_, err := s.manager.GetPublisher("missing")
	require.ErrorIs(t, err, queue.ErrNotFound)

	_, err = s.manager.GetSubscriber("missing")
	require.ErrorIs(t, err, queue.ErrNotFound)

	err = s.manager.Publish(t.Context(), "missing", "payload")
	require.ErrorIs(t, err, queue.ErrNotFound)

	require.Error(t, s.manager.AddPublisher(t.Context(), "bad", "unknown-scheme://topic"))
	require.Error(t, s.manager.AddSubscriber(t.Context(), "bad", ""))
}

func (s *QueueTestSuite) TestDiscardPublisher() {
	t := s.T()
	require.NoError(t, s.manager.AddPublisher(t.Context(), "discard", "mem://queue.test.discard"))

	pub, err := s.manager.GetPublisher("discard")
	require.NoError(t, err)
	require.True(t, pub.Initiated())

	require.NoError(t, s.manager.DiscardPublisher(t.Context(), "discard"))
	require.False(t, pub.Initiated())
	require.ErrorIs(t, pub.Publish(t.Context(), "late"), queue.ErrPublisherNotInitialized)

	_, err = s.manager.GetPublisher("discard")
	require.ErrorIs(t, err, queue.ErrNotFound)
}

func (s *QueueTestSuite) TestInspector() {
	ctx := context.Background()
	s.Require().NoError(s.manager.AddPublisher(ctx, "b.pub", "mem://queue.test.inspect"))
	s.Require().NoError(s.manager.AddPublisher(ctx, "a.pub", "mem://queue.test.inspect.other"))
	s.Require().NoError(s.manager.AddSubscriber(ctx, "a.sub", "mem://queue.test.inspect", &collector{}))

	inspector, ok := s.manager.(queue.Inspector)
	s.Require().True(ok)

	publishers := inspector.ListPublishers()
	s.Require().Len(publishers, 2)
	s.Equal("a.pub", publishers[0].Reference)
	s.Equal("b.pub", publishers[1].Reference)
	s.Equal("mem://queue.test.inspect", publishers[1].URL)
	s.True(publishers[1].Initiated)

	subscribers := inspector.ListSubscribers()
	s.Require().Len(subscribers, 1)
	s.Equal("a.sub", subscribers[0].Reference)
	s.True(subscribers[0].Initiated)
	s.Zero(subscribers[0].MessageCount)
}
