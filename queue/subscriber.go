package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"gocloud.dev/pubsub"

	"github.com/pitabwire/l10n/localization"
	"github.com/pitabwire/l10n/workerpool"
)

const (
	subscriberShutdownTimeout = time.Second
	receiveRetryDelay         = 100 * time.Millisecond
)

var ErrSubscriberNotInitialized = errors.New("only initialised subscriptions can pull messages")

type subscriber struct {
	reference string
	url       string
	handlers  []SubscribeWorker

	mu           sync.Mutex
	subscription *pubsub.Subscription
	stopListen   context.CancelFunc
	listening    sync.WaitGroup

	isInit  atomic.Bool
	state   atomic.Int32
	metrics *subscriberMetrics

	workManager workerpool.Manager
}

func newSubscriber(
	workPool workerpool.Manager,
	reference string,
	queueURL string,
	handlers ...SubscribeWorker,
) Subscriber {
	return &subscriber{
		reference:   reference,
		url:         queueURL,
		handlers:    handlers,
		metrics:     &subscriberMetrics{},
		workManager: workPool,
	}
}

func (s *subscriber) Ref() string {
	return s.reference
}

func (s *subscriber) URI() string {
	return s.url
}

func (s *subscriber) Initiated() bool {
	return s.isInit.Load()
}

func (s *subscriber) State() SubscriberState {
	return SubscriberState(s.state.Load())
}

func (s *subscriber) setState(state SubscriberState) {
	s.state.Store(int32(state))
}

func (s *subscriber) Metrics() SubscriberMetrics {
	return s.metrics
}

func (s *subscriber) Receive(ctx context.Context) (*pubsub.Message, error) {
	s.mu.Lock()
	subscription := s.subscription
	s.mu.Unlock()

	if subscription == nil {
		return nil, ErrSubscriberNotInitialized
	}

	s.setState(SubscriberStateWaiting)
	s.metrics.lastActivity.Store(time.Now().UnixNano())

	msg, err := subscription.Receive(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.setState(SubscriberStateInError)
		s.metrics.errorCount.Add(1)
		return nil, err
	}

	s.setState(SubscriberStateProcessing)
	s.metrics.activeMessages.Add(1)
	return msg, nil
}

func (s *subscriber) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isInit.Load() && s.subscription != nil {
		return nil
	}

	if strings.TrimSpace(s.url) == "" {
		return errors.New("subscriber URL cannot be empty")
	}

	subs, err := pubsub.OpenSubscription(ctx, s.url)
	if err != nil {
		return fmt.Errorf("could not open topic subscription: %w", err)
	}
	s.subscription = subs

	if len(s.handlers) > 0 {
		listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.stopListen = cancel
		s.listening.Add(1)
		go s.listen(listenCtx)
	}

	s.isInit.Store(true)
	return nil
}

func (s *subscriber) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.isInit.Store(false)
	stopListen := s.stopListen
	subscription := s.subscription
	s.stopListen = nil
	s.subscription = nil
	s.mu.Unlock()

	if stopListen != nil {
		stopListen()
		s.listening.Wait()
	}

	if subscription == nil {
		return nil
	}

	sctx, cancelFunc := context.WithTimeout(context.WithoutCancel(ctx), subscriberShutdownTimeout)
	defer cancelFunc()

	return subscription.Shutdown(sctx)
}

func (s *subscriber) processReceivedMessage(ctx context.Context, msg *pubsub.Message) {
	var metadata propagation.MapCarrier = msg.Metadata

	task := func() {
		startTime := time.Now()

		pCtx := otel.GetTextMapPropagator().Extract(ctx, metadata)
		if languages := localization.FromMap(metadata); len(languages) > 0 {
			pCtx = localization.ToContext(pCtx, languages)
		}

		for _, worker := range s.handlers {
			err := worker.Handle(pCtx, metadata, msg.Body)
			if err != nil {
				util.Log(pCtx).
					WithField("name", s.reference).
					WithField("url", s.url).
					WithError(err).Warn("could not handle message")
				s.metrics.closeMessage(startTime, err)
				if msg.Nackable() {
					msg.Nack()
				}
				return
			}
		}

		msg.Ack()
		s.metrics.closeMessage(startTime, nil)
	}

	if submitErr := s.workManager.Submit(ctx, task); submitErr != nil {
		util.Log(ctx).
			WithField("name", s.reference).
			WithField("url", s.url).
			WithError(submitErr).Error("could not process message, failed to submit job")
		s.metrics.closeMessage(time.Now(), submitErr)
		if msg.Nackable() {
			msg.Nack()
		}
	}
}

func (s *subscriber) listen(ctx context.Context) {
	defer s.listening.Done()

	logger := util.Log(ctx).
		WithField("name", s.reference).
		WithField("url", s.url)
	logger.Debug("starting to listen for messages")

	for {
		msg, err := s.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("exiting due to canceled context")
				return
			}

			logger.WithError(err).Error("could not pull message")
			select {
			case <-ctx.Done():
				return
			case <-time.After(receiveRetryDelay):
			}
			continue
		}

		s.processReceivedMessage(ctx, msg)
	}
}
