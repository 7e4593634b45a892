package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pitabwire/util"
	// Registers the nats:// scheme for publishers and subscribers.
	_ "github.com/pitabwire/natspubsub"
	// Registers the mem:// scheme for publishers and subscribers.
	_ "gocloud.dev/pubsub/mempubsub"

	"github.com/pitabwire/l10n/workerpool"
)

var ErrNotFound = errors.New("queue reference not found")

type queue struct {
	workPool workerpool.Manager

	stopMutex            sync.Mutex
	publishQueueMap      *sync.Map
	subscriptionQueueMap *sync.Map
}

// NewQueueManager returns a Manager whose subscribers hand received messages
// to workPool.
func NewQueueManager(_ context.Context, workPool workerpool.Manager) Manager {
	return &queue{
		workPool:             workPool,
		publishQueueMap:      &sync.Map{},
		subscriptionQueueMap: &sync.Map{},
	}
}

func (s *queue) AddPublisher(ctx context.Context, reference string, queueURL string) error {
	pub, _ := s.GetPublisher(reference)
	if pub != nil {
		return nil
	}

	pub = newPublisher(reference, queueURL)
	err := pub.Init(ctx)
	if err != nil {
		return fmt.Errorf("could not open publisher %s: %w", reference, err)
	}

	s.publishQueueMap.Store(reference, pub)
	return nil
}

func (s *queue) DiscardPublisher(ctx context.Context, reference string) error {
	var err error
	pub, _ := s.GetPublisher(reference)
	if pub != nil {
		err = pub.Stop(ctx)
	}

	s.publishQueueMap.Delete(reference)
	return err
}

func (s *queue) GetPublisher(reference string) (Publisher, error) {
	pub, ok := s.publishQueueMap.Load(reference)
	if !ok {
		return nil, fmt.Errorf("publisher %s: %w", reference, ErrNotFound)
	}
	pVal, ok := pub.(*publisher)
	if !ok {
		return nil, fmt.Errorf("publisher %s is not of type *publisher", reference)
	}
	return pVal, nil
}

func (s *queue) AddSubscriber(
	ctx context.Context,
	reference string,
	queueURL string,
	handlers ...SubscribeWorker,
) error {
	subs0, _ := s.GetSubscriber(reference)
	if subs0 != nil {
		return nil
	}

	subs := newSubscriber(s.workPool, reference, queueURL, handlers...)
	err := s.initSubscriber(ctx, subs)
	if err != nil {
		return err
	}

	s.subscriptionQueueMap.Store(reference, subs)
	return nil
}

func (s *queue) DiscardSubscriber(ctx context.Context, reference string) error {
	var err error
	sub, _ := s.GetSubscriber(reference)
	if sub != nil {
		err = sub.Stop(ctx)
	}

	s.subscriptionQueueMap.Delete(reference)
	return err
}

func (s *queue) GetSubscriber(reference string) (Subscriber, error) {
	sub, ok := s.subscriptionQueueMap.Load(reference)
	if !ok {
		return nil, fmt.Errorf("subscriber %s: %w", reference, ErrNotFound)
	}
	sVal, ok := sub.(*subscriber)
	if !ok {
		return nil, fmt.Errorf("subscriber %s is not of type *subscriber", reference)
	}
	return sVal, nil
}

// Publish writes a new message into the queue registered under reference.
func (s *queue) Publish(ctx context.Context, reference string, payload any, headers ...map[string]string) error {
	pub, err := s.GetPublisher(reference)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, payload, headers...)
}

func (s *queue) initSubscriber(ctx context.Context, sub Subscriber) error {
	s.stopMutex.Lock()
	defer s.stopMutex.Unlock()

	return sub.Init(ctx)
}

func (s *queue) Close(ctx context.Context) error {
	s.stopMutex.Lock()
	defer s.stopMutex.Unlock()

	var errs []error
	s.subscriptionQueueMap.Range(func(key, value any) bool {
		if sub, ok := value.(Subscriber); ok {
			if err := sub.Stop(ctx); err != nil {
				util.Log(ctx).WithError(err).WithField("subscriber_ref", key).Warn("could not stop subscriber")
				errs = append(errs, err)
			}
		}
		s.subscriptionQueueMap.Delete(key)
		return true
	})

	s.publishQueueMap.Range(func(key, value any) bool {
		if pub, ok := value.(Publisher); ok {
			if err := pub.Stop(ctx); err != nil {
				util.Log(ctx).WithError(err).WithField("publisher_ref", key).Warn("could not stop publisher")
				errs = append(errs, err)
			}
		}
		s.publishQueueMap.Delete(key)
		return true
	})

	return errors.Join(errs...)
}
