package queue

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"gocloud.dev/pubsub"

	"github.com/pitabwire/l10n/internal"
	"github.com/pitabwire/l10n/localization"
)

const defaultPublisherShutdownTimeoutSeconds = 30

var ErrPublisherNotInitialized = errors.New("publisher is not initialized")

type publisher struct {
	reference string
	url       string

	mu     sync.RWMutex
	topic  *pubsub.Topic
	isInit atomic.Bool
}

func newPublisher(reference string, queueURL string) Publisher {
	return &publisher{
		reference: reference,
		url:       queueURL,
	}
}

func (p *publisher) Ref() string {
	return p.reference
}

// Publish sends payload with the trace context and the caller's languages in
// the message metadata. Later headers override earlier ones.
func (p *publisher) Publish(ctx context.Context, payload any, headers ...map[string]string) error {
	metadata := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, metadata)

	if languages := localization.FromContext(ctx); len(languages) > 0 {
		metadata = localization.ToMap(metadata, languages)
	}

	for _, h := range headers {
		maps.Copy(metadata, h)
	}

	message, err := internal.Marshal(payload)
	if err != nil {
		return err
	}

	p.mu.RLock()
	topic := p.topic
	p.mu.RUnlock()
	if topic == nil {
		return ErrPublisherNotInitialized
	}

	return topic.Send(ctx, &pubsub.Message{
		Body:     message,
		Metadata: metadata,
	})
}

func (p *publisher) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isInit.Load() && p.topic != nil {
		return nil
	}

	topic, err := pubsub.OpenTopic(ctx, p.url)
	if err != nil {
		return err
	}

	p.topic = topic
	p.isInit.Store(true)
	return nil
}

func (p *publisher) Initiated() bool {
	return p.isInit.Load()
}

func (p *publisher) Stop(ctx context.Context) error {
	sctx := context.WithoutCancel(ctx)
	sctx, cancelFunc := context.WithTimeout(sctx, time.Second*defaultPublisherShutdownTimeoutSeconds)
	defer cancelFunc()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.isInit.Store(false)

	if p.topic == nil {
		return nil
	}

	// mem:// topics are process-local and shared by URL, shutting one down
	// breaks any later user of the same URL in this process.
	if strings.HasPrefix(strings.ToLower(p.url), "mem://") {
		p.topic = nil
		return nil
	}

	err := p.topic.Shutdown(sctx)
	p.topic = nil
	if err != nil && !isTopicAlreadyShutdownErr(err) {
		return err
	}
	return nil
}

func isTopicAlreadyShutdownErr(err error) bool {
	if err == nil {
		return false
	}

	return strings.Contains(strings.ToLower(err.Error()), "topic has been shutdown")
}
