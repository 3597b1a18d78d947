package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EnvelopePublisher wraps a Publisher and stamps every payload with the
// ConsumedEvent envelope the consumer side decodes. Sequence numbers derive
// from the publish wall clock, so a restarted publisher keeps issuing
// sequences above the ones mirrors have already applied.
type EnvelopePublisher struct {
	inner Publisher
	now   func() time.Time

	mu      sync.Mutex
	lastSeq uint64
}

// NewEnvelopePublisher creates an envelope-stamping publisher around inner.
func NewEnvelopePublisher(inner Publisher) *EnvelopePublisher {
	return &EnvelopePublisher{
		inner: inner,
		now:   time.Now,
	}
}

// Publish wraps the payload in a ConsumedEvent envelope and forwards it.
func (p *EnvelopePublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	now := p.now().UTC()

	p.mu.Lock()
	seq := uint64(now.UnixNano())
	if seq <= p.lastSeq {
		seq = p.lastSeq + 1
	}
	p.lastSeq = seq
	p.mu.Unlock()

	event := ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: routingKey,
		OccurredAt: now,
		Sequence:   seq,
		Payload:    json.RawMessage(payload),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	return p.inner.Publish(ctx, routingKey, body)
}

// Close closes the wrapped publisher.
func (p *EnvelopePublisher) Close() error {
	return p.inner.Close()
}
