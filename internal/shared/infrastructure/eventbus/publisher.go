package eventbus

import (
	"context"
)

// Publisher defines the interface for publishing events to the push channel.
type Publisher interface {
	// Publish sends a message to the event bus.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}
