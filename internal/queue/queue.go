// Package queue moves telemetry and anomaly events between processes over NATS JetStream,
// Redis Streams, Kafka or an in-memory channel.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrAlreadySubscribed is returned when a subject already has a handler
	ErrAlreadySubscribed = errors.New("already subscribed")
	// ErrNotSubscribed is returned when unsubscribing from an unknown subject
	ErrNotSubscribed = errors.New("not subscribed")
)

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch publishes multiple messages and waits for all to complete.
	// Returns the number of successfully published messages.
	PublishBatch(ctx context.Context, messages []BatchMessage) (int, error)

	Close() error
}

// BatchMessage represents a message for batch publishing
type BatchMessage struct {
	Subject string
	Data    []byte
}

// Subscriber subscribes to messages from a queue
type Subscriber interface {
	// Subscribe registers handler for subject. A handler error asks the backend to redeliver
	// where it supports redelivery.
	Subscribe(subject string, handler MessageHandler) error

	Unsubscribe(subject string) error

	Close() error
}

// MessageHandler handles incoming messages
type MessageHandler func(data []byte) error

// Queue combines Publisher and Subscriber interfaces
type Queue interface {
	Publisher
	Subscriber
}

// consumers tracks the background loop of each subscribed subject
type consumers struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newConsumers() *consumers {
	return &consumers{cancels: make(map[string]context.CancelFunc)}
}

// start reserves subject and returns the context its loop must run under
func (c *consumers) start(subject string) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.cancels[subject]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancels[subject] = cancel
	return ctx, nil
}

func (c *consumers) stop(subject string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cancel, exists := c.cancels[subject]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	cancel()
	delete(c.cancels, subject)
	return nil
}

func (c *consumers) stopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, cancel := range c.cancels {
		cancel()
		delete(c.cancels, subject)
	}
}

func (c *consumers) active(subject string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.cancels[subject]
	return ok
}

// Pinger is implemented by backends that can report connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks q's connectivity when the backend supports it
func Ping(ctx context.Context, q Queue) error {
	if p, ok := q.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
