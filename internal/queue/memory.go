package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/utils"
)

// ErrClosed is returned when publishing to a closed in-memory queue
var ErrClosed = errors.New("queue closed")

// MemoryQueue delivers messages through buffered channels within one process.
// Used by tests, the simulator in single-binary mode, and local development.
type MemoryQueue struct {
	mu        sync.RWMutex
	channels  map[string]chan []byte
	closed    bool
	consumers *consumers
	logger    *logging.Logger
}

func newMemoryQueue(logger *logging.Logger) *MemoryQueue {
	return &MemoryQueue{
		channels:  make(map[string]chan []byte),
		consumers: newConsumers(),
		logger:    logger,
	}
}

func (q *MemoryQueue) channel(subject string) chan []byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch, ok := q.channels[subject]
	if !ok {
		ch = make(chan []byte, utils.MemoryQueueBuffer)
		q.channels[subject] = ch
	}
	return ch
}

// Publish copies data onto the subject's channel. It fails instead of blocking when the buffer is full.
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	ch := q.channel(subject)
	msg := append([]byte(nil), data...)

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}

	select {
	case ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("channel full for subject: %s", subject)
	}
}

// PublishBatch publishes each message, skipping failures
func (q *MemoryQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	published := 0
	for _, msg := range messages {
		if err := q.Publish(ctx, msg.Subject, msg.Data); err != nil {
			q.logger.Debug("Dropped message from batch", "subject", msg.Subject, "error", err)
			continue
		}
		published++
	}
	return published, nil
}

// Subscribe consumes the subject's channel in a goroutine. Handler errors are logged; there is no redelivery.
func (q *MemoryQueue) Subscribe(subject string, handler MessageHandler) error {
	ctx, err := q.consumers.start(subject)
	if err != nil {
		return err
	}
	ch := q.channel(subject)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-ch:
				if !ok {
					return
				}
				if err := handler(data); err != nil {
					q.logger.Warn("Message handler failed", "subject", subject, "error", err)
				}
			}
		}
	}()
	return nil
}

// Unsubscribe stops the subject's consumer
func (q *MemoryQueue) Unsubscribe(subject string) error {
	return q.consumers.stop(subject)
}

// Close stops all consumers and closes every channel
func (q *MemoryQueue) Close() error {
	q.consumers.stopAll()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	for subject, ch := range q.channels {
		close(ch)
		delete(q.channels, subject)
	}
	return nil
}

// Pending returns the number of undelivered messages for a subject
func (q *MemoryQueue) Pending(subject string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if ch, ok := q.channels[subject]; ok {
		return len(ch)
	}
	return 0
}

// Ping fails once the queue is closed
func (q *MemoryQueue) Ping(context.Context) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	return nil
}
