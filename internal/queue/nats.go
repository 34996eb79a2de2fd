package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/utils"
)

// NATSQueue uses JetStream: one file-backed stream and one durable consumer per subject
type NATSQueue struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logging.Logger
	known  sync.Map // Streams already ensured

	mu            sync.Mutex
	subscriptions map[string]*nats.Subscription
}

func newNATSQueue(url, user, password string, logger *logging.Logger) (*NATSQueue, error) {
	opts := []nats.Option{
		nats.Name(utils.StreamPrefix),
		nats.Timeout(utils.QueueConnectTimeout),
	}
	if user != "" {
		opts = append(opts, nats.UserInfo(user, password))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	q, err := newNATSQueueWithConn(conn, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return q, nil
}

func newNATSQueueWithConn(conn *nats.Conn, logger *logging.Logger) (*NATSQueue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSQueue{
		conn:          conn,
		js:            js,
		logger:        logger,
		subscriptions: make(map[string]*nats.Subscription),
	}, nil
}

// ensureStream creates the subject's stream unless it exists
func (q *NATSQueue) ensureStream(subject string) error {
	if _, ok := q.known.Load(subject); ok {
		return nil
	}
	name := streamName(subject)
	if _, err := q.js.StreamInfo(name); err != nil {
		_, err = q.js.AddStream(&nats.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
			Storage:  nats.FileStorage,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream for subject %s: %w", subject, err)
		}
	}
	q.known.Store(subject, struct{}{})
	return nil
}

// Publish publishes synchronously and waits for the stream's ack
func (q *NATSQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.ensureStream(subject); err != nil {
		return err
	}
	if _, err := q.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// PublishBatch queues every message asynchronously and waits for all acks
func (q *NATSQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	seen := make(map[string]bool)
	futures := make([]nats.PubAckFuture, 0, len(messages))
	for _, msg := range messages {
		if !seen[msg.Subject] {
			seen[msg.Subject] = true
			if err := q.ensureStream(msg.Subject); err != nil {
				return 0, err
			}
		}
		future, err := q.js.PublishAsync(msg.Subject, msg.Data)
		if err != nil {
			q.logger.Warn("Failed to queue message", "subject", msg.Subject, "error", err)
			continue
		}
		futures = append(futures, future)
	}

	select {
	case <-q.js.PublishAsyncComplete():
	case <-ctx.Done():
		return 0, fmt.Errorf("timeout waiting for batch publish: %w", ctx.Err())
	}

	published := 0
	for _, future := range futures {
		select {
		case <-future.Ok():
			published++
		case err := <-future.Err():
			q.logger.Warn("Message not acknowledged", "subject", future.Msg().Subject, "error", err)
		}
	}
	return published, nil
}

// Subscribe attaches a durable, manually acked consumer. Failed messages are NAKed and redelivered
// up to utils.DefaultMaxRetries times.
func (q *NATSQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, subject)
	}
	if err := q.ensureStream(subject); err != nil {
		return err
	}

	sub, err := q.js.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			q.logger.Warn("Message handler failed, requesting redelivery", "subject", subject, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("consumer-"+sanitizeName(subject)),
		nats.ManualAck(),
		nats.MaxAckPending(utils.MaxAckPending),
		nats.AckWait(30*time.Second),
		nats.MaxDeliver(utils.DefaultMaxRetries),
		nats.DeliverAll(),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	q.subscriptions[subject] = sub
	return nil
}

// Unsubscribe detaches the subject's consumer
func (q *NATSQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	sub, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, subject)
	}
	delete(q.subscriptions, subject)
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}
	return nil
}

// Close drains subscriptions and closes the connection
func (q *NATSQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for subject, sub := range q.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			q.logger.Warn("Failed to unsubscribe", "subject", subject, "error", err)
		}
		delete(q.subscriptions, subject)
	}
	q.conn.Close()
	return nil
}

func streamName(subject string) string {
	return utils.StreamPrefix + "-" + sanitizeName(subject)
}

// sanitizeName maps a subject to the characters allowed in stream and consumer names
func sanitizeName(subject string) string {
	out := []byte(subject)
	for i, c := range out {
		valid := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_'
		if !valid {
			out[i] = '_'
		}
	}
	return string(out)
}

// Ping round-trips to the server
func (q *NATSQueue) Ping(ctx context.Context) error {
	return q.conn.FlushWithContext(ctx)
}
