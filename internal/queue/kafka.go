package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/utils"
)

// KafkaConfig represents Apache Kafka configuration
type KafkaConfig struct {
	Brokers      []string
	GroupID      string        // Consumer group (default: "<prefix>-group")
	BatchSize    int           // Producer batch size (default: 100)
	BatchTimeout time.Duration // Producer linger (default: 10ms)
	MaxRetries   int           // Producer attempts and commit retries (default: utils.DefaultMaxRetries)
}

func (c KafkaConfig) withDefaults() KafkaConfig {
	if c.GroupID == "" {
		c.GroupID = utils.StreamPrefix + "-group"
	}
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 10 * time.Millisecond
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = utils.DefaultMaxRetries
	}
	return c
}

// KafkaQueue uses one writer per topic and one group reader per subscribed topic
type KafkaQueue struct {
	config    KafkaConfig
	consumers *consumers
	logger    *logging.Logger

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers map[string]*kafka.Reader
}

func newKafkaQueue(cfg KafkaConfig, logger *logging.Logger) (*KafkaQueue, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}

	return &KafkaQueue{
		config:    cfg.withDefaults(),
		consumers: newConsumers(),
		logger:    logger,
		writers:   make(map[string]*kafka.Writer),
		readers:   make(map[string]*kafka.Reader),
	}, nil
}

func (q *KafkaQueue) writer(topic string) *kafka.Writer {
	q.mu.Lock()
	defer q.mu.Unlock()

	if w, ok := q.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(q.config.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              q.config.BatchSize,
		BatchTimeout:           q.config.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            q.config.MaxRetries,
		AllowAutoTopicCreation: true,
	}
	q.writers[topic] = w
	return w
}

// Publish writes one message
func (q *KafkaQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.writer(subject).WriteMessages(ctx, kafka.Message{Value: data, Time: time.Now()}); err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", subject, err)
	}
	return nil
}

// PublishBatch groups messages by topic and writes each group at once
func (q *KafkaQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	now := time.Now()
	byTopic := make(map[string][]kafka.Message)
	for _, msg := range messages {
		byTopic[msg.Subject] = append(byTopic[msg.Subject], kafka.Message{Value: msg.Data, Time: now})
	}

	published := 0
	var lastErr error
	for topic, msgs := range byTopic {
		if err := q.writer(topic).WriteMessages(ctx, msgs...); err != nil {
			q.logger.Warn("Kafka batch write failed", "topic", topic, "messages", len(msgs), "error", err)
			lastErr = err
			continue
		}
		published += len(msgs)
	}

	if lastErr != nil && published == 0 {
		return 0, fmt.Errorf("failed to publish batch: %w", lastErr)
	}
	return published, nil
}

// Subscribe starts a group reader on the topic
func (q *KafkaQueue) Subscribe(subject string, handler MessageHandler) error {
	ctx, err := q.consumers.start(subject)
	if err != nil {
		return err
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  q.config.Brokers,
		GroupID:  q.config.GroupID,
		Topic:    subject,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	q.mu.Lock()
	q.readers[subject] = reader
	q.mu.Unlock()

	go q.consume(ctx, reader, handler)
	return nil
}

// consume commits a message only after its handler succeeds
func (q *KafkaQueue) consume(ctx context.Context, reader *kafka.Reader, handler MessageHandler) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.logger.Warn("Kafka fetch failed", "topic", reader.Config().Topic, "error", err)
			time.Sleep(utils.DefaultRetryBackoff)
			continue
		}

		if err := handler(msg.Value); err != nil {
			q.logger.Warn("Message handler failed", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			continue
		}

		for i := 0; i < q.config.MaxRetries; i++ {
			if err := reader.CommitMessages(ctx, msg); err == nil || ctx.Err() != nil {
				break
			}
			time.Sleep(utils.DefaultRetryBackoff)
		}
	}
}

// Unsubscribe stops the topic's reader
func (q *KafkaQueue) Unsubscribe(subject string) error {
	if err := q.consumers.stop(subject); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if reader, ok := q.readers[subject]; ok {
		delete(q.readers, subject)
		return reader.Close()
	}
	return nil
}

// Close stops every reader and flushes every writer
func (q *KafkaQueue) Close() error {
	q.consumers.stopAll()

	q.mu.Lock()
	defer q.mu.Unlock()

	var errs []error
	for topic, reader := range q.readers {
		errs = append(errs, reader.Close())
		delete(q.readers, topic)
	}
	for topic, writer := range q.writers {
		errs = append(errs, writer.Close())
		delete(q.writers, topic)
	}
	return errors.Join(errs...)
}

// Ping dials the first reachable broker
func (q *KafkaQueue) Ping(ctx context.Context) error {
	var errs []error
	for _, broker := range q.config.Brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err == nil {
			return conn.Close()
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
