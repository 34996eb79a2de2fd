package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/utils"
)

// payloadField is the stream entry field carrying the message
const payloadField = "data"

// RedisConfig represents Redis Streams configuration
type RedisConfig struct {
	URL      string // redis://host:port/db or a bare host:port
	Password string
	DB       int
	Stream   string // Stream key prefix (default: utils.StreamPrefix)
	Group    string // Consumer group (default: "<prefix>-group")
	Consumer string // Consumer name (default: hostname)
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.Stream == "" {
		c.Stream = utils.StreamPrefix
	}
	if c.Group == "" {
		c.Group = utils.StreamPrefix + "-group"
	}
	if c.Consumer == "" {
		c.Consumer, _ = os.Hostname()
		if c.Consumer == "" {
			c.Consumer = "consumer-1"
		}
	}
	return c
}

// RedisQueue uses Redis Streams with a consumer group per queue
type RedisQueue struct {
	client    *redis.Client
	config    RedisConfig
	consumers *consumers
	logger    *logging.Logger
}

func newRedisQueue(cfg RedisConfig, logger *logging.Logger) (*RedisQueue, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL, Password: cfg.Password, DB: cfg.DB}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), utils.QueueConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisQueue{
		client:    client,
		config:    cfg.withDefaults(),
		consumers: newConsumers(),
		logger:    logger,
	}, nil
}

func (q *RedisQueue) streamName(subject string) string {
	return q.config.Stream + ":" + subject
}

func (q *RedisQueue) addArgs(subject string, data []byte) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: q.streamName(subject),
		ID:     "*",
		Values: map[string]interface{}{payloadField: data},
	}
}

// Publish appends data to the subject's stream
func (q *RedisQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.client.XAdd(ctx, q.addArgs(subject, data)).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", q.streamName(subject), err)
	}
	return nil
}

// PublishBatch appends all messages in one pipeline round trip
func (q *RedisQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	pipe := q.client.Pipeline()
	for _, msg := range messages {
		pipe.XAdd(ctx, q.addArgs(msg.Subject, msg.Data))
	}
	cmds, err := pipe.Exec(ctx)

	published := 0
	for _, cmd := range cmds {
		if cmd.Err() == nil {
			published++
		}
	}
	if err != nil && published == 0 {
		return 0, fmt.Errorf("failed to execute batch publish: %w", err)
	}
	return published, nil
}

// Subscribe joins the consumer group, creating stream and group when missing
func (q *RedisQueue) Subscribe(subject string, handler MessageHandler) error {
	stream := q.streamName(subject)

	ctx, err := q.consumers.start(subject)
	if err != nil {
		return err
	}

	err = q.client.XGroupCreateMkStream(ctx, stream, q.config.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		_ = q.consumers.stop(subject)
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	go q.read(ctx, stream, handler)
	return nil
}

// read loops over XREADGROUP. Entries are acked only after the handler succeeds.
func (q *RedisQueue) read(ctx context.Context, stream string, handler MessageHandler) {
	for ctx.Err() == nil {
		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.config.Group,
			Consumer: q.config.Consumer,
			Streams:  []string{stream, ">"},
			Count:    100,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			q.logger.Warn("Redis stream read failed", "stream", stream, "error", err)
			time.Sleep(utils.DefaultRetryBackoff)
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				data, ok := msg.Values[payloadField].(string)
				if !ok {
					q.logger.Warn("Dropping stream entry without payload", "stream", stream, "id", msg.ID)
					q.client.XAck(ctx, stream, q.config.Group, msg.ID)
					continue
				}
				if err := handler([]byte(data)); err != nil {
					q.logger.Warn("Message handler failed, leaving entry pending", "stream", stream, "id", msg.ID, "error", err)
					continue
				}
				q.client.XAck(ctx, stream, q.config.Group, msg.ID)
			}
		}
	}
}

// Unsubscribe stops reading the subject
func (q *RedisQueue) Unsubscribe(subject string) error {
	return q.consumers.stop(subject)
}

// Close stops all readers and closes the client
func (q *RedisQueue) Close() error {
	q.consumers.stopAll()
	return q.client.Close()
}

// Ping checks the Redis connection
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}
