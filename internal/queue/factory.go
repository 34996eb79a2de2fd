package queue

import (
	"fmt"
	"strings"

	"github.com/aerolens/aerolens/internal/config"
	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/utils"
)

// NewQueue creates the backend named by cfg.Type. NATS is the default.
func NewQueue(cfg config.QueueConfig, logger *logging.Logger) (Queue, error) {
	queueType := utils.QueueType(strings.ToLower(cfg.Type))
	if queueType == "" {
		queueType = utils.QueueTypeNATS
	}
	logger = logger.With("component", "queue", "queue_type", string(queueType))

	switch queueType {
	case utils.QueueTypeNATS:
		return newNATSQueue(cfg.URL, cfg.Username, cfg.Password, logger)

	case utils.QueueTypeRedis:
		return newRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Group:    cfg.RedisGroup,
			Consumer: cfg.RedisConsumer,
		}, logger)

	case utils.QueueTypeKafka:
		return newKafkaQueue(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
		}, logger)

	case utils.QueueTypeMemory:
		return newMemoryQueue(logger), nil

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: nats, redis, kafka, memory)", queueType)
	}
}
