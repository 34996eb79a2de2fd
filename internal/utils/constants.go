package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

const (
	// DefaultRequestTimeout bounds a single analytics request end to end
	DefaultRequestTimeout = 30 * time.Second

	// GRPCRequestTimeout is applied to unary gRPC calls without a deadline
	GRPCRequestTimeout = 10 * time.Second

	// QueueConnectTimeout bounds the initial broker handshake
	QueueConnectTimeout = 5 * time.Second

	// PublishTimeout bounds publishing a single anomaly event
	PublishTimeout = 5 * time.Second
)

// =============================================================================
// Retry and Buffer Constants
// =============================================================================

const (
	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default backoff duration between retries
	DefaultRetryBackoff = 100 * time.Millisecond

	// MemoryQueueBuffer is the per-subject capacity of the in-memory queue
	MemoryQueueBuffer = 10000

	// MaxAckPending caps unacknowledged JetStream deliveries per consumer
	MaxAckPending = 100
)

// =============================================================================
// Queue Type Constants
// =============================================================================

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents NATS JetStream queue (default)
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)

// StreamPrefix names NATS streams, Redis stream keys and consumer groups
const StreamPrefix = "aerolens"
