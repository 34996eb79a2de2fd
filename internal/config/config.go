package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Narrative NarrativeConfig `mapstructure:"narrative"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address for server (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
	GRPCPort int    `mapstructure:"grpc_port"` // gRPC server port; 0 disables the gRPC listener

	BodyLimit       int           `mapstructure:"body_limit"` // Max request body in bytes
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "aerolens")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "aerolens-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// IngestConfig controls the streaming telemetry consumer
type IngestConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Subject        string  `mapstructure:"subject"`         // Subject telemetry observations arrive on
	AnomalySubject string  `mapstructure:"anomaly_subject"` // Subject anomaly events are published to
	WindowSize     int     `mapstructure:"window_size"`     // Observations kept per drone and metric
	MinPoints      int     `mapstructure:"min_points"`      // Observations needed before points are judged
	Threshold      float64 `mapstructure:"threshold"`       // Z-score threshold for streamed points
	Compression    bool    `mapstructure:"compression"`     // Snappy-compress message payloads

	IdleTTL time.Duration `mapstructure:"idle_ttl"` // Windows not updated for this long are dropped; 0 keeps them
}

// AnalyticsConfig holds defaults applied to requests that leave a field unset
type AnalyticsConfig struct {
	AnomalyThreshold float64 `mapstructure:"anomaly_threshold"`
	Detector         string  `mapstructure:"detector"`
	ForecastMethod   string  `mapstructure:"forecast_method"`
	ForecastHorizon  int     `mapstructure:"forecast_horizon"`
	ConfidenceLevel  float64 `mapstructure:"confidence_level"`
	Alpha            float64 `mapstructure:"alpha"`      // Exponential smoothing factor
	MaxWindow        int     `mapstructure:"max_window"` // Moving average window cap
	MaxInsights      int     `mapstructure:"max_insights"`
	MaxSeriesLength  int     `mapstructure:"max_series_length"`
}

// NarrativeConfig configures the optional LLM narrative enrichment
type NarrativeConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BaseURL     string        `mapstructure:"base_url"` // OpenAI-compatible API root, e.g. https://api.deepseek.com/v1
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	SampleSize  int           `mapstructure:"sample_size"` // Rows of data included in the prompt
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest config: %w", err)
	}

	if err := c.Analytics.Validate(); err != nil {
		return fmt.Errorf("analytics config: %w", err)
	}

	if err := c.Narrative.Validate(); err != nil {
		return fmt.Errorf("narrative config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc_port: %d", c.GRPCPort)
	}

	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("http_port and grpc_port cannot be the same")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "", "nats", "redis", "kafka", "memory":
	default:
		return fmt.Errorf("queue.type must be one of: nats, redis, kafka, memory")
	}
	return nil
}

// Validate validates ingest configuration
func (c *IngestConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Subject == "" || c.AnomalySubject == "" {
		return fmt.Errorf("ingest.subject and ingest.anomaly_subject are required")
	}
	if c.Subject == c.AnomalySubject {
		return fmt.Errorf("ingest.subject and ingest.anomaly_subject cannot be the same")
	}
	if c.WindowSize < 2 {
		return fmt.Errorf("ingest.window_size must be at least 2")
	}
	if c.MinPoints < 2 || c.MinPoints > c.WindowSize {
		return fmt.Errorf("ingest.min_points must be between 2 and window_size")
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("ingest.threshold must be positive")
	}
	if c.IdleTTL < 0 {
		return fmt.Errorf("ingest.idle_ttl cannot be negative")
	}
	return nil
}

// Validate validates analytics defaults
func (c *AnalyticsConfig) Validate() error {
	if c.AnomalyThreshold <= 0 {
		return fmt.Errorf("analytics.anomaly_threshold must be positive")
	}
	if c.ForecastHorizon < 1 {
		return fmt.Errorf("analytics.forecast_horizon must be at least 1")
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("analytics.confidence_level must be between 0 and 1")
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("analytics.alpha must be in (0, 1]")
	}
	if c.MaxWindow < 2 {
		return fmt.Errorf("analytics.max_window must be at least 2")
	}
	if c.MaxSeriesLength < 5 {
		return fmt.Errorf("analytics.max_series_length must be at least 5")
	}
	return nil
}

// Validate validates narrative configuration
func (c *NarrativeConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.BaseURL == "" {
		return fmt.Errorf("narrative.base_url is required when narrative is enabled")
	}
	if c.Model == "" {
		return fmt.Errorf("narrative.model is required when narrative is enabled")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("narrative.timeout must be positive")
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
