package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")             // Current directory
		v.AddConfigPath("./configs")     // Project configs directory
		v.AddConfigPath("./config")      // Alternative config directory
		v.AddConfigPath("/etc/aerolens") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides, e.g. AEROLENS_SERVER_HTTP_PORT
	v.SetEnvPrefix("AEROLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.http_port", def.Server.HTTPPort)
	v.SetDefault("server.grpc_port", def.Server.GRPCPort)
	v.SetDefault("server.body_limit", def.Server.BodyLimit)
	v.SetDefault("server.read_timeout", def.Server.ReadTimeout)
	v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)

	// Queue defaults
	v.SetDefault("queue.type", def.Queue.Type)
	v.SetDefault("queue.url", def.Queue.URL)
	v.SetDefault("queue.redis_stream", def.Queue.RedisStream)
	v.SetDefault("queue.redis_group", def.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", def.Queue.KafkaGroupID)

	// Ingest defaults
	v.SetDefault("ingest.enabled", def.Ingest.Enabled)
	v.SetDefault("ingest.subject", def.Ingest.Subject)
	v.SetDefault("ingest.anomaly_subject", def.Ingest.AnomalySubject)
	v.SetDefault("ingest.window_size", def.Ingest.WindowSize)
	v.SetDefault("ingest.min_points", def.Ingest.MinPoints)
	v.SetDefault("ingest.threshold", def.Ingest.Threshold)
	v.SetDefault("ingest.compression", def.Ingest.Compression)
	v.SetDefault("ingest.idle_ttl", def.Ingest.IdleTTL)

	// Analytics defaults
	v.SetDefault("analytics.anomaly_threshold", def.Analytics.AnomalyThreshold)
	v.SetDefault("analytics.detector", def.Analytics.Detector)
	v.SetDefault("analytics.forecast_method", def.Analytics.ForecastMethod)
	v.SetDefault("analytics.forecast_horizon", def.Analytics.ForecastHorizon)
	v.SetDefault("analytics.confidence_level", def.Analytics.ConfidenceLevel)
	v.SetDefault("analytics.alpha", def.Analytics.Alpha)
	v.SetDefault("analytics.max_window", def.Analytics.MaxWindow)
	v.SetDefault("analytics.max_insights", def.Analytics.MaxInsights)
	v.SetDefault("analytics.max_series_length", def.Analytics.MaxSeriesLength)

	// Narrative defaults
	v.SetDefault("narrative.enabled", def.Narrative.Enabled)
	v.SetDefault("narrative.base_url", def.Narrative.BaseURL)
	v.SetDefault("narrative.model", def.Narrative.Model)
	v.SetDefault("narrative.timeout", def.Narrative.Timeout)
	v.SetDefault("narrative.max_tokens", def.Narrative.MaxTokens)
	v.SetDefault("narrative.temperature", def.Narrative.Temperature)
	v.SetDefault("narrative.sample_size", def.Narrative.SampleSize)

	// Auth defaults
	v.SetDefault("auth.enabled", def.Auth.Enabled)

	// Logging defaults
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.output_path", def.Logging.OutputPath)
	v.SetDefault("logging.time_format", def.Logging.TimeFormat)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			HTTPPort:        5555,
			GRPCPort:        5556,
			BodyLimit:       8 * 1024 * 1024,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Queue: QueueConfig{
			Type:         "nats",
			URL:          "nats://localhost:4222",
			RedisStream:  "aerolens",
			RedisGroup:   "aerolens-group",
			KafkaGroupID: "aerolens-analytics",
		},
		Ingest: IngestConfig{
			Enabled:        false,
			Subject:        "telemetry.observations",
			AnomalySubject: "analytics.anomalies",
			WindowSize:     120,
			MinPoints:      10,
			Threshold:      2.5,
			Compression:    true,
			IdleTTL:        15 * time.Minute,
		},
		Analytics: AnalyticsConfig{
			AnomalyThreshold: 2.5,
			Detector:         "zscore",
			ForecastMethod:   "moving_average",
			ForecastHorizon:  7,
			ConfidenceLevel:  0.95,
			Alpha:            0.3,
			MaxWindow:        5,
			MaxInsights:      10,
			MaxSeriesLength:  100000,
		},
		Narrative: NarrativeConfig{
			Enabled:     false,
			BaseURL:     "https://api.deepseek.com/v1",
			Model:       "deepseek-chat",
			Timeout:     15 * time.Second,
			MaxTokens:   2000,
			Temperature: 0.7,
			SampleSize:  50,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
			TimeFormat: "RFC3339",
		},
	}
}
