package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "default config should be valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid http port",
			mutate:  func(c *Config) { c.Server.HTTPPort = 0 },
			wantErr: true,
		},
		{
			name: "same http and grpc port",
			mutate: func(c *Config) {
				c.Server.HTTPPort = 8080
				c.Server.GRPCPort = 8080
			},
			wantErr: true,
		},
		{
			name:    "grpc disabled",
			mutate:  func(c *Config) { c.Server.GRPCPort = 0 },
			wantErr: false,
		},
		{
			name:    "unknown queue type",
			mutate:  func(c *Config) { c.Queue.Type = "rabbitmq" },
			wantErr: true,
		},
		{
			name: "ingest enabled with same subjects",
			mutate: func(c *Config) {
				c.Ingest.Enabled = true
				c.Ingest.AnomalySubject = c.Ingest.Subject
			},
			wantErr: true,
		},
		{
			name: "ingest min points above window",
			mutate: func(c *Config) {
				c.Ingest.Enabled = true
				c.Ingest.MinPoints = c.Ingest.WindowSize + 1
			},
			wantErr: true,
		},
		{
			name: "negative ingest idle ttl",
			mutate: func(c *Config) {
				c.Ingest.Enabled = true
				c.Ingest.IdleTTL = -time.Second
			},
			wantErr: true,
		},
		{
			name: "invalid ingest config ignored when disabled",
			mutate: func(c *Config) {
				c.Ingest.Enabled = false
				c.Ingest.WindowSize = 0
			},
			wantErr: false,
		},
		{
			name:    "confidence level out of range",
			mutate:  func(c *Config) { c.Analytics.ConfidenceLevel = 1 },
			wantErr: true,
		},
		{
			name:    "alpha out of range",
			mutate:  func(c *Config) { c.Analytics.Alpha = 0 },
			wantErr: true,
		},
		{
			name: "narrative enabled without model",
			mutate: func(c *Config) {
				c.Narrative.Enabled = true
				c.Narrative.Model = ""
			},
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.HTTPPort != 5555 {
		t.Errorf("expected HTTPPort 5555, got %d", cfg.Server.HTTPPort)
	}

	if cfg.Server.GRPCPort != 5556 {
		t.Errorf("expected GRPCPort 5556, got %d", cfg.Server.GRPCPort)
	}

	if cfg.Analytics.AnomalyThreshold != 2.5 {
		t.Errorf("expected anomaly threshold 2.5, got %v", cfg.Analytics.AnomalyThreshold)
	}

	if cfg.Analytics.Alpha != 0.3 || cfg.Analytics.MaxWindow != 5 {
		t.Errorf("unexpected forecast tunables: alpha=%v window=%d", cfg.Analytics.Alpha, cfg.Analytics.MaxWindow)
	}

	if cfg.Narrative.Timeout != 15*time.Second {
		t.Errorf("expected narrative timeout 15s, got %v", cfg.Narrative.Timeout)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  http_port: 7000
  grpc_port: 7001
analytics:
  anomaly_threshold: 3.0
narrative:
  timeout: 5s
logging:
  level: debug
  format: console
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("AEROLENS_ANALYTICS_MAX_INSIGHTS", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPPort != 7000 || cfg.Server.GRPCPort != 7001 {
		t.Errorf("unexpected ports: %d/%d", cfg.Server.HTTPPort, cfg.Server.GRPCPort)
	}
	if cfg.Analytics.AnomalyThreshold != 3.0 {
		t.Errorf("expected threshold 3.0, got %v", cfg.Analytics.AnomalyThreshold)
	}
	if cfg.Narrative.Timeout != 5*time.Second {
		t.Errorf("expected narrative timeout 5s, got %v", cfg.Narrative.Timeout)
	}
	if cfg.Analytics.MaxInsights != 4 {
		t.Errorf("expected env override max_insights=4, got %d", cfg.Analytics.MaxInsights)
	}
	// Unset keys keep their defaults
	if cfg.Analytics.ForecastHorizon != 7 {
		t.Errorf("expected default horizon 7, got %d", cfg.Analytics.ForecastHorizon)
	}
	if !cfg.IsDevelopment() {
		t.Error("debug/console config should be development mode")
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  http_port: 0\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for http_port 0")
	}

	cfg := LoadOrDefault(path)
	if cfg.Server.HTTPPort != 5555 {
		t.Errorf("LoadOrDefault should fall back to defaults, got port %d", cfg.Server.HTTPPort)
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.IsProduction() {
		t.Error("default config should be production mode")
	}

	if got := cfg.GetServerAddress(); got != "0.0.0.0:5555" {
		t.Errorf("expected '0.0.0.0:5555', got %s", got)
	}

	if got := cfg.GetGRPCAddress(); got != "0.0.0.0:5556" {
		t.Errorf("expected '0.0.0.0:5556', got %s", got)
	}

	cfg.Server.GRPCPort = 0
	if cfg.GetGRPCAddress() != "" {
		t.Error("expected empty gRPC address when disabled")
	}
}
