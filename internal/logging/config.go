package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/aerolens/aerolens/internal/config"
)

// NewFromConfig builds the logger described by cfg. Every entry carries the service name.
func NewFromConfig(cfg config.LoggingConfig, service string) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out, toFile, err := openOutput(cfg.OutputPath)
	if err != nil {
		return nil, err
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: consoleTimeFormat(cfg.TimeFormat),
			NoColor:    toFile,
		}
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl, fields: map[string]interface{}{"service": service}}, nil
}

// openOutput resolves stdout, stderr or a log file, creating the file's directory
func openOutput(path string) (io.Writer, bool, error) {
	switch path {
	case "", "stdout":
		return os.Stdout, false, nil
	case "stderr":
		return os.Stderr, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, false, fmt.Errorf("create log directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, true, nil
}

func consoleTimeFormat(name string) string {
	switch name {
	case "Kitchen":
		return time.Kitchen
	case "UnixMs":
		return time.StampMilli
	case "RFC3339Nano":
		return time.RFC3339Nano
	default:
		return time.RFC3339
	}
}
