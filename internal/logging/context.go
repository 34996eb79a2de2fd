package logging

import (
	"context"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	droneIDKey   contextKey = "drone_id"
	metricKey    contextKey = "metric"
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, falls back to global
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey).(*Logger); ok {
		return logger
	}
	return global
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request ID stored in the context, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithDrone tags the context with the drone and metric a unit of work belongs to
func WithDrone(ctx context.Context, droneID, metric string) context.Context {
	ctx = context.WithValue(ctx, droneIDKey, droneID)
	return context.WithValue(ctx, metricKey, metric)
}

// extractContextFields extracts logging fields from context
func extractContextFields(ctx context.Context) []interface{} {
	var fields []interface{}

	for _, key := range []contextKey{requestIDKey, droneIDKey, metricKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields = append(fields, string(key), v)
		}
	}

	return fields
}

// DebugCtx logs a debug message with context
func DebugCtx(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).WithContext(ctx).Debug(msg, fields...)
}

// InfoCtx logs an info message with context
func InfoCtx(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).WithContext(ctx).Info(msg, fields...)
}

// WarnCtx logs a warning message with context
func WarnCtx(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).WithContext(ctx).Warn(msg, fields...)
}

// ErrorCtx logs an error message with context
func ErrorCtx(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).WithContext(ctx).Error(msg, fields...)
}
