package logging

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// MiddlewareConfig defines configuration for logging middleware
type MiddlewareConfig struct {
	// SkipPaths defines paths to skip logging
	SkipPaths []string

	// AdditionalFields adds custom fields to log entries
	AdditionalFields func(c *fiber.Ctx) []interface{}
}

// DefaultMiddlewareConfig returns default middleware configuration
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		SkipPaths: []string{"/health", "/metrics"},
	}
}

// FiberMiddleware returns a Fiber middleware for request logging
func FiberMiddleware(logger *Logger) fiber.Handler {
	return FiberMiddlewareWithConfig(logger, DefaultMiddlewareConfig())
}

// FiberMiddlewareWithConfig returns a Fiber middleware with custom config.
// Every request gets an id (taken from X-Request-ID or generated) stored in the user context.
func FiberMiddlewareWithConfig(logger *Logger, cfg MiddlewareConfig) fiber.Handler {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDHeader, requestID)

		ctx := c.UserContext()
		ctx = WithRequestID(ctx, requestID)
		ctx = WithLogger(ctx, logger)
		c.SetUserContext(ctx)

		if _, ok := skip[c.Path()]; ok {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		duration := time.Since(start)
		statusCode := c.Response().StatusCode()

		fields := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"ip", c.IP(),
			"status", statusCode,
			"duration_ms", duration.Milliseconds(),
			"request_id", requestID,
		}
		if cfg.AdditionalFields != nil {
			fields = append(fields, cfg.AdditionalFields(c)...)
		}

		if err != nil {
			fields = append(fields, "error", err)
			logger.Error("Request failed", fields...)
			return err
		}

		switch {
		case statusCode >= 500:
			logger.Error("Server error", fields...)
		case statusCode >= 400:
			logger.Warn("Client error", fields...)
		default:
			logger.Info("Request completed", fields...)
		}

		return nil
	}
}
