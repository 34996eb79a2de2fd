package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aerolens/aerolens/internal/metrics"
)

// Metrics records request counts and latencies per route pattern.
// Errors are rendered here through the app's error handler so the recorded status is the one sent.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		// Route().Path is the pattern, which keeps label cardinality bounded
		path := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return nil
	}
}
