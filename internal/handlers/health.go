package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aerolens/aerolens/internal/models"
)

const healthCheckTimeout = 2 * time.Second

// Health handles health check requests. Any failing check turns the status to degraded with a 503.
func (h *Handler) Health(c *fiber.Ctx) error {
	resp := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   h.version,
	}

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
		defer cancel()

		resp.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	if resp.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

// NotFound handles 404 errors
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "Route not found",
			Path:    c.Path(),
		},
	})
}
