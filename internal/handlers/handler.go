// Package handlers implements the HTTP API on top of the services layer.
package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/models"
	"github.com/aerolens/aerolens/internal/services"
	"github.com/aerolens/aerolens/internal/utils"
)

// HealthCheck reports the state of a dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Handler contains all HTTP handlers
type Handler struct {
	logger    *logging.Logger
	analytics *services.AnalyticsService
	version   string
	checks    map[string]HealthCheck
}

// New creates a new handler instance
func New(logger *logging.Logger, analytics *services.AnalyticsService, version string) *Handler {
	return &Handler{
		logger:    logger.With("component", "http"),
		analytics: analytics,
		version:   version,
		checks:    make(map[string]HealthCheck),
	}
}

// AddCheck registers a dependency reported by /health
func (h *Handler) AddCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// bind parses and validates the JSON body into v
func bind(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return services.NewServiceErrorWithDetails(services.CodeInvalidJSON, "Failed to parse JSON body",
			map[string]interface{}{"error": err.Error()})
	}
	if err := models.Validate(v); err != nil {
		var verrs models.ValidationErrors
		if errors.As(err, &verrs) {
			return services.NewServiceErrorWithDetails(services.CodeInvalidInput, "Request validation failed",
				map[string]interface{}{"fields": verrs})
		}
		return services.NewServiceError(services.CodeInvalidInput, err.Error())
	}
	return nil
}

// requestContext bounds a request with the default timeout
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), utils.DefaultRequestTimeout)
}
