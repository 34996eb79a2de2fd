package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aerolens/aerolens/internal/models"
	"github.com/aerolens/aerolens/internal/services"
)

// Forecast handles forecast requests
// POST /v1/forecast
func (h *Handler) Forecast(c *fiber.Ctx) error {
	var body models.ForecastRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.analytics.Forecast(ctx, &services.ForecastRequest{
		Metric:                     body.Metric,
		Series:                     body.Series.ToSeries(),
		Method:                     body.Method,
		Horizon:                    body.Horizon,
		ConfidenceLevel:            body.ConfidenceLevel,
		IncludeConfidenceIntervals: body.IncludeConfidenceIntervals,
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
