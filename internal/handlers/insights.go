package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aerolens/aerolens/internal/models"
	"github.com/aerolens/aerolens/internal/services"
)

// Insights generates insights over a multi-metric table
// POST /v1/insights
func (h *Handler) Insights(c *fiber.Ctx) error {
	var body models.InsightsRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	series, err := body.ToSeries()
	if err != nil {
		return services.FromAnalyticsError(err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.analytics.Insights(ctx, &services.InsightsRequest{
		DataType:    body.DataType,
		Metrics:     body.Metrics,
		Series:      series,
		MaxInsights: body.MaxInsights,
		Enrich:      body.Enrich,
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
