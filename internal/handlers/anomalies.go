package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aerolens/aerolens/internal/models"
	"github.com/aerolens/aerolens/internal/services"
)

// DetectAnomalies labels every observation of the posted series
// POST /v1/anomalies
func (h *Handler) DetectAnomalies(c *fiber.Ctx) error {
	var body models.AnomalyRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.analytics.DetectAnomalies(ctx, &services.AnomalyRequest{
		Metric:        body.Metric,
		Series:        body.Series.ToSeries(),
		Threshold:     body.Threshold,
		Detector:      body.Detector,
		IncludeReport: body.IncludeReport,
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Methods lists the available forecasters and detectors
// GET /v1/methods
func (h *Handler) Methods(c *fiber.Ctx) error {
	return c.JSON(h.analytics.Methods())
}
