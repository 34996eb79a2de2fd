package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/models"
	"github.com/aerolens/aerolens/internal/services"
	"github.com/aerolens/aerolens/internal/telemetry"
)

const (
	defaultSimulationPoints = 120
	maxSimulationPoints     = 10000
)

// SimulateTelemetry returns a reproducible telemetry run for one drone
// GET /v1/telemetry/:drone_id/simulate?points=&seed=&metric=&interval=&failure_rate=
func (h *Handler) SimulateTelemetry(c *fiber.Ctx) error {
	droneID := c.Params("drone_id")

	points := c.QueryInt("points", defaultSimulationPoints)
	if points <= 0 || points > maxSimulationPoints {
		return services.NewServiceErrorWithDetails(services.CodeInvalidInput, "points out of range",
			map[string]interface{}{"field": "points", "min": 1, "max": maxSimulationPoints})
	}

	cfg := telemetry.DefaultConfig()
	if seed := c.QueryInt("seed", -1); seed >= 0 {
		cfg.Seed = uint64(seed)
	}
	if raw := c.Query("interval"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval <= 0 {
			return services.NewServiceErrorWithDetails(services.CodeInvalidInput, "invalid interval",
				map[string]interface{}{"field": "interval", "value": raw})
		}
		cfg.Interval = interval
	}
	if rate := c.QueryFloat("failure_rate", -1); rate >= 0 {
		if rate > 1 {
			return services.NewServiceErrorWithDetails(services.CodeInvalidInput, "failure_rate must be within [0, 1]",
				map[string]interface{}{"field": "failure_rate"})
		}
		cfg.FailureRate = rate
	}

	metricNames := telemetry.Metrics()
	if metric := c.Query("metric"); metric != "" {
		if !telemetry.IsMetric(metric) {
			return services.NewServiceErrorWithDetails(services.CodeInvalidInput, "unknown metric",
				map[string]interface{}{"field": "metric", "available_metrics": telemetry.Metrics()})
		}
		metricNames = []string{metric}
	}

	frames := telemetry.NewSimulator(droneID, cfg).Run(points)

	resp := models.SimulationResponse{
		DroneID:  droneID,
		Seed:     cfg.Seed,
		Interval: cfg.Interval.String(),
		Points:   len(frames),
		Metrics:  make(map[string]analytics.Series, len(metricNames)),
		Faults:   []models.FaultMark{},
	}
	for _, m := range metricNames {
		resp.Metrics[m] = telemetry.Series(frames, m)
	}
	for i, f := range frames {
		if f.Fault != telemetry.FaultNone {
			resp.Faults = append(resp.Faults, models.FaultMark{Index: i, Timestamp: f.Time, Fault: string(f.Fault)})
		}
	}

	return c.JSON(resp)
}
