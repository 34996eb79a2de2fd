// Package router assembles the Fiber application: global middleware, /health, /metrics and the /v1 API.
package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aerolens/aerolens/internal/config"
	"github.com/aerolens/aerolens/internal/handlers"
	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/middleware"
	"github.com/aerolens/aerolens/internal/services"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, svc *services.AnalyticsService, cfg config.Config, version string) *handlers.Handler {
	h := handlers.New(logger, svc, version)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))
	app.Use(middleware.Metrics())

	// Unauthenticated
	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, cfg.Auth))

	v1.Post("/anomalies", h.DetectAnomalies)
	v1.Post("/forecast", h.Forecast)
	v1.Post("/insights", h.Insights)
	v1.Get("/methods", h.Methods)
	v1.Get("/telemetry/:drone_id/simulate", h.SimulateTelemetry)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, svc *services.AnalyticsService, cfg config.Config, version string) (*fiber.App, *handlers.Handler) {
	app := fiber.New(fiber.Config{
		AppName:               "Aerolens Analytics",
		DisableStartupMessage: true,
		BodyLimit:             cfg.Server.BodyLimit,
		ReadTimeout:           cfg.Server.ReadTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	h := Setup(app, logger, svc, cfg, version)

	return app, h
}
