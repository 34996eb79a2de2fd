package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aerolens/aerolens/internal/config"
	"github.com/aerolens/aerolens/internal/grpc"
	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/narrative"
	"github.com/aerolens/aerolens/internal/queue"
	"github.com/aerolens/aerolens/internal/router"
	"github.com/aerolens/aerolens/internal/services"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging, "aerolens-analytics")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Analytics service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Narrative enrichment is optional; without it insights stay deterministic
	enricher := narrative.NewEnricher(narrative.NewClient(cfg.Narrative, logger), cfg.Narrative, logger)
	if enricher.Enabled() {
		logger.Info("Narrative enrichment enabled", "model", cfg.Narrative.Model, "timeout", cfg.Narrative.Timeout)
	}

	analytics := services.NewAnalyticsService(logger, cfg.Analytics, enricher)

	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	app, h := router.New(logger, analytics, *cfg, Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Streaming ingest
	var ingest *services.IngestService
	if cfg.Ingest.Enabled {
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		queueClient, err := queue.NewQueue(cfg.Queue, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		defer func() { _ = queueClient.Close() }()

		ingest = services.NewIngestService(logger, cfg.Ingest, queueClient)
		if err := ingest.Start(); err != nil {
			logger.Fatal("Failed to start ingest", "error", err)
		}
		h.AddCheck("queue", func(ctx context.Context) error {
			return queue.Ping(ctx, queueClient)
		})
	}

	// gRPC
	var grpcServer *grpc.Server
	if addr := cfg.GetGRPCAddress(); addr != "" {
		grpcServer = grpc.NewServer(addr, logger, analytics)
		go func() {
			if err := grpcServer.Start(ctx); err != nil {
				logger.Fatal("Failed to start gRPC server", "error", err)
			}
		}()
	}

	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if ingest != nil {
		if err := ingest.Stop(); err != nil {
			logger.Warn("Failed to stop ingest", "error", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
