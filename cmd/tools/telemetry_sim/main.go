// telemetry_sim publishes simulated drone telemetry to the ingest subject.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aerolens/aerolens/internal/config"
	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/queue"
	"github.com/aerolens/aerolens/internal/telemetry"
	"github.com/aerolens/aerolens/internal/utils"
)

// SimConfig holds the tool's flags
type SimConfig struct {
	ConfigPath  string
	Drones      int
	Frames      int
	Interval    time.Duration
	Pace        time.Duration
	Seed        uint64
	FailureRate float64
}

func main() {
	cfg := SimConfig{}
	flag.StringVar(&cfg.ConfigPath, "config", "", "Path to configuration file (queue and ingest sections)")
	flag.IntVar(&cfg.Drones, "drones", 5, "Number of simulated drones")
	flag.IntVar(&cfg.Frames, "frames", 600, "Frames per drone (0 runs until interrupted)")
	flag.DurationVar(&cfg.Interval, "interval", time.Second, "Simulated time between frames")
	flag.DurationVar(&cfg.Pace, "pace", 100*time.Millisecond, "Wall-clock delay between published frames")
	flag.Uint64Var(&cfg.Seed, "seed", 1, "Random seed")
	flag.Float64Var(&cfg.FailureRate, "failure-rate", 0.02, "Probability of an injected fault per frame")
	flag.Parse()

	appCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(appCfg.Logging, "telemetry-sim")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	q, err := queue.NewQueue(appCfg.Queue, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	defer func() { _ = q.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	published, faults := run(ctx, cfg, appCfg.Ingest, q, logger)
	logger.Info("Simulation finished", "published", published, "faults", faults)
}

// run publishes frames for every drone until the frame budget or ctx runs out
func run(ctx context.Context, cfg SimConfig, ingest config.IngestConfig, q queue.Publisher, logger *logging.Logger) (int, int) {
	simCfg := telemetry.DefaultConfig()
	simCfg.Start = time.Now().UTC()
	simCfg.Interval = cfg.Interval
	simCfg.Seed = cfg.Seed
	simCfg.FailureRate = cfg.FailureRate

	sims := make([]*telemetry.Simulator, cfg.Drones)
	for i := range sims {
		sims[i] = telemetry.NewSimulator(fmt.Sprintf("drone-%03d", i+1), simCfg)
	}

	codec := queue.NewCodec(ingest.Compression)
	ticker := time.NewTicker(max(cfg.Pace, time.Millisecond))
	defer ticker.Stop()

	published, faults := 0, 0
	for frame := 0; cfg.Frames == 0 || frame < cfg.Frames; frame++ {
		var batch []queue.BatchMessage
		for _, sim := range sims {
			f := sim.Next()
			if f.Fault != telemetry.FaultNone {
				faults++
				logger.Debug("Injected fault", "drone_id", f.DroneID, "fault", f.Fault, "timestamp", f.Time)
			}
			for _, msg := range f.Messages() {
				data, err := codec.Marshal(msg)
				if err != nil {
					logger.Error("Failed to encode telemetry", "error", err)
					continue
				}
				batch = append(batch, queue.BatchMessage{Subject: ingest.Subject, Data: data})
			}
		}

		pubCtx, cancel := context.WithTimeout(ctx, utils.PublishTimeout)
		n, err := q.PublishBatch(pubCtx, batch)
		cancel()
		published += n
		if err != nil {
			logger.Warn("Batch publish incomplete", "published", n, "total", len(batch), "error", err)
		}

		select {
		case <-ctx.Done():
			return published, faults
		case <-ticker.C:
		}
	}
	return published, faults
}
