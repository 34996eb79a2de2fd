package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/anomaly"
	"github.com/aerolens/aerolens/internal/config"
	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/metrics"
	"github.com/aerolens/aerolens/internal/models"
	"github.com/aerolens/aerolens/internal/queue"
	"github.com/aerolens/aerolens/internal/utils"
)

// Ingest outcomes, used as metric labels
const (
	IngestAccepted  = "accepted"
	IngestWarming   = "warming"
	IngestAnomalous = "anomalous"
	IngestStale     = "stale"
	IngestInvalid   = "invalid"
)

// IngestService consumes streamed telemetry, keeps a sliding window per drone and metric,
// and publishes an AnomalyEvent whenever the newest observation is anomalous within its window.
type IngestService struct {
	logger *logging.Logger
	cfg    config.IngestConfig
	queue  queue.Queue
	codec  queue.Codec
	now    func() time.Time

	mu      sync.Mutex
	windows map[windowKey]*window
	stop    chan struct{}
	done    chan struct{}
}

type windowKey struct {
	drone  string
	metric string
}

type window struct {
	series analytics.Series
	seen   time.Time
}

// pushResult says what push did with an observation
type pushResult int

const (
	pushAppended pushResult = iota
	pushRedelivered
	pushStale
)

// NewIngestService creates a new IngestService
func NewIngestService(logger *logging.Logger, cfg config.IngestConfig, q queue.Queue) *IngestService {
	return &IngestService{
		logger:  logger.With("component", "ingest_service"),
		cfg:     cfg,
		queue:   q,
		codec:   queue.NewCodec(cfg.Compression),
		now:     time.Now,
		windows: make(map[windowKey]*window),
	}
}

// Start subscribes to the telemetry subject and, with an idle TTL set, starts evicting idle windows
func (s *IngestService) Start() error {
	if err := s.queue.Subscribe(s.cfg.Subject, s.Handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.cfg.Subject, err)
	}
	if s.cfg.IdleTTL > 0 {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.sweep(max(s.cfg.IdleTTL/2, time.Second))
	}
	s.logger.Info("Ingest started",
		"subject", s.cfg.Subject,
		"anomaly_subject", s.cfg.AnomalySubject,
		"window_size", s.cfg.WindowSize,
		"threshold", s.cfg.Threshold,
		"idle_ttl", s.cfg.IdleTTL)
	return nil
}

// Stop unsubscribes from the telemetry subject and stops the sweeper
func (s *IngestService) Stop() error {
	if s.stop != nil {
		close(s.stop)
		<-s.done
		s.stop = nil
	}
	return s.queue.Unsubscribe(s.cfg.Subject)
}

func (s *IngestService) sweep(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.Evict(s.now()); n > 0 {
				s.logger.Debug("Evicted idle windows", "count", n)
			}
		}
	}
}

// Evict drops windows not updated within the idle TTL and returns how many were dropped
func (s *IngestService) Evict(now time.Time) int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, w := range s.windows {
		if now.Sub(w.seen) > s.cfg.IdleTTL {
			delete(s.windows, key)
			evicted++
		}
	}
	return evicted
}

// Handle is the queue handler. Undecodable or invalid messages are acknowledged and dropped;
// only a failed anomaly publish asks for redelivery.
func (s *IngestService) Handle(data []byte) error {
	var msg models.TelemetryMessage
	if err := s.codec.Unmarshal(data, &msg); err != nil {
		metrics.IngestMessages.WithLabelValues(IngestInvalid).Inc()
		s.logger.Warn("Dropping undecodable telemetry", "error", err)
		return nil
	}
	if err := models.Validate(&msg); err != nil {
		metrics.IngestMessages.WithLabelValues(IngestInvalid).Inc()
		s.logger.Warn("Dropping invalid telemetry", "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.PublishTimeout)
	defer cancel()
	_, err := s.Process(ctx, &msg)
	return err
}

// Process adds one observation to its window and judges it. It returns the outcome label.
func (s *IngestService) Process(ctx context.Context, msg *models.TelemetryMessage) (string, error) {
	obs := analytics.Observation{Time: msg.Timestamp, Value: msg.Value}
	if err := (analytics.Series{obs}).Validate(); err != nil {
		metrics.IngestMessages.WithLabelValues(IngestInvalid).Inc()
		return IngestInvalid, nil
	}

	window, res := s.push(windowKey{drone: msg.DroneID, metric: msg.Metric}, obs)
	if res == pushStale {
		metrics.IngestMessages.WithLabelValues(IngestStale).Inc()
		s.logger.Debug("Dropping out-of-order telemetry",
			"drone_id", msg.DroneID,
			"metric", msg.Metric,
			"timestamp", msg.Timestamp)
		return IngestStale, nil
	}
	if res == pushRedelivered {
		s.logger.Debug("Judging redelivered telemetry again", "drone_id", msg.DroneID, "metric", msg.Metric)
	}
	if len(window) < s.minPoints() {
		metrics.IngestMessages.WithLabelValues(IngestWarming).Inc()
		return IngestWarming, nil
	}

	cfg := anomaly.DefaultConfig()
	cfg.Threshold = s.cfg.Threshold
	results, err := anomaly.DetectWith("zscore", window, cfg)
	if err != nil {
		metrics.IngestMessages.WithLabelValues(IngestInvalid).Inc()
		return IngestInvalid, nil
	}

	latest := results[len(results)-1]
	if !latest.IsAnomaly {
		metrics.IngestMessages.WithLabelValues(IngestAccepted).Inc()
		return IngestAccepted, nil
	}

	event := models.AnomalyEvent{
		ID:         uuid.NewString(),
		DroneID:    msg.DroneID,
		Metric:     msg.Metric,
		Timestamp:  msg.Timestamp,
		Value:      msg.Value,
		Expected:   latest.Baseline,
		Deviation:  latest.Deviation,
		Threshold:  cfg.Threshold,
		Severity:   string(latest.Severity),
		Type:       string(latest.Type),
		WindowSize: len(window),
		DetectedAt: s.now().UTC(),
	}
	payload, err := s.codec.Marshal(event)
	if err != nil {
		return IngestAnomalous, err
	}
	if err := s.queue.Publish(ctx, s.cfg.AnomalySubject, payload); err != nil {
		s.logger.Error("Failed to publish anomaly event", "error", err, "drone_id", msg.DroneID, "metric", msg.Metric)
		return IngestAnomalous, fmt.Errorf("publish anomaly event: %w", err)
	}

	metrics.IngestMessages.WithLabelValues(IngestAnomalous).Inc()
	metrics.AnomaliesDetected.WithLabelValues("ingest", event.Severity).Inc()
	s.logger.Info("Anomaly detected in stream",
		"drone_id", event.DroneID,
		"metric", event.Metric,
		"value", event.Value,
		"expected", event.Expected,
		"deviation", event.Deviation,
		"severity", event.Severity)
	return IngestAnomalous, nil
}

// push appends obs to its window and returns a copy of the window.
// Observations older than the newest one in the window are rejected. An observation equal to the
// newest one is a redelivery: the window is returned unchanged so the point is judged again.
func (s *IngestService) push(key windowKey, obs analytics.Observation) (analytics.Series, pushResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		w = &window{}
		s.windows[key] = w
	}
	w.seen = s.now()

	res := pushAppended
	if n := len(w.series); n > 0 {
		tail := w.series[n-1]
		switch {
		case obs.Time.Before(tail.Time):
			return nil, pushStale
		case obs.Time.Equal(tail.Time) && obs.Value == tail.Value:
			res = pushRedelivered
		}
	}
	if res == pushAppended {
		w.series = append(w.series, obs)
		if size := s.windowSize(); len(w.series) > size {
			w.series = append(analytics.Series(nil), w.series[len(w.series)-size:]...)
		}
	}
	return append(analytics.Series(nil), w.series...), res
}

// Windows returns the number of tracked drone and metric pairs
func (s *IngestService) Windows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

func (s *IngestService) windowSize() int {
	if s.cfg.WindowSize < 2 {
		return 60
	}
	return s.cfg.WindowSize
}

func (s *IngestService) minPoints() int {
	if s.cfg.MinPoints < 2 {
		return 2
	}
	return min(s.cfg.MinPoints, s.windowSize())
}
