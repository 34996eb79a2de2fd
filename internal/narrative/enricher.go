package narrative

import (
	"context"
	"errors"
	"time"

	"github.com/aerolens/aerolens/internal/analytics/insight"
	"github.com/aerolens/aerolens/internal/config"
	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/metrics"
	"github.com/aerolens/aerolens/internal/tasks"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultSampleSize = 20
)

// Enricher turns a metric batch into model-written insights
type Enricher struct {
	client     *Client
	timeout    time.Duration
	sampleSize int
	logger     *logging.Logger
	now        func() time.Time
}

// NewEnricher creates an enricher over client
func NewEnricher(client *Client, cfg config.NarrativeConfig, logger *logging.Logger) *Enricher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	sampleSize := cfg.SampleSize
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	return &Enricher{
		client:     client,
		timeout:    timeout,
		sampleSize: sampleSize,
		logger:     logger.With("component", "narrative"),
		now:        time.Now,
	}
}

// Enabled reports whether enrichment will be attempted
func (e *Enricher) Enabled() bool {
	return e != nil && e.client.Enabled()
}

// Enrich starts the model call as a task. The caller owns the task and may cancel it.
func (e *Enricher) Enrich(ctx context.Context, req Request) *tasks.Task[[]insight.Insight] {
	return tasks.Start(ctx, func(ctx context.Context, report tasks.Reporter) ([]insight.Insight, error) {
		messages := buildMessages(req, e.sampleSize)
		report(0.1, "prompt built")

		content, err := e.client.Chat(ctx, messages)
		if err != nil {
			return nil, err
		}
		report(0.8, "model answered")

		answer, err := decodeAnswer(content)
		if err != nil {
			return nil, err
		}
		return toInsights(answer, req, e.now()), nil
	})
}

// EnrichOrFallback merges model insights into local, bounded by the enricher's timeout.
// Any failure is logged and local is returned unchanged.
func (e *Enricher) EnrichOrFallback(ctx context.Context, req Request, local []insight.Insight) []insight.Insight {
	if !e.Enabled() {
		metrics.NarrativeRequests.WithLabelValues("disabled").Inc()
		return local
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req.Local = local
	task := e.Enrich(ctx, req)
	extra, err := task.Wait(ctx)
	if err != nil {
		task.Cancel()
		outcome := "error"
		var schemaErr *SchemaError
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			outcome = "timeout"
		case errors.As(err, &schemaErr):
			outcome = "malformed"
		}
		metrics.NarrativeRequests.WithLabelValues(outcome).Inc()
		e.logger.Warn("Narrative enrichment failed, using local insights",
			"error", err, "outcome", outcome, "task_id", task.ID, "data_type", req.DataType)
		return local
	}

	metrics.NarrativeRequests.WithLabelValues("ok").Inc()
	merged := append(append([]insight.Insight(nil), local...), extra...)
	return insight.Cap(insight.Dedupe(merged), req.MaxInsights)
}
