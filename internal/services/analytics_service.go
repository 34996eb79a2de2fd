package services

import (
	"context"
	"strings"
	"time"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/anomaly"
	"github.com/aerolens/aerolens/internal/analytics/forecast"
	"github.com/aerolens/aerolens/internal/analytics/insight"
	"github.com/aerolens/aerolens/internal/config"
	"github.com/aerolens/aerolens/internal/logging"
	"github.com/aerolens/aerolens/internal/metrics"
	"github.com/aerolens/aerolens/internal/narrative"
)

// Operation labels used for metrics
const (
	opAnomalies = "anomalies"
	opForecast  = "forecast"
	opInsights  = "insights"
)

// AnalyticsService applies configured defaults around the analytics packages
type AnalyticsService struct {
	logger   *logging.Logger
	cfg      config.AnalyticsConfig
	enricher *narrative.Enricher
	now      func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService. enricher may be nil.
func NewAnalyticsService(logger *logging.Logger, cfg config.AnalyticsConfig, enricher *narrative.Enricher) *AnalyticsService {
	return &AnalyticsService{
		logger:   logger.With("component", "analytics_service"),
		cfg:      cfg,
		enricher: enricher,
		now:      time.Now,
	}
}

// AnomalyRequest represents an anomaly detection request
type AnomalyRequest struct {
	Metric        string
	Series        analytics.Series
	Threshold     float64 // 0 uses the configured threshold
	Detector      string  // Empty uses the configured detector
	IncludeReport bool
}

// AnomalyResponse is the labelled series plus a summary
type AnomalyResponse struct {
	Metric    string           `json:"metric,omitempty"`
	Detector  string           `json:"detector"`
	Threshold float64          `json:"threshold"`
	Results   []anomaly.Result `json:"results"`
	Anomalies []anomaly.Result `json:"anomalies"`
	Summary   anomaly.Summary  `json:"summary"`
	Report    string           `json:"report,omitempty"`
}

// ForecastRequest represents a forecast request
type ForecastRequest struct {
	Metric                     string
	Series                     analytics.Series
	Method                     string
	Horizon                    int     // 0 uses the configured horizon
	ConfidenceLevel            float64 // 0 uses the configured level
	IncludeConfidenceIntervals *bool   // nil means true
}

// ForecastResponse wraps the forecast result with the metric it belongs to
type ForecastResponse struct {
	Metric string `json:"metric,omitempty"`
	*forecast.Result
}

// InsightsRequest represents a multi-metric insight request
type InsightsRequest struct {
	DataType    string
	Metrics     []string
	Series      map[string]analytics.Series
	MaxInsights int
	Enrich      bool
}

// InsightsResponse holds the generated insights
type InsightsResponse struct {
	DataType string            `json:"data_type"`
	Insights []insight.Insight `json:"insights"`
	Count    int               `json:"count"`
	Enriched bool              `json:"enriched"`
}

// MethodsResponse lists the registered algorithms and configured defaults
type MethodsResponse struct {
	Forecasters     []string `json:"forecasters"`
	Detectors       []string `json:"detectors"`
	DefaultForecast string   `json:"default_forecast"`
	DefaultDetector string   `json:"default_detector"`
}

// DetectAnomalies labels every observation of the series
func (s *AnalyticsService) DetectAnomalies(ctx context.Context, req *AnomalyRequest) (*AnomalyResponse, error) {
	start := time.Now()

	detectorName := req.Detector
	if detectorName == "" {
		detectorName = s.cfg.Detector
	}
	detector, err := anomaly.GetDetector(detectorName)
	if err != nil {
		return nil, s.fail(ctx, opAnomalies, start, NewServiceErrorWithDetails(CodeInvalidDetector, err.Error(),
			map[string]interface{}{"available_detectors": anomaly.ListDetectors()}))
	}
	if err := s.checkLength(req.Series); err != nil {
		return nil, s.fail(ctx, opAnomalies, start, err)
	}

	threshold := req.Threshold
	if threshold == 0 {
		threshold = s.cfg.AnomalyThreshold
	}
	if threshold < 0 {
		return nil, s.fail(ctx, opAnomalies, start,
			FromAnalyticsError(analytics.NewValidationError("threshold", -1, "must be positive")))
	}

	cfg := anomaly.DefaultConfig()
	cfg.Threshold = threshold
	results, err := detector.Detect(req.Series, cfg)
	if err != nil {
		return nil, s.fail(ctx, opAnomalies, start, FromAnalyticsError(err))
	}

	flagged := anomaly.Anomalies(results)
	for _, r := range flagged {
		metrics.AnomaliesDetected.WithLabelValues("api", string(r.Severity)).Inc()
	}

	resp := &AnomalyResponse{
		Metric:    req.Metric,
		Detector:  detectorName,
		Threshold: threshold,
		Results:   results,
		Anomalies: flagged,
		Summary:   anomaly.Summarize(results),
	}
	if req.IncludeReport {
		resp.Report = anomaly.Report(req.Metric, results, s.now())
	}

	s.succeed(ctx, opAnomalies, start,
		"detector", detectorName,
		"points", len(results),
		"anomalies", len(flagged))
	return resp, nil
}

// Forecast predicts Horizon future values
func (s *AnalyticsService) Forecast(ctx context.Context, req *ForecastRequest) (*ForecastResponse, error) {
	start := time.Now()

	method := forecast.Method(req.Method)
	if method == "" {
		method = forecast.Method(s.cfg.ForecastMethod)
	}
	if _, err := forecast.GetForecaster(method); err != nil {
		return nil, s.fail(ctx, opForecast, start, NewServiceErrorWithDetails(CodeInvalidMethod, err.Error(),
			map[string]interface{}{"available_methods": forecast.ListForecasters()}))
	}
	if err := s.checkLength(req.Series); err != nil {
		return nil, s.fail(ctx, opForecast, start, err)
	}

	cfg := forecast.Config{
		Method:                     method,
		Horizon:                    req.Horizon,
		ConfidenceLevel:            req.ConfidenceLevel,
		IncludeConfidenceIntervals: true,
		Alpha:                      s.cfg.Alpha,
		MaxWindow:                  s.cfg.MaxWindow,
	}
	if cfg.Horizon == 0 {
		cfg.Horizon = s.cfg.ForecastHorizon
	}
	if cfg.ConfidenceLevel == 0 {
		cfg.ConfidenceLevel = s.cfg.ConfidenceLevel
	}
	if req.IncludeConfidenceIntervals != nil {
		cfg.IncludeConfidenceIntervals = *req.IncludeConfidenceIntervals
	}

	result, err := forecast.Predict(req.Series, cfg)
	if err != nil {
		return nil, s.fail(ctx, opForecast, start, FromAnalyticsError(err))
	}

	metrics.ForecastsTotal.WithLabelValues(string(result.Method)).Inc()
	s.succeed(ctx, opForecast, start,
		"method", result.Method,
		"requested_method", method,
		"horizon", cfg.Horizon,
		"points", req.Series.Len(),
		"accuracy", result.Accuracy)

	return &ForecastResponse{Metric: req.Metric, Result: result}, nil
}

// Insights generates deterministic insights and, when asked and configured, merges model-written ones.
// Enrichment failures never fail the request.
func (s *AnalyticsService) Insights(ctx context.Context, req *InsightsRequest) (*InsightsResponse, error) {
	start := time.Now()

	if req.DataType == "" {
		return nil, s.fail(ctx, opInsights, start,
			FromAnalyticsError(analytics.NewValidationError("data_type", -1, "is required")))
	}
	if len(req.Metrics) == 0 {
		return nil, s.fail(ctx, opInsights, start,
			FromAnalyticsError(analytics.NewValidationError("metrics", -1, "at least one metric is required")))
	}
	for _, metric := range req.Metrics {
		if err := s.checkLength(req.Series[metric]); err != nil {
			return nil, s.fail(ctx, opInsights, start, err)
		}
	}

	maxInsights := req.MaxInsights
	if maxInsights <= 0 {
		maxInsights = s.cfg.MaxInsights
	}

	generated := insight.Generate(insight.Request{
		DataType:    req.DataType,
		Metrics:     req.Metrics,
		Series:      req.Series,
		MaxInsights: maxInsights,
	}, s.now())

	enriched := false
	if req.Enrich && s.enricher.Enabled() {
		generated = s.enricher.EnrichOrFallback(ctx, narrative.Request{
			DataType:    req.DataType,
			Metrics:     req.Metrics,
			Series:      req.Series,
			MaxInsights: maxInsights,
		}, generated)
		enriched = containsModelInsight(generated)
	}
	if generated == nil {
		generated = []insight.Insight{}
	}

	s.succeed(ctx, opInsights, start,
		"data_type", req.DataType,
		"metrics", len(req.Metrics),
		"insights", len(generated),
		"enriched", enriched)

	return &InsightsResponse{
		DataType: req.DataType,
		Insights: generated,
		Count:    len(generated),
		Enriched: enriched,
	}, nil
}

// Methods lists available algorithms
func (s *AnalyticsService) Methods() *MethodsResponse {
	return &MethodsResponse{
		Forecasters:     forecast.ListForecasters(),
		Detectors:       anomaly.ListDetectors(),
		DefaultForecast: s.cfg.ForecastMethod,
		DefaultDetector: s.cfg.Detector,
	}
}

// checkLength rejects series above the configured cap
func (s *AnalyticsService) checkLength(series analytics.Series) *ServiceError {
	if s.cfg.MaxSeriesLength > 0 && series.Len() > s.cfg.MaxSeriesLength {
		return NewServiceErrorWithDetails(CodeInvalidInput, "series too long", map[string]interface{}{
			"max_points": s.cfg.MaxSeriesLength,
			"points":     series.Len(),
		})
	}
	return nil
}

func (s *AnalyticsService) fail(ctx context.Context, op string, start time.Time, err *ServiceError) error {
	metrics.OperationDuration.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
	s.logger.WithContext(ctx).Warn("Analytics request rejected",
		"operation", op,
		"code", err.Code,
		"error", err.Message)
	return err
}

func (s *AnalyticsService) succeed(ctx context.Context, op string, start time.Time, fields ...interface{}) {
	latency := time.Since(start)
	metrics.OperationDuration.WithLabelValues(op, "ok").Observe(latency.Seconds())
	fields = append(fields, "operation", op, "latency_ms", latency.Milliseconds())
	s.logger.WithContext(ctx).Info("Analytics request completed", fields...)
}

func containsModelInsight(insights []insight.Insight) bool {
	for _, in := range insights {
		if strings.HasPrefix(in.ID, "ai-") {
			return true
		}
	}
	return false
}
