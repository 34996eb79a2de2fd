// Package metrics holds the Prometheus collectors shared by the HTTP, gRPC and ingest paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aerolens"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// OperationDuration times analytics calls by operation (anomalies, forecast, insights) and outcome
	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analytics_operation_duration_seconds",
			Help:      "Duration of analytics operations in seconds.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"operation", "status"},
	)

	ForecastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_total",
			Help:      "Forecasts produced, by method actually used.",
		},
		[]string{"method"},
	)

	AnomaliesDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_detected_total",
			Help:      "Observations flagged as anomalous, by source and severity.",
		},
		[]string{"source", "severity"},
	)

	IngestMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_messages_total",
			Help:      "Telemetry messages consumed from the queue, by outcome.",
		},
		[]string{"status"},
	)

	NarrativeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_requests_total",
			Help:      "Narrative enrichment attempts, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		OperationDuration,
		ForecastsTotal,
		AnomaliesDetected,
		IngestMessages,
		NarrativeRequests,
	)
}
