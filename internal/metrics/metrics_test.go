package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRegistered(t *testing.T) {
	ForecastsTotal.WithLabelValues("linear").Inc()
	AnomaliesDetected.WithLabelValues("api", "high").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["aerolens_forecasts_total"])
	assert.True(t, names["aerolens_anomalies_detected_total"])
}

func TestCounterIncrements(t *testing.T) {
	before := testutil.ToFloat64(IngestMessages.WithLabelValues("ok"))
	IngestMessages.WithLabelValues("ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(IngestMessages.WithLabelValues("ok")))
}
