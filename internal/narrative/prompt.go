package narrative

import (
	"fmt"
	"strings"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/anomaly"
	"github.com/aerolens/aerolens/internal/analytics/insight"
)

const systemPrompt = "You are a senior telemetry analyst. You answer with a single JSON object and nothing else."

// Request is the batch the model is asked about
type Request struct {
	DataType    string
	Metrics     []string
	Series      map[string]analytics.Series
	Local       []insight.Insight // Deterministic insights already computed
	MaxInsights int
}

type samplePoint struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

type metricDigest struct {
	Points    int           `json:"points"`
	Sample    []samplePoint `json:"sample"`
	Anomalies int           `json:"anomalies"`
}

// buildMessages renders the request as a system and a user turn.
// At most sampleSize points per metric are included.
func buildMessages(req Request, sampleSize int) []Message {
	digest := make(map[string]metricDigest, len(req.Metrics))
	for _, metric := range req.Metrics {
		series := req.Series[metric]
		d := metricDigest{Points: series.Len()}
		for i, o := range series {
			if i >= sampleSize {
				break
			}
			d.Sample = append(d.Sample, samplePoint{Timestamp: o.Time.UTC().Format("2006-01-02T15:04:05Z"), Value: o.Value})
		}
		if results, err := anomaly.Detect(series, anomaly.DefaultThreshold); err == nil {
			d.Anomalies = anomaly.Summarize(results).Anomalies
		}
		digest[metric] = d
	}

	local := make([]string, 0, len(req.Local))
	for _, in := range req.Local {
		local = append(local, in.Title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyse the following data and report the most important findings.\n\n")
	fmt.Fprintf(&b, "Data type: %s\nMetrics: %s\n\n", req.DataType, strings.Join(req.Metrics, ", "))
	fmt.Fprintf(&b, "Per-metric digest:\n%s\n\n", compactJSON(digest))
	if len(local) > 0 {
		fmt.Fprintf(&b, "Findings already known (do not repeat them):\n%s\n\n", compactJSON(local))
	}
	b.WriteString(`Give 3 to 5 insights covering trends, anomalies, correlations between metrics and an overall assessment.
Answer with exactly this JSON shape and no other keys:
{"insights":[{"type":"trend|anomaly|correlation|comparison|pattern|summary","title":"short title","description":"details","metrics":["metric"],"severity":"info|warning|critical","confidence":0.9,"recommendations":["action"]}]}`)

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}
}
