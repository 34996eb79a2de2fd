// Package insight turns series statistics into short human-readable findings.
package insight

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/anomaly"
	"github.com/aerolens/aerolens/internal/analytics/stats"
)

// Type categorizes an insight
type Type string

const (
	TypeTrend       Type = "trend"
	TypeAnomaly     Type = "anomaly"
	TypeCorrelation Type = "correlation"
	TypeComparison  Type = "comparison"
	TypePattern     Type = "pattern"
	TypeSummary     Type = "summary"
)

// ParseType maps free text to a Type, defaulting to summary
func ParseType(s string) Type {
	switch t := Type(s); t {
	case TypeTrend, TypeAnomaly, TypeCorrelation, TypeComparison, TypePattern, TypeSummary:
		return t
	}
	return TypeSummary
}

// Severity of an insight
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ParseSeverity maps free text to a Severity, defaulting to info
func ParseSeverity(s string) Severity {
	switch sev := Severity(s); sev {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return sev
	}
	return SeverityInfo
}

// DefaultMaxInsights caps the number of insights returned by Generate
const DefaultMaxInsights = 10

// Anomaly Z-score threshold used for anomaly insights
const anomalyThreshold = 2.5

// Insight is a single finding about one or more metrics
type Insight struct {
	ID              string         `json:"id"`
	Type            Type           `json:"type"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Metrics         []string       `json:"metrics"`
	Severity        Severity       `json:"severity"`
	Confidence      float64        `json:"confidence"`
	Timestamp       time.Time      `json:"timestamp"`
	Data            map[string]any `json:"data,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
}

// Request describes a multi-metric batch
type Request struct {
	DataType    string
	Metrics     []string
	Series      map[string]analytics.Series
	MaxInsights int
}

// Generate produces trend, range, anomaly and correlation insights for every metric in the request,
// deduplicated and capped at MaxInsights. Metrics with fewer than two finite observations are skipped.
func Generate(req Request, now time.Time) []Insight {
	var insights []Insight

	for _, metric := range req.Metrics {
		series := sortedFinite(req.Series[metric])
		if len(series) < 2 {
			continue
		}
		if in, ok := trendInsight(req.DataType, metric, series, now); ok {
			insights = append(insights, in)
		}
		if in, ok := rangeInsight(req.DataType, metric, series, now); ok {
			insights = append(insights, in)
		}
		if in, ok := anomalyInsight(req.DataType, metric, series, now); ok {
			insights = append(insights, in)
		}
	}

	for i := 0; i < len(req.Metrics); i++ {
		for j := i + 1; j < len(req.Metrics); j++ {
			m1, m2 := req.Metrics[i], req.Metrics[j]
			x := sortedFinite(req.Series[m1]).Values()
			y := sortedFinite(req.Series[m2]).Values()
			if in, ok := correlationInsight(req.DataType, m1, m2, x, y, now); ok {
				insights = append(insights, in)
			}
		}
	}

	return Cap(Dedupe(insights), req.MaxInsights)
}

// Dedupe orders insights by descending confidence and drops any whose title was already seen.
// The input slice is not modified.
func Dedupe(insights []Insight) []Insight {
	sorted := make([]Insight, len(insights))
	copy(sorted, insights)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]Insight, 0, len(sorted))
	for _, in := range sorted {
		if _, dup := seen[in.Title]; dup {
			continue
		}
		seen[in.Title] = struct{}{}
		out = append(out, in)
	}
	return out
}

// Cap truncates to limit insights; a non-positive limit means DefaultMaxInsights
func Cap(insights []Insight, limit int) []Insight {
	if limit <= 0 {
		limit = DefaultMaxInsights
	}
	if len(insights) > limit {
		return insights[:limit]
	}
	return insights
}

func trendInsight(dataType, metric string, series analytics.Series, now time.Time) (Insight, bool) {
	values := series.Values()
	first, last := values[0], values[len(values)-1]
	if first == 0 {
		return Insight{}, false
	}
	change := last - first
	percent := change / math.Abs(first) * 100
	if math.Abs(percent) <= 5 {
		return Insight{}, false
	}

	n := float64(len(values))
	xMean := (n - 1) / 2
	yMean := stats.Mean(values)
	var num, den float64
	for i, v := range values {
		dx := float64(i) - xMean
		num += dx * (v - yMean)
		den += dx * dx
	}
	slope := stats.SafeRatio(num, den, 0)
	strength := stats.SafeRatio(math.Abs(slope)*n, math.Abs(yMean), 0)

	direction := "increased"
	if change < 0 {
		direction = "decreased"
	}
	severity := SeverityInfo
	if math.Abs(percent) > 20 {
		severity = SeverityWarning
	}

	return Insight{
		ID:    fmt.Sprintf("trend-%s-%s", dataType, metric),
		Type:  TypeTrend,
		Title: fmt.Sprintf("%s %s by %.2f%%", metric, direction, math.Abs(percent)),
		Description: fmt.Sprintf("Between %s and %s, %s %s from %.2f to %.2f",
			series[0].Time.Format(time.DateOnly), series.Last().Time.Format(time.DateOnly),
			metric, direction, first, last),
		Metrics:    []string{metric},
		Severity:   severity,
		Confidence: math.Min(0.5+strength, 0.95),
		Timestamp:  now,
		Data: map[string]any{
			"first_value":    first,
			"last_value":     last,
			"change":         change,
			"percent_change": percent,
			"slope":          slope,
		},
	}, true
}

func rangeInsight(dataType, metric string, series analytics.Series, now time.Time) (Insight, bool) {
	values := series.Values()
	lo, hi := stats.MinMax(values)
	mean := stats.Mean(values)
	if mean == 0 {
		return Insight{}, false
	}
	spread := hi - lo
	percent := spread / math.Abs(mean) * 100
	if percent <= 30 {
		return Insight{}, false
	}

	var loAt, hiAt time.Time
	for _, p := range series {
		if p.Value == lo && loAt.IsZero() {
			loAt = p.Time
		}
		if p.Value == hi && hiAt.IsZero() {
			hiAt = p.Time
		}
	}

	return Insight{
		ID:    fmt.Sprintf("pattern-%s-%s-range", dataType, metric),
		Type:  TypePattern,
		Title: fmt.Sprintf("%s fluctuates significantly", metric),
		Description: fmt.Sprintf("Over the observed period the gap between the maximum (%.2f) and minimum (%.2f) of %s reached %.2f%% of its mean",
			hi, lo, metric, percent),
		Metrics:    []string{metric},
		Severity:   SeverityInfo,
		Confidence: 0.8,
		Timestamp:  now,
		Data: map[string]any{
			"max_value":             hi,
			"max_time":              hiAt,
			"min_value":             lo,
			"min_time":              loAt,
			"range":                 spread,
			"range_percent_of_mean": percent,
		},
	}, true
}

func anomalyInsight(dataType, metric string, series analytics.Series, now time.Time) (Insight, bool) {
	results, err := anomaly.Detect(series, anomalyThreshold)
	if err != nil {
		return Insight{}, false
	}
	flagged := anomaly.Anomalies(results)
	if len(flagged) == 0 {
		return Insight{}, false
	}

	var total float64
	for _, r := range flagged {
		total += r.Deviation
	}
	avg := total / float64(len(flagged))

	severity := SeverityInfo
	if len(flagged) > 3 {
		severity = SeverityWarning
	}

	return Insight{
		ID:    fmt.Sprintf("anomaly-%s-%s", dataType, metric),
		Type:  TypeAnomaly,
		Title: fmt.Sprintf("%s: %d anomalies detected", metric, len(flagged)),
		Description: fmt.Sprintf("Found %d anomalous values in %s over the observed period, with an average deviation of %.2f",
			len(flagged), metric, avg),
		Metrics:    []string{metric},
		Severity:   severity,
		Confidence: 0.7 + math.Min(avg/10, 0.2),
		Timestamp:  now,
		Data: map[string]any{
			"anomaly_count": len(flagged),
			"anomalies":     flagged,
			"avg_deviation": avg,
		},
	}, true
}

func correlationInsight(dataType, m1, m2 string, x, y []float64, now time.Time) (Insight, bool) {
	if len(x) < 3 || len(y) < 3 {
		return Insight{}, false
	}
	r := stats.Correlation(x, y)
	if math.Abs(r) <= 0.7 {
		return Insight{}, false
	}

	sign := "positively"
	if r < 0 {
		sign = "negatively"
	}

	return Insight{
		ID:          fmt.Sprintf("correlation-%s-%s-%s", dataType, m1, m2),
		Type:        TypeCorrelation,
		Title:       fmt.Sprintf("%s and %s are %s correlated", m1, m2, sign),
		Description: fmt.Sprintf("A strong %s correlation was found between the two metrics (coefficient %.2f)", sign, r),
		Metrics:     []string{m1, m2},
		Severity:    SeverityInfo,
		Confidence:  math.Abs(r),
		Timestamp:   now,
		Data: map[string]any{
			"correlation": r,
			"metric1":     m1,
			"metric2":     m2,
		},
	}, true
}

// sortedFinite returns a time-ordered copy without NaN or Inf values
func sortedFinite(s analytics.Series) analytics.Series {
	out := make(analytics.Series, 0, len(s))
	for _, p := range s {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}
