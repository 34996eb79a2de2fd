package insight

import (
	"strings"
	"testing"
	"time"

	"github.com/aerolens/aerolens/internal/analytics"
)

var baseTime = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func series(values ...float64) analytics.Series {
	return analytics.FromValues(baseTime, time.Hour, values)
}

func TestForecastInsights_Trend(t *testing.T) {
	history := series(10, 11, 12, 13, 14)

	up := ForecastInsights(history, series(15, 16), 1)
	if !strings.Contains(up[0], "upward") {
		t.Errorf("expected upward trend sentence, got %q", up[0])
	}

	down := ForecastInsights(history, series(13, 12), -1)
	if !strings.Contains(down[0], "downward") {
		t.Errorf("expected downward trend sentence, got %q", down[0])
	}

	flat := ForecastInsights(history, series(14, 14), 0.005)
	if !strings.Contains(flat[0], "stable") {
		t.Errorf("expected stable sentence, got %q", flat[0])
	}
}

func TestForecastInsights_LevelForecastUnderTrend(t *testing.T) {
	history := series(10, 11, 12, 13, 14)

	up := ForecastInsights(history, series(13.5, 13.5, 13.5), 1)
	if up[0] != "Data shows an upward trend, but the forecast holds a constant level" {
		t.Errorf("unexpected sentence %q", up[0])
	}

	down := ForecastInsights(history, series(11, 11), -1)
	if !strings.Contains(down[0], "constant level") {
		t.Errorf("unexpected sentence %q", down[0])
	}
}

func TestForecastInsights_ChangeAndVolatility(t *testing.T) {
	history := series(100, 100, 100, 100, 100)

	insights := ForecastInsights(history, series(110, 130, 150), 20)
	if len(insights) != 3 {
		t.Fatalf("expected 3 insights, got %d: %v", len(insights), insights)
	}
	if !strings.Contains(insights[1], "up 50.00%") {
		t.Errorf("unexpected change sentence: %q", insights[1])
	}
	if !strings.Contains(insights[2], "vary widely") {
		t.Errorf("unexpected volatility sentence: %q", insights[2])
	}

	small := ForecastInsights(history, series(101, 102), 1)
	for _, s := range small {
		if strings.Contains(s, "Forecast end value") {
			t.Errorf("change below 5%% should not be reported: %q", s)
		}
	}
	if !strings.Contains(small[len(small)-1], "vary little") {
		t.Errorf("expected low volatility sentence, got %v", small)
	}
}

func TestForecastInsights_Bounds(t *testing.T) {
	cases := []struct {
		history, predictions analytics.Series
	}{
		{series(0, 0, 0, 0, 0), series(0, 0)},
		{series(1, 2, 3, 4, 5), series(-1, 1)},
		{series(5, 5, 5, 5, 5), series(5)},
	}
	for _, c := range cases {
		got := ForecastInsights(c.history, c.predictions, 0)
		if len(got) < 1 || len(got) > 3 {
			t.Errorf("expected 1-3 insights, got %d: %v", len(got), got)
		}
	}
}

func TestGenerate_TrendAndRange(t *testing.T) {
	req := Request{
		DataType: "flight",
		Metrics:  []string{"battery"},
		Series: map[string]analytics.Series{
			"battery": series(100, 90, 80, 70, 60, 50),
		},
	}
	insights := Generate(req, baseTime)

	var trend, pattern *Insight
	for i := range insights {
		switch insights[i].Type {
		case TypeTrend:
			trend = &insights[i]
		case TypePattern:
			pattern = &insights[i]
		}
	}

	if trend == nil {
		t.Fatal("expected a trend insight")
	}
	if trend.Title != "battery decreased by 50.00%" {
		t.Errorf("unexpected trend title %q", trend.Title)
	}
	if trend.Severity != SeverityWarning {
		t.Errorf("expected warning severity for a 50%% change, got %s", trend.Severity)
	}
	if trend.Confidence > 0.95 {
		t.Errorf("trend confidence should be capped at 0.95, got %v", trend.Confidence)
	}

	if pattern == nil {
		t.Fatal("expected a range pattern insight")
	}
	if pattern.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %v", pattern.Confidence)
	}
}

func TestGenerate_Anomaly(t *testing.T) {
	values := []float64{10, 12, 11, 40, 13, 11, 12, 10, 13, 12}
	req := Request{
		DataType: "flight",
		Metrics:  []string{"motor_temp"},
		Series:   map[string]analytics.Series{"motor_temp": series(values...)},
	}

	found := false
	for _, in := range Generate(req, baseTime) {
		if in.Type != TypeAnomaly {
			continue
		}
		found = true
		if in.Title != "motor_temp: 1 anomalies detected" {
			t.Errorf("unexpected title %q", in.Title)
		}
		if in.Severity != SeverityInfo {
			t.Errorf("expected info severity for a single anomaly, got %s", in.Severity)
		}
		if in.Confidence < 0.7 || in.Confidence > 0.9 {
			t.Errorf("confidence out of range: %v", in.Confidence)
		}
	}
	if !found {
		t.Error("expected an anomaly insight")
	}
}

func TestGenerate_Correlation(t *testing.T) {
	req := Request{
		DataType: "flight",
		Metrics:  []string{"altitude", "signal"},
		Series: map[string]analytics.Series{
			"altitude": series(100, 101, 102, 103, 104),
			"signal":   series(-50, -51, -52, -53, -54),
		},
	}

	var corr *Insight
	insights := Generate(req, baseTime)
	for i := range insights {
		if insights[i].Type == TypeCorrelation {
			corr = &insights[i]
		}
	}
	if corr == nil {
		t.Fatal("expected a correlation insight")
	}
	if !strings.Contains(corr.Title, "negatively") {
		t.Errorf("expected negative correlation, got %q", corr.Title)
	}
	if len(corr.Metrics) != 2 {
		t.Errorf("expected both metrics, got %v", corr.Metrics)
	}
}

func TestGenerate_SkipsShortAndMissing(t *testing.T) {
	req := Request{
		Metrics: []string{"a", "b"},
		Series:  map[string]analytics.Series{"a": series(1)},
	}
	if got := Generate(req, baseTime); len(got) != 0 {
		t.Errorf("expected no insights, got %v", got)
	}
}

func TestGenerate_OrderedAndCapped(t *testing.T) {
	req := Request{
		DataType:    "flight",
		Metrics:     []string{"a", "b", "c"},
		MaxInsights: 2,
		Series: map[string]analytics.Series{
			"a": series(10, 20, 30, 40, 50),
			"b": series(20, 40, 60, 80, 100),
			"c": series(5, 4, 3, 2, 1),
		},
	}
	got := Generate(req, baseTime)
	if len(got) != 2 {
		t.Fatalf("expected 2 insights, got %d", len(got))
	}
	if got[0].Confidence < got[1].Confidence {
		t.Error("insights should be ordered by descending confidence")
	}
}

func TestDedupe(t *testing.T) {
	in := []Insight{
		{Title: "x", Confidence: 0.5, ID: "low"},
		{Title: "y", Confidence: 0.7},
		{Title: "x", Confidence: 0.9, ID: "high"},
	}
	out := Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 insights, got %d", len(out))
	}
	if out[0].ID != "high" {
		t.Errorf("expected the higher-confidence duplicate to win, got %q", out[0].ID)
	}
	if in[0].ID != "low" {
		t.Error("Dedupe must not reorder its input")
	}
}

func TestCap(t *testing.T) {
	in := make([]Insight, 15)
	if len(Cap(in, 0)) != DefaultMaxInsights {
		t.Error("non-positive limit should use the default")
	}
	if len(Cap(in, 3)) != 3 {
		t.Error("expected 3 insights")
	}
	if len(Cap(in[:2], 5)) != 2 {
		t.Error("short input should be returned unchanged")
	}
}

func TestParseTypeAndSeverity(t *testing.T) {
	if ParseType("trend") != TypeTrend || ParseType("bogus") != TypeSummary {
		t.Error("unexpected ParseType result")
	}
	if ParseSeverity("critical") != SeverityCritical || ParseSeverity("") != SeverityInfo {
		t.Error("unexpected ParseSeverity result")
	}
}
