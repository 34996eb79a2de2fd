package anomaly

import (
	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/stats"
)

// IQRDetector detects anomalies using Interquartile Range (IQR) method
// IQR is robust to outliers compared to Z-Score
// Anomalies are points outside [Q1 - k*IQR, Q3 + k*IQR] where k is typically 1.5
type IQRDetector struct{}

func init() {
	RegisterDetector("iqr", &IQRDetector{})
}

// Name returns the algorithm name
func (iqr *IQRDetector) Name() string {
	return "iqr"
}

// Detect labels points outside the IQR fences. Deviation is the distance past the nearest
// fence in IQR units (the raw distance when IQR is 0); points inside the fences score 0.
func (iqr *IQRDetector) Detect(series analytics.Series, config Config) ([]Result, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()
	results := make([]Result, len(series))
	if len(series) == 0 {
		return results, nil
	}

	q1, median, q3 := stats.Quartiles(series.Values())
	iqrValue := q3 - q1

	expectedRange := &Range{
		Min: q1 - config.IQRMultiplier*iqrValue,
		Max: q3 + config.IQRMultiplier*iqrValue,
	}

	unit := iqrValue
	if unit == 0 {
		unit = 1
	}

	for i, p := range series {
		var distance float64
		switch {
		case p.Value > expectedRange.Max:
			distance = p.Value - expectedRange.Max
		case p.Value < expectedRange.Min:
			distance = expectedRange.Min - p.Value
		}
		results[i] = Result{
			Observation: p,
			Index:       i,
			Deviation:   distance / unit,
			Baseline:    median,
			Expected:    expectedRange,
		}
		// Any distance past a fence is anomalous; the threshold does not apply to fence-based scoring
		label(&results[i], 0)
	}

	return results, nil
}

// CalculateIQR returns Q1, Q3, and IQR for a slice of values
func CalculateIQR(values []float64) (q1, q3, iqr float64) {
	q1, _, q3 = stats.Quartiles(values)
	return q1, q3, q3 - q1
}
