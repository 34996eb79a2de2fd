package anomaly

import (
	"math"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/stats"
)

// ZScoreDetector detects anomalies using Z-Score (standard score)
// Z-Score measures how many population standard deviations a point is from the mean.
// Points with |Z| > threshold are considered anomalies.
type ZScoreDetector struct{}

func init() {
	RegisterDetector("zscore", &ZScoreDetector{})
}

// Name returns the algorithm name
func (z *ZScoreDetector) Name() string {
	return "zscore"
}

// Detect labels every point using Z-Score method.
// A constant series has sigma 0; the denominator is then 1, so deviation is the raw offset (0).
func (z *ZScoreDetector) Detect(series analytics.Series, config Config) ([]Result, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()
	results := make([]Result, len(series))
	if len(series) == 0 {
		return results, nil
	}

	mean, stdDev := stats.MeanPopStdDev(series.Values())
	denominator := stdDev
	if denominator == 0 {
		denominator = 1
	}

	expectedRange := &Range{
		Min: mean - config.Threshold*denominator,
		Max: mean + config.Threshold*denominator,
	}

	for i, p := range series {
		results[i] = Result{
			Observation: p,
			Index:       i,
			Deviation:   math.Abs(p.Value-mean) / denominator,
			Baseline:    mean,
			Expected:    expectedRange,
		}
		label(&results[i], config.Threshold)
	}

	return results, nil
}

// CalculateZScore calculates Z-Score for a single value given mean and stdDev
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}
