package anomaly

import (
	"math"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/stats"
)

// MovingAverageDetector compares each point to the mean of the points before it.
// Good for detecting sudden changes in trending data, and the only detector usable on a
// growing stream because a point's verdict never depends on later points.
type MovingAverageDetector struct{}

func init() {
	RegisterDetector("moving_average", &MovingAverageDetector{})
}

// Name returns the algorithm name
func (ma *MovingAverageDetector) Name() string {
	return "moving_average"
}

// minHistory is the number of preceding points needed before a point can be judged
const minHistory = 2

// Detect labels each point by its deviation from the trailing window, in window std devs
func (ma *MovingAverageDetector) Detect(series analytics.Series, config Config) ([]Result, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()
	results := make([]Result, len(series))
	values := series.Values()

	for i, p := range series {
		results[i] = Result{Observation: p, Index: i, Baseline: p.Value}
		if i < minHistory {
			continue
		}

		start := i - config.WindowSize
		if start < 0 {
			start = 0
		}
		window := values[start:i]
		mean, stdDev := stats.MeanPopStdDev(window)
		denominator := stdDev
		if denominator == 0 {
			denominator = 1
		}

		results[i].Baseline = mean
		results[i].Deviation = math.Abs(p.Value-mean) / denominator
		results[i].Expected = &Range{
			Min: mean - config.Threshold*denominator,
			Max: mean + config.Threshold*denominator,
		}
		label(&results[i], config.Threshold)
	}

	return results, nil
}
