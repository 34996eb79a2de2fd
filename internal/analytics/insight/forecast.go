package insight

import (
	"fmt"
	"math"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/stats"
)

const (
	// slopeThreshold separates a trend from noise, in value units per step
	slopeThreshold = 0.01

	// changeThreshold is the percentage change worth mentioning
	changeThreshold = 5.0

	largeVolatility = 0.2
	smallVolatility = 0.05
)

// ForecastInsights describes a forecast in one to three sentences: the trend direction, the change
// between the last observation and the final prediction, and how much the predictions vary.
// slope is the per-step trend of the data. A level forecast under a trend says so instead of
// promising the trend continues.
func ForecastInsights(history, predictions analytics.Series, slope float64) []string {
	insights := make([]string, 0, 3)

	level := isLevel(predictions)
	switch {
	case slope > slopeThreshold && level:
		insights = append(insights, "Data shows an upward trend, but the forecast holds a constant level")
	case slope > slopeThreshold:
		insights = append(insights, "Data shows an upward trend, expected to keep rising")
	case slope < -slopeThreshold && level:
		insights = append(insights, "Data shows a downward trend, but the forecast holds a constant level")
	case slope < -slopeThreshold:
		insights = append(insights, "Data shows a downward trend, expected to keep falling")
	default:
		insights = append(insights, "Data is relatively stable, expected to hold near its current level")
	}

	if len(history) == 0 || len(predictions) == 0 {
		return insights
	}

	latest := history.Last().Value
	final := predictions.Last().Value
	if latest != 0 {
		change := (final - latest) / math.Abs(latest) * 100
		if math.Abs(change) > changeThreshold {
			direction := "up"
			if change < 0 {
				direction = "down"
			}
			insights = append(insights, fmt.Sprintf("Forecast end value is %s %.2f%% from the current value",
				direction, math.Abs(change)))
		}
	}

	values := predictions.Values()
	lo, hi := stats.MinMax(values)
	spread := hi - lo
	mean := math.Abs(stats.Mean(values))
	if spread == 0 {
		insights = append(insights, "Forecast values vary little and stay relatively stable")
		return insights
	}
	if mean == 0 {
		return insights
	}

	volatility := spread / mean
	switch {
	case volatility > largeVolatility:
		insights = append(insights, fmt.Sprintf("Forecast values vary widely, with a spread of %.2f%%", volatility*100))
	case volatility < smallVolatility:
		insights = append(insights, "Forecast values vary little and stay relatively stable")
	}

	return insights
}

// isLevel reports a forecast of two or more identical values
func isLevel(predictions analytics.Series) bool {
	if len(predictions) < 2 {
		return false
	}
	lo, hi := stats.MinMax(predictions.Values())
	return lo == hi
}
