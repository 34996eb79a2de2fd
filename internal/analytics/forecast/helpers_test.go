package forecast

import (
	"math"
	"time"

	"github.com/aerolens/aerolens/internal/analytics"
)

// Common test data and helpers for all forecast tests

var (
	testBaseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	testInterval = time.Hour
)

// generateLinearData creates test data with linear pattern: y = slope * x + intercept
func generateLinearData(n int, slope, intercept float64) analytics.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = slope*float64(i) + intercept
	}
	return analytics.FromValues(testBaseTime, testInterval, values)
}

// generateAlternatingData oscillates between low and high without a trend
func generateAlternatingData(n int, low, high float64) analytics.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = low
		if i%2 == 1 {
			values[i] = high
		}
	}
	return analytics.FromValues(testBaseTime, testInterval, values)
}

// generateNoisyData creates a deterministic wobbling series around a slow trend
func generateNoisyData(n int) analytics.Series {
	values := make([]float64, n)
	for i := range values {
		values[i] = 50 + 0.2*float64(i) + 5*math.Sin(float64(i)*1.7)
	}
	return analytics.FromValues(testBaseTime, testInterval, values)
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func allMethods() []Method {
	return []Method{MethodLinear, MethodExponential, MethodMovingAverage, MethodAuto}
}
