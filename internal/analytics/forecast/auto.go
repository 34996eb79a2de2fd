package forecast

import (
	"math"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/stats"
)

// trendCorrelation is the |r| between index and value above which a series is treated as trending
const trendCorrelation = 0.5

// minSmoothingPoints is the series length from which exponential smoothing is preferred
const minSmoothingPoints = 20

// AutoForecaster automatically selects the best forecasting algorithm
type AutoForecaster struct{}

// NewAutoForecaster creates a new Auto forecaster
func NewAutoForecaster() *AutoForecaster {
	return &AutoForecaster{}
}

func init() {
	RegisterForecaster(NewAutoForecaster())
}

// Name returns the algorithm name
func (f *AutoForecaster) Name() Method {
	return MethodAuto
}

// Forecast runs the method chosen by Select. The result reports the chosen method.
func (f *AutoForecaster) Forecast(series analytics.Series, config Config) (*Result, error) {
	forecaster, err := GetForecaster(Select(series))
	if err != nil {
		return nil, err
	}
	config.Method = forecaster.Name()
	return forecaster.Forecast(series, config)
}

// Select picks linear regression for trending data, exponential smoothing for long series and the
// moving average otherwise
func Select(series analytics.Series) Method {
	if hasTrend(series) {
		return MethodLinear
	}
	if len(series) >= minSmoothingPoints {
		return MethodExponential
	}
	return MethodMovingAverage
}

// hasTrend detects if data has a significant trend
func hasTrend(series analytics.Series) bool {
	if len(series) < MinDataPoints {
		return false
	}
	index := make([]float64, len(series))
	for i := range index {
		index[i] = float64(i)
	}
	return math.Abs(stats.Correlation(index, series.Values())) > trendCorrelation
}
