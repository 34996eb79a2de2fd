package forecast

import (
	"math"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/stats"
)

// ExponentialSmoothingForecaster implements simple exponential smoothing.
// It has no trend component, so every forecast point equals the last smoothed level.
type ExponentialSmoothingForecaster struct{}

// NewExponentialSmoothingForecaster creates a new Exponential Smoothing forecaster
func NewExponentialSmoothingForecaster() *ExponentialSmoothingForecaster {
	return &ExponentialSmoothingForecaster{}
}

func init() {
	RegisterForecaster(NewExponentialSmoothingForecaster())
}

// Name returns the algorithm name
func (f *ExponentialSmoothingForecaster) Name() Method {
	return MethodExponential
}

// Forecast generates a flat forecast at the last smoothed level
func (f *ExponentialSmoothingForecaster) Forecast(series analytics.Series, config Config) (*Result, error) {
	alpha := config.Alpha
	values := series.Values()
	smoothed := Smooth(values, alpha)

	// One-step-ahead errors: S(i-1) predicts v(i)
	mean := stats.Mean(values)
	sse := 0.0
	sst := 0.0
	for i := 1; i < len(values); i++ {
		e := values[i] - smoothed[i-1]
		sse += e * e
		sst += (values[i] - mean) * (values[i] - mean)
	}

	level := smoothed[len(smoothed)-1]
	predictions := flatForecast(series, config.Horizon, level)
	stdError := math.Sqrt(sse / float64(len(values)-1))

	result := &Result{
		Predictions: predictions,
		Method:      MethodExponential,
		Accuracy:    explainedFraction(sse, sst),
		Params: map[string]float64{
			"alpha":     alpha,
			"level":     level,
			"std_error": stdError,
		},
	}

	if config.IncludeConfidenceIntervals {
		margin := stats.ZCritical(config.ConfidenceLevel) * stdError
		result.ConfidenceIntervals = band(predictions, func(int) float64 { return margin })
	}

	return result, nil
}

// Smooth returns the smoothed series S0 = v0, St = a*vt + (1-a)*S(t-1)
func Smooth(values []float64, alpha float64) []float64 {
	smoothed := make([]float64, len(values))
	if len(values) == 0 {
		return smoothed
	}
	smoothed[0] = values[0]
	for i := 1; i < len(values); i++ {
		smoothed[i] = alpha*values[i] + (1-alpha)*smoothed[i-1]
	}
	return smoothed
}
