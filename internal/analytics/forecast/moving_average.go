package forecast

import (
	"math"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/stats"
)

// MovingAverageForecaster forecasts the mean of the most recent window
type MovingAverageForecaster struct{}

// NewMovingAverageForecaster creates a new moving average forecaster
func NewMovingAverageForecaster() *MovingAverageForecaster {
	return &MovingAverageForecaster{}
}

func init() {
	RegisterForecaster(NewMovingAverageForecaster())
}

// Name returns the algorithm name
func (f *MovingAverageForecaster) Name() Method {
	return MethodMovingAverage
}

// WindowSize returns min(maxWindow, n/2)
func WindowSize(n, maxWindow int) int {
	w := n / 2
	if maxWindow < w {
		w = maxWindow
	}
	return w
}

// Forecast generates a flat forecast at the mean of the last window. The band is a Student t
// interval on the window mean with w-1 degrees of freedom.
func (f *MovingAverageForecaster) Forecast(series analytics.Series, config Config) (*Result, error) {
	values := series.Values()
	w := WindowSize(len(values), config.MaxWindow)
	lastWindow := values[len(values)-w:]
	level := stats.Mean(lastWindow)

	// Slide the window over history: each point is predicted by the mean of the w before it
	mean := stats.Mean(values)
	sse := 0.0
	sst := 0.0
	for i := w; i < len(values); i++ {
		e := values[i] - stats.Mean(values[i-w:i])
		sse += e * e
		sst += (values[i] - mean) * (values[i] - mean)
	}

	predictions := flatForecast(series, config.Horizon, level)
	stdError := stats.SampleStdDev(lastWindow) / math.Sqrt(float64(w))

	result := &Result{
		Predictions: predictions,
		Method:      MethodMovingAverage,
		Accuracy:    explainedFraction(sse, sst),
		Params: map[string]float64{
			"window":    float64(w),
			"level":     level,
			"std_error": stdError,
		},
	}

	if config.IncludeConfidenceIntervals {
		margin := stats.TCritical(config.ConfidenceLevel, w-1) * stdError
		result.ConfidenceIntervals = band(predictions, func(int) float64 { return margin })
	}

	return result, nil
}
