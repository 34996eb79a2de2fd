package forecast

import (
	"math"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/stats"
)

// LinearRegressionForecaster fits value against sample index by ordinary least squares
type LinearRegressionForecaster struct{}

// NewLinearRegressionForecaster creates a new Linear Regression forecaster
func NewLinearRegressionForecaster() *LinearRegressionForecaster {
	return &LinearRegressionForecaster{}
}

func init() {
	RegisterForecaster(NewLinearRegressionForecaster())
}

// Name returns the algorithm name
func (f *LinearRegressionForecaster) Name() Method {
	return MethodLinear
}

// Forecast extrapolates the fitted line. Accuracy is R², defined as 0 when the series has no
// variance at all.
func (f *LinearRegressionForecaster) Forecast(series analytics.Series, config Config) (*Result, error) {
	n := float64(len(series))

	// Calculate sums for linear regression
	sumX := 0.0
	sumY := 0.0
	sumXY := 0.0
	sumX2 := 0.0

	for i, p := range series {
		x := float64(i)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
		sumX2 += x * x
	}

	// n >= 2 guarantees distinct x values, so the denominator is positive
	slope := (n*sumXY - sumX*sumY) / (n*sumX2 - sumX*sumX)
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	sse := 0.0
	sst := 0.0
	for i, p := range series {
		residual := p.Value - (intercept + slope*float64(i))
		sse += residual * residual
		sst += (p.Value - meanY) * (p.Value - meanY)
	}

	rSquared := 0.0
	if sst > 0 {
		rSquared = stats.Clamp01(1 - sse/sst)
	}

	times := futureTimes(series, config.Horizon)
	predictions := make(analytics.Series, config.Horizon)
	for i, t := range times {
		x := n + float64(i)
		predictions[i] = analytics.Observation{Time: t, Value: slope*x + intercept}
	}

	stdError := math.Sqrt(sse / n)
	result := &Result{
		Predictions: predictions,
		Method:      MethodLinear,
		Accuracy:    rSquared,
		Params: map[string]float64{
			"slope":     slope,
			"intercept": intercept,
			"r_squared": rSquared,
			"std_error": stdError,
		},
	}

	if config.IncludeConfidenceIntervals {
		z := stats.ZCritical(config.ConfidenceLevel)
		meanX := sumX / n
		sxx := sumX2 - sumX*sumX/n
		result.ConfidenceIntervals = band(predictions, func(i int) float64 {
			// Standard error grows with distance from the centre of the fitted range
			xDiff := n + float64(i) - meanX
			return z * stdError * math.Sqrt(1+1/n+xDiff*xDiff/sxx)
		})
	}

	return result, nil
}
