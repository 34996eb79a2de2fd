// Package forecast extrapolates a metric series forward with deterministic statistical methods.
package forecast

import (
	"fmt"
	"sort"
	"time"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/analytics/insight"
	"github.com/aerolens/aerolens/internal/analytics/stats"
)

// Method names a forecasting algorithm
type Method string

const (
	MethodLinear        Method = "linear"
	MethodExponential   Method = "exponential"
	MethodMovingAverage Method = "moving_average"
	MethodAuto          Method = "auto"
)

// MinDataPoints is the shortest series any method accepts
const MinDataPoints = 5

// Config holds configuration for forecasting
type Config struct {
	Method                     Method
	Horizon                    int     // Number of periods to forecast
	ConfidenceLevel            float64 // Confidence level for prediction intervals (0-1)
	IncludeConfidenceIntervals bool

	Alpha     float64 // Smoothing factor for exponential smoothing (0-1]
	MaxWindow int     // Upper bound on the moving average window
}

// DefaultConfig returns default forecast configuration
func DefaultConfig() Config {
	return Config{
		Method:                     MethodMovingAverage,
		Horizon:                    7,
		ConfidenceLevel:            0.95,
		IncludeConfidenceIntervals: true,
		Alpha:                      0.3,
		MaxWindow:                  5,
	}
}

// withDefaults fills unset fields. Horizon is never defaulted: zero is a caller error.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Method == "" {
		c.Method = def.Method
	}
	if c.ConfidenceLevel == 0 {
		c.ConfidenceLevel = def.ConfidenceLevel
	}
	if c.Alpha == 0 {
		c.Alpha = def.Alpha
	}
	if c.MaxWindow == 0 {
		c.MaxWindow = def.MaxWindow
	}
	return c
}

// Validate reports the first invalid field
func (c Config) Validate() error {
	if c.Horizon <= 0 {
		return analytics.NewValidationError("horizon", -1, "must be positive")
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return analytics.NewValidationError("confidence_level", -1, "must be between 0 and 1 exclusive")
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return analytics.NewValidationError("alpha", -1, "must be in (0, 1]")
	}
	if c.MaxWindow < 2 {
		return analytics.NewValidationError("max_window", -1, "must be at least 2")
	}
	return nil
}

// Intervals holds the confidence band, aligned index by index with the predictions
type Intervals struct {
	Upper analytics.Series `json:"upper"`
	Lower analytics.Series `json:"lower"`
}

// Result contains the forecast predictions and model information
type Result struct {
	Predictions         analytics.Series   `json:"predictions"`
	ConfidenceIntervals *Intervals         `json:"confidence_intervals,omitempty"`
	Method              Method             `json:"method"`
	Accuracy            float64            `json:"accuracy"` // R² or 1-SSE/SST, clamped to [0,1]
	Insights            []string           `json:"insights"`
	Params              map[string]float64 `json:"params,omitempty"`
	Warnings            []string           `json:"warnings,omitempty"`
}

// Forecaster interface for all forecasting algorithms
type Forecaster interface {
	// Name returns the algorithm name
	Name() Method
	// Forecast generates predictions for a validated series and config
	Forecast(series analytics.Series, config Config) (*Result, error)
}

// Registry holds available forecasters
var forecasterRegistry = make(map[Method]Forecaster)

// RegisterForecaster adds a forecaster to the registry
func RegisterForecaster(forecaster Forecaster) {
	forecasterRegistry[forecaster.Name()] = forecaster
}

// GetForecaster returns a forecaster by name
func GetForecaster(name Method) (Forecaster, error) {
	if forecaster, ok := forecasterRegistry[name]; ok {
		return forecaster, nil
	}
	return nil, fmt.Errorf("unknown forecast method: %s", name)
}

// ListForecasters returns the sorted list of available forecaster names
func ListForecasters() []string {
	names := make([]string, 0, len(forecasterRegistry))
	for name := range forecasterRegistry {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// Predict validates the input and dispatches to the configured method.
// Fails with *analytics.InsufficientDataError below MinDataPoints and *analytics.ValidationError on
// non-finite values or an invalid config; no partial result is returned on error.
func Predict(series analytics.Series, config Config) (*Result, error) {
	if len(series) < MinDataPoints {
		return nil, &analytics.InsufficientDataError{Need: MinDataPoints, Have: len(series)}
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	forecaster, err := GetForecaster(config.Method)
	if err != nil {
		return nil, err
	}

	exp := scaleExponent(series)
	result, err := forecaster.Forecast(scaleSeries(series, -exp), config)
	if err != nil {
		return nil, err
	}
	result.rescale(exp)
	if !result.finite() {
		return nil, analytics.NewValidationError("value", -1, "magnitude too large to forecast")
	}
	return finish(result, series), nil
}

// futureTimes returns last + i*step for i = 1..horizon
func futureTimes(series analytics.Series, horizon int) []time.Time {
	step := series.AverageStep()
	if step <= 0 {
		step = analytics.DefaultStep
	}
	last := series.Last().Time
	times := make([]time.Time, horizon)
	for i := range times {
		times[i] = last.Add(step * time.Duration(i+1))
	}
	return times
}

// band builds symmetric intervals of margin(i) around each prediction
func band(predictions analytics.Series, margin func(i int) float64) *Intervals {
	iv := &Intervals{
		Upper: make(analytics.Series, len(predictions)),
		Lower: make(analytics.Series, len(predictions)),
	}
	for i, p := range predictions {
		m := margin(i)
		iv.Upper[i] = analytics.Observation{Time: p.Time, Value: p.Value + m}
		iv.Lower[i] = analytics.Observation{Time: p.Time, Value: p.Value - m}
	}
	return iv
}

// flatForecast repeats level across the horizon
func flatForecast(series analytics.Series, horizon int, level float64) analytics.Series {
	times := futureTimes(series, horizon)
	predictions := make(analytics.Series, horizon)
	for i, t := range times {
		predictions[i] = analytics.Observation{Time: t, Value: level}
	}
	return predictions
}

// explainedFraction returns 1 - sse/sst clamped to [0,1]. With no total variation the model is
// perfect only if it made no error.
func explainedFraction(sse, sst float64) float64 {
	if sst == 0 {
		if sse == 0 {
			return 1
		}
		return 0
	}
	return stats.Clamp01(1 - sse/sst)
}

// finish fills the fields every method shares. The trend sentence uses the fitted slope for linear
// regression and the least-squares slope of the history for the level methods.
func finish(result *Result, series analytics.Series) *Result {
	slope, ok := result.Params["slope"]
	if !ok {
		slope = stats.Slope(series.Values())
	}
	result.Insights = insight.ForecastInsights(series, result.Predictions, slope)
	if stats.PopStdDev(series.Values()) == 0 {
		result.Warnings = append(result.Warnings, analytics.WarningZeroVariance)
	}
	return result
}
