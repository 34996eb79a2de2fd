// Package analytics provides common types and utilities for time-series analytics
// including forecasting and anomaly detection.
package analytics

import (
	"math"
	"time"
)

// Observation represents a single timestamped metric value.
// This is the common type used across all analytics packages (forecast, anomaly, insight)
type Observation struct {
	Time  time.Time `json:"timestamp"`
	Value float64   `json:"value"`
}

// Series represents an ordered collection of observations
type Series []Observation

// Values extracts just the values from the series
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}

// Times extracts just the times from the series
func (s Series) Times() []time.Time {
	times := make([]time.Time, len(s))
	for i, p := range s {
		times[i] = p.Time
	}
	return times
}

// Len returns the number of observations
func (s Series) Len() int {
	return len(s)
}

// Last returns the final observation. It panics on an empty series.
func (s Series) Last() Observation {
	return s[len(s)-1]
}

// Validate fails fast on values that would otherwise poison downstream math with NaN
func (s Series) Validate() error {
	for i, p := range s {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return NewValidationError("value", i, "must be a finite number")
		}
	}
	return nil
}

// AverageStep returns the mean spacing between consecutive observations.
// Falls back to one day when fewer than two observations are available.
func (s Series) AverageStep() time.Duration {
	if len(s) < 2 {
		return DefaultStep
	}
	total := s[len(s)-1].Time.Sub(s[0].Time)
	return total / time.Duration(len(s)-1)
}

// DefaultStep is used when a series has no spacing information
const DefaultStep = 24 * time.Hour

// FromValues builds a series with evenly spaced timestamps, mainly for callers that only hold values
func FromValues(start time.Time, step time.Duration, values []float64) Series {
	s := make(Series, len(values))
	for i, v := range values {
		s[i] = Observation{Time: start.Add(step * time.Duration(i)), Value: v}
	}
	return s
}
