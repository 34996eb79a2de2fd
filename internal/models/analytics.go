package models

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/utils"
)

// TimestampField is the row key holding the observation time in insight requests
const TimestampField = "timestamp"

// Point is one observation on the wire. Both keys are required: a missing value must not decode to 0.
type Point struct {
	Timestamp *time.Time `json:"timestamp" validate:"required"`
	Value     *float64   `json:"value" validate:"required"`
}

// Points is a request series
type Points []Point

// PointsFrom converts a series to its wire form
func PointsFrom(series analytics.Series) Points {
	out := make(Points, len(series))
	for i, o := range series {
		t, v := o.Time, o.Value
		out[i] = Point{Timestamp: &t, Value: &v}
	}
	return out
}

// ToSeries converts validated points. Call Validate first; nil fields are read as zero.
func (p Points) ToSeries() analytics.Series {
	out := make(analytics.Series, len(p))
	for i, pt := range p {
		if pt.Timestamp != nil {
			out[i].Time = *pt.Timestamp
		}
		if pt.Value != nil {
			out[i].Value = *pt.Value
		}
	}
	return out
}

// AnomalyRequest is the body of POST /v1/anomalies
type AnomalyRequest struct {
	Metric        string  `json:"metric,omitempty" validate:"max=128"`
	Series        Points  `json:"series" validate:"required,dive"`
	Threshold     float64 `json:"threshold,omitempty" validate:"gte=0"`
	Detector      string  `json:"detector,omitempty" validate:"max=64"`
	IncludeReport bool    `json:"include_report,omitempty"`
}

// ForecastRequest is the body of POST /v1/forecast
type ForecastRequest struct {
	Metric                     string  `json:"metric,omitempty" validate:"max=128"`
	Series                     Points  `json:"series" validate:"required,dive"`
	Method                     string  `json:"method,omitempty" validate:"max=64"`
	Horizon                    int     `json:"horizon,omitempty" validate:"gte=0,lte=10000"`
	ConfidenceLevel            float64 `json:"confidence_level,omitempty" validate:"gte=0,lt=1"`
	IncludeConfidenceIntervals *bool   `json:"include_confidence_intervals,omitempty"`
}

// InsightsRequest is the body of POST /v1/insights. Each row carries a timestamp and one value per metric.
type InsightsRequest struct {
	DataType    string           `json:"data_type" validate:"required,max=64"`
	Metrics     []string         `json:"metrics" validate:"required,min=1,max=20,dive,required,max=128"`
	Data        []map[string]any `json:"data" validate:"required"`
	MaxInsights int              `json:"max_insights,omitempty" validate:"gte=0,lte=100"`
	Enrich      bool             `json:"enrich,omitempty"`
}

// ToSeries splits the rows into one time-ordered series per metric.
// Rows missing a metric are skipped for that metric; a present but non-numeric value is an error.
func (r *InsightsRequest) ToSeries() (map[string]analytics.Series, error) {
	out := make(map[string]analytics.Series, len(r.Metrics))
	for _, m := range r.Metrics {
		out[m] = analytics.Series{}
	}

	for i, row := range r.Data {
		ts, err := parseTimestamp(row[TimestampField])
		if err != nil {
			return nil, analytics.NewValidationError(TimestampField, i, err.Error())
		}
		for _, metric := range r.Metrics {
			raw, ok := row[metric]
			if !ok || raw == nil {
				continue
			}
			v, ok := utils.ToFloat64(raw)
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, analytics.NewValidationError(metric, i, "must be a finite number")
			}
			out[metric] = append(out[metric], analytics.Observation{Time: ts, Value: v})
		}
	}

	for _, series := range out {
		sort.SliceStable(series, func(a, b int) bool { return series[a].Time.Before(series[b].Time) })
	}
	return out, nil
}

// parseTimestamp accepts RFC3339 strings or Unix milliseconds
func parseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("is required")
	case string:
		ts, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("must be RFC3339")
		}
		return ts, nil
	default:
		ms, ok := utils.ToFloat64(t)
		if !ok {
			return time.Time{}, fmt.Errorf("must be RFC3339 or Unix milliseconds")
		}
		return time.UnixMilli(int64(ms)).UTC(), nil
	}
}

// SimulationResponse is returned by GET /v1/telemetry/:drone_id/simulate
type SimulationResponse struct {
	DroneID  string                      `json:"drone_id"`
	Seed     uint64                      `json:"seed"`
	Interval string                      `json:"interval"`
	Points   int                         `json:"points"`
	Metrics  map[string]analytics.Series `json:"metrics"`
	Faults   []FaultMark                 `json:"faults"`
}

// FaultMark locates an injected fault
type FaultMark struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Fault     string    `json:"fault"`
}
