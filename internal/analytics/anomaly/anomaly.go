// Package anomaly labels statistically unusual observations in a metric series.
package anomaly

import (
	"fmt"
	"sort"

	"github.com/aerolens/aerolens/internal/analytics"
)

// AnomalyType represents the direction of a detected deviation
type AnomalyType string

const (
	AnomalyTypeSpike   AnomalyType = "spike"   // Above the expected range
	AnomalyTypeDrop    AnomalyType = "drop"    // Below the expected range
	AnomalyTypeOutlier AnomalyType = "outlier" // Outside the range, direction unknown
)

// Level is the severity of an anomaly
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// DefaultThreshold is the Z-score above which a point is anomalous
const DefaultThreshold = 2.5

// Range represents expected value range
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Result is the per-observation verdict. Detectors return exactly one Result per input
// observation, in input order.
type Result struct {
	analytics.Observation
	Index     int         `json:"index"`
	IsAnomaly bool        `json:"is_anomaly"`
	Deviation float64     `json:"deviation"` // Absolute score in detector units (std devs, IQRs)
	Baseline  float64     `json:"baseline"`  // Value the detector expected
	Severity  Level       `json:"severity,omitempty"`
	Type      AnomalyType `json:"type,omitempty"`
	Expected  *Range      `json:"expected,omitempty"`
}

// Config holds configuration for anomaly detection
type Config struct {
	// Threshold for detection sensitivity (number of std deviations for Z-Score)
	Threshold float64

	// WindowSize for the trailing-window detector
	WindowSize int

	// IQRMultiplier is k in the fences [Q1 - k*IQR, Q3 + k*IQR]
	IQRMultiplier float64
}

// DefaultConfig returns default detector configuration
func DefaultConfig() Config {
	return Config{
		Threshold:     DefaultThreshold,
		WindowSize:    10,
		IQRMultiplier: 1.5,
	}
}

// withDefaults fills zero or invalid fields from DefaultConfig
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Threshold <= 0 {
		c.Threshold = def.Threshold
	}
	if c.WindowSize <= 0 {
		c.WindowSize = def.WindowSize
	}
	if c.IQRMultiplier <= 0 {
		c.IQRMultiplier = def.IQRMultiplier
	}
	return c
}

// Detector interface for all anomaly detection algorithms
type Detector interface {
	// Name returns the algorithm name
	Name() string

	// Detect labels every observation. Malformed input fails with *analytics.ValidationError.
	Detect(series analytics.Series, config Config) ([]Result, error)
}

// Registry holds available anomaly detectors
var detectorRegistry = make(map[string]Detector)

// RegisterDetector adds a detector to the registry
func RegisterDetector(name string, detector Detector) {
	detectorRegistry[name] = detector
}

// GetDetector returns a detector by name
func GetDetector(name string) (Detector, error) {
	if detector, ok := detectorRegistry[name]; ok {
		return detector, nil
	}
	return nil, fmt.Errorf("unknown anomaly detector: %s", name)
}

// ListDetectors returns the sorted list of available detector names
func ListDetectors() []string {
	names := make([]string, 0, len(detectorRegistry))
	for name := range detectorRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect labels anomalies with the Z-score method. A non-positive threshold means DefaultThreshold.
func Detect(series analytics.Series, threshold float64) ([]Result, error) {
	cfg := DefaultConfig()
	cfg.Threshold = threshold
	return (&ZScoreDetector{}).Detect(series, cfg)
}

// DetectWith runs the named detector
func DetectWith(algorithm string, series analytics.Series, config Config) ([]Result, error) {
	detector, err := GetDetector(algorithm)
	if err != nil {
		return nil, err
	}
	return detector.Detect(series, config)
}

// Severity classifies a deviation: high at 4 or more, medium at 3 or more, low otherwise
func Severity(deviation float64) Level {
	switch {
	case deviation >= 4:
		return LevelHigh
	case deviation >= 3:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Anomalies returns only the flagged results
func Anomalies(results []Result) []Result {
	out := make([]Result, 0)
	for _, r := range results {
		if r.IsAnomaly {
			out = append(out, r)
		}
	}
	return out
}

// Summary counts anomalies per severity
type Summary struct {
	Total     int `json:"total"`
	Anomalies int `json:"anomalies"`
	Low       int `json:"low"`
	Medium    int `json:"medium"`
	High      int `json:"high"`
}

// Summarize counts the results
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if !r.IsAnomaly {
			continue
		}
		s.Anomalies++
		switch r.Severity {
		case LevelHigh:
			s.High++
		case LevelMedium:
			s.Medium++
		default:
			s.Low++
		}
	}
	return s
}

// label fills the verdict fields shared by every detector
func label(r *Result, threshold float64) {
	r.IsAnomaly = r.Deviation > threshold
	if !r.IsAnomaly {
		return
	}
	r.Severity = Severity(r.Deviation)
	switch {
	case r.Value > r.Baseline:
		r.Type = AnomalyTypeSpike
	case r.Value < r.Baseline:
		r.Type = AnomalyTypeDrop
	default:
		r.Type = AnomalyTypeOutlier
	}
}
