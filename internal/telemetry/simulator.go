// Package telemetry generates reproducible drone telemetry for demos, load tests and the queue ingest path.
package telemetry

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/aerolens/aerolens/internal/analytics"
	"github.com/aerolens/aerolens/internal/models"
)

// Metric names emitted by the simulator
const (
	MetricBattery     = "battery"      // %
	MetricAltitude    = "altitude"     // m
	MetricSpeed       = "speed"        // m/s
	MetricSignal      = "signal"       // %
	MetricBatteryTemp = "battery_temp" // °C
	MetricMotorTemp   = "motor_temp"   // °C
	MetricCPUTemp     = "cpu_temp"     // °C
)

// Metrics lists every metric in a stable order
func Metrics() []string {
	return []string{
		MetricBattery, MetricAltitude, MetricSpeed, MetricSignal,
		MetricBatteryTemp, MetricMotorTemp, MetricCPUTemp,
	}
}

// IsMetric reports whether name is produced by the simulator
func IsMetric(name string) bool {
	for _, m := range Metrics() {
		if m == name {
			return true
		}
	}
	return false
}

// Fault is an injected failure
type Fault string

const (
	FaultNone       Fault = ""
	FaultOverheat   Fault = "overheat"    // Battery and motor temperatures jump for one frame
	FaultSignalLoss Fault = "signal_loss" // Signal halves for one frame
	FaultBatterySag Fault = "battery_sag" // Battery permanently loses a fifth of its charge
)

var faults = []Fault{FaultOverheat, FaultSignalLoss, FaultBatterySag}

// Config controls a simulation run
type Config struct {
	Start                 time.Time
	Interval              time.Duration
	Seed                  uint64
	FailureRate           float64 // Probability of a fault per frame
	BatteryDrainPerMinute float64 // Percentage points
}

// DefaultConfig returns one frame per second with a 2% fault rate
func DefaultConfig() Config {
	return Config{
		Start:                 time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:              time.Second,
		Seed:                  1,
		FailureRate:           0.02,
		BatteryDrainPerMinute: 0.5,
	}
}

// Frame is one telemetry sample for all metrics
type Frame struct {
	DroneID string             `json:"drone_id"`
	Time    time.Time          `json:"timestamp"`
	Values  map[string]float64 `json:"values"`
	Fault   Fault              `json:"fault,omitempty"`
}

// Simulator produces frames for a single drone. It is not safe for concurrent use.
type Simulator struct {
	droneID string
	cfg     Config
	rng     *rand.Rand
	now     time.Time

	battery  float64
	altitude float64
	speed    float64
	signal   float64
}

// NewSimulator creates a simulator. The same drone id and config always yield the same frames.
func NewSimulator(droneID string, cfg Config) *Simulator {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Start.IsZero() {
		cfg.Start = def.Start
	}

	seed := cfg.Seed
	for _, r := range droneID {
		seed = seed*31 + uint64(r)
	}
	rng := rand.New(rand.NewPCG(seed, cfg.Seed))

	return &Simulator{
		droneID:  droneID,
		cfg:      cfg,
		rng:      rng,
		now:      cfg.Start,
		battery:  70 + rng.Float64()*30,
		altitude: 50 + rng.Float64()*50,
		speed:    rng.Float64() * 10,
		signal:   80 + rng.Float64()*20,
	}
}

// Next advances the simulation by one interval
func (s *Simulator) Next() Frame {
	minutes := s.cfg.Interval.Minutes()

	s.battery = clamp(s.battery-s.cfg.BatteryDrainPerMinute*minutes+s.rng.NormFloat64()*0.02, 0, 100)
	s.altitude = math.Max(0, s.altitude+s.rng.NormFloat64())
	s.speed = clamp(s.speed+s.rng.NormFloat64()*0.5, 0, 20)
	s.signal = clamp(s.signal+(s.rng.Float64()-0.5)*4, 0, 100)

	signal := s.signal
	batteryTemp := 28 + s.rng.NormFloat64()*0.8
	motorTemp := 35 + s.speed*0.5 + s.rng.NormFloat64()*1.2
	cpuTemp := 42 + s.rng.NormFloat64()

	fault := FaultNone
	if s.cfg.FailureRate > 0 && s.rng.Float64() < s.cfg.FailureRate {
		fault = faults[s.rng.IntN(len(faults))]
		switch fault {
		case FaultOverheat:
			batteryTemp += 15
			motorTemp += 20
		case FaultSignalLoss:
			signal *= 0.5
		case FaultBatterySag:
			s.battery *= 0.8
		}
	}

	frame := Frame{
		DroneID: s.droneID,
		Time:    s.now,
		Fault:   fault,
		Values: map[string]float64{
			MetricBattery:     round2(s.battery),
			MetricAltitude:    round2(s.altitude),
			MetricSpeed:       round2(s.speed),
			MetricSignal:      round2(signal),
			MetricBatteryTemp: round2(batteryTemp),
			MetricMotorTemp:   round2(motorTemp),
			MetricCPUTemp:     round2(cpuTemp),
		},
	}
	s.now = s.now.Add(s.cfg.Interval)
	return frame
}

// Run returns the next n frames
func (s *Simulator) Run(n int) []Frame {
	frames := make([]Frame, 0, max(n, 0))
	for i := 0; i < n; i++ {
		frames = append(frames, s.Next())
	}
	return frames
}

// Series extracts one metric from frames
func Series(frames []Frame, metric string) analytics.Series {
	out := make(analytics.Series, 0, len(frames))
	for _, f := range frames {
		if v, ok := f.Values[metric]; ok {
			out = append(out, analytics.Observation{Time: f.Time, Value: v})
		}
	}
	return out
}

// Messages splits a frame into one ingest message per metric, in Metrics order
func (f Frame) Messages() []models.TelemetryMessage {
	out := make([]models.TelemetryMessage, 0, len(f.Values))
	for _, m := range Metrics() {
		if v, ok := f.Values[m]; ok {
			out = append(out, models.TelemetryMessage{DroneID: f.DroneID, Metric: m, Timestamp: f.Time, Value: v})
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
