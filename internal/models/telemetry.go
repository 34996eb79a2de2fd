package models

import "time"

// TelemetryMessage is one observation published on the ingest subject
type TelemetryMessage struct {
	DroneID   string    `json:"drone_id" validate:"required,max=128"`
	Metric    string    `json:"metric" validate:"required,max=64"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Value     float64   `json:"value"`
}

// AnomalyEvent is published when a streamed observation is judged anomalous
type AnomalyEvent struct {
	ID         string    `json:"id"`
	DroneID    string    `json:"drone_id"`
	Metric     string    `json:"metric"`
	Timestamp  time.Time `json:"timestamp"`
	Value      float64   `json:"value"`
	Expected   float64   `json:"expected"`
	Deviation  float64   `json:"deviation"`
	Threshold  float64   `json:"threshold"`
	Severity   string    `json:"severity"`
	Type       string    `json:"type"`
	WindowSize int       `json:"window_size"`
	DetectedAt time.Time `json:"detected_at"`
}
