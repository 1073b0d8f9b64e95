package models

import "time"

// Point is a single sample of a detector time series.
type Point struct {
	Time  time.Time `json:"t"`
	Value float64   `json:"value"`
}

// SeriesResponse is the payload returned by the series query endpoint.
// Points are ordered by non-decreasing timestamp.
type SeriesResponse struct {
	Room     string  `json:"room"`
	Detector string  `json:"detector"`
	Points   []Point `json:"points"`
}

// DetectorStatus is the payload returned by the status endpoint: the latest
// reading classified against the per-gas threshold policy, plus trailing
// statistics and an optional projected threshold crossing.
type DetectorStatus struct {
	Room              string  `json:"room"`
	Detector          string  `json:"detector"`
	Units             string  `json:"units"`
	Value             float64 `json:"value"`
	Status            string  `json:"status"`
	Message           string  `json:"message"`
	Warn              float64 `json:"warn"`
	Alarm             float64 `json:"alarm"`
	Mean              float64 `json:"mean"`
	Std               float64 `json:"std"`
	ProjectionMinutes *int    `json:"projection_minutes,omitempty"`
}
