// Package threshold classifies gas readings against the static per-gas
// warn/alarm policy table. Two detectors of the same gas always share one
// policy; there is no per-instance configuration.
package threshold

import (
	"fmt"
	"strings"
)

// Status is the classification of a reading.
type Status string

const (
	StatusOK    Status = "OK"
	StatusWarn  Status = "WARN"
	StatusAlarm Status = "ALARM"
)

// Mode says which direction is dangerous for a gas. Oxygen depletion is a
// low-is-bad hazard; every toxic/flammable gas here is high-is-bad.
type Mode string

const (
	ModeHigh Mode = "high"
	ModeLow  Mode = "low"
)

// Policy is the static cutoff record for one gas.
type Policy struct {
	Mode  Mode    `json:"mode"`
	Warn  float64 `json:"warn"`
	Alarm float64 `json:"alarm"`
	Units string  `json:"units"`
}

var policies = map[string]Policy{
	"CO":      {Mode: ModeHigh, Warn: 35, Alarm: 50, Units: "ppm"},
	"O2":      {Mode: ModeLow, Warn: 19.5, Alarm: 18.0, Units: "%"},
	"NH3":     {Mode: ModeHigh, Warn: 25, Alarm: 35, Units: "ppm"},
	"H2S":     {Mode: ModeHigh, Warn: 5, Alarm: 10, Units: "ppm"},
	"ETHANOL": {Mode: ModeHigh, Warn: 300, Alarm: 500, Units: "ppm"},
	"CH4":     {Mode: ModeHigh, Warn: 10, Alarm: 20, Units: "%LEL"},
	"CO2":     {Mode: ModeHigh, Warn: 5000, Alarm: 9000, Units: "ppm"},
}

var subscripts = strings.NewReplacer("₀", "0", "₁", "1", "₂", "2", "₃", "3", "₄", "4")

// normalize maps display labels like "NH₃" and "o2" onto the policy keys.
func normalize(label string) string {
	return strings.ToUpper(strings.TrimSpace(subscripts.Replace(label)))
}

// PolicyFor looks up the threshold policy for a gas label.
func PolicyFor(label string) (Policy, bool) {
	p, ok := policies[normalize(label)]
	return p, ok
}

// StatusFor classifies value for the given gas label. Pure and total:
// an unrecognised gas falls back to OK with an informational message.
//
// For mode=high: ALARM iff value >= alarm, WARN iff warn <= value < alarm.
// For mode=low:  ALARM iff value <= alarm, WARN iff alarm < value <= warn.
func StatusFor(label string, value float64) (Status, string) {
	p, ok := PolicyFor(label)
	if !ok {
		return StatusOK, fmt.Sprintf("No threshold policy configured for %s; treating reading as normal.", label)
	}

	switch p.Mode {
	case ModeLow:
		switch {
		case value <= p.Alarm:
			return StatusAlarm, fmt.Sprintf("%s at %.2f%s is at or below the alarm threshold (%.2f%s). Evacuate and ventilate.", label, value, p.Units, p.Alarm, p.Units)
		case value <= p.Warn:
			return StatusWarn, fmt.Sprintf("%s at %.2f%s is at or below the warn threshold (%.2f%s). Increase ventilation.", label, value, p.Units, p.Warn, p.Units)
		}
	default:
		switch {
		case value >= p.Alarm:
			return StatusAlarm, fmt.Sprintf("%s at %.2f%s is at or above the alarm threshold (%.2f%s). Isolate the source and evacuate.", label, value, p.Units, p.Alarm, p.Units)
		case value >= p.Warn:
			return StatusWarn, fmt.Sprintf("%s at %.2f%s is at or above the warn threshold (%.2f%s). Check for leaks.", label, value, p.Units, p.Warn, p.Units)
		}
	}
	return StatusOK, fmt.Sprintf("%s at %.2f%s is within normal range.", label, value, p.Units)
}
