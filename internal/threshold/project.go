package threshold

import (
	"time"

	"SafetyHMI.dashboard/internal/models"
)

// Project fits a least-squares line through the trailing points and estimates
// how many minutes remain until the warn threshold is crossed (or, when the
// latest value already sits past warn, until the alarm threshold). The second
// return value is false when there are too few points, the slope points away
// from the threshold, or the crossing lies beyond the horizon.
func Project(points []models.Point, p Policy, horizon time.Duration) (int, bool) {
	if len(points) < 5 {
		return 0, false
	}

	// Least squares over t in minutes relative to the last sample.
	last := points[len(points)-1].Time
	var sumT, sumV, sumTT, sumTV float64
	n := float64(len(points))
	for _, pt := range points {
		t := pt.Time.Sub(last).Minutes()
		sumT += t
		sumV += pt.Value
		sumTT += t * t
		sumTV += t * pt.Value
	}
	den := n*sumTT - sumT*sumT
	if den == 0 {
		return 0, false
	}
	slope := (n*sumTV - sumT*sumV) / den // units per minute
	intercept := (sumV - slope*sumT) / n // predicted value at the last sample

	target := p.Warn
	switch p.Mode {
	case ModeLow:
		if intercept <= p.Warn {
			target = p.Alarm
		}
		if slope >= 0 || intercept <= target {
			return 0, false
		}
	default:
		if intercept >= p.Warn {
			target = p.Alarm
		}
		if slope <= 0 || intercept >= target {
			return 0, false
		}
	}

	minutes := (target - intercept) / slope
	if minutes <= 0 || minutes > horizon.Minutes() {
		return 0, false
	}
	return int(minutes + 0.5), true
}
