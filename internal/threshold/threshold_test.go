package threshold

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SafetyHMI.dashboard/internal/models"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name  string
		label string
		value float64
		want  Status
	}{
		{"co normal", "CO", 12.0, StatusOK},
		{"co warn band", "CO", 42.0, StatusWarn},
		{"co exact warn boundary", "CO", 35.0, StatusWarn},
		{"co just under alarm", "CO", 49.99, StatusWarn},
		{"co exact alarm boundary", "CO", 50.0, StatusAlarm},
		{"co above alarm", "CO", 80.0, StatusAlarm},
		{"o2 normal", "O₂", 20.9, StatusOK},
		{"o2 warn band", "O₂", 19.0, StatusWarn},
		{"o2 exact warn boundary", "O₂", 19.5, StatusWarn},
		{"o2 exact alarm boundary", "O₂", 18.0, StatusAlarm},
		{"o2 depleted", "O₂", 17.5, StatusAlarm},
		{"h2s subscript label", "H₂S", 7.0, StatusWarn},
		{"nh3 lowercase label", "nh3", 40.0, StatusAlarm},
		{"ethanol normal", "Ethanol", 120.0, StatusOK},
		{"ch4 warn", "CH₄", 15.0, StatusWarn},
		{"co2 alarm", "CO₂", 9500.0, StatusAlarm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, message := StatusFor(tt.label, tt.value)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, message)
		})
	}
}

func TestStatusForUnknownGas(t *testing.T) {
	status, message := StatusFor("Radon", 9999.0)
	assert.Equal(t, StatusOK, status)
	assert.Contains(t, message, "No threshold policy")
}

func TestPolicyForNormalization(t *testing.T) {
	display, ok := PolicyFor("O₂")
	require.True(t, ok)
	plain, ok := PolicyFor("o2")
	require.True(t, ok)
	assert.Equal(t, display, plain)
	assert.Equal(t, ModeLow, display.Mode)
}

func ramp(start float64, perMinute float64, n int) []models.Point {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	pts := make([]models.Point, n)
	for i := range pts {
		pts[i] = models.Point{
			Time:  base.Add(time.Duration(i) * time.Minute),
			Value: start + perMinute*float64(i),
		}
	}
	return pts
}

func TestProjectRisingTowardsWarn(t *testing.T) {
	policy, ok := PolicyFor("CO")
	require.True(t, ok)

	// 20 ppm rising 1 ppm/min; warn at 35 is 15 minutes out from the tail.
	pts := ramp(20, 1.0, 30)
	mins, ok := Project(pts, policy, 2*time.Hour)
	require.True(t, ok)
	// Tail value is 49, so warn was already crossed; target swaps to alarm.
	assert.InDelta(t, 1, mins, 1)

	pts = ramp(10, 1.0, 20) // tail at 29, warn 6 minutes away
	mins, ok = Project(pts, policy, 2*time.Hour)
	require.True(t, ok)
	assert.InDelta(t, 6, mins, 1)
}

func TestProjectFallingO2(t *testing.T) {
	policy, ok := PolicyFor("O2")
	require.True(t, ok)

	pts := ramp(20.5, -0.05, 20) // tail near 19.55, warn 19.5 about 1 min away
	mins, ok := Project(pts, policy, 2*time.Hour)
	require.True(t, ok)
	assert.Greater(t, mins, 0)
}

func TestProjectNoCrossing(t *testing.T) {
	policy, ok := PolicyFor("CO")
	require.True(t, ok)

	_, ok = Project(ramp(10, -0.5, 20), policy, 2*time.Hour)
	assert.False(t, ok, "falling series never reaches a high threshold")

	_, ok = Project(ramp(10, 0.001, 20), policy, 2*time.Hour)
	assert.False(t, ok, "crossing beyond the horizon is suppressed")

	_, ok = Project(ramp(10, 1.0, 3), policy, 2*time.Hour)
	assert.False(t, ok, "too few points")

	flat := ramp(10, 0, 20)
	_, ok = Project(flat, policy, 2*time.Hour)
	assert.False(t, ok, "zero slope")
}
