// Package history owns the synthetic multi-month reading series: a per-gas
// baseline with a daily sinusoid, Gaussian noise, a tiny drift, and a number
// of injected Gaussian-shaped spikes. Two backends implement the same Store
// contract: an in-process store (the default) and an InfluxDB-backed one.
package history

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"time"

	"SafetyHMI.dashboard/internal/models"
)

// ErrUnknownDetector is returned when a (room, label) pair was never seeded.
var ErrUnknownDetector = errors.New("no series for detector")

// ErrUnknownOp is returned for an operator action outside the accepted set.
var ErrUnknownOp = errors.New("unknown operator action")

// Operator actions applied to the tail of a series.
const (
	OpSimulate  = "simulate"
	OpVentilate = "ventilate"
	OpShutter   = "shutter"
	OpReset     = "reset"
	OpAck       = "ack"
)

// Pair identifies one detector series.
type Pair struct {
	Room  string
	Label string
}

// Key is the storage key for a pair, e.g. "Room 2::CO".
func (p Pair) Key() string {
	return p.Room + "::" + p.Label
}

// GenSpec configures synthetic generation. Seed zero means derive from the
// clock; any other value makes every series reproducible.
type GenSpec struct {
	Days          int
	SpikesPerWeek int
	Step          time.Duration
	Seed          int64
}

func (g GenSpec) withDefaults() GenSpec {
	if g.Days <= 0 {
		g.Days = 7
	}
	if g.Step <= 0 {
		g.Step = time.Minute
	}
	if g.SpikesPerWeek < 0 {
		g.SpikesPerWeek = 0
	}
	if g.Seed == 0 {
		g.Seed = time.Now().UnixNano()
	}
	return g
}

// Store is the history contract shared by both backends.
type Store interface {
	// Seed generates one series per pair. Idempotent per process: pairs that
	// already hold data are left alone.
	Seed(ctx context.Context, pairs []Pair, spec GenSpec) error

	// FetchSeries returns points with start <= t <= end in non-decreasing
	// timestamp order. Same arguments against the same state give the same
	// result.
	FetchSeries(ctx context.Context, room, label string, start, end time.Time) ([]models.Point, error)

	// LatestValue returns the last sample of a series.
	LatestValue(ctx context.Context, room, label string) (models.Point, error)

	// Stats returns mean and sample standard deviation over a trailing window.
	Stats(ctx context.Context, room, label string, window time.Duration) (mean, std float64, err error)

	// InjectSpike adds a flat positive segment into the stored history.
	InjectSpike(ctx context.Context, room, label string, at time.Time, duration time.Duration, magnitude float64) error

	// ApplyOps mutates the series tail to reflect an operator action.
	ApplyOps(ctx context.Context, room, label, action string) error
}

// BaselineFor returns the resting level for a gas label.
func BaselineFor(label string) float64 {
	l := strings.ToUpper(label)
	switch {
	case strings.Contains(label, "O₂") || strings.Contains(l, "O2"):
		return 20.8
	case strings.Contains(l, "H₂S") || strings.Contains(l, "H2S"):
		return 1.5
	case strings.Contains(label, "NH₃") || strings.Contains(l, "NH3"):
		return 6.0
	case strings.Contains(l, "ETHANOL"):
		return 280.0
	case strings.Contains(l, "CO") && !strings.Contains(label, "CO₂") && !strings.Contains(l, "CO2"):
		return 8.0
	}
	return 5.0
}

// spikeAmplitudeFor sizes the injected Gaussian bumps per gas. Oxygen spikes
// downward (depletion); everything else upward.
func spikeAmplitudeFor(label string) float64 {
	l := strings.ToUpper(label)
	switch {
	case strings.Contains(label, "O₂") || strings.Contains(l, "O2"):
		return -2.0
	case strings.Contains(l, "ETHANOL"):
		return 250.0
	case strings.Contains(l, "H2S") || strings.Contains(label, "H₂S"):
		return 8.0
	case strings.Contains(label, "NH₃") || strings.Contains(l, "NH3"):
		return 20.0
	case strings.Contains(l, "CO"):
		return 30.0
	}
	return 10.0
}

// clampValue keeps generated values in their physical band: O₂ stays inside
// 17–21 %, everything else stays non-negative.
func clampValue(label string, v float64) float64 {
	l := strings.ToUpper(label)
	if strings.Contains(label, "O₂") || strings.Contains(l, "O2") {
		return math.Min(21.0, math.Max(17.0, v))
	}
	return math.Max(0, v)
}

// pairSeed derives a per-pair seed so regeneration of one detector is
// independent of iteration order over the others.
func pairSeed(base int64, p Pair) int64 {
	h := fnv.New64a()
	h.Write([]byte(p.Key()))
	return base ^ int64(h.Sum64())
}

// generate produces the full synthetic series for one pair, ending at end and
// spaced by spec.Step.
func generate(p Pair, spec GenSpec, end time.Time) []models.Point {
	spec = spec.withDefaults()
	rng := rand.New(rand.NewSource(pairSeed(spec.Seed, p)))

	step := spec.Step
	n := int(time.Duration(spec.Days) * 24 * time.Hour / step)
	if n < 2 {
		n = 2
	}
	base := BaselineFor(p.Label)

	amp := 0.1 * base
	noiseSigma := 0.4
	if base >= 50 {
		amp = 0.05 * base
		noiseSigma = 3.0
	}
	samplesPerDay := float64(24 * time.Hour / step)

	vals := make([]float64, n)
	for i := range vals {
		circ := math.Sin(2 * math.Pi * math.Mod(float64(i), samplesPerDay) / samplesPerDay)
		trend := 0.0002 * float64(i) * step.Minutes()
		vals[i] = base + amp*0.15*circ + trend + rng.NormFloat64()*noiseSigma
	}

	// Randomly placed Gaussian bumps.
	nSpikes := spec.SpikesPerWeek * spec.Days / 7
	if spec.SpikesPerWeek > 0 && nSpikes == 0 {
		nSpikes = 1
	}
	spikeAmp := spikeAmplitudeFor(p.Label)
	for s := 0; s < nSpikes; s++ {
		centre := rng.Intn(n)
		width := 5 + rng.Intn(16) // samples
		a := spikeAmp * (0.6 + 0.8*rng.Float64())
		for i := centre - 4*width; i <= centre+4*width; i++ {
			if i < 0 || i >= n {
				continue
			}
			d := float64(i - centre)
			vals[i] += a * math.Exp(-d*d/(2*float64(width*width)))
		}
	}

	start := end.Add(-time.Duration(n-1) * step)
	points := make([]models.Point, n)
	for i := range points {
		points[i] = models.Point{
			Time:  start.Add(time.Duration(i) * step),
			Value: clampValue(p.Label, vals[i]),
		}
	}
	return points
}
