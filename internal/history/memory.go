package history

import (
	"context"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"SafetyHMI.dashboard/internal/models"
)

// MemoryStore keeps every series in process memory. This is the default
// backend: nothing survives a restart, which matches the demo contract.
type MemoryStore struct {
	mu     sync.RWMutex
	spec   GenSpec
	seeded time.Time
	series map[string][]models.Point
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{series: make(map[string][]models.Point)}
}

// Seed generates series for pairs not yet present.
func (s *MemoryStore) Seed(_ context.Context, pairs []Pair, spec GenSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec = spec.withDefaults()
	if s.seeded.IsZero() {
		s.spec = spec
		s.seeded = time.Now().Truncate(spec.Step)
	}

	n := 0
	for _, p := range pairs {
		if _, ok := s.series[p.Key()]; ok {
			continue
		}
		s.series[p.Key()] = generate(p, s.spec, s.seeded)
		n++
	}
	if n > 0 {
		log.Printf("Seeded %d synthetic series (%d days at %s step)", n, s.spec.Days, s.spec.Step)
	}
	return nil
}

func (s *MemoryStore) FetchSeries(_ context.Context, room, label string, start, end time.Time) ([]models.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pts, ok := s.series[Pair{room, label}.Key()]
	if !ok {
		return nil, ErrUnknownDetector
	}

	lo := sort.Search(len(pts), func(i int) bool { return !pts[i].Time.Before(start) })
	hi := sort.Search(len(pts), func(i int) bool { return pts[i].Time.After(end) })
	if lo >= hi {
		return []models.Point{}, nil
	}
	out := make([]models.Point, hi-lo)
	copy(out, pts[lo:hi])
	return out, nil
}

func (s *MemoryStore) LatestValue(_ context.Context, room, label string) (models.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pts, ok := s.series[Pair{room, label}.Key()]
	if !ok || len(pts) == 0 {
		return models.Point{}, ErrUnknownDetector
	}
	return pts[len(pts)-1], nil
}

func (s *MemoryStore) Stats(ctx context.Context, room, label string, window time.Duration) (float64, float64, error) {
	s.mu.RLock()
	pts, ok := s.series[Pair{room, label}.Key()]
	s.mu.RUnlock()
	if !ok || len(pts) == 0 {
		return 0, 0, ErrUnknownDetector
	}

	end := pts[len(pts)-1].Time
	slice, err := s.FetchSeries(ctx, room, label, end.Add(-window), end)
	if err != nil {
		return 0, 0, err
	}
	return meanStd(slice)
}

// InjectSpike adds magnitude to every stored point inside [at, at+duration],
// then re-clamps.
func (s *MemoryStore) InjectSpike(_ context.Context, room, label string, at time.Time, duration time.Duration, magnitude float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Pair{room, label}.Key()
	pts, ok := s.series[key]
	if !ok {
		return ErrUnknownDetector
	}
	end := at.Add(duration)
	for i := range pts {
		if pts[i].Time.Before(at) || pts[i].Time.After(end) {
			continue
		}
		pts[i].Value = clampValue(label, pts[i].Value+magnitude)
	}
	return nil
}

// ApplyOps rewrites the last 30 minutes of the series to visually reflect an
// operator action. Ventilating decays the tail toward baseline, closing
// shutters damps growth toward the tail mean, a simulated leak adds a ramp,
// and reset regenerates the pair from its seed. Ack touches no data.
func (s *MemoryStore) ApplyOps(_ context.Context, room, label, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Pair{room, label}
	pts, ok := s.series[p.Key()]
	if !ok {
		return ErrUnknownDetector
	}

	const tailWindow = 30 * time.Minute
	end := pts[len(pts)-1].Time
	tail := len(pts)
	for tail > 0 && !pts[tail-1].Time.Before(end.Add(-tailWindow)) {
		tail--
	}
	if tail == len(pts) && action != OpReset && action != OpAck {
		return nil
	}
	base := BaselineFor(label)

	switch action {
	case OpVentilate:
		for i := tail; i < len(pts); i++ {
			k := float64(i-tail) / float64(len(pts)-tail)
			decay := math.Exp(-3 * k)
			pts[i].Value = clampValue(label, base+(pts[i].Value-base)*decay)
		}
	case OpShutter:
		m := 0.0
		for i := tail; i < len(pts); i++ {
			m += pts[i].Value
		}
		m /= float64(len(pts) - tail)
		for i := tail; i < len(pts); i++ {
			k := float64(i-tail) / float64(len(pts)-tail)
			pts[i].Value = clampValue(label, m+(pts[i].Value-m)*(1-0.5*k))
		}
	case OpSimulate:
		amp := spikeAmplitudeFor(label)
		for i := tail; i < len(pts); i++ {
			k := float64(i-tail) / float64(len(pts)-tail)
			pts[i].Value = clampValue(label, pts[i].Value+amp*k)
		}
	case OpReset:
		s.series[p.Key()] = generate(p, s.spec, s.seeded)
	case OpAck:
		// acknowledged at the controller level, history untouched
	default:
		return ErrUnknownOp
	}
	return nil
}

func meanStd(pts []models.Point) (float64, float64, error) {
	if len(pts) == 0 {
		return 0, 1, nil
	}
	var sum float64
	for _, p := range pts {
		sum += p.Value
	}
	mean := sum / float64(len(pts))
	if len(pts) < 2 {
		return mean, 1, nil
	}
	var ss float64
	for _, p := range pts {
		d := p.Value - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(pts)-1)), nil
}
