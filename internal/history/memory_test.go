package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSpec = GenSpec{Days: 2, SpikesPerWeek: 3, Step: time.Minute, Seed: 42}

func seededStore(t *testing.T, pairs ...Pair) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	require.NoError(t, s.Seed(context.Background(), pairs, testSpec))
	return s
}

func TestSeedAndFetchOrdering(t *testing.T) {
	pair := Pair{Room: "Room 2", Label: "CO"}
	s := seededStore(t, pair)

	latest, err := s.LatestValue(context.Background(), pair.Room, pair.Label)
	require.NoError(t, err)

	pts, err := s.FetchSeries(context.Background(), pair.Room, pair.Label, latest.Time.Add(-time.Hour), latest.Time)
	require.NoError(t, err)
	assert.Len(t, pts, 61, "one point per minute inclusive of both ends")
	for i := 1; i < len(pts); i++ {
		assert.False(t, pts[i].Time.Before(pts[i-1].Time), "points out of order at %d", i)
	}
	assert.Equal(t, latest.Time, pts[len(pts)-1].Time)
}

func TestFetchSeriesUnknownDetector(t *testing.T) {
	s := seededStore(t, Pair{Room: "Room 2", Label: "CO"})
	_, err := s.FetchSeries(context.Background(), "Room 2", "Xenon", time.Time{}, time.Now())
	assert.ErrorIs(t, err, ErrUnknownDetector)

	_, err = s.LatestValue(context.Background(), "Room 9", "CO")
	assert.ErrorIs(t, err, ErrUnknownDetector)
}

func TestSeedIdempotent(t *testing.T) {
	pair := Pair{Room: "Room 2", Label: "CO"}
	s := seededStore(t, pair)

	before, err := s.LatestValue(context.Background(), pair.Room, pair.Label)
	require.NoError(t, err)

	require.NoError(t, s.Seed(context.Background(), []Pair{pair}, GenSpec{Days: 9, Seed: 7}))
	after, err := s.LatestValue(context.Background(), pair.Room, pair.Label)
	require.NoError(t, err)
	assert.Equal(t, before, after, "reseeding must not replace existing series")
}

func TestSeededReproducibility(t *testing.T) {
	pair := Pair{Room: "Room 4", Label: "NH₃"}
	a := generate(pair, testSpec, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	b := generate(pair, testSpec, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, a, b, "same seed must reproduce the series byte for byte")

	other := testSpec
	other.Seed = 43
	c := generate(pair, other, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.NotEqual(t, a, c, "different seed must alter the series")
}

func TestPerPairSeedIndependence(t *testing.T) {
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	a := generate(Pair{Room: "Room 2", Label: "CO"}, testSpec, end)
	b := generate(Pair{Room: "Room 3", Label: "CO"}, testSpec, end)
	assert.NotEqual(t, a, b, "pairs must not share a random stream")
}

func TestOxygenClampUnderSpike(t *testing.T) {
	pair := Pair{Room: "Room 5", Label: "O₂"}
	s := seededStore(t, pair)

	latest, err := s.LatestValue(context.Background(), pair.Room, pair.Label)
	require.NoError(t, err)

	require.NoError(t, s.InjectSpike(context.Background(), pair.Room, pair.Label, latest.Time.Add(-20*time.Minute), 20*time.Minute, -50))
	pts, err := s.FetchSeries(context.Background(), pair.Room, pair.Label, latest.Time.Add(-20*time.Minute), latest.Time)
	require.NoError(t, err)
	require.NotEmpty(t, pts)
	for _, p := range pts {
		assert.GreaterOrEqual(t, p.Value, 17.0)
		assert.LessOrEqual(t, p.Value, 21.0)
	}
}

func TestInjectSpikeRaisesTail(t *testing.T) {
	pair := Pair{Room: "Room 2", Label: "CO"}
	s := seededStore(t, pair)

	latest, err := s.LatestValue(context.Background(), pair.Room, pair.Label)
	require.NoError(t, err)
	before := latest.Value

	require.NoError(t, s.InjectSpike(context.Background(), pair.Room, pair.Label, latest.Time.Add(-10*time.Minute), 10*time.Minute, 40))
	after, err := s.LatestValue(context.Background(), pair.Room, pair.Label)
	require.NoError(t, err)
	assert.InDelta(t, before+40, after.Value, 1e-9)
}

func TestStats(t *testing.T) {
	pair := Pair{Room: "Room 2", Label: "CO"}
	s := seededStore(t, pair)

	mean, std, err := s.Stats(context.Background(), pair.Room, pair.Label, 24*time.Hour)
	require.NoError(t, err)
	assert.InDelta(t, BaselineFor("CO"), mean, 3.0, "mean should sit near the baseline")
	assert.Greater(t, std, 0.0)
}

func TestApplyOpsVentilate(t *testing.T) {
	pair := Pair{Room: "Room 2", Label: "CO"}
	s := seededStore(t, pair)

	latest, err := s.LatestValue(context.Background(), pair.Room, pair.Label)
	require.NoError(t, err)

	// Push the tail far above baseline, then ventilate it back down.
	require.NoError(t, s.InjectSpike(context.Background(), pair.Room, pair.Label, latest.Time.Add(-25*time.Minute), 25*time.Minute, 60))
	require.NoError(t, s.ApplyOps(context.Background(), pair.Room, pair.Label, OpVentilate))

	after, err := s.LatestValue(context.Background(), pair.Room, pair.Label)
	require.NoError(t, err)
	assert.Less(t, after.Value, latest.Value+60, "ventilation must pull the tail toward baseline")
}

func TestApplyOpsResetRegenerates(t *testing.T) {
	pair := Pair{Room: "Room 2", Label: "CO"}
	s := seededStore(t, pair)

	original, err := s.LatestValue(context.Background(), pair.Room, pair.Label)
	require.NoError(t, err)

	require.NoError(t, s.InjectSpike(context.Background(), pair.Room, pair.Label, original.Time.Add(-5*time.Minute), 5*time.Minute, 99))
	require.NoError(t, s.ApplyOps(context.Background(), pair.Room, pair.Label, OpReset))

	restored, err := s.LatestValue(context.Background(), pair.Room, pair.Label)
	require.NoError(t, err)
	assert.Equal(t, original.Value, restored.Value, "reset must restore the seeded series")
}

func TestApplyOpsUnknownAction(t *testing.T) {
	pair := Pair{Room: "Room 2", Label: "CO"}
	s := seededStore(t, pair)
	assert.ErrorIs(t, s.ApplyOps(context.Background(), pair.Room, pair.Label, "detonate"), ErrUnknownOp)
}

func TestBaselines(t *testing.T) {
	assert.Equal(t, 20.8, BaselineFor("O₂"))
	assert.Equal(t, 8.0, BaselineFor("CO"))
	assert.Equal(t, 5.0, BaselineFor("CO₂"), "carbon dioxide uses the generic baseline")
	assert.Equal(t, 280.0, BaselineFor("Ethanol"))
}
