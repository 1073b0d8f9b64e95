package history

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"SafetyHMI.dashboard/internal/models"
)

const measurement = "gas_reading"

// InfluxStore persists detector history in an InfluxDB bucket. Readings are
// written as the measurement "gas_reading" tagged with room and gas, field
// "value". Unlike the memory store it survives restarts; Seed checks the
// bucket before generating.
type InfluxStore struct {
	client influxdb2.Client
	org    string
	bucket string
	spec   GenSpec
	seeded time.Time
}

// NewInfluxStore creates the store and verifies connectivity.
func NewInfluxStore(ctx context.Context, url, token, org, bucket string) (*InfluxStore, error) {
	client := influxdb2.NewClient(url, token)
	health, err := client.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	if health.Status != "pass" {
		return nil, fmt.Errorf("InfluxDB health check failed: %v", health.Message)
	}
	return &InfluxStore{client: client, org: org, bucket: bucket}, nil
}

// Close releases the underlying client.
func (s *InfluxStore) Close() {
	s.client.Close()
}

func (s *InfluxStore) ensureBucket(ctx context.Context) error {
	bucketsAPI := s.client.BucketsAPI()
	if _, err := bucketsAPI.FindBucketByName(ctx, s.bucket); err == nil {
		return nil
	}

	org, err := s.client.OrganizationsAPI().FindOrganizationByName(ctx, s.org)
	if err != nil {
		return fmt.Errorf("finding organization %q: %w", s.org, err)
	}
	if _, err := bucketsAPI.CreateBucketWithName(ctx, org, s.bucket); err != nil {
		return fmt.Errorf("creating bucket %q: %w", s.bucket, err)
	}
	log.Printf("Bucket %q created", s.bucket)
	return nil
}

// Seed writes synthetic series for pairs that have no data yet.
func (s *InfluxStore) Seed(ctx context.Context, pairs []Pair, spec GenSpec) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	spec = spec.withDefaults()
	if s.seeded.IsZero() {
		s.spec = spec
		s.seeded = time.Now().Truncate(spec.Step)
	}

	writeAPI := s.client.WriteAPIBlocking(s.org, s.bucket)
	seededPairs := 0
	for _, p := range pairs {
		if _, err := s.LatestValue(ctx, p.Room, p.Label); err == nil {
			continue // already holds data
		}
		if err := s.writeSeries(ctx, writeAPI, p, generate(p, s.spec, s.seeded)); err != nil {
			return err
		}
		seededPairs++
	}
	if seededPairs > 0 {
		log.Printf("Seeded %d synthetic series into bucket %q", seededPairs, s.bucket)
	}
	return nil
}

func (s *InfluxStore) writeSeries(ctx context.Context, writeAPI api.WriteAPIBlocking, p Pair, pts []models.Point) error {
	const batch = 2000
	for i := 0; i < len(pts); i += batch {
		end := i + batch
		if end > len(pts) {
			end = len(pts)
		}
		points := make([]*write.Point, 0, end-i)
		for _, pt := range pts[i:end] {
			points = append(points, influxdb2.NewPoint(
				measurement,
				map[string]string{"room": p.Room, "gas": p.Label},
				map[string]interface{}{"value": pt.Value},
				pt.Time,
			))
		}
		if err := writeAPI.WritePoint(ctx, points...); err != nil {
			return fmt.Errorf("error writing to InfluxDB: %w", err)
		}
	}
	return nil
}

func (s *InfluxStore) query(ctx context.Context, flux string) ([]models.Point, error) {
	result, err := s.client.QueryAPI(s.org).Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("error querying InfluxDB: %w", err)
	}

	var out []models.Point
	for result.Next() {
		if result.Err() != nil {
			log.Printf("Error during query iteration: %v", result.Err())
			continue
		}
		record := result.Record()
		switch v := record.Value().(type) {
		case float64:
			out = append(out, models.Point{Time: record.Time(), Value: v})
		case int64:
			out = append(out, models.Point{Time: record.Time(), Value: float64(v)})
		}
	}
	return out, nil
}

func (s *InfluxStore) rangeQuery(room, label string, start, end time.Time, tailFns string) string {
	return fmt.Sprintf(`
		from(bucket: "%s")
		|> range(start: %d, stop: %d)
		|> filter(fn: (r) => r["_measurement"] == "%s")
		|> filter(fn: (r) => r["room"] == "%s")
		|> filter(fn: (r) => r["gas"] == "%s")
		|> filter(fn: (r) => r["_field"] == "value")
		%s
	`, s.bucket, start.Unix(), end.Unix()+1, measurement, room, label, tailFns)
}

func (s *InfluxStore) FetchSeries(ctx context.Context, room, label string, start, end time.Time) ([]models.Point, error) {
	pts, err := s.query(ctx, s.rangeQuery(room, label, start, end, `|> sort(columns: ["_time"])`))
	if err != nil {
		return nil, err
	}
	if pts == nil {
		pts = []models.Point{}
	}
	return pts, nil
}

func (s *InfluxStore) LatestValue(ctx context.Context, room, label string) (models.Point, error) {
	end := time.Now()
	pts, err := s.query(ctx, s.rangeQuery(room, label, end.Add(-90*24*time.Hour), end, `|> last()`))
	if err != nil {
		return models.Point{}, err
	}
	if len(pts) == 0 {
		return models.Point{}, ErrUnknownDetector
	}
	return pts[len(pts)-1], nil
}

func (s *InfluxStore) Stats(ctx context.Context, room, label string, window time.Duration) (float64, float64, error) {
	latest, err := s.LatestValue(ctx, room, label)
	if err != nil {
		return 0, 0, err
	}
	pts, err := s.FetchSeries(ctx, room, label, latest.Time.Add(-window), latest.Time)
	if err != nil {
		return 0, 0, err
	}
	if len(pts) == 0 {
		return 0, 0, ErrUnknownDetector
	}
	return meanStd(pts)
}

// InjectSpike rewrites the affected points in place; InfluxDB upserts on
// identical measurement+tags+timestamp.
func (s *InfluxStore) InjectSpike(ctx context.Context, room, label string, at time.Time, duration time.Duration, magnitude float64) error {
	pts, err := s.FetchSeries(ctx, room, label, at, at.Add(duration))
	if err != nil {
		return err
	}
	for i := range pts {
		pts[i].Value = clampValue(label, pts[i].Value+magnitude)
	}
	return s.writeSeries(ctx, s.client.WriteAPIBlocking(s.org, s.bucket), Pair{room, label}, pts)
}

func (s *InfluxStore) ApplyOps(ctx context.Context, room, label, action string) error {
	latest, err := s.LatestValue(ctx, room, label)
	if err != nil {
		return err
	}
	pts, err := s.FetchSeries(ctx, room, label, latest.Time.Add(-30*time.Minute), latest.Time)
	if err != nil {
		return err
	}
	if len(pts) == 0 && action != OpAck {
		return nil
	}
	base := BaselineFor(label)

	switch action {
	case OpVentilate:
		for i := range pts {
			k := float64(i) / float64(len(pts))
			pts[i].Value = clampValue(label, base+(pts[i].Value-base)*math.Exp(-3*k))
		}
	case OpShutter:
		m := 0.0
		for i := range pts {
			m += pts[i].Value
		}
		m /= float64(len(pts))
		for i := range pts {
			k := float64(i) / float64(len(pts))
			pts[i].Value = clampValue(label, m+(pts[i].Value-m)*(1-0.5*k))
		}
	case OpSimulate:
		amp := spikeAmplitudeFor(label)
		for i := range pts {
			k := float64(i) / float64(len(pts))
			pts[i].Value = clampValue(label, pts[i].Value+amp*k)
		}
	case OpReset:
		p := Pair{room, label}
		return s.writeSeries(ctx, s.client.WriteAPIBlocking(s.org, s.bucket), p, generate(p, s.spec, s.seeded))
	case OpAck:
		return nil
	default:
		return ErrUnknownOp
	}
	return s.writeSeries(ctx, s.client.WriteAPIBlocking(s.org, s.bucket), Pair{room, label}, pts)
}
