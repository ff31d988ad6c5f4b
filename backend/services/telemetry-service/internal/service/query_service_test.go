package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"spacerover/backend/services/telemetry-service/internal/models"
	"spacerover/backend/services/telemetry-service/internal/repository"
)

type fakeHistoryStore struct {
	readings  []models.TelemetryReading
	total     int64
	lastQuery repository.ReadingQuery
	latest    map[string]*models.TelemetryReading
}

func (f *fakeHistoryStore) ListByRover(_ context.Context, _ string, query repository.ReadingQuery) ([]models.TelemetryReading, error) {
	f.lastQuery = query
	return f.readings, nil
}

func (f *fakeHistoryStore) CountByRover(_ context.Context, _ string, _ repository.ReadingQuery) (int64, error) {
	return f.total, nil
}

func (f *fakeHistoryStore) LatestByRover(_ context.Context, roverID string) (*models.TelemetryReading, error) {
	if reading, ok := f.latest[roverID]; ok {
		return reading, nil
	}
	return nil, repository.ErrNoReadings
}

type fakeQueryRoverStore struct {
	rovers map[string]*models.Rover
	active []models.Rover
}

func (f *fakeQueryRoverStore) GetByID(_ context.Context, id string) (*models.Rover, error) {
	rover, ok := f.rovers[id]
	if !ok {
		return nil, repository.ErrRoverNotFound
	}
	return rover, nil
}

func (f *fakeQueryRoverStore) ListActive(_ context.Context) ([]models.Rover, error) {
	return f.active, nil
}

type fakeStatsSource struct {
	stats *models.ReadingStats
	err   error
}

func (f *fakeStatsSource) Stats(_ context.Context, _ string, _, _ time.Time) (*models.ReadingStats, error) {
	return f.stats, f.err
}

type fakeLatestReader struct {
	cached map[string]*models.TelemetryReading
}

func (f *fakeLatestReader) Get(_ context.Context, roverID string) (*models.TelemetryReading, error) {
	if reading, ok := f.cached[roverID]; ok {
		return reading, nil
	}
	return nil, errors.New("cache miss")
}

func TestHistoryDefaultsPagination(t *testing.T) {
	readings := &fakeHistoryStore{total: 250}
	rovers := &fakeQueryRoverStore{rovers: map[string]*models.Rover{
		"r1": {ID: "r1", Name: "Dust Devil"},
	}}
	svc := NewQueryService(readings, rovers, &fakeStatsSource{}, nil, zap.NewNop())

	result, err := svc.History(context.Background(), "r1", repository.ReadingQuery{Skip: -4})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if readings.lastQuery.Limit != 100 || readings.lastQuery.Skip != 0 {
		t.Fatalf("query defaults not applied: %+v", readings.lastQuery)
	}
	if result.Pagination.Limit != 100 || result.Pagination.Total != 250 {
		t.Fatalf("pagination = %+v", result.Pagination)
	}
	if result.Rover.Name != "Dust Devil" {
		t.Fatalf("rover ref = %+v", result.Rover)
	}
	if result.Telemetry == nil {
		t.Fatalf("empty history should marshal as an array, not null")
	}
}

func TestHistoryUnknownRover(t *testing.T) {
	svc := NewQueryService(&fakeHistoryStore{}, &fakeQueryRoverStore{}, &fakeStatsSource{}, nil, zap.NewNop())

	if _, err := svc.History(context.Background(), "ghost", repository.ReadingQuery{}); !errors.Is(err, repository.ErrRoverNotFound) {
		t.Fatalf("expected rover not found, got %v", err)
	}
}

func TestLatestPrefersCacheAndFallsBack(t *testing.T) {
	cached := &models.TelemetryReading{ID: "cached", RoverID: "r1"}
	stored := &models.TelemetryReading{ID: "stored", RoverID: "r2"}

	readings := &fakeHistoryStore{latest: map[string]*models.TelemetryReading{"r2": stored}}
	rovers := &fakeQueryRoverStore{active: []models.Rover{
		{ID: "r1", Name: "Alpha", Status: models.RoverStatusActive, Location: models.Location{Planet: "mars"}},
		{ID: "r2", Name: "Beta", Status: models.RoverStatusActive, Location: models.Location{Planet: "moon"}},
		{ID: "r3", Name: "Gamma", Status: models.RoverStatusActive},
	}}
	cache := &fakeLatestReader{cached: map[string]*models.TelemetryReading{"r1": cached}}
	svc := NewQueryService(readings, rovers, &fakeStatsSource{}, cache, zap.NewNop())

	entries, err := svc.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected one entry per active rover, got %d", len(entries))
	}
	if entries[0].Telemetry == nil || entries[0].Telemetry.ID != "cached" {
		t.Fatalf("cache hit not used: %+v", entries[0].Telemetry)
	}
	if entries[1].Telemetry == nil || entries[1].Telemetry.ID != "stored" {
		t.Fatalf("db fallback not used: %+v", entries[1].Telemetry)
	}
	if entries[2].Telemetry != nil {
		t.Fatalf("rover without readings should carry nil telemetry")
	}
	if entries[0].Rover.Planet != "mars" {
		t.Fatalf("rover summary = %+v", entries[0].Rover)
	}
}

func TestStatsPeriodsAndEmptyWindow(t *testing.T) {
	rovers := &fakeQueryRoverStore{rovers: map[string]*models.Rover{
		"r1": {ID: "r1", Name: "Dust Devil"},
	}}
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	stats := &fakeStatsSource{stats: &models.ReadingStats{
		AvgBatteryLevel: 71.25, MinBatteryLevel: 60, MaxBatteryLevel: 80,
		DataPoints: 42, ErrorCount: 3,
	}}
	svc := NewQueryService(&fakeHistoryStore{}, rovers, stats, nil, zap.NewNop())
	svc.now = func() time.Time { return now }

	result, err := svc.Stats(context.Background(), "r1", "6h")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if result.Period != "6h" {
		t.Fatalf("period = %q", result.Period)
	}
	if want := now.Add(-6 * time.Hour); !result.TimeRange.Start.Equal(want) {
		t.Fatalf("window start = %v, want %v", result.TimeRange.Start, want)
	}
	body, ok := result.Statistics.(StatsBody)
	if !ok {
		t.Fatalf("statistics type = %T", result.Statistics)
	}
	if body.BatteryLevel.Avg != 71.25 || body.DataPoints != 42 || body.ErrorCount != 3 {
		t.Fatalf("statistics = %+v", body)
	}

	svc = NewQueryService(&fakeHistoryStore{}, rovers, &fakeStatsSource{err: repository.ErrNoReadings}, nil, zap.NewNop())
	svc.now = func() time.Time { return now }

	result, err = svc.Stats(context.Background(), "r1", "")
	if err != nil {
		t.Fatalf("Stats on empty window: %v", err)
	}
	if result.Period != "24h" {
		t.Fatalf("default period = %q", result.Period)
	}
	empty, ok := result.Statistics.(StatsEmpty)
	if !ok || empty.Message != "No data available for the specified period" {
		t.Fatalf("statistics = %+v", result.Statistics)
	}
}

func TestParsePeriod(t *testing.T) {
	cases := map[string]time.Duration{
		"1h":      time.Hour,
		"6h":      6 * time.Hour,
		"24h":     24 * time.Hour,
		"7d":      7 * 24 * time.Hour,
		"30d":     30 * 24 * time.Hour,
		"":        24 * time.Hour,
		"garbage": 24 * time.Hour,
	}
	for period, want := range cases {
		if got := ParsePeriod(period); got != want {
			t.Errorf("ParsePeriod(%q) = %v, want %v", period, got, want)
		}
	}
}
