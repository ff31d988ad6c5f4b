package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"spacerover/backend/services/telemetry-service/internal/models"
	"spacerover/backend/services/telemetry-service/internal/repository"
)

const defaultHistoryLimit = 100

// HistoryReadingStore is the reading surface queries need.
type HistoryReadingStore interface {
	ListByRover(ctx context.Context, roverID string, query repository.ReadingQuery) ([]models.TelemetryReading, error)
	CountByRover(ctx context.Context, roverID string, query repository.ReadingQuery) (int64, error)
	LatestByRover(ctx context.Context, roverID string) (*models.TelemetryReading, error)
}

// QueryRoverStore is the rover surface queries need.
type QueryRoverStore interface {
	GetByID(ctx context.Context, id string) (*models.Rover, error)
	ListActive(ctx context.Context) ([]models.Rover, error)
}

// StatsSource aggregates readings over a time window.
type StatsSource interface {
	Stats(ctx context.Context, roverID string, start, end time.Time) (*models.ReadingStats, error)
}

// LatestReader reads the cached latest reading per rover.
type LatestReader interface {
	Get(ctx context.Context, roverID string) (*models.TelemetryReading, error)
}

// HistoryResult is one page of a rover's telemetry history.
type HistoryResult struct {
	Rover      RoverRef                 `json:"rover"`
	Telemetry  []models.TelemetryReading `json:"telemetry"`
	Pagination Pagination               `json:"pagination"`
}

// RoverRef identifies a rover in query responses.
type RoverRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Pagination describes the window a history page covers.
type Pagination struct {
	Limit int   `json:"limit"`
	Skip  int   `json:"skip"`
	Total int64 `json:"total"`
}

// LatestEntry pairs an active rover with its most recent reading, nil when the
// rover has never reported.
type LatestEntry struct {
	Rover     LatestRoverRef           `json:"rover"`
	Telemetry *models.TelemetryReading `json:"telemetry"`
}

// LatestRoverRef is the rover summary in latest-telemetry responses.
type LatestRoverRef struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Model  string             `json:"model"`
	Status models.RoverStatus `json:"status"`
	Planet string             `json:"planet"`
}

// StatsResult is the aggregate answer for one rover and period.
type StatsResult struct {
	RoverID    string    `json:"roverId"`
	RoverName  string    `json:"roverName"`
	Period     string    `json:"period"`
	TimeRange  TimeRange `json:"timeRange"`
	Statistics any       `json:"statistics"`
}

// TimeRange bounds a stats window.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StatsBody carries the computed aggregates.
type StatsBody struct {
	BatteryLevel      MinMaxAvg `json:"batteryLevel"`
	Temperature       MinMaxAvg `json:"temperature"`
	CPUUtilization    float64   `json:"cpuUtilization"`
	MemoryUtilization float64   `json:"memoryUtilization"`
	SignalStrength    float64   `json:"signalStrength"`
	DataPoints        int64     `json:"dataPoints"`
	ErrorCount        int64     `json:"errorCount"`
}

// MinMaxAvg summarizes one metric.
type MinMaxAvg struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// StatsEmpty replaces StatsBody when the window holds no readings.
type StatsEmpty struct {
	Message string `json:"message"`
}

// QueryService answers telemetry read queries.
type QueryService struct {
	readings HistoryReadingStore
	rovers   QueryRoverStore
	stats    StatsSource
	cache    LatestReader
	logger   *zap.Logger
	now      func() time.Time
}

// NewQueryService builds the service. cache may be nil.
func NewQueryService(readings HistoryReadingStore, rovers QueryRoverStore, stats StatsSource, cache LatestReader, logger *zap.Logger) *QueryService {
	return &QueryService{
		readings: readings,
		rovers:   rovers,
		stats:    stats,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// History returns one page of a rover's readings, newest first.
func (s *QueryService) History(ctx context.Context, roverID string, query repository.ReadingQuery) (*HistoryResult, error) {
	rover, err := s.rovers.GetByID(ctx, roverID)
	if err != nil {
		return nil, err
	}
	if query.Limit <= 0 {
		query.Limit = defaultHistoryLimit
	}
	if query.Skip < 0 {
		query.Skip = 0
	}

	readings, err := s.readings.ListByRover(ctx, roverID, query)
	if err != nil {
		return nil, err
	}
	total, err := s.readings.CountByRover(ctx, roverID, query)
	if err != nil {
		return nil, err
	}

	s.logger.Info("retrieved telemetry history",
		zap.String("rover_id", roverID),
		zap.Int("count", len(readings)),
		zap.Int64("total_matches", total),
	)

	if readings == nil {
		readings = []models.TelemetryReading{}
	}
	return &HistoryResult{
		Rover:      RoverRef{ID: rover.ID, Name: rover.Name},
		Telemetry:  readings,
		Pagination: Pagination{Limit: query.Limit, Skip: query.Skip, Total: total},
	}, nil
}

// Latest returns every active rover with its most recent reading. The cache is
// consulted first; a miss falls through to the database.
func (s *QueryService) Latest(ctx context.Context) ([]LatestEntry, error) {
	rovers, err := s.rovers.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]LatestEntry, 0, len(rovers))
	for _, rover := range rovers {
		entry := LatestEntry{
			Rover: LatestRoverRef{
				ID:     rover.ID,
				Name:   rover.Name,
				Model:  rover.Model,
				Status: rover.Status,
				Planet: rover.Location.Planet,
			},
		}
		entry.Telemetry = s.latestReading(ctx, rover.ID)
		entries = append(entries, entry)
	}

	s.logger.Info("retrieved latest telemetry for active rovers", zap.Int("rover_count", len(rovers)))
	return entries, nil
}

func (s *QueryService) latestReading(ctx context.Context, roverID string) *models.TelemetryReading {
	if s.cache != nil {
		if reading, err := s.cache.Get(ctx, roverID); err == nil {
			return reading
		}
	}
	reading, err := s.readings.LatestByRover(ctx, roverID)
	if err != nil {
		if !errors.Is(err, repository.ErrNoReadings) {
			s.logger.Warn("failed to load latest reading",
				zap.String("rover_id", roverID), zap.Error(err))
		}
		return nil
	}
	return reading
}

// Stats aggregates a rover's readings over the named period.
func (s *QueryService) Stats(ctx context.Context, roverID, period string) (*StatsResult, error) {
	rover, err := s.rovers.GetByID(ctx, roverID)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = "24h"
	}

	end := s.now().UTC()
	start := end.Add(-ParsePeriod(period))

	result := &StatsResult{
		RoverID:   roverID,
		RoverName: rover.Name,
		Period:    period,
		TimeRange: TimeRange{Start: start, End: end},
	}

	stats, err := s.stats.Stats(ctx, roverID, start, end)
	if err != nil {
		if errors.Is(err, repository.ErrNoReadings) {
			result.Statistics = StatsEmpty{Message: "No data available for the specified period"}
			return result, nil
		}
		return nil, err
	}

	result.Statistics = StatsBody{
		BatteryLevel:      MinMaxAvg{Avg: stats.AvgBatteryLevel, Min: stats.MinBatteryLevel, Max: stats.MaxBatteryLevel},
		Temperature:       MinMaxAvg{Avg: stats.AvgTemperature, Min: stats.MinTemperature, Max: stats.MaxTemperature},
		CPUUtilization:    stats.AvgCPUUtilization,
		MemoryUtilization: stats.AvgMemoryUtilization,
		SignalStrength:    stats.AvgSignalStrength,
		DataPoints:        stats.DataPoints,
		ErrorCount:        stats.ErrorCount,
	}

	s.logger.Info("retrieved telemetry stats",
		zap.String("rover_id", roverID),
		zap.String("period", period),
		zap.Int64("data_points", stats.DataPoints),
	)
	return result, nil
}
