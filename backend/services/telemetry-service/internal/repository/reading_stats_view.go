package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"spacerover/backend/services/telemetry-service/internal/models"
)

// ReadingStatsView provides aggregated telemetry queries.
type ReadingStatsView struct {
	db *sql.DB
}

// NewReadingStatsView returns view accessor.
func NewReadingStatsView(db *sql.DB) *ReadingStatsView {
	return &ReadingStatsView{db: db}
}

// Stats aggregates a rover's readings over [start, end]. ErrNoReadings is
// returned when nothing falls inside the range.
func (v *ReadingStatsView) Stats(ctx context.Context, roverID string, start, end time.Time) (*models.ReadingStats, error) {
	const query = `
		SELECT
			ROUND(AVG(battery_level)::numeric, 2),
			MIN(battery_level),
			MAX(battery_level),
			ROUND(AVG(temperature_c)::numeric, 2),
			MIN(temperature_c),
			MAX(temperature_c),
			ROUND(AVG(cpu_utilization)::numeric, 2),
			ROUND(AVG(memory_utilization)::numeric, 2),
			ROUND(AVG(signal_strength)::numeric, 2),
			COUNT(*),
			COUNT(*) FILTER (WHERE jsonb_array_length(errors) > 0)
		FROM telemetry_readings
		WHERE rover_id = $1 AND timestamp >= $2 AND timestamp <= $3
		HAVING COUNT(*) > 0
	`
	var stats models.ReadingStats
	err := v.db.QueryRowContext(ctx, query, roverID, start, end).Scan(
		&stats.AvgBatteryLevel,
		&stats.MinBatteryLevel,
		&stats.MaxBatteryLevel,
		&stats.AvgTemperature,
		&stats.MinTemperature,
		&stats.MaxTemperature,
		&stats.AvgCPUUtilization,
		&stats.AvgMemoryUtilization,
		&stats.AvgSignalStrength,
		&stats.DataPoints,
		&stats.ErrorCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoReadings
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
