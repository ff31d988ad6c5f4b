package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"spacerover/backend/services/telemetry-service/internal/models"
)

// ErrNoReadings indicates the rover has no stored telemetry.
var ErrNoReadings = errors.New("no telemetry readings")

// ReadingQuery narrows history queries.
type ReadingQuery struct {
	Limit     int
	Skip      int
	StartTime *time.Time
	EndTime   *time.Time
}

// TelemetryRepository persists rover telemetry readings.
type TelemetryRepository struct {
	db *sql.DB
}

// NewTelemetryRepository returns repository.
func NewTelemetryRepository(db *sql.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

const readingColumns = `id, rover_id, timestamp, battery_level, temperature_c, cpu_utilization, memory_utilization, disk_space_remaining, location, signal_strength, sensor_readings, system_status, errors, created_at`

// Insert stores a new reading.
func (r *TelemetryRepository) Insert(ctx context.Context, reading *models.TelemetryReading) error {
	location, err := json.Marshal(reading.Location)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}
	sensors, err := json.Marshal(reading.SensorReadings)
	if err != nil {
		return fmt.Errorf("marshal sensor readings: %w", err)
	}
	systemStatus, err := json.Marshal(reading.SystemStatus)
	if err != nil {
		return fmt.Errorf("marshal system status: %w", err)
	}
	readingErrors, err := json.Marshal(reading.Errors)
	if err != nil {
		return fmt.Errorf("marshal errors: %w", err)
	}

	const query = `
		INSERT INTO telemetry_readings (id, rover_id, timestamp, battery_level, temperature_c, cpu_utilization, memory_utilization, disk_space_remaining, location, signal_strength, sensor_readings, system_status, errors, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		RETURNING created_at
	`
	return r.db.QueryRowContext(ctx, query,
		reading.ID,
		reading.RoverID,
		reading.Timestamp,
		reading.BatteryLevel,
		reading.TemperatureC,
		reading.CPUUtilization,
		reading.MemoryUtilization,
		reading.DiskSpaceRemaining,
		location,
		reading.SignalStrength,
		sensors,
		systemStatus,
		readingErrors,
	).Scan(&reading.CreatedAt)
}

// ListByRover returns readings for a rover, newest first.
func (r *TelemetryRepository) ListByRover(ctx context.Context, roverID string, q ReadingQuery) ([]models.TelemetryReading, error) {
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Skip < 0 {
		q.Skip = 0
	}

	query := `SELECT ` + readingColumns + ` FROM telemetry_readings WHERE rover_id = $1`
	args := []any{roverID}
	if q.StartTime != nil {
		args = append(args, *q.StartTime)
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if q.EndTime != nil {
		args = append(args, *q.EndTime)
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}
	args = append(args, q.Limit, q.Skip)
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []models.TelemetryReading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

// CountByRover counts readings matching the query's time range.
func (r *TelemetryRepository) CountByRover(ctx context.Context, roverID string, q ReadingQuery) (int64, error) {
	query := `SELECT COUNT(*) FROM telemetry_readings WHERE rover_id = $1`
	args := []any{roverID}
	if q.StartTime != nil {
		args = append(args, *q.StartTime)
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if q.EndTime != nil {
		args = append(args, *q.EndTime)
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// LatestByRover returns the most recent reading for a rover, or ErrNoReadings.
func (r *TelemetryRepository) LatestByRover(ctx context.Context, roverID string) (*models.TelemetryReading, error) {
	const query = `SELECT ` + readingColumns + ` FROM telemetry_readings WHERE rover_id = $1 ORDER BY timestamp DESC LIMIT 1`

	reading, err := scanReading(r.db.QueryRowContext(ctx, query, roverID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoReadings
	}
	if err != nil {
		return nil, err
	}
	return reading, nil
}

func scanReading(row interface{ Scan(...any) error }) (*models.TelemetryReading, error) {
	var (
		reading       models.TelemetryReading
		location      []byte
		sensors       []byte
		systemStatus  []byte
		readingErrors []byte
	)
	if err := row.Scan(
		&reading.ID,
		&reading.RoverID,
		&reading.Timestamp,
		&reading.BatteryLevel,
		&reading.TemperatureC,
		&reading.CPUUtilization,
		&reading.MemoryUtilization,
		&reading.DiskSpaceRemaining,
		&location,
		&reading.SignalStrength,
		&sensors,
		&systemStatus,
		&readingErrors,
		&reading.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(location, &reading.Location); err != nil {
		return nil, fmt.Errorf("unmarshal location: %w", err)
	}
	if err := json.Unmarshal(sensors, &reading.SensorReadings); err != nil {
		return nil, fmt.Errorf("unmarshal sensor readings: %w", err)
	}
	if err := json.Unmarshal(systemStatus, &reading.SystemStatus); err != nil {
		return nil, fmt.Errorf("unmarshal system status: %w", err)
	}
	if err := json.Unmarshal(readingErrors, &reading.Errors); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	return &reading, nil
}
