package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"spacerover/backend/services/fleet-service/internal/models"
)

// ErrRoverNotFound indicates a missing rover id.
var ErrRoverNotFound = errors.New("rover not found")

// RoverFilter narrows List results.
type RoverFilter struct {
	Status models.RoverStatus
	Planet string
}

// RoverRepository handles persistence of rovers.
type RoverRepository struct {
	db *sql.DB
}

// NewRoverRepository returns repository.
func NewRoverRepository(db *sql.DB) *RoverRepository {
	return &RoverRepository{db: db}
}

const roverColumns = `id, name, model, status, location, battery_level, temperature_c, last_contact, mission_id, capabilities, telemetry_frequency, created_at, updated_at`

// Create inserts a new rover.
func (r *RoverRepository) Create(ctx context.Context, rover *models.Rover) (*models.Rover, error) {
	location, err := json.Marshal(rover.Location)
	if err != nil {
		return nil, fmt.Errorf("marshal location: %w", err)
	}
	capabilities, err := json.Marshal(rover.Capabilities)
	if err != nil {
		return nil, fmt.Errorf("marshal capabilities: %w", err)
	}

	const query = `
		INSERT INTO rovers (id, name, model, status, location, battery_level, temperature_c, last_contact, mission_id, capabilities, telemetry_frequency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		rover.ID,
		rover.Name,
		rover.Model,
		rover.Status,
		location,
		rover.BatteryLevel,
		rover.TemperatureC,
		rover.LastContact,
		rover.MissionID,
		capabilities,
		rover.TelemetryFrequency,
	).Scan(&rover.CreatedAt, &rover.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rover, nil
}

// GetByID returns a single rover or ErrRoverNotFound.
func (r *RoverRepository) GetByID(ctx context.Context, id string) (*models.Rover, error) {
	const query = `SELECT ` + roverColumns + ` FROM rovers WHERE id = $1`

	rover, err := scanRover(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoverNotFound
	}
	if err != nil {
		return nil, err
	}
	return rover, nil
}

// List returns rovers matching the filter, newest first.
func (r *RoverRepository) List(ctx context.Context, filter RoverFilter) ([]models.Rover, error) {
	query := `SELECT ` + roverColumns + ` FROM rovers WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Planet != "" {
		args = append(args, filter.Planet)
		query += fmt.Sprintf(" AND location->>'planet' = $%d", len(args))
	}
	query += ` ORDER BY created_at DESC`

	return r.queryRovers(ctx, query, args...)
}

// ListByMission returns rovers assigned to a mission.
func (r *RoverRepository) ListByMission(ctx context.Context, missionID string) ([]models.Rover, error) {
	const query = `SELECT ` + roverColumns + ` FROM rovers WHERE mission_id = $1 ORDER BY created_at DESC`
	return r.queryRovers(ctx, query, missionID)
}

// LowBattery returns active rovers below the given battery threshold, most
// depleted first.
func (r *RoverRepository) LowBattery(ctx context.Context, threshold float64) ([]models.Rover, error) {
	const query = `SELECT ` + roverColumns + ` FROM rovers WHERE battery_level < $1 AND status = 'active' ORDER BY battery_level ASC`
	return r.queryRovers(ctx, query, threshold)
}

// Update replaces the mutable fields of a rover.
func (r *RoverRepository) Update(ctx context.Context, rover *models.Rover) (*models.Rover, error) {
	location, err := json.Marshal(rover.Location)
	if err != nil {
		return nil, fmt.Errorf("marshal location: %w", err)
	}
	capabilities, err := json.Marshal(rover.Capabilities)
	if err != nil {
		return nil, fmt.Errorf("marshal capabilities: %w", err)
	}

	const query = `
		UPDATE rovers
		SET name = $2,
		    model = $3,
		    status = $4,
		    location = $5,
		    battery_level = $6,
		    temperature_c = $7,
		    last_contact = $8,
		    mission_id = $9,
		    capabilities = $10,
		    telemetry_frequency = $11,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		rover.ID,
		rover.Name,
		rover.Model,
		rover.Status,
		location,
		rover.BatteryLevel,
		rover.TemperatureC,
		rover.LastContact,
		rover.MissionID,
		capabilities,
		rover.TelemetryFrequency,
	).Scan(&rover.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoverNotFound
	}
	if err != nil {
		return nil, err
	}
	return rover, nil
}

// UpdateBattery sets the battery level of a rover.
func (r *RoverRepository) UpdateBattery(ctx context.Context, id string, level float64) error {
	const query = `
		UPDATE rovers
		SET battery_level = $2, updated_at = NOW()
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, id, level)
}

// UpdateStatus sets the status of a rover, optionally refreshing last contact.
func (r *RoverRepository) UpdateStatus(ctx context.Context, id string, status models.RoverStatus, refreshContact bool) error {
	if refreshContact {
		const query = `
			UPDATE rovers
			SET status = $2, last_contact = NOW(), updated_at = NOW()
			WHERE id = $1
		`
		return r.execExpectingRow(ctx, query, id, status)
	}
	const query = `
		UPDATE rovers
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, id, status)
}

// RefreshContact touches last_contact for a rover.
func (r *RoverRepository) RefreshContact(ctx context.Context, id string) error {
	const query = `
		UPDATE rovers
		SET last_contact = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, id)
}

func (r *RoverRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRoverNotFound
	}
	return nil
}

func (r *RoverRepository) queryRovers(ctx context.Context, query string, args ...any) ([]models.Rover, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rovers []models.Rover
	for rows.Next() {
		rover, err := scanRover(rows)
		if err != nil {
			return nil, err
		}
		rovers = append(rovers, *rover)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rovers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRover(row rowScanner) (*models.Rover, error) {
	var (
		rover        models.Rover
		location     []byte
		capabilities []byte
	)
	if err := row.Scan(
		&rover.ID,
		&rover.Name,
		&rover.Model,
		&rover.Status,
		&location,
		&rover.BatteryLevel,
		&rover.TemperatureC,
		&rover.LastContact,
		&rover.MissionID,
		&capabilities,
		&rover.TelemetryFrequency,
		&rover.CreatedAt,
		&rover.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(location, &rover.Location); err != nil {
		return nil, fmt.Errorf("unmarshal location: %w", err)
	}
	if err := json.Unmarshal(capabilities, &rover.Capabilities); err != nil {
		return nil, fmt.Errorf("unmarshal capabilities: %w", err)
	}
	return &rover, nil
}
