package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"spacerover/backend/services/telemetry-service/internal/models"
)

// ErrRoverNotFound indicates a missing rover id.
var ErrRoverNotFound = errors.New("rover not found")

// RoverRepository reads and touches rover documents on the telemetry path.
type RoverRepository struct {
	db *sql.DB
}

// NewRoverRepository returns repository.
func NewRoverRepository(db *sql.DB) *RoverRepository {
	return &RoverRepository{db: db}
}

const roverColumns = `id, name, model, status, location, battery_level, temperature_c, last_contact, capabilities`

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

// ListActive returns all rovers in the active state.
func (r *RoverRepository) ListActive(ctx context.Context) ([]models.Rover, error) {
	const query = `SELECT ` + roverColumns + ` FROM rovers WHERE status = 'active' ORDER BY name`
	return r.queryRovers(ctx, query)
}

// List returns all rovers.
func (r *RoverRepository) List(ctx context.Context) ([]models.Rover, error) {
	const query = `SELECT ` + roverColumns + ` FROM rovers ORDER BY name`
	return r.queryRovers(ctx, query)
}

// ApplyReading updates the rover document to reflect its freshest reading:
// last contact, battery, temperature and coordinates.
func (r *RoverRepository) ApplyReading(ctx context.Context, id string, battery, temperature *float64, coords *models.Coordinates) error {
	const query = `
		UPDATE rovers
		SET last_contact = NOW(),
		    battery_level = COALESCE($2, battery_level),
		    temperature_c = COALESCE($3, temperature_c),
		    location = CASE WHEN $4::jsonb IS NULL THEN location
		               ELSE jsonb_set(location, '{coordinates}', $4::jsonb) END,
		    updated_at = NOW()
		WHERE id = $1
	`
	var coordsJSON any
	if coords != nil {
		data, err := json.Marshal(coords)
		if err != nil {
			return fmt.Errorf("marshal coordinates: %w", err)
		}
		coordsJSON = data
	}

	result, err := r.db.ExecContext(ctx, query, id, battery, temperature, coordsJSON)
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

// UpdateStatus sets the rover status.
func (r *RoverRepository) UpdateStatus(ctx context.Context, id string, status models.RoverStatus) error {
	const query = `UPDATE rovers SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status)
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

func scanRover(row interface{ Scan(...any) error }) (*models.Rover, error) {
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
		&capabilities,
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
