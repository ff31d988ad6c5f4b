package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"spacerover/backend/services/fleet-service/internal/models"
)

// ErrMissionNotFound indicates a missing mission id.
var ErrMissionNotFound = errors.New("mission not found")

// MissionFilter narrows List results.
type MissionFilter struct {
	Status models.MissionStatus
	Planet string
}

// MissionRepository handles persistence of missions.
type MissionRepository struct {
	db *sql.DB
}

// NewMissionRepository returns repository.
func NewMissionRepository(db *sql.DB) *MissionRepository {
	return &MissionRepository{db: db}
}

const missionColumns = `id, name, description, planet, start_date, end_date, status, objectives, lead_scientist, created_at, updated_at`

// Create inserts a new mission.
func (r *MissionRepository) Create(ctx context.Context, mission *models.Mission) (*models.Mission, error) {
	objectives, err := json.Marshal(mission.Objectives)
	if err != nil {
		return nil, fmt.Errorf("marshal objectives: %w", err)
	}
	lead, err := json.Marshal(mission.LeadScientist)
	if err != nil {
		return nil, fmt.Errorf("marshal lead scientist: %w", err)
	}

	const query = `
		INSERT INTO missions (id, name, description, planet, start_date, end_date, status, objectives, lead_scientist, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		mission.ID,
		mission.Name,
		mission.Description,
		mission.Planet,
		mission.StartDate,
		mission.EndDate,
		mission.Status,
		objectives,
		lead,
	).Scan(&mission.CreatedAt, &mission.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return mission, nil
}

// GetByID returns a single mission or ErrMissionNotFound.
func (r *MissionRepository) GetByID(ctx context.Context, id string) (*models.Mission, error) {
	const query = `SELECT ` + missionColumns + ` FROM missions WHERE id = $1`

	mission, err := scanMission(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return mission, nil
}

// GetByName returns a single mission by its unique name or ErrMissionNotFound.
func (r *MissionRepository) GetByName(ctx context.Context, name string) (*models.Mission, error) {
	const query = `SELECT ` + missionColumns + ` FROM missions WHERE name = $1`

	mission, err := scanMission(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return mission, nil
}

// List returns missions matching the filter, newest first.
func (r *MissionRepository) List(ctx context.Context, filter MissionFilter) ([]models.Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Planet != "" {
		args = append(args, filter.Planet)
		query += fmt.Sprintf(" AND planet = $%d", len(args))
	}
	query += ` ORDER BY start_date DESC`

	return r.queryMissions(ctx, query, args...)
}

// ListActive returns missions currently in the active state.
func (r *MissionRepository) ListActive(ctx context.Context) ([]models.Mission, error) {
	const query = `SELECT ` + missionColumns + ` FROM missions WHERE status = 'active' ORDER BY start_date DESC`
	return r.queryMissions(ctx, query)
}

// Update replaces the mutable fields of a mission.
func (r *MissionRepository) Update(ctx context.Context, mission *models.Mission) (*models.Mission, error) {
	objectives, err := json.Marshal(mission.Objectives)
	if err != nil {
		return nil, fmt.Errorf("marshal objectives: %w", err)
	}
	lead, err := json.Marshal(mission.LeadScientist)
	if err != nil {
		return nil, fmt.Errorf("marshal lead scientist: %w", err)
	}

	const query = `
		UPDATE missions
		SET name = $2,
		    description = $3,
		    planet = $4,
		    start_date = $5,
		    end_date = $6,
		    status = $7,
		    objectives = $8,
		    lead_scientist = $9,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		mission.ID,
		mission.Name,
		mission.Description,
		mission.Planet,
		mission.StartDate,
		mission.EndDate,
		mission.Status,
		objectives,
		lead,
	).Scan(&mission.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return mission, nil
}

func (r *MissionRepository) queryMissions(ctx context.Context, query string, args ...any) ([]models.Mission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missions []models.Mission
	for rows.Next() {
		mission, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, *mission)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return missions, nil
}

func scanMission(row rowScanner) (*models.Mission, error) {
	var (
		mission    models.Mission
		endDate    sql.NullTime
		objectives []byte
		lead       []byte
	)
	if err := row.Scan(
		&mission.ID,
		&mission.Name,
		&mission.Description,
		&mission.Planet,
		&mission.StartDate,
		&endDate,
		&mission.Status,
		&objectives,
		&lead,
		&mission.CreatedAt,
		&mission.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if endDate.Valid {
		t := endDate.Time
		mission.EndDate = &t
	}
	if err := json.Unmarshal(objectives, &mission.Objectives); err != nil {
		return nil, fmt.Errorf("unmarshal objectives: %w", err)
	}
	if err := json.Unmarshal(lead, &mission.LeadScientist); err != nil {
		return nil, fmt.Errorf("unmarshal lead scientist: %w", err)
	}
	return &mission, nil
}
