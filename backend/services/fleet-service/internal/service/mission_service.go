package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spacerover/backend/services/fleet-service/internal/models"
	"spacerover/backend/services/fleet-service/internal/repository"
)

// ErrMissionNameTaken is returned when creating a mission with a name that
// already exists.
var ErrMissionNameTaken = errors.New("mission: name already in use")

// MissionStore defines the persistence contract used by MissionService.
type MissionStore interface {
	Create(ctx context.Context, mission *models.Mission) (*models.Mission, error)
	GetByID(ctx context.Context, id string) (*models.Mission, error)
	GetByName(ctx context.Context, name string) (*models.Mission, error)
	List(ctx context.Context, filter repository.MissionFilter) ([]models.Mission, error)
	ListActive(ctx context.Context) ([]models.Mission, error)
	Update(ctx context.Context, mission *models.Mission) (*models.Mission, error)
}

// MissionRoverStore is the rover lookup MissionService needs.
type MissionRoverStore interface {
	ListByMission(ctx context.Context, missionID string) ([]models.Rover, error)
}

// CreateMissionInput holds the caller-supplied fields of a new mission.
type CreateMissionInput struct {
	Name          string
	Description   string
	Planet        string
	StartDate     time.Time
	Status        models.MissionStatus
	Objectives    []models.Objective
	LeadScientist models.LeadScientist
}

// MissionService contains mission planning logic.
type MissionService struct {
	store  MissionStore
	rovers MissionRoverStore
	logger *zap.Logger

	now func() time.Time
}

// NewMissionService builds MissionService.
func NewMissionService(store MissionStore, rovers MissionRoverStore, logger *zap.Logger) *MissionService {
	return &MissionService{
		store:  store,
		rovers: rovers,
		logger: logger,
		now:    time.Now,
	}
}

// Create registers a new mission.
func (s *MissionService) Create(ctx context.Context, input CreateMissionInput) (*models.Mission, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: mission name is required", ErrValidation)
	}
	if input.Planet == "" {
		return nil, fmt.Errorf("%w: planet is required", ErrValidation)
	}
	if input.Status == "" {
		input.Status = models.MissionStatusPlanned
	}
	if !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, input.Status)
	}
	if input.StartDate.IsZero() {
		input.StartDate = s.now().UTC()
	}
	for i, o := range input.Objectives {
		if strings.TrimSpace(o.Title) == "" {
			return nil, fmt.Errorf("%w: objective %d has no title", ErrValidation, i)
		}
		if o.Priority != "" && !o.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, o.Priority)
		}
		if o.Priority == "" {
			input.Objectives[i].Priority = models.PriorityMedium
		}
	}
	if input.Objectives == nil {
		input.Objectives = []models.Objective{}
	}

	if _, err := s.store.GetByName(ctx, input.Name); err == nil {
		return nil, ErrMissionNameTaken
	} else if !errors.Is(err, repository.ErrMissionNotFound) {
		return nil, err
	}

	mission := &models.Mission{
		ID:            uuid.NewString(),
		Name:          input.Name,
		Description:   input.Description,
		Planet:        input.Planet,
		StartDate:     input.StartDate,
		Status:        input.Status,
		Objectives:    input.Objectives,
		LeadScientist: input.LeadScientist,
	}

	mission, err := s.store.Create(ctx, mission)
	if err != nil {
		return nil, err
	}

	s.logger.Info("mission created",
		zap.String("mission_id", mission.ID),
		zap.String("name", mission.Name),
		zap.String("planet", mission.Planet))
	return mission, nil
}

// Get returns one mission by id.
func (s *MissionService) Get(ctx context.Context, id string) (*models.Mission, error) {
	return s.store.GetByID(ctx, id)
}

// List returns missions, optionally filtered by status and planet.
func (s *MissionService) List(ctx context.Context, status, planet string) ([]models.Mission, error) {
	filter := repository.MissionFilter{Planet: planet}
	if status != "" {
		st := models.MissionStatus(status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		filter.Status = st
	}
	return s.store.List(ctx, filter)
}

// ListActive returns missions in the active state.
func (s *MissionService) ListActive(ctx context.Context) ([]models.Mission, error) {
	return s.store.ListActive(ctx)
}

// Update applies a full update to an existing mission. Status edits are
// validated against the lifecycle graph.
func (s *MissionService) Update(ctx context.Context, mission *models.Mission) (*models.Mission, error) {
	current, err := s.store.GetByID(ctx, mission.ID)
	if err != nil {
		return nil, err
	}
	if !mission.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, mission.Status)
	}
	if err := ValidateMissionTransition(current.Status, mission.Status); err != nil {
		return nil, err
	}

	if mission.Status == models.MissionStatusCompleted && mission.EndDate == nil {
		now := s.now().UTC()
		mission.EndDate = &now
	}

	updated, err := s.store.Update(ctx, mission)
	if err != nil {
		return nil, err
	}

	if current.Status != updated.Status {
		s.logger.Info("mission status changed",
			zap.String("mission_id", updated.ID),
			zap.String("name", updated.Name),
			zap.String("from", string(current.Status)),
			zap.String("to", string(updated.Status)))
	}
	return updated, nil
}

// AddObjective appends an objective to a mission.
func (s *MissionService) AddObjective(ctx context.Context, missionID string, objective models.Objective) (*models.Mission, error) {
	if strings.TrimSpace(objective.Title) == "" {
		return nil, fmt.Errorf("%w: objective title is required", ErrValidation)
	}
	if objective.Priority == "" {
		objective.Priority = models.PriorityMedium
	}
	if !objective.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, objective.Priority)
	}

	mission, err := s.store.GetByID(ctx, missionID)
	if err != nil {
		return nil, err
	}
	objective.Completed = false
	mission.Objectives = append(mission.Objectives, objective)

	updated, err := s.store.Update(ctx, mission)
	if err != nil {
		return nil, err
	}

	s.logger.Info("objective added to mission",
		zap.String("mission_id", mission.ID),
		zap.String("objective", objective.Title))
	return updated, nil
}

// Rovers returns the rovers assigned to a mission. The mission must exist.
func (s *MissionService) Rovers(ctx context.Context, missionID string) ([]models.Rover, error) {
	if _, err := s.store.GetByID(ctx, missionID); err != nil {
		return nil, err
	}
	return s.rovers.ListByMission(ctx, missionID)
}
