package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spacerover/backend/libs/randx"
	"spacerover/backend/services/fleet-service/internal/models"
	"spacerover/backend/services/fleet-service/internal/repository"
)

// ErrRoverNotCommandable is returned when sending a command to a rover that
// is not in the active state.
var ErrRoverNotCommandable = errors.New("rover: not in a commandable state")

// ErrValidation wraps input validation failures.
var ErrValidation = errors.New("validation failed")

// Defaults applied on rover creation.
const (
	defaultBatteryLevel       = 100.0
	defaultTemperatureC       = 20.0
	defaultTelemetryFrequency = 60

	minTelemetryFrequency = 10
	maxTelemetryFrequency = 3600
)

// RoverStore defines the persistence contract used by RoverService.
type RoverStore interface {
	Create(ctx context.Context, rover *models.Rover) (*models.Rover, error)
	GetByID(ctx context.Context, id string) (*models.Rover, error)
	List(ctx context.Context, filter repository.RoverFilter) ([]models.Rover, error)
	LowBattery(ctx context.Context, threshold float64) ([]models.Rover, error)
	Update(ctx context.Context, rover *models.Rover) (*models.Rover, error)
	RefreshContact(ctx context.Context, id string) error
}

// CreateRoverInput holds the caller-supplied fields of a new rover.
type CreateRoverInput struct {
	Name               string
	Model              string
	Status             models.RoverStatus
	Location           models.Location
	BatteryLevel       *float64
	TemperatureC       *float64
	MissionID          *string
	Capabilities       []string
	TelemetryFrequency int
}

// CommandResult reports the outcome of a simulated rover command.
type CommandResult struct {
	Success        bool      `json:"success"`
	Command        string    `json:"command"`
	Timestamp      time.Time `json:"timestamp"`
	RoverID        string    `json:"roverId"`
	ProcessingTime int       `json:"processingTime"`
}

// RoverService contains rover fleet logic.
type RoverService struct {
	store  RoverStore
	rng    randx.Rand
	logger *zap.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// NewRoverService builds RoverService.
func NewRoverService(store RoverStore, rng randx.Rand, logger *zap.Logger) *RoverService {
	return &RoverService{
		store:  store,
		rng:    rng,
		logger: logger,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Create registers a new rover with defaults for omitted fields.
func (s *RoverService) Create(ctx context.Context, input CreateRoverInput) (*models.Rover, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: rover name is required", ErrValidation)
	}
	if input.Location.Planet == "" {
		return nil, fmt.Errorf("%w: location planet is required", ErrValidation)
	}
	if input.Status == "" {
		input.Status = models.RoverStatusInactive
	}
	if !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, input.Status)
	}

	rover := &models.Rover{
		ID:                 uuid.NewString(),
		Name:               input.Name,
		Model:              input.Model,
		Status:             input.Status,
		Location:           input.Location,
		BatteryLevel:       defaultBatteryLevel,
		TemperatureC:       defaultTemperatureC,
		LastContact:        s.now().UTC(),
		MissionID:          input.MissionID,
		Capabilities:       input.Capabilities,
		TelemetryFrequency: defaultTelemetryFrequency,
	}
	if input.BatteryLevel != nil {
		rover.BatteryLevel = *input.BatteryLevel
	}
	if input.TemperatureC != nil {
		rover.TemperatureC = *input.TemperatureC
	}
	if input.TelemetryFrequency != 0 {
		rover.TelemetryFrequency = input.TelemetryFrequency
	}
	if rover.BatteryLevel < 0 || rover.BatteryLevel > 100 {
		return nil, fmt.Errorf("%w: battery level must be within [0,100]", ErrValidation)
	}
	if rover.TelemetryFrequency < minTelemetryFrequency || rover.TelemetryFrequency > maxTelemetryFrequency {
		return nil, fmt.Errorf("%w: telemetry frequency must be within [%d,%d] seconds",
			ErrValidation, minTelemetryFrequency, maxTelemetryFrequency)
	}
	if rover.Capabilities == nil {
		rover.Capabilities = []string{}
	}

	rover, err := s.store.Create(ctx, rover)
	if err != nil {
		return nil, err
	}

	s.logger.Info("rover created",
		zap.String("rover_id", rover.ID),
		zap.String("name", rover.Name),
		zap.String("model", rover.Model),
		zap.String("planet", rover.Location.Planet))
	return rover, nil
}

// Get returns one rover by id.
func (s *RoverService) Get(ctx context.Context, id string) (*models.Rover, error) {
	return s.store.GetByID(ctx, id)
}

// List returns rovers, optionally filtered by status and planet.
func (s *RoverService) List(ctx context.Context, status, planet string) ([]models.Rover, error) {
	filter := repository.RoverFilter{Planet: planet}
	if status != "" {
		st := models.RoverStatus(status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		filter.Status = st
	}
	return s.store.List(ctx, filter)
}

// LowBattery returns active rovers whose battery is below threshold.
func (s *RoverService) LowBattery(ctx context.Context, threshold float64) ([]models.Rover, error) {
	if threshold <= 0 {
		threshold = 25
	}
	return s.store.LowBattery(ctx, threshold)
}

// Update applies a full update to an existing rover.
func (s *RoverService) Update(ctx context.Context, rover *models.Rover) (*models.Rover, error) {
	current, err := s.store.GetByID(ctx, rover.ID)
	if err != nil {
		return nil, err
	}
	if !rover.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, rover.Status)
	}
	if rover.BatteryLevel < 0 || rover.BatteryLevel > 100 {
		return nil, fmt.Errorf("%w: battery level must be within [0,100]", ErrValidation)
	}
	if rover.TelemetryFrequency < minTelemetryFrequency || rover.TelemetryFrequency > maxTelemetryFrequency {
		return nil, fmt.Errorf("%w: telemetry frequency must be within [%d,%d] seconds",
			ErrValidation, minTelemetryFrequency, maxTelemetryFrequency)
	}

	updated, err := s.store.Update(ctx, rover)
	if err != nil {
		return nil, err
	}

	if current.Status != updated.Status {
		s.logger.Info("rover status changed",
			zap.String("rover_id", updated.ID),
			zap.String("name", updated.Name),
			zap.String("from", string(current.Status)),
			zap.String("to", string(updated.Status)))
	}
	return updated, nil
}

// SendCommand simulates dispatching a command to an active rover. The call
// blocks for the simulated uplink round trip and refreshes last contact.
func (s *RoverService) SendCommand(ctx context.Context, roverID, command string) (*CommandResult, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("%w: command is required", ErrValidation)
	}

	rover, err := s.store.GetByID(ctx, roverID)
	if err != nil {
		return nil, err
	}
	if rover.Status != models.RoverStatusActive {
		return nil, fmt.Errorf("%w: rover is %s", ErrRoverNotCommandable, rover.Status)
	}

	// Uplink latency: 100-600ms.
	processing := s.rng.Intn(500) + 100
	s.sleep(time.Duration(processing) * time.Millisecond)

	if err := s.store.RefreshContact(ctx, rover.ID); err != nil {
		return nil, err
	}

	s.logger.Info("command sent to rover",
		zap.String("rover_id", rover.ID),
		zap.String("name", rover.Name),
		zap.String("command", command),
		zap.Int("processing_ms", processing))

	return &CommandResult{
		Success:        true,
		Command:        command,
		Timestamp:      s.now().UTC(),
		RoverID:        rover.ID,
		ProcessingTime: processing,
	}, nil
}
