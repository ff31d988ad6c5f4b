package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spacerover/backend/libs/monitor"
	"spacerover/backend/services/telemetry-service/internal/models"
)

// ErrValidation marks rejected input.
var ErrValidation = errors.New("validation failed")

// Thresholds that flip a rover into critical status on ingest.
const (
	criticalBatteryLevel = 10.0
	criticalTempHigh     = 80.0
	criticalTempLow      = -40.0
	weakSignalStrength   = 15.0
	signalLossStrength   = 5.0
)

// ReadingStore persists telemetry readings.
type ReadingStore interface {
	Insert(ctx context.Context, reading *models.TelemetryReading) error
}

// RoverStore is the rover surface ingest needs.
type RoverStore interface {
	GetByID(ctx context.Context, id string) (*models.Rover, error)
	ApplyReading(ctx context.Context, id string, battery, temperature *float64, coords *models.Coordinates) error
	UpdateStatus(ctx context.Context, id string, status models.RoverStatus) error
}

// LatestCache caches a rover's most recent reading.
type LatestCache interface {
	Save(ctx context.Context, reading models.TelemetryReading) error
}

// Broadcaster pushes events to live subscribers.
type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

// IngestInput is one telemetry packet as reported by a rover. Pointer fields
// distinguish absent values from genuine zeroes.
type IngestInput struct {
	RoverID            string
	Timestamp          *time.Time
	BatteryLevel       *float64
	TemperatureC       *float64
	CPUUtilization     *float64
	MemoryUtilization  *float64
	DiskSpaceRemaining *float64
	Location           *models.Location
	SignalStrength     *float64
	SensorReadings     map[string]any
	SystemStatus       *models.SystemStatus
	Errors             []models.ReadingError
}

// RoverStatusSummary describes the rover after a packet was applied.
type RoverStatusSummary struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Status        models.RoverStatus `json:"status"`
	StatusChanged bool               `json:"statusChanged"`
	StatusMessage string             `json:"statusMessage,omitempty"`
}

// IngestResult is returned to the reporting rover.
type IngestResult struct {
	Success     bool               `json:"success"`
	TelemetryID string             `json:"telemetryId"`
	Timestamp   time.Time          `json:"timestamp"`
	RoverStatus RoverStatusSummary `json:"roverStatus"`
}

// IngestService turns raw telemetry packets into stored readings and rover
// state updates.
type IngestService struct {
	readings  ReadingStore
	rovers    RoverStore
	cache     LatestCache
	broadcast Broadcaster
	sink      monitor.Sink
	logger    *zap.Logger
	now       func() time.Time
}

// NewIngestService builds the service. cache and broadcast may be nil.
func NewIngestService(readings ReadingStore, rovers RoverStore, cache LatestCache, broadcast Broadcaster, sink monitor.Sink, logger *zap.Logger) *IngestService {
	if sink == nil {
		sink = monitor.NopSink{}
	}
	return &IngestService{
		readings:  readings,
		rovers:    rovers,
		cache:     cache,
		broadcast: broadcast,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
	}
}

// Process validates and persists one packet, updates the rover's last known
// state and flips it between active and critical based on what the packet
// reports. Nothing is persisted for unknown rovers.
func (s *IngestService) Process(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if input.RoverID == "" {
		return nil, fmt.Errorf("%w: rover id is required", ErrValidation)
	}

	rover, err := s.rovers.GetByID(ctx, input.RoverID)
	if err != nil {
		return nil, err
	}

	reading := s.buildReading(input)
	if err := s.readings.Insert(ctx, reading); err != nil {
		return nil, fmt.Errorf("insert reading: %w", err)
	}

	var coords *models.Coordinates
	if input.Location != nil {
		coords = &input.Location.Coordinates
	}
	if err := s.rovers.ApplyReading(ctx, rover.ID, input.BatteryLevel, input.TemperatureC, coords); err != nil {
		return nil, fmt.Errorf("apply reading to rover: %w", err)
	}

	critical, statusMessage := evaluateCriticalConditions(input)

	statusChanged := false
	status := rover.Status
	if critical && status != models.RoverStatusCritical {
		status = models.RoverStatusCritical
		statusChanged = true
	} else if !critical && status == models.RoverStatusCritical {
		status = models.RoverStatusActive
		statusChanged = true
	}
	if statusChanged {
		if err := s.rovers.UpdateStatus(ctx, rover.ID, status); err != nil {
			return nil, fmt.Errorf("update rover status: %w", err)
		}
		s.sink.Event("rover_status_changed")
		s.logger.Warn("rover status changed",
			zap.String("rover_id", rover.ID),
			zap.String("rover_name", rover.Name),
			zap.String("new_status", string(status)),
			zap.String("reason", statusMessage),
		)
	}

	s.publish(ctx, *reading)
	s.sink.Event("telemetry_ingested")
	s.logger.Info("processed telemetry packet",
		zap.String("rover_id", rover.ID),
		zap.String("rover_name", rover.Name),
		zap.String("telemetry_id", reading.ID),
	)

	result := &IngestResult{
		Success:     true,
		TelemetryID: reading.ID,
		Timestamp:   reading.Timestamp,
		RoverStatus: RoverStatusSummary{
			ID:            rover.ID,
			Name:          rover.Name,
			Status:        status,
			StatusChanged: statusChanged,
		},
	}
	if statusChanged {
		result.RoverStatus.StatusMessage = statusMessage
	}
	return result, nil
}

// Publish caches and broadcasts a reading that is already persisted. The
// generator reuses this path so live subscribers see synthetic readings too.
func (s *IngestService) Publish(ctx context.Context, reading models.TelemetryReading) {
	s.publish(ctx, reading)
}

func (s *IngestService) publish(ctx context.Context, reading models.TelemetryReading) {
	if s.cache != nil {
		if err := s.cache.Save(ctx, reading); err != nil {
			s.logger.Warn("failed to cache latest reading",
				zap.String("rover_id", reading.RoverID), zap.Error(err))
		}
	}
	if s.broadcast != nil {
		s.broadcast.Broadcast("telemetry", reading)
	}
}

func (s *IngestService) buildReading(input IngestInput) *models.TelemetryReading {
	reading := &models.TelemetryReading{
		ID:             uuid.NewString(),
		RoverID:        input.RoverID,
		Timestamp:      s.now().UTC(),
		SensorReadings: input.SensorReadings,
		Errors:         input.Errors,
	}
	if input.Timestamp != nil {
		reading.Timestamp = input.Timestamp.UTC()
	}
	if input.BatteryLevel != nil {
		reading.BatteryLevel = *input.BatteryLevel
	}
	if input.TemperatureC != nil {
		reading.TemperatureC = *input.TemperatureC
	}
	if input.CPUUtilization != nil {
		reading.CPUUtilization = *input.CPUUtilization
	}
	if input.MemoryUtilization != nil {
		reading.MemoryUtilization = *input.MemoryUtilization
	}
	if input.DiskSpaceRemaining != nil {
		reading.DiskSpaceRemaining = *input.DiskSpaceRemaining
	}
	if input.Location != nil {
		reading.Location = *input.Location
	}
	if input.SignalStrength != nil {
		reading.SignalStrength = *input.SignalStrength
	}
	if input.SystemStatus != nil {
		reading.SystemStatus = *input.SystemStatus
	} else {
		reading.SystemStatus = models.NominalSystemStatus()
	}
	if reading.Errors == nil {
		reading.Errors = []models.ReadingError{}
	}
	return reading
}

// evaluateCriticalConditions checks a packet for anything that warrants
// flipping the rover to critical. When several conditions hold the last one
// checked supplies the message.
func evaluateCriticalConditions(input IngestInput) (bool, string) {
	critical := false
	message := ""

	if input.BatteryLevel != nil && *input.BatteryLevel < criticalBatteryLevel {
		message = "Critical battery level"
		critical = true
	}
	if input.TemperatureC != nil && (*input.TemperatureC > criticalTempHigh || *input.TemperatureC < criticalTempLow) {
		message = "Critical temperature"
		critical = true
	}
	for _, readingErr := range input.Errors {
		if readingErr.Severity == "critical" {
			message = fmt.Sprintf("Critical error: %s", readingErr.Message)
			critical = true
			break
		}
	}
	if input.SignalStrength != nil && *input.SignalStrength < weakSignalStrength {
		message = "Weak signal strength"
		critical = true
		if *input.SignalStrength < signalLossStrength {
			message = "Signal loss imminent"
		}
	}

	return critical, message
}
