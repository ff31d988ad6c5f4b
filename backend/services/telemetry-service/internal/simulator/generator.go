// Package simulator produces synthetic telemetry for active rovers. Each tick
// walks every active rover's previous reading forward with small random
// perturbations, persists the new reading and pushes it through the same
// publish path real packets take.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spacerover/backend/libs/monitor"
	"spacerover/backend/libs/randx"
	"spacerover/backend/libs/schedule"
	"spacerover/backend/services/telemetry-service/internal/models"
	"spacerover/backend/services/telemetry-service/internal/repository"
)

// DefaultInterval is the generation cadence.
const DefaultInterval = 15 * time.Second

const (
	tempSpikeChance     = 0.05
	cpuSpikeChance      = 0.1
	memoryDropChance    = 0.1
	signalDropChance    = 0.05
	subsystemHoldChance = 0.95
	errorChance         = 0.08
	secondErrorChance   = 0.2
)

// errorCatalog is the set of faults rovers can report.
var errorCatalog = []models.ReadingError{
	{Code: "E001", Message: "Memory allocation failure", Severity: "high"},
	{Code: "E002", Message: "Sensor calibration error", Severity: "medium"},
	{Code: "E003", Message: "Communication timeout", Severity: "medium"},
	{Code: "E004", Message: "Power system fluctuation", Severity: "high"},
	{Code: "E005", Message: "Navigation system error", Severity: "high"},
	{Code: "E006", Message: "Thermal regulation failure", Severity: "critical"},
	{Code: "E007", Message: "Motor control error", Severity: "medium"},
	{Code: "E008", Message: "Disk write failure", Severity: "low"},
	{Code: "E009", Message: "Camera system error", Severity: "low"},
	{Code: "E010", Message: "Battery management system alert", Severity: "high"},
}

// ReadingStore is the reading surface the generator needs.
type ReadingStore interface {
	Insert(ctx context.Context, reading *models.TelemetryReading) error
	LatestByRover(ctx context.Context, roverID string) (*models.TelemetryReading, error)
}

// RoverStore is the rover surface the generator needs.
type RoverStore interface {
	ListActive(ctx context.Context) ([]models.Rover, error)
	ApplyReading(ctx context.Context, id string, battery, temperature *float64, coords *models.Coordinates) error
}

// Publisher pushes a persisted reading to the cache and live subscribers.
type Publisher interface {
	Publish(ctx context.Context, reading models.TelemetryReading)
}

// Generator drives the periodic telemetry walk.
type Generator struct {
	readings  ReadingStore
	rovers    RoverStore
	publisher Publisher
	logger    *zap.Logger
	rng       randx.Rand
	subsystem *randx.WeightedChooser[models.SubsystemState]
	runner    *schedule.Runner
	now       func() time.Time
}

// New builds a generator ticking at interval. publisher may be nil.
func New(logger *zap.Logger, sink monitor.Sink, readings ReadingStore, rovers RoverStore, publisher Publisher, rng randx.Rand, interval time.Duration) (*Generator, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	subsystem, err := randx.NewWeightedChooser(
		[]models.SubsystemState{
			models.SubsystemNominal,
			models.SubsystemNominal,
			models.SubsystemNominal,
			models.SubsystemDegraded,
			models.SubsystemCritical,
		},
		[]float64{0.8, 0.1, 0.05, 0.03, 0.02},
	)
	if err != nil {
		return nil, err
	}

	g := &Generator{
		readings:  readings,
		rovers:    rovers,
		publisher: publisher,
		logger:    logger,
		rng:       rng,
		subsystem: subsystem,
		now:       time.Now,
	}

	runner := schedule.NewRunner(logger, sink)
	if err := runner.Add(schedule.Job{
		Name:     "telemetry_generator",
		Interval: interval,
		Run:      g.tick,
	}); err != nil {
		return nil, err
	}
	g.runner = runner
	return g, nil
}

// Start launches the generation loop.
func (g *Generator) Start(ctx context.Context) {
	g.logger.Info("starting telemetry generation")
	g.runner.Start(ctx)
}

// Stop halts the loop and waits for an in-flight tick.
func (g *Generator) Stop() {
	g.runner.Stop()
	g.logger.Info("stopped telemetry generation")
}

func (g *Generator) tick(ctx context.Context) error {
	rovers, err := g.rovers.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active rovers: %w", err)
	}
	if len(rovers) == 0 {
		g.logger.Info("no active rovers, skipping telemetry generation")
		return nil
	}

	for _, rover := range rovers {
		if _, err := g.GenerateForRover(ctx, rover); err != nil {
			g.logger.Error("failed to generate telemetry",
				zap.String("rover_id", rover.ID),
				zap.String("rover_name", rover.Name),
				zap.Error(err))
		}
	}

	g.logger.Info("generated telemetry", zap.Int("rover_count", len(rovers)))
	return nil
}

// GenerateForRover walks one rover's telemetry forward a single step, persists
// the reading and applies it back to the rover record.
func (g *Generator) GenerateForRover(ctx context.Context, rover models.Rover) (*models.TelemetryReading, error) {
	previous, err := g.readings.LatestByRover(ctx, rover.ID)
	if err != nil && !errors.Is(err, repository.ErrNoReadings) {
		return nil, fmt.Errorf("load previous reading: %w", err)
	}

	now := g.now().UTC()
	reading := &models.TelemetryReading{
		ID:        uuid.NewString(),
		RoverID:   rover.ID,
		Timestamp: now,
		Location: models.Location{
			Planet:      rover.Location.Planet,
			Coordinates: g.nextCoordinates(rover, previous),
		},
		BatteryLevel:       g.nextBattery(rover, previous, now.Hour()),
		TemperatureC:       g.nextTemperature(rover, previous, now.Hour()),
		CPUUtilization:     g.nextCPU(),
		MemoryUtilization:  g.nextMemory(previous),
		DiskSpaceRemaining: g.nextDiskSpace(previous),
		SignalStrength:     g.nextSignal(),
		SensorReadings:     g.sensorReadings(rover),
		SystemStatus:       g.nextSystemStatus(previous),
		Errors:             g.randomErrors(now),
	}

	if err := g.readings.Insert(ctx, reading); err != nil {
		return nil, fmt.Errorf("insert reading: %w", err)
	}

	battery := reading.BatteryLevel
	temperature := reading.TemperatureC
	coords := reading.Location.Coordinates
	if err := g.rovers.ApplyReading(ctx, rover.ID, &battery, &temperature, &coords); err != nil {
		return nil, fmt.Errorf("apply reading to rover: %w", err)
	}

	if g.publisher != nil {
		g.publisher.Publish(ctx, *reading)
	}

	g.logger.Debug("generated telemetry for rover",
		zap.String("rover_id", rover.ID),
		zap.String("telemetry_id", reading.ID))
	return reading, nil
}

// nextBattery drains slowly at night and charges during solar hours.
func (g *Generator) nextBattery(rover models.Rover, previous *models.TelemetryReading, hour int) float64 {
	prev := rover.BatteryLevel
	if previous != nil {
		prev = previous.BatteryLevel
	}

	change := g.rng.Float64()*0.5 - 0.3
	if hour >= 8 && hour <= 16 {
		change = g.rng.Float64() * 0.8
	}

	next := math.Max(0, math.Min(100, prev+change))
	return round1(next)
}

func (g *Generator) nextTemperature(rover models.Rover, previous *models.TelemetryReading, hour int) float64 {
	prev := rover.TemperatureC
	if previous != nil {
		prev = previous.TemperatureC
	}

	change := g.rng.Float64()*2 - 1
	if hour >= 10 && hour <= 14 {
		change += 0.5
	} else if hour >= 0 && hour <= 4 {
		change -= 0.5
	}

	// Occasional thermal event overrides the diurnal walk.
	if g.rng.Float64() < tempSpikeChance {
		change = g.rng.Float64()*5 + 2
	}

	return round1(prev + change)
}

func (g *Generator) nextCPU() float64 {
	base := 20 + g.rng.Float64()*10
	if g.rng.Float64() < cpuSpikeChance {
		return math.Min(100, base+g.rng.Float64()*40)
	}
	return round1(base)
}

func (g *Generator) nextMemory(previous *models.TelemetryReading) float64 {
	prev := 50.0
	if previous != nil {
		prev = previous.MemoryUtilization
	}

	var next float64
	if prev > 80 || g.rng.Float64() < memoryDropChance {
		next = prev - g.rng.Float64()*15
	} else {
		next = prev + g.rng.Float64()*2
	}

	return round1(math.Max(20, math.Min(95, next)))
}

func (g *Generator) nextDiskSpace(previous *models.TelemetryReading) float64 {
	prev := 1000.0
	if previous != nil {
		prev = previous.DiskSpaceRemaining
	}
	return math.Max(0, math.Round(prev-g.rng.Float64()*2))
}

func (g *Generator) nextCoordinates(rover models.Rover, previous *models.TelemetryReading) models.Coordinates {
	prev := rover.Location.Coordinates
	if previous != nil {
		prev = previous.Location.Coordinates
	}

	var distance float64
	if rover.Status == models.RoverStatusActive {
		distance = g.rng.Float64() * 0.02
	}

	angle := g.rng.Float64() * 2 * math.Pi
	return models.Coordinates{
		X: round6(prev.X + distance*math.Cos(angle)),
		Y: round6(prev.Y + distance*math.Sin(angle)),
	}
}

func (g *Generator) nextSignal() float64 {
	base := 70 + g.rng.Float64()*20
	if g.rng.Float64() < signalDropChance {
		return math.Max(5, base-g.rng.Float64()*40)
	}
	return round1(base)
}

func (g *Generator) sensorReadings(rover models.Rover) map[string]any {
	readings := make(map[string]any)

	if rover.HasCapability("weather") {
		readings["windSpeed"] = round1(g.rng.Float64() * 15)
		readings["pressure"] = round1(700 + g.rng.Float64()*50)
		readings["humidity"] = round1(g.rng.Float64() * 100)
	}
	if rover.HasCapability("spectroscopy") {
		readings["mineralContent"] = map[string]float64{
			"iron":      round1(g.rng.Float64() * 100),
			"silicon":   round1(g.rng.Float64() * 100),
			"aluminum":  round1(g.rng.Float64() * 100),
			"calcium":   round1(g.rng.Float64() * 100),
			"magnesium": round1(g.rng.Float64() * 100),
		}
	}
	if rover.HasCapability("imaging") {
		readings["lightLevel"] = round1(g.rng.Float64() * 100)
		readings["imagesTaken"] = g.rng.Intn(10)
	}

	return readings
}

// nextSystemStatus keeps each subsystem state 95% of the time and otherwise
// redraws it from the weighted distribution.
func (g *Generator) nextSystemStatus(previous *models.TelemetryReading) models.SystemStatus {
	prev := models.NominalSystemStatus()
	if previous != nil {
		prev = previous.SystemStatus
	}

	next := func(current models.SubsystemState) models.SubsystemState {
		if g.rng.Float64() < subsystemHoldChance {
			return current
		}
		return g.subsystem.Choose(g.rng)
	}

	return models.SystemStatus{
		MainComputer:        next(prev.MainComputer),
		NavigationSystem:    next(prev.NavigationSystem),
		CommunicationSystem: next(prev.CommunicationSystem),
		PowerSystem:         next(prev.PowerSystem),
		MobilitySystem:      next(prev.MobilitySystem),
	}
}

func (g *Generator) randomErrors(now time.Time) []models.ReadingError {
	errs := []models.ReadingError{}
	if g.rng.Float64() >= errorChance {
		return errs
	}

	first := errorCatalog[g.rng.Intn(len(errorCatalog))]
	first.Timestamp = now
	errs = append(errs, first)

	if g.rng.Float64() < secondErrorChance {
		second := errorCatalog[g.rng.Intn(len(errorCatalog))]
		if second.Code != first.Code {
			second.Timestamp = now
			errs = append(errs, second)
		}
	}

	return errs
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
