// Package scheduler wires the fleet background jobs onto the shared schedule
// runner. Each job reads entities, applies the pure transition rules and
// writes back only what changed. Jobs race with the ingest path by design;
// every write is a small idempotent transition on scalar fields, so the last
// writer wins and the next tick converges.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"spacerover/backend/libs/randx"
	"spacerover/backend/libs/schedule"
	"spacerover/backend/services/fleet-service/internal/models"
	"spacerover/backend/services/fleet-service/internal/repository"
	"spacerover/backend/services/fleet-service/internal/rules"
)

// Job intervals. Distinct on purpose so the jobs drift apart instead of
// piling onto the same tick.
const (
	batteryInterval     = 2 * time.Minute
	missionInterval     = 5 * time.Minute
	healthInterval      = 3 * time.Minute
	maintenanceInterval = 7 * time.Minute
	cleanupInterval     = 15 * time.Minute

	readingRetention = 30 * 24 * time.Hour
)

// RoverStore is the slice of rover persistence the jobs need.
type RoverStore interface {
	List(ctx context.Context, filter repository.RoverFilter) ([]models.Rover, error)
	UpdateBattery(ctx context.Context, id string, level float64) error
	UpdateStatus(ctx context.Context, id string, status models.RoverStatus, refreshContact bool) error
}

// MissionStore is the slice of mission persistence the jobs need.
type MissionStore interface {
	ListActive(ctx context.Context) ([]models.Mission, error)
	Update(ctx context.Context, mission *models.Mission) (*models.Mission, error)
}

// ReadingAuditor counts stale telemetry readings for the cleanup sweep.
type ReadingAuditor interface {
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler owns the five fleet jobs.
type Scheduler struct {
	runner   *schedule.Runner
	logger   *zap.Logger
	sink     schedule.Sink
	rovers   RoverStore
	missions MissionStore
	auditor  ReadingAuditor
	rng      randx.Rand

	now       func() time.Time
	startedAt time.Time
}

// New builds the scheduler with all jobs registered but not started.
func New(logger *zap.Logger, sink schedule.Sink, rovers RoverStore, missions MissionStore, auditor ReadingAuditor, rng randx.Rand) (*Scheduler, error) {
	s := &Scheduler{
		runner:   schedule.NewRunner(logger, sink),
		logger:   logger,
		sink:     sink,
		rovers:   rovers,
		missions: missions,
		auditor:  auditor,
		rng:      rng,
		now:      time.Now,
	}

	jobs := []schedule.Job{
		{Name: "battery_update", Interval: batteryInterval, Run: s.updateBatteries},
		{Name: "mission_progress", Interval: missionInterval, Run: s.advanceMissions},
		{Name: "rover_health_check", Interval: healthInterval, Run: s.checkRoverHealth},
		{Name: "maintenance_scheduler", Interval: maintenanceInterval, Run: s.scheduleMaintenance},
		{Name: "data_cleanup", Interval: cleanupInterval, Run: s.sweepReadings},
	}
	for _, job := range jobs {
		if err := s.runner.Add(job); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Start launches all jobs.
func (s *Scheduler) Start(ctx context.Context) {
	s.startedAt = s.now()
	s.runner.Start(ctx)
}

// Stop halts all jobs and waits for in-flight runs.
func (s *Scheduler) Stop() {
	s.runner.Stop()
}

func (s *Scheduler) uptimeHours() float64 {
	return s.now().Sub(s.startedAt).Hours()
}

// updateBatteries applies the solar charge/drain model to every active rover.
func (s *Scheduler) updateBatteries(ctx context.Context) error {
	rovers, err := s.rovers.List(ctx, repository.RoverFilter{Status: models.RoverStatusActive})
	if err != nil {
		return err
	}

	hour := s.now().Hour()
	for i := range rovers {
		rover := &rovers[i]
		next := rules.NextBatteryLevel(rover.BatteryLevel, hour, s.rng)
		if !rules.MeaningfulBatteryChange(rover.BatteryLevel, next) {
			continue
		}
		if err := s.rovers.UpdateBattery(ctx, rover.ID, next); err != nil {
			s.logger.Error("battery update failed",
				zap.String("rover_id", rover.ID), zap.Error(err))
			continue
		}
		s.event("rover_battery_updated")
		s.logger.Debug("rover battery updated",
			zap.String("rover_id", rover.ID),
			zap.Float64("from", rover.BatteryLevel),
			zap.Float64("to", next))
	}
	return nil
}

// advanceMissions rolls mission objectives forward for every active mission.
func (s *Scheduler) advanceMissions(ctx context.Context) error {
	missions, err := s.missions.ListActive(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for i := range missions {
		progress := rules.NextMissionState(missions[i], now, s.rng)
		if !progress.Changed {
			continue
		}
		if _, err := s.missions.Update(ctx, &progress.Mission); err != nil {
			s.logger.Error("mission progress update failed",
				zap.String("mission_id", missions[i].ID), zap.Error(err))
			continue
		}
		for _, title := range progress.ObjectivesCompleted {
			s.event("mission_objective_completed")
			s.logger.Info("mission objective completed",
				zap.String("mission_id", progress.Mission.ID),
				zap.String("objective", title))
		}
		if progress.Completed {
			s.event("mission_completed")
			s.logger.Info("mission completed",
				zap.String("mission_id", progress.Mission.ID),
				zap.String("name", progress.Mission.Name))
		}
	}
	return nil
}

// checkRoverHealth evaluates the signal-loss and battery rules for every
// rover regardless of status.
func (s *Scheduler) checkRoverHealth(ctx context.Context) error {
	rovers, err := s.rovers.List(ctx, repository.RoverFilter{})
	if err != nil {
		return err
	}

	now := s.now()
	uptime := s.uptimeHours()
	for i := range rovers {
		rover := &rovers[i]
		hoursSinceContact := now.Sub(rover.LastContact).Hours()
		eval := rules.NextRoverStatus(rover.Status, rover.BatteryLevel, hoursSinceContact, uptime, s.rng)
		if !eval.Changed {
			continue
		}
		if err := s.rovers.UpdateStatus(ctx, rover.ID, eval.Status, eval.RefreshContact); err != nil {
			s.logger.Error("rover status update failed",
				zap.String("rover_id", rover.ID), zap.Error(err))
			continue
		}
		s.event("rover_status_changed")
		s.logger.Info("rover status changed",
			zap.String("rover_id", rover.ID),
			zap.String("from", string(rover.Status)),
			zap.String("to", string(eval.Status)),
			zap.String("reason", eval.Reason))
	}
	return nil
}

// scheduleMaintenance occasionally pulls an active rover into maintenance.
func (s *Scheduler) scheduleMaintenance(ctx context.Context) error {
	rovers, err := s.rovers.List(ctx, repository.RoverFilter{Status: models.RoverStatusActive})
	if err != nil {
		return err
	}

	for i := range rovers {
		rover := &rovers[i]
		if !rules.ScheduleMaintenance(rover.Status, s.rng) {
			continue
		}
		if err := s.rovers.UpdateStatus(ctx, rover.ID, models.RoverStatusMaintenance, false); err != nil {
			s.logger.Error("maintenance scheduling failed",
				zap.String("rover_id", rover.ID), zap.Error(err))
			continue
		}
		s.event("rover_maintenance_scheduled")
		s.logger.Info("rover scheduled for maintenance",
			zap.String("rover_id", rover.ID))
	}
	return nil
}

// sweepReadings is a read-only maintenance window: it reports how many
// readings have aged past the retention window without mutating anything.
func (s *Scheduler) sweepReadings(ctx context.Context) error {
	start := s.now()
	cutoff := start.Add(-readingRetention)
	count, err := s.auditor.CountOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	s.metric("stale_readings", float64(count))
	s.logger.Info("cleanup sweep completed",
		zap.Int64("stale_readings", count),
		zap.Time("cutoff", cutoff),
		zap.Duration("elapsed", s.now().Sub(start)))
	return nil
}

func (s *Scheduler) event(name string) {
	if s.sink != nil {
		s.sink.Event(name)
	}
}

func (s *Scheduler) metric(name string, value float64) {
	if s.sink != nil {
		s.sink.Metric(name, value)
	}
}
