package scheduler

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"spacerover/backend/services/fleet-service/internal/models"
	"spacerover/backend/services/fleet-service/internal/repository"
)

type fakeRoverStore struct {
	rovers         []models.Rover
	batteryUpdates map[string]float64
	statusUpdates  map[string]models.RoverStatus
	refreshed      map[string]bool
}

func newFakeRoverStore(rovers ...models.Rover) *fakeRoverStore {
	return &fakeRoverStore{
		rovers:         rovers,
		batteryUpdates: map[string]float64{},
		statusUpdates:  map[string]models.RoverStatus{},
		refreshed:      map[string]bool{},
	}
}

func (f *fakeRoverStore) List(_ context.Context, filter repository.RoverFilter) ([]models.Rover, error) {
	var out []models.Rover
	for _, r := range f.rovers {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRoverStore) UpdateBattery(_ context.Context, id string, level float64) error {
	f.batteryUpdates[id] = level
	return nil
}

func (f *fakeRoverStore) UpdateStatus(_ context.Context, id string, status models.RoverStatus, refreshContact bool) error {
	f.statusUpdates[id] = status
	f.refreshed[id] = refreshContact
	return nil
}

type fakeMissionStore struct {
	missions []models.Mission
	updated  []models.Mission
}

func (f *fakeMissionStore) ListActive(context.Context) ([]models.Mission, error) {
	return f.missions, nil
}

func (f *fakeMissionStore) Update(_ context.Context, m *models.Mission) (*models.Mission, error) {
	f.updated = append(f.updated, *m)
	return m, nil
}

type fakeAuditor struct {
	count  int64
	cutoff time.Time
}

func (f *fakeAuditor) CountOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.count, nil
}

type scriptedRand struct {
	draws []float64
	pos   int
}

func (s *scriptedRand) Float64() float64 {
	if s.pos >= len(s.draws) {
		return 0.999999
	}
	v := s.draws[s.pos]
	s.pos++
	return v
}

func (s *scriptedRand) Intn(n int) int { return 0 }

func newScheduler(t *testing.T, rovers *fakeRoverStore, missions *fakeMissionStore, auditor *fakeAuditor, rng *scriptedRand, now time.Time) *Scheduler {
	t.Helper()
	s, err := New(zap.NewNop(), nil, rovers, missions, auditor, rng)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.now = func() time.Time { return now }
	s.startedAt = now.Add(-100 * time.Hour)
	return s
}

func TestUpdateBatteriesPersistsOnlyMeaningfulChanges(t *testing.T) {
	noon := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeRoverStore(
		models.Rover{ID: "r1", Status: models.RoverStatusActive, BatteryLevel: 50},
		models.Rover{ID: "r2", Status: models.RoverStatusActive, BatteryLevel: 50},
		models.Rover{ID: "r3", Status: models.RoverStatusInactive, BatteryLevel: 50},
	)
	// r1 charges by 1.0, r2 by 0.04 (rounds to 0, below the delta).
	rng := &scriptedRand{draws: []float64{0.5, 0.02}}
	s := newScheduler(t, store, &fakeMissionStore{}, &fakeAuditor{}, rng, noon)

	if err := s.updateBatteries(context.Background()); err != nil {
		t.Fatalf("updateBatteries: %v", err)
	}

	if got, ok := store.batteryUpdates["r1"]; !ok || got != 51 {
		t.Errorf("r1 battery = %v (persisted %v), want 51", got, ok)
	}
	if _, ok := store.batteryUpdates["r2"]; ok {
		t.Error("r2 persisted despite sub-threshold change")
	}
	if _, ok := store.batteryUpdates["r3"]; ok {
		t.Error("inactive rover r3 was updated")
	}
}

func TestCheckRoverHealthMarksSilentRoverLost(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeRoverStore(
		models.Rover{ID: "silent", Status: models.RoverStatusActive, BatteryLevel: 80, LastContact: now.Add(-6 * time.Hour)},
		models.Rover{ID: "healthy", Status: models.RoverStatusActive, BatteryLevel: 80, LastContact: now.Add(-10 * time.Minute)},
	)
	s := newScheduler(t, store, &fakeMissionStore{}, &fakeAuditor{}, &scriptedRand{}, now)

	if err := s.checkRoverHealth(context.Background()); err != nil {
		t.Fatalf("checkRoverHealth: %v", err)
	}

	if got := store.statusUpdates["silent"]; got != models.RoverStatusLostSignal {
		t.Errorf("silent rover status = %s, want lost_signal", got)
	}
	if _, ok := store.statusUpdates["healthy"]; ok {
		t.Error("healthy rover status was updated")
	}
}

func TestCheckRoverHealthSilenceGuardedByUptime(t *testing.T) {
	// 3h of silence, but the process started 2h ago: the observed contact gap
	// does not exceed two hours yet, so no lost-signal move.
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeRoverStore(
		models.Rover{ID: "silent", Status: models.RoverStatusActive, BatteryLevel: 80, LastContact: now.Add(-3 * time.Hour)},
	)
	s := newScheduler(t, store, &fakeMissionStore{}, &fakeAuditor{}, &scriptedRand{}, now)
	s.startedAt = now.Add(-2 * time.Hour)

	if err := s.checkRoverHealth(context.Background()); err != nil {
		t.Fatalf("checkRoverHealth: %v", err)
	}
	if _, ok := store.statusUpdates["silent"]; ok {
		t.Error("silence rule fired inside the uptime guard window")
	}
}

func TestCheckRoverHealthStochasticRecoveryRefreshesContact(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeRoverStore(
		models.Rover{ID: "lost", Status: models.RoverStatusLostSignal, BatteryLevel: 80, LastContact: now.Add(-6 * time.Hour)},
	)
	s := newScheduler(t, store, &fakeMissionStore{}, &fakeAuditor{}, &scriptedRand{draws: []float64{0.1}}, now)

	if err := s.checkRoverHealth(context.Background()); err != nil {
		t.Fatalf("checkRoverHealth: %v", err)
	}
	if got := store.statusUpdates["lost"]; got != models.RoverStatusActive {
		t.Errorf("status = %s, want active", got)
	}
	if !store.refreshed["lost"] {
		t.Error("recovery did not refresh last contact")
	}
}

func TestAdvanceMissionsPersistsOnlyChanged(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	missions := &fakeMissionStore{missions: []models.Mission{
		{ID: "m1", Status: models.MissionStatusActive, Objectives: []models.Objective{{Title: "a", Completed: false}}},
		{ID: "m2", Status: models.MissionStatusActive, Objectives: []models.Objective{{Title: "b", Completed: false}}},
	}}
	// m1's objective flips (draw below 0.05), m2's does not.
	rng := &scriptedRand{draws: []float64{0.01, 0.9}}
	s := newScheduler(t, newFakeRoverStore(), missions, &fakeAuditor{}, rng, now)

	if err := s.advanceMissions(context.Background()); err != nil {
		t.Fatalf("advanceMissions: %v", err)
	}

	if len(missions.updated) != 1 {
		t.Fatalf("updated %d missions, want 1", len(missions.updated))
	}
	got := missions.updated[0]
	if got.ID != "m1" || got.Status != models.MissionStatusCompleted {
		t.Errorf("updated mission = %s status %s, want m1 completed", got.ID, got.Status)
	}
}

func TestScheduleMaintenancePullsActiveRover(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeRoverStore(
		models.Rover{ID: "r1", Status: models.RoverStatusActive},
		models.Rover{ID: "r2", Status: models.RoverStatusActive},
	)
	rng := &scriptedRand{draws: []float64{0.01, 0.9}}
	s := newScheduler(t, store, &fakeMissionStore{}, &fakeAuditor{}, rng, now)

	if err := s.scheduleMaintenance(context.Background()); err != nil {
		t.Fatalf("scheduleMaintenance: %v", err)
	}

	if got := store.statusUpdates["r1"]; got != models.RoverStatusMaintenance {
		t.Errorf("r1 status = %s, want maintenance", got)
	}
	if _, ok := store.statusUpdates["r2"]; ok {
		t.Error("r2 pulled into maintenance despite high draw")
	}
}

func TestSweepReadingsUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	auditor := &fakeAuditor{count: 7}
	s := newScheduler(t, newFakeRoverStore(), &fakeMissionStore{}, auditor, &scriptedRand{}, now)

	if err := s.sweepReadings(context.Background()); err != nil {
		t.Fatalf("sweepReadings: %v", err)
	}

	want := now.Add(-readingRetention)
	if !auditor.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", auditor.cutoff, want)
	}
}
