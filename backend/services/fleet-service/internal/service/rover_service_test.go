package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"spacerover/backend/services/fleet-service/internal/models"
	"spacerover/backend/services/fleet-service/internal/repository"
)

type fakeRoverStore struct {
	rovers    map[string]*models.Rover
	created   []*models.Rover
	refreshed []string
}

func newFakeRoverStore(rovers ...*models.Rover) *fakeRoverStore {
	f := &fakeRoverStore{rovers: map[string]*models.Rover{}}
	for _, r := range rovers {
		f.rovers[r.ID] = r
	}
	return f
}

func (f *fakeRoverStore) Create(_ context.Context, rover *models.Rover) (*models.Rover, error) {
	f.created = append(f.created, rover)
	f.rovers[rover.ID] = rover
	return rover, nil
}

func (f *fakeRoverStore) GetByID(_ context.Context, id string) (*models.Rover, error) {
	rover, ok := f.rovers[id]
	if !ok {
		return nil, repository.ErrRoverNotFound
	}
	copied := *rover
	return &copied, nil
}

func (f *fakeRoverStore) List(_ context.Context, filter repository.RoverFilter) ([]models.Rover, error) {
	var out []models.Rover
	for _, r := range f.rovers {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRoverStore) LowBattery(_ context.Context, threshold float64) ([]models.Rover, error) {
	var out []models.Rover
	for _, r := range f.rovers {
		if r.Status == models.RoverStatusActive && r.BatteryLevel < threshold {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRoverStore) Update(_ context.Context, rover *models.Rover) (*models.Rover, error) {
	if _, ok := f.rovers[rover.ID]; !ok {
		return nil, repository.ErrRoverNotFound
	}
	f.rovers[rover.ID] = rover
	return rover, nil
}

func (f *fakeRoverStore) RefreshContact(_ context.Context, id string) error {
	if _, ok := f.rovers[id]; !ok {
		return repository.ErrRoverNotFound
	}
	f.refreshed = append(f.refreshed, id)
	return nil
}

type fixedRand struct{ f float64 }

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) Intn(n int) int   { return n / 2 }

func newRoverService(store *fakeRoverStore) *RoverService {
	svc := NewRoverService(store, fixedRand{f: 0.5}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	svc.sleep = func(time.Duration) {}
	return svc
}

func TestCreateRoverAppliesDefaults(t *testing.T) {
	store := newFakeRoverStore()
	svc := newRoverService(store)

	rover, err := svc.Create(context.Background(), CreateRoverInput{
		Name:     "Pathfinder II",
		Model:    "PF-2",
		Location: models.Location{Planet: "Mars"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if rover.ID == "" {
		t.Error("no id assigned")
	}
	if rover.Status != models.RoverStatusInactive {
		t.Errorf("status = %s, want inactive", rover.Status)
	}
	if rover.BatteryLevel != 100 {
		t.Errorf("battery = %v, want 100", rover.BatteryLevel)
	}
	if rover.TelemetryFrequency != 60 {
		t.Errorf("telemetry frequency = %d, want 60", rover.TelemetryFrequency)
	}
	if rover.LastContact.IsZero() {
		t.Error("last contact not set")
	}
}

func TestCreateRoverValidation(t *testing.T) {
	svc := newRoverService(newFakeRoverStore())
	battery := 150.0

	cases := []struct {
		name  string
		input CreateRoverInput
	}{
		{"missing name", CreateRoverInput{Location: models.Location{Planet: "Mars"}}},
		{"missing planet", CreateRoverInput{Name: "r"}},
		{"bad status", CreateRoverInput{Name: "r", Location: models.Location{Planet: "Mars"}, Status: "exploded"}},
		{"battery out of range", CreateRoverInput{Name: "r", Location: models.Location{Planet: "Mars"}, BatteryLevel: &battery}},
		{"frequency too low", CreateRoverInput{Name: "r", Location: models.Location{Planet: "Mars"}, TelemetryFrequency: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.input); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSendCommandRefusesNonActiveRover(t *testing.T) {
	store := newFakeRoverStore(&models.Rover{ID: "r1", Status: models.RoverStatusMaintenance})
	svc := newRoverService(store)

	_, err := svc.SendCommand(context.Background(), "r1", "deploy_arm")
	if !errors.Is(err, ErrRoverNotCommandable) {
		t.Fatalf("err = %v, want ErrRoverNotCommandable", err)
	}
	if len(store.refreshed) != 0 {
		t.Error("last contact refreshed for refused command")
	}
}

func TestSendCommandRefreshesContact(t *testing.T) {
	store := newFakeRoverStore(&models.Rover{ID: "r1", Name: "Spirit", Status: models.RoverStatusActive})
	svc := newRoverService(store)

	result, err := svc.SendCommand(context.Background(), "r1", "take_photo")
	if err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if !result.Success || result.Command != "take_photo" || result.RoverID != "r1" {
		t.Errorf("result = %+v", result)
	}
	if result.ProcessingTime < 100 || result.ProcessingTime >= 600 {
		t.Errorf("processing time %d outside [100,600)", result.ProcessingTime)
	}
	if len(store.refreshed) != 1 || store.refreshed[0] != "r1" {
		t.Errorf("refreshed = %v, want [r1]", store.refreshed)
	}
}

func TestSendCommandUnknownRover(t *testing.T) {
	svc := newRoverService(newFakeRoverStore())
	if _, err := svc.SendCommand(context.Background(), "missing", "ping"); !errors.Is(err, repository.ErrRoverNotFound) {
		t.Fatalf("err = %v, want ErrRoverNotFound", err)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc := newRoverService(newFakeRoverStore())
	if _, err := svc.List(context.Background(), "bogus", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestLowBatteryDefaultThreshold(t *testing.T) {
	store := newFakeRoverStore(
		&models.Rover{ID: "low", Status: models.RoverStatusActive, BatteryLevel: 10},
		&models.Rover{ID: "ok", Status: models.RoverStatusActive, BatteryLevel: 80},
	)
	svc := newRoverService(store)

	rovers, err := svc.LowBattery(context.Background(), 0)
	if err != nil {
		t.Fatalf("LowBattery: %v", err)
	}
	if len(rovers) != 1 || rovers[0].ID != "low" {
		t.Errorf("rovers = %v, want [low]", rovers)
	}
}
