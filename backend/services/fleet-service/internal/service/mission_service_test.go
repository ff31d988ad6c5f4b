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

type fakeMissionStore struct {
	missions map[string]*models.Mission
}

func newFakeMissionStore(missions ...*models.Mission) *fakeMissionStore {
	f := &fakeMissionStore{missions: map[string]*models.Mission{}}
	for _, m := range missions {
		f.missions[m.ID] = m
	}
	return f
}

func (f *fakeMissionStore) Create(_ context.Context, mission *models.Mission) (*models.Mission, error) {
	f.missions[mission.ID] = mission
	return mission, nil
}

func (f *fakeMissionStore) GetByID(_ context.Context, id string) (*models.Mission, error) {
	mission, ok := f.missions[id]
	if !ok {
		return nil, repository.ErrMissionNotFound
	}
	copied := *mission
	return &copied, nil
}

func (f *fakeMissionStore) GetByName(_ context.Context, name string) (*models.Mission, error) {
	for _, m := range f.missions {
		if m.Name == name {
			copied := *m
			return &copied, nil
		}
	}
	return nil, repository.ErrMissionNotFound
}

func (f *fakeMissionStore) List(_ context.Context, _ repository.MissionFilter) ([]models.Mission, error) {
	var out []models.Mission
	for _, m := range f.missions {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMissionStore) ListActive(_ context.Context) ([]models.Mission, error) {
	var out []models.Mission
	for _, m := range f.missions {
		if m.Status == models.MissionStatusActive {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMissionStore) Update(_ context.Context, mission *models.Mission) (*models.Mission, error) {
	if _, ok := f.missions[mission.ID]; !ok {
		return nil, repository.ErrMissionNotFound
	}
	f.missions[mission.ID] = mission
	return mission, nil
}

type fakeMissionRovers struct {
	byMission map[string][]models.Rover
}

func (f *fakeMissionRovers) ListByMission(_ context.Context, missionID string) ([]models.Rover, error) {
	return f.byMission[missionID], nil
}

func newMissionService(store *fakeMissionStore, rovers *fakeMissionRovers) *MissionService {
	if rovers == nil {
		rovers = &fakeMissionRovers{}
	}
	svc := NewMissionService(store, rovers, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateMissionDefaults(t *testing.T) {
	svc := newMissionService(newFakeMissionStore(), nil)

	mission, err := svc.Create(context.Background(), CreateMissionInput{
		Name:       "Olympus Survey",
		Planet:     "Mars",
		Objectives: []models.Objective{{Title: "map the caldera"}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if mission.Status != models.MissionStatusPlanned {
		t.Errorf("status = %s, want planned", mission.Status)
	}
	if mission.StartDate.IsZero() {
		t.Error("start date not defaulted")
	}
	if mission.Objectives[0].Priority != models.PriorityMedium {
		t.Errorf("priority = %s, want medium", mission.Objectives[0].Priority)
	}
}

func TestCreateMissionRejectsDuplicateName(t *testing.T) {
	svc := newMissionService(newFakeMissionStore(), nil)

	input := CreateMissionInput{Name: "Olympus Survey", Planet: "Mars"}
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := svc.Create(context.Background(), input)
	if !errors.Is(err, ErrMissionNameTaken) {
		t.Errorf("err = %v, want ErrMissionNameTaken", err)
	}
}

func TestMissionTransitions(t *testing.T) {
	cases := []struct {
		from, to models.MissionStatus
		ok       bool
	}{
		{models.MissionStatusPlanned, models.MissionStatusActive, true},
		{models.MissionStatusPlanned, models.MissionStatusSuspended, true},
		{models.MissionStatusPlanned, models.MissionStatusFailed, true},
		{models.MissionStatusPlanned, models.MissionStatusCompleted, false},
		{models.MissionStatusActive, models.MissionStatusCompleted, true},
		{models.MissionStatusActive, models.MissionStatusSuspended, true},
		{models.MissionStatusActive, models.MissionStatusFailed, true},
		{models.MissionStatusSuspended, models.MissionStatusActive, true},
		{models.MissionStatusSuspended, models.MissionStatusFailed, true},
		{models.MissionStatusSuspended, models.MissionStatusCompleted, false},
		{models.MissionStatusCompleted, models.MissionStatusActive, false},
		{models.MissionStatusCompleted, models.MissionStatusFailed, false},
		{models.MissionStatusFailed, models.MissionStatusActive, false},
		{models.MissionStatusActive, models.MissionStatusPlanned, false},
		{models.MissionStatusActive, models.MissionStatusActive, true},
	}

	for _, tc := range cases {
		err := ValidateMissionTransition(tc.from, tc.to)
		if tc.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> %s: err = %v, want ErrInvalidTransition", tc.from, tc.to, err)
		}
	}
}

func TestUpdateMissionSetsEndDateOnCompletion(t *testing.T) {
	store := newFakeMissionStore(&models.Mission{ID: "m1", Name: "x", Status: models.MissionStatusActive})
	svc := newMissionService(store, nil)

	updated, err := svc.Update(context.Background(), &models.Mission{
		ID: "m1", Name: "x", Status: models.MissionStatusCompleted,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.EndDate == nil {
		t.Fatal("end date not set on completion")
	}
}

func TestUpdateMissionRejectsInvalidTransition(t *testing.T) {
	store := newFakeMissionStore(&models.Mission{ID: "m1", Status: models.MissionStatusCompleted})
	svc := newMissionService(store, nil)

	_, err := svc.Update(context.Background(), &models.Mission{ID: "m1", Status: models.MissionStatusActive})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestAddObjective(t *testing.T) {
	store := newFakeMissionStore(&models.Mission{ID: "m1", Status: models.MissionStatusActive})
	svc := newMissionService(store, nil)

	updated, err := svc.AddObjective(context.Background(), "m1", models.Objective{
		Title:     "collect regolith",
		Completed: true, // must be reset: new objectives start incomplete
	})
	if err != nil {
		t.Fatalf("AddObjective: %v", err)
	}
	if len(updated.Objectives) != 1 {
		t.Fatalf("objectives = %d, want 1", len(updated.Objectives))
	}
	if updated.Objectives[0].Completed {
		t.Error("new objective marked completed")
	}
	if updated.Objectives[0].Priority != models.PriorityMedium {
		t.Errorf("priority = %s, want medium", updated.Objectives[0].Priority)
	}
}

func TestMissionRoversRequiresMission(t *testing.T) {
	svc := newMissionService(newFakeMissionStore(), nil)
	if _, err := svc.Rovers(context.Background(), "missing"); !errors.Is(err, repository.ErrMissionNotFound) {
		t.Fatalf("err = %v, want ErrMissionNotFound", err)
	}
}

func TestMissionRovers(t *testing.T) {
	store := newFakeMissionStore(&models.Mission{ID: "m1", Status: models.MissionStatusActive})
	rovers := &fakeMissionRovers{byMission: map[string][]models.Rover{
		"m1": {{ID: "r1"}, {ID: "r2"}},
	}}
	svc := newMissionService(store, rovers)

	got, err := svc.Rovers(context.Background(), "m1")
	if err != nil {
		t.Fatalf("Rovers: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("rovers = %d, want 2", len(got))
	}
}
