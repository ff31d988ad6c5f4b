package rules

import (
	"time"

	"spacerover/backend/libs/randx"
	"spacerover/backend/services/fleet-service/internal/models"
)

const objectiveCompletionChance = 0.05

// MissionProgress describes the outcome of one mission progress pass.
type MissionProgress struct {
	Mission             models.Mission
	Changed             bool
	ObjectivesCompleted []string
	Completed           bool
}

// NextMissionState gives each incomplete objective an independent 5% chance of
// completion. When every objective is done and the mission is active, the
// mission transitions to completed with endDate set to now. The transition is
// one-way; no other status moves happen here.
func NextMissionState(mission models.Mission, now time.Time, rng randx.Rand) MissionProgress {
	progress := MissionProgress{Mission: mission}

	objectives := append([]models.Objective(nil), mission.Objectives...)
	for i := range objectives {
		if objectives[i].Completed {
			continue
		}
		if rng.Float64() < objectiveCompletionChance {
			objectives[i].Completed = true
			progress.Changed = true
			progress.ObjectivesCompleted = append(progress.ObjectivesCompleted, objectives[i].Title)
		}
	}
	progress.Mission.Objectives = objectives

	if progress.Mission.ObjectivesCompleted() && progress.Mission.Status == models.MissionStatusActive {
		progress.Mission.Status = models.MissionStatusCompleted
		end := now
		progress.Mission.EndDate = &end
		progress.Changed = true
		progress.Completed = true
	}

	return progress
}
