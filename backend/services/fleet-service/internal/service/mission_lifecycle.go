package service

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"spacerover/backend/services/fleet-service/internal/models"
)

// ErrInvalidTransition is returned for mission status edits that are not on
// the lifecycle graph.
var ErrInvalidTransition = fmt.Errorf("mission: invalid status transition")

// lifecycle events, keyed by target status.
var missionEvents = map[models.MissionStatus]string{
	models.MissionStatusActive:    "activate",
	models.MissionStatusCompleted: "complete",
	models.MissionStatusSuspended: "suspend",
	models.MissionStatusFailed:    "fail",
}

func newMissionFSM(current models.MissionStatus) *fsm.FSM {
	return fsm.NewFSM(
		string(current),
		fsm.Events{
			{Name: "activate", Src: []string{string(models.MissionStatusPlanned), string(models.MissionStatusSuspended)}, Dst: string(models.MissionStatusActive)},
			{Name: "complete", Src: []string{string(models.MissionStatusActive)}, Dst: string(models.MissionStatusCompleted)},
			{Name: "suspend", Src: []string{string(models.MissionStatusPlanned), string(models.MissionStatusActive)}, Dst: string(models.MissionStatusSuspended)},
			{Name: "fail", Src: []string{string(models.MissionStatusPlanned), string(models.MissionStatusActive), string(models.MissionStatusSuspended)}, Dst: string(models.MissionStatusFailed)},
		},
		fsm.Callbacks{},
	)
}

// ValidateMissionTransition checks that moving a mission from current to
// target follows the lifecycle graph. Completed and failed are terminal.
func ValidateMissionTransition(current, target models.MissionStatus) error {
	if current == target {
		return nil
	}
	event, ok := missionEvents[target]
	if !ok {
		// planned is the entry state, never a transition target.
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}
	if err := newMissionFSM(current).Event(context.Background(), event); err != nil {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}
	return nil
}
