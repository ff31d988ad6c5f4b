package models

import (
	"math"
	"time"
)

// MissionStatus enumerates mission lifecycle states.
type MissionStatus string

const (
	MissionStatusPlanned   MissionStatus = "planned"
	MissionStatusActive    MissionStatus = "active"
	MissionStatusCompleted MissionStatus = "completed"
	MissionStatusSuspended MissionStatus = "suspended"
	MissionStatusFailed    MissionStatus = "failed"
)

// Valid reports whether s is a known mission status.
func (s MissionStatus) Valid() bool {
	switch s {
	case MissionStatusPlanned, MissionStatusActive, MissionStatusCompleted,
		MissionStatusSuspended, MissionStatusFailed:
		return true
	}
	return false
}

// ObjectivePriority ranks mission objectives.
type ObjectivePriority string

const (
	PriorityLow      ObjectivePriority = "low"
	PriorityMedium   ObjectivePriority = "medium"
	PriorityHigh     ObjectivePriority = "high"
	PriorityCritical ObjectivePriority = "critical"
)

// Valid reports whether p is a known priority.
func (p ObjectivePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Objective is a single mission goal.
type Objective struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Completed   bool              `json:"completed"`
	Priority    ObjectivePriority `json:"priority"`
}

// LeadScientist identifies the scientist responsible for a mission.
type LeadScientist struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Mission is a named exploration campaign.
type Mission struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Planet        string        `json:"planet"`
	StartDate     time.Time     `json:"startDate"`
	EndDate       *time.Time    `json:"endDate,omitempty"`
	Status        MissionStatus `json:"status"`
	Objectives    []Objective   `json:"objectives"`
	LeadScientist LeadScientist `json:"leadScientist"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// DurationDays returns the mission length in whole days, using now for
// missions that have not ended.
func (m *Mission) DurationDays(now time.Time) int {
	if m.StartDate.IsZero() {
		return 0
	}
	end := now
	if m.EndDate != nil {
		end = *m.EndDate
	}
	return int(math.Ceil(math.Abs(end.Sub(m.StartDate).Hours()) / 24))
}

// ObjectivesCompleted reports whether the mission has objectives and all of
// them are done.
func (m *Mission) ObjectivesCompleted() bool {
	if len(m.Objectives) == 0 {
		return false
	}
	for _, o := range m.Objectives {
		if !o.Completed {
			return false
		}
	}
	return true
}
