// Package rules holds the pure status rule engine. Every function is
// deterministic given its inputs; the only randomness comes through the
// injected randx.Rand, so all probabilistic branches are scriptable in tests.
// Out-of-range inputs are clamped, never rejected.
package rules

import (
	"fmt"
	"math"

	"spacerover/backend/libs/randx"
	"spacerover/backend/services/fleet-service/internal/models"
)

const (
	// CriticalBatteryLevel is the threshold below which an active rover goes critical.
	CriticalBatteryLevel = 10.0
	// MeaningfulBatteryDelta gates persistence of battery updates.
	MeaningfulBatteryDelta = 0.1

	silenceHours         = 2.0
	recoveryContactHours = 1.0
	signalRecoveryChance = 0.2
	repairChance         = 0.3
	maintenanceChance    = 0.1

	solarWindowStart = 8
	solarWindowEnd   = 16
)

// RoverEvaluation is the outcome of one health-rule pass over a rover.
type RoverEvaluation struct {
	Status         models.RoverStatus
	Changed        bool
	RefreshContact bool
	Reason         string
}

// NextRoverStatus applies the signal-loss/recovery, battery-critical and
// maintenance-repair rules in order and reports the resulting status.
// uptimeHours is how long this process has been running; the two-hour-silence
// rule measures the contact gap observed during this process's lifetime, so a
// freshly restarted process does not mark every rover lost before it has had a
// chance to hear from any of them.
func NextRoverStatus(current models.RoverStatus, batteryLevel, hoursSinceContact, uptimeHours float64, rng randx.Rand) RoverEvaluation {
	batteryLevel = clamp(batteryLevel, 0, 100)
	hoursSinceContact = math.Max(hoursSinceContact, 0)
	uptimeHours = math.Max(uptimeHours, 0)

	status := current
	refresh := false
	reason := ""

	if status == models.RoverStatusLostSignal && hoursSinceContact < recoveryContactHours {
		status = models.RoverStatusActive
		reason = "contact restored"
	}

	if status == models.RoverStatusLostSignal && rng.Float64() < signalRecoveryChance {
		status = models.RoverStatusActive
		refresh = true
		reason = "signal reacquired"
	}

	if status != models.RoverStatusLostSignal && !refresh &&
		math.Min(hoursSinceContact, uptimeHours) > silenceHours {
		status = models.RoverStatusLostSignal
		reason = fmt.Sprintf("no contact for %.1f hours", hoursSinceContact)
	}

	if status == models.RoverStatusActive && batteryLevel < CriticalBatteryLevel {
		status = models.RoverStatusCritical
		reason = "battery level critical"
	}

	if status == models.RoverStatusMaintenance && rng.Float64() < repairChance {
		status = models.RoverStatusActive
		reason = "maintenance completed"
	}

	return RoverEvaluation{
		Status:         status,
		Changed:        status != current,
		RefreshContact: refresh,
		Reason:         reason,
	}
}

// NextBatteryLevel advances a rover battery by one random-walk step: solar
// charging during daytime hours [8,16], drain otherwise. The result is clamped
// to [0,100] and rounded to one decimal.
func NextBatteryLevel(current float64, hourOfDay int, rng randx.Rand) float64 {
	current = clamp(current, 0, 100)

	var change float64
	if hourOfDay >= solarWindowStart && hourOfDay <= solarWindowEnd {
		change = rng.Float64() * 2
	} else {
		change = -(rng.Float64() * 3)
	}

	return round1(clamp(current+change, 0, 100))
}

// MeaningfulBatteryChange reports whether a battery transition is large
// enough to be worth persisting.
func MeaningfulBatteryChange(old, next float64) bool {
	return math.Abs(next-old) > MeaningfulBatteryDelta
}

// ScheduleMaintenance reports whether an active rover should enter maintenance
// this evaluation (10% independent chance). Non-active rovers never do.
func ScheduleMaintenance(current models.RoverStatus, rng randx.Rand) bool {
	if current != models.RoverStatusActive {
		return false
	}
	return rng.Float64() < maintenanceChance
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
