package models

import "time"

// RoverStatus enumerates rover operational states.
type RoverStatus string

const (
	RoverStatusInactive    RoverStatus = "inactive"
	RoverStatusActive      RoverStatus = "active"
	RoverStatusMaintenance RoverStatus = "maintenance"
	RoverStatusCritical    RoverStatus = "critical"
	RoverStatusLostSignal  RoverStatus = "lost_signal"
)

// Valid reports whether s is a known rover status.
func (s RoverStatus) Valid() bool {
	switch s {
	case RoverStatusInactive, RoverStatusActive, RoverStatusMaintenance,
		RoverStatusCritical, RoverStatusLostSignal:
		return true
	}
	return false
}

// Known rover capability tags.
const (
	CapabilitySampling     = "sampling"
	CapabilityImaging      = "imaging"
	CapabilityDrilling     = "drilling"
	CapabilityWeather      = "weather"
	CapabilitySpectroscopy = "spectroscopy"
)

// Coordinates is a planar position on a planet surface.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Location combines a planet with surface coordinates.
type Location struct {
	Planet      string      `json:"planet"`
	Coordinates Coordinates `json:"coordinates"`
}

// Rover is a tracked remote exploration unit.
type Rover struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Model              string      `json:"model"`
	Status             RoverStatus `json:"status"`
	Location           Location    `json:"location"`
	BatteryLevel       float64     `json:"batteryLevel"`
	TemperatureC       float64     `json:"temperatureC"`
	LastContact        time.Time   `json:"lastContact"`
	MissionID          *string     `json:"missionId,omitempty"`
	Capabilities       []string    `json:"capabilities"`
	TelemetryFrequency int         `json:"telemetryFrequency"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// HasCapability reports whether the rover carries the given capability tag.
func (r *Rover) HasCapability(tag string) bool {
	for _, c := range r.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}

// BatteryStatus renders the battery level as a coarse label for dashboards.
func (r *Rover) BatteryStatus() string {
	switch {
	case r.BatteryLevel > 75:
		return "Optimal"
	case r.BatteryLevel > 50:
		return "Good"
	case r.BatteryLevel > 25:
		return "Low"
	default:
		return "Critical"
	}
}
