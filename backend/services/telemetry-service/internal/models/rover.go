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

// Rover is the slice of the rover document the telemetry service works with.
type Rover struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Model        string      `json:"model"`
	Status       RoverStatus `json:"status"`
	Location     Location    `json:"location"`
	BatteryLevel float64     `json:"batteryLevel"`
	TemperatureC float64     `json:"temperatureC"`
	LastContact  time.Time   `json:"lastContact"`
	Capabilities []string    `json:"capabilities"`
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
