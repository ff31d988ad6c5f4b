package models

import "time"

// SubsystemState is the health of one onboard subsystem.
type SubsystemState string

const (
	SubsystemNominal  SubsystemState = "nominal"
	SubsystemDegraded SubsystemState = "degraded"
	SubsystemCritical SubsystemState = "critical"
	SubsystemOffline  SubsystemState = "offline"
)

// SystemStatus reports the five onboard subsystems.
type SystemStatus struct {
	MainComputer        SubsystemState `json:"mainComputer"`
	NavigationSystem    SubsystemState `json:"navigationSystem"`
	CommunicationSystem SubsystemState `json:"communicationSystem"`
	PowerSystem         SubsystemState `json:"powerSystem"`
	MobilitySystem      SubsystemState `json:"mobilitySystem"`
}

// NominalSystemStatus is the all-healthy baseline.
func NominalSystemStatus() SystemStatus {
	return SystemStatus{
		MainComputer:        SubsystemNominal,
		NavigationSystem:    SubsystemNominal,
		CommunicationSystem: SubsystemNominal,
		PowerSystem:         SubsystemNominal,
		MobilitySystem:      SubsystemNominal,
	}
}

// ReadingError is a fault reported inside a telemetry reading.
type ReadingError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// TelemetryReading is one immutable sensor snapshot for a rover.
type TelemetryReading struct {
	ID                 string         `json:"id"`
	RoverID            string         `json:"roverId"`
	Timestamp          time.Time      `json:"timestamp"`
	BatteryLevel       float64        `json:"batteryLevel"`
	TemperatureC       float64        `json:"temperatureC"`
	CPUUtilization     float64        `json:"cpuUtilization"`
	MemoryUtilization  float64        `json:"memoryUtilization"`
	DiskSpaceRemaining float64        `json:"diskSpaceRemaining"`
	Location           Location       `json:"location"`
	SignalStrength     float64        `json:"signalStrength"`
	SensorReadings     map[string]any `json:"sensorReadings"`
	SystemStatus       SystemStatus   `json:"systemStatus"`
	Errors             []ReadingError `json:"errors"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// ReadingStats aggregates a rover's readings over a time range.
type ReadingStats struct {
	AvgBatteryLevel      float64 `json:"avgBatteryLevel"`
	MinBatteryLevel      float64 `json:"minBatteryLevel"`
	MaxBatteryLevel      float64 `json:"maxBatteryLevel"`
	AvgTemperature       float64 `json:"avgTemperature"`
	MinTemperature       float64 `json:"minTemperature"`
	MaxTemperature       float64 `json:"maxTemperature"`
	AvgCPUUtilization    float64 `json:"avgCpuUtilization"`
	AvgMemoryUtilization float64 `json:"avgMemoryUtilization"`
	AvgSignalStrength    float64 `json:"avgSignalStrength"`
	DataPoints           int64   `json:"dataPoints"`
	ErrorCount           int64   `json:"errorCount"`
}
