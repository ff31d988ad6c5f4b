package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"spacerover/backend/services/telemetry-service/internal/models"
	"spacerover/backend/services/telemetry-service/internal/repository"
	"spacerover/backend/services/telemetry-service/internal/service"
)

type receiveTelemetryRequest struct {
	RoverID            string                `json:"roverId"`
	Timestamp          *time.Time            `json:"timestamp"`
	BatteryLevel       *float64              `json:"batteryLevel"`
	TemperatureC       *float64              `json:"temperatureC"`
	CPUUtilization     *float64              `json:"cpuUtilization"`
	MemoryUtilization  *float64              `json:"memoryUtilization"`
	DiskSpaceRemaining *float64              `json:"diskSpaceRemaining"`
	Location           *models.Location      `json:"location"`
	SignalStrength     *float64              `json:"signalStrength"`
	SensorReadings     map[string]any        `json:"sensorReadings"`
	SystemStatus       *models.SystemStatus  `json:"systemStatus"`
	Errors             []models.ReadingError `json:"errors"`
}

// NewReceiveTelemetryHandler accepts telemetry packets pushed by rovers.
func NewReceiveTelemetryHandler(ingest *service.IngestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req receiveTelemetryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		result, err := ingest.Process(r.Context(), service.IngestInput{
			RoverID:            req.RoverID,
			Timestamp:          req.Timestamp,
			BatteryLevel:       req.BatteryLevel,
			TemperatureC:       req.TemperatureC,
			CPUUtilization:     req.CPUUtilization,
			MemoryUtilization:  req.MemoryUtilization,
			DiskSpaceRemaining: req.DiskSpaceRemaining,
			Location:           req.Location,
			SignalStrength:     req.SignalStrength,
			SensorReadings:     req.SensorReadings,
			SystemStatus:       req.SystemStatus,
			Errors:             req.Errors,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrValidation):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, repository.ErrRoverNotFound):
				writeError(w, http.StatusNotFound, "rover not found")
			default:
				logger.Error("failed to process telemetry packet", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to process telemetry")
			}
			return
		}

		writeJSON(w, http.StatusCreated, result)
	}
}

// NewRoverHistoryHandler serves a rover's paginated telemetry history.
func NewRoverHistoryHandler(queries *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roverID := mux.Vars(r)["roverId"]

		query := repository.ReadingQuery{}
		if v := r.URL.Query().Get("limit"); v != "" {
			if limit, err := strconv.Atoi(v); err == nil {
				query.Limit = limit
			}
		}
		if v := r.URL.Query().Get("skip"); v != "" {
			if skip, err := strconv.Atoi(v); err == nil {
				query.Skip = skip
			}
		}
		if v := r.URL.Query().Get("startTime"); v != "" {
			start, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid startTime")
				return
			}
			query.StartTime = &start
		}
		if v := r.URL.Query().Get("endTime"); v != "" {
			end, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid endTime")
				return
			}
			query.EndTime = &end
		}

		result, err := queries.History(r.Context(), roverID, query)
		if err != nil {
			if errors.Is(err, repository.ErrRoverNotFound) {
				writeError(w, http.StatusNotFound, "rover not found")
				return
			}
			logger.Error("failed to load telemetry history",
				zap.String("rover_id", roverID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load telemetry history")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// NewLatestTelemetryHandler serves the latest reading per active rover.
func NewLatestTelemetryHandler(queries *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := queries.Latest(r.Context())
		if err != nil {
			logger.Error("failed to load latest telemetry", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load latest telemetry")
			return
		}

		if len(entries) == 0 {
			writeJSON(w, http.StatusOK, map[string]any{
				"message": "No active rovers found",
				"data":    []service.LatestEntry{},
			})
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// NewRoverStatsHandler serves aggregate statistics for one rover.
func NewRoverStatsHandler(queries *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roverID := mux.Vars(r)["roverId"]
		period := r.URL.Query().Get("period")

		result, err := queries.Stats(r.Context(), roverID, period)
		if err != nil {
			if errors.Is(err, repository.ErrRoverNotFound) {
				writeError(w, http.StatusNotFound, "rover not found")
				return
			}
			logger.Error("failed to compute telemetry stats",
				zap.String("rover_id", roverID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to compute telemetry stats")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
