package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"spacerover/backend/services/fleet-service/internal/models"
	"spacerover/backend/services/fleet-service/internal/repository"
	"spacerover/backend/services/fleet-service/internal/service"
)

// NewListRoversHandler handles GET /api/rovers.
func NewListRoversHandler(rovers *service.RoverService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := rovers.List(r.Context(), r.URL.Query().Get("status"), r.URL.Query().Get("planet"))
		if err != nil {
			if errors.Is(err, service.ErrValidation) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to list rovers")
			return
		}
		if list == nil {
			list = []models.Rover{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// NewGetRoverHandler handles GET /api/rovers/{id}.
func NewGetRoverHandler(rovers *service.RoverService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rover, err := rovers.Get(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			if errors.Is(err, repository.ErrRoverNotFound) {
				writeError(w, http.StatusNotFound, "rover not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to get rover")
			return
		}
		writeJSON(w, http.StatusOK, rover)
	}
}

// NewCreateRoverHandler handles POST /api/rovers.
func NewCreateRoverHandler(rovers *service.RoverService) http.HandlerFunc {
	type request struct {
		Name               string          `json:"name"`
		Model              string          `json:"model"`
		Status             string          `json:"status"`
		Location           models.Location `json:"location"`
		BatteryLevel       *float64        `json:"batteryLevel"`
		TemperatureC       *float64        `json:"temperatureC"`
		MissionID          *string         `json:"missionId"`
		Capabilities       []string        `json:"capabilities"`
		TelemetryFrequency int             `json:"telemetryFrequency"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		rover, err := rovers.Create(r.Context(), service.CreateRoverInput{
			Name:               req.Name,
			Model:              req.Model,
			Status:             models.RoverStatus(req.Status),
			Location:           req.Location,
			BatteryLevel:       req.BatteryLevel,
			TemperatureC:       req.TemperatureC,
			MissionID:          req.MissionID,
			Capabilities:       req.Capabilities,
			TelemetryFrequency: req.TelemetryFrequency,
		})
		if err != nil {
			if errors.Is(err, service.ErrValidation) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to create rover")
			return
		}
		writeJSON(w, http.StatusCreated, rover)
	}
}

// NewUpdateRoverHandler handles PUT /api/rovers/{id}.
func NewUpdateRoverHandler(rovers *service.RoverService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rover models.Rover
		if err := json.NewDecoder(r.Body).Decode(&rover); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		rover.ID = mux.Vars(r)["id"]

		updated, err := rovers.Update(r.Context(), &rover)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrRoverNotFound):
				writeError(w, http.StatusNotFound, "rover not found")
			case errors.Is(err, service.ErrValidation):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "failed to update rover")
			}
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// NewRoverCommandHandler handles POST /api/rovers/{id}/command.
func NewRoverCommandHandler(rovers *service.RoverService) http.HandlerFunc {
	type request struct {
		Command string         `json:"command"`
		Params  map[string]any `json:"params"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		result, err := rovers.SendCommand(r.Context(), mux.Vars(r)["id"], req.Command)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrRoverNotFound):
				writeError(w, http.StatusNotFound, "rover not found")
			case errors.Is(err, service.ErrRoverNotCommandable):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrValidation):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "failed to send command")
			}
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// NewLowBatteryHandler handles GET /api/rovers/status/low-battery.
func NewLowBatteryHandler(rovers *service.RoverService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threshold, _ := strconv.ParseFloat(r.URL.Query().Get("threshold"), 64)
		list, err := rovers.LowBattery(r.Context(), threshold)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list low battery rovers")
			return
		}
		if list == nil {
			list = []models.Rover{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}
