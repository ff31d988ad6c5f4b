package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"spacerover/backend/services/fleet-service/internal/models"
	"spacerover/backend/services/fleet-service/internal/repository"
	"spacerover/backend/services/fleet-service/internal/service"
)

// NewListMissionsHandler handles GET /api/missions.
func NewListMissionsHandler(missions *service.MissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := missions.List(r.Context(), r.URL.Query().Get("status"), r.URL.Query().Get("planet"))
		if err != nil {
			if errors.Is(err, service.ErrValidation) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to list missions")
			return
		}
		if list == nil {
			list = []models.Mission{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// NewGetMissionHandler handles GET /api/missions/{id}.
func NewGetMissionHandler(missions *service.MissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mission, err := missions.Get(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			if errors.Is(err, repository.ErrMissionNotFound) {
				writeError(w, http.StatusNotFound, "mission not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to get mission")
			return
		}
		writeJSON(w, http.StatusOK, mission)
	}
}

// NewCreateMissionHandler handles POST /api/missions.
func NewCreateMissionHandler(missions *service.MissionService) http.HandlerFunc {
	type request struct {
		Name          string               `json:"name"`
		Description   string               `json:"description"`
		Planet        string               `json:"planet"`
		StartDate     time.Time            `json:"startDate"`
		Status        string               `json:"status"`
		Objectives    []models.Objective   `json:"objectives"`
		LeadScientist models.LeadScientist `json:"leadScientist"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		mission, err := missions.Create(r.Context(), service.CreateMissionInput{
			Name:          req.Name,
			Description:   req.Description,
			Planet:        req.Planet,
			StartDate:     req.StartDate,
			Status:        models.MissionStatus(req.Status),
			Objectives:    req.Objectives,
			LeadScientist: req.LeadScientist,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrValidation):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrMissionNameTaken):
				writeError(w, http.StatusConflict, "mission name already in use")
			default:
				writeError(w, http.StatusInternalServerError, "failed to create mission")
			}
			return
		}
		writeJSON(w, http.StatusCreated, mission)
	}
}

// NewUpdateMissionHandler handles PUT /api/missions/{id}.
func NewUpdateMissionHandler(missions *service.MissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var mission models.Mission
		if err := json.NewDecoder(r.Body).Decode(&mission); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		mission.ID = mux.Vars(r)["id"]

		updated, err := missions.Update(r.Context(), &mission)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrMissionNotFound):
				writeError(w, http.StatusNotFound, "mission not found")
			case errors.Is(err, service.ErrInvalidTransition):
				writeError(w, http.StatusUnprocessableEntity, err.Error())
			case errors.Is(err, service.ErrValidation):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "failed to update mission")
			}
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// NewAddObjectiveHandler handles POST /api/missions/{id}/objectives.
func NewAddObjectiveHandler(missions *service.MissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var objective models.Objective
		if err := json.NewDecoder(r.Body).Decode(&objective); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		mission, err := missions.AddObjective(r.Context(), mux.Vars(r)["id"], objective)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrMissionNotFound):
				writeError(w, http.StatusNotFound, "mission not found")
			case errors.Is(err, service.ErrValidation):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "failed to add objective")
			}
			return
		}
		writeJSON(w, http.StatusCreated, mission)
	}
}

// NewMissionRoversHandler handles GET /api/missions/{id}/rovers.
func NewMissionRoversHandler(missions *service.MissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rovers, err := missions.Rovers(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			if errors.Is(err, repository.ErrMissionNotFound) {
				writeError(w, http.StatusNotFound, "mission not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to list mission rovers")
			return
		}
		if rovers == nil {
			rovers = []models.Rover{}
		}
		writeJSON(w, http.StatusOK, rovers)
	}
}

// NewActiveMissionsHandler handles GET /api/missions/status/active.
func NewActiveMissionsHandler(missions *service.MissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := missions.ListActive(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list active missions")
			return
		}
		if list == nil {
			list = []models.Mission{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}
