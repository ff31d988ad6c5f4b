package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes aggregates handlers for the fleet HTTP server.
type Routes struct {
	ListRovers   http.HandlerFunc
	GetRover     http.HandlerFunc
	CreateRover  http.HandlerFunc
	UpdateRover  http.HandlerFunc
	RoverCommand http.HandlerFunc
	LowBattery   http.HandlerFunc

	ListMissions   http.HandlerFunc
	GetMission     http.HandlerFunc
	CreateMission  http.HandlerFunc
	UpdateMission  http.HandlerFunc
	AddObjective   http.HandlerFunc
	MissionRovers  http.HandlerFunc
	ActiveMissions http.HandlerFunc

	LatestTelemetry http.HandlerFunc

	Signup http.HandlerFunc
	Login  http.HandlerFunc

	Health  http.HandlerFunc
	Metrics http.Handler
}

// NewRouter wires all HTTP routes. Mutating routes pass through auth.
func NewRouter(routes Routes, auth func(http.Handler) http.Handler) http.Handler {
	r := mux.NewRouter()

	protected := func(h http.HandlerFunc) http.Handler {
		if auth == nil {
			return h
		}
		return auth(h)
	}

	api := r.PathPrefix("/api").Subrouter()

	// The static low-battery route must be registered before the {id} route.
	api.HandleFunc("/rovers/status/low-battery", routes.LowBattery).Methods(http.MethodGet)
	api.HandleFunc("/rovers", routes.ListRovers).Methods(http.MethodGet)
	api.Handle("/rovers", protected(routes.CreateRover)).Methods(http.MethodPost)
	api.HandleFunc("/rovers/{id}", routes.GetRover).Methods(http.MethodGet)
	api.Handle("/rovers/{id}", protected(routes.UpdateRover)).Methods(http.MethodPut)
	api.Handle("/rovers/{id}/command", protected(routes.RoverCommand)).Methods(http.MethodPost)

	api.HandleFunc("/missions/status/active", routes.ActiveMissions).Methods(http.MethodGet)
	api.HandleFunc("/missions", routes.ListMissions).Methods(http.MethodGet)
	api.Handle("/missions", protected(routes.CreateMission)).Methods(http.MethodPost)
	api.HandleFunc("/missions/{id}", routes.GetMission).Methods(http.MethodGet)
	api.Handle("/missions/{id}", protected(routes.UpdateMission)).Methods(http.MethodPut)
	api.Handle("/missions/{id}/objectives", protected(routes.AddObjective)).Methods(http.MethodPost)
	api.HandleFunc("/missions/{id}/rovers", routes.MissionRovers).Methods(http.MethodGet)

	api.HandleFunc("/telemetry/latest", routes.LatestTelemetry).Methods(http.MethodGet)

	api.HandleFunc("/auth/signup", routes.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", routes.Login).Methods(http.MethodPost)

	r.HandleFunc("/health", routes.Health).Methods(http.MethodGet)
	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics).Methods(http.MethodGet)
	}

	return r
}
