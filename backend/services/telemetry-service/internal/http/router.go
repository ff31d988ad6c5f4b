package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes aggregates handlers for the telemetry HTTP server.
type Routes struct {
	ReceiveTelemetry http.HandlerFunc
	RoverHistory     http.HandlerFunc
	LatestTelemetry  http.HandlerFunc
	RoverStats       http.HandlerFunc

	LiveFeed http.HandlerFunc

	Health  http.HandlerFunc
	Metrics http.Handler
}

// NewRouter wires all HTTP routes.
func NewRouter(routes Routes) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/telemetry").Subrouter()
	api.HandleFunc("/receive", routes.ReceiveTelemetry).Methods(http.MethodPost)
	api.HandleFunc("/rover/{roverId}", routes.RoverHistory).Methods(http.MethodGet)
	api.HandleFunc("/latest", routes.LatestTelemetry).Methods(http.MethodGet)
	api.HandleFunc("/stats/{roverId}", routes.RoverStats).Methods(http.MethodGet)

	if routes.LiveFeed != nil {
		r.HandleFunc("/ws/telemetry", routes.LiveFeed).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", routes.Health).Methods(http.MethodGet)
	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics).Methods(http.MethodGet)
	}

	return r
}
