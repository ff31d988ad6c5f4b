package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"spacerover/backend/libs/randx"
	"spacerover/backend/services/fleet-service/internal/service"
)

// LatestFetcher fetches the latest telemetry snapshot from the telemetry
// service.
type LatestFetcher interface {
	Latest(ctx context.Context) (int, []byte, error)
}

// NewLatestTelemetryHandler handles GET /api/telemetry/latest. It relays the
// telemetry service response when available and falls back to a snapshot
// synthesised from the rover documents when the downstream is unreachable or
// empty.
func NewLatestTelemetryHandler(fetcher LatestFetcher, rovers *service.RoverService, rng randx.Rand, logger *zap.Logger) http.HandlerFunc {
	type fallbackRover struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Model  string `json:"model"`
		Status string `json:"status"`
		Planet string `json:"planet"`
	}
	type fallbackTelemetry struct {
		BatteryLevel   float64  `json:"batteryLevel"`
		TemperatureC   float64  `json:"temperatureC"`
		SignalStrength int      `json:"signalStrength"`
		Errors         []string `json:"errors"`
	}
	type fallbackEntry struct {
		Rover     fallbackRover     `json:"rover"`
		Telemetry fallbackTelemetry `json:"telemetry"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status, body, err := fetcher.Latest(r.Context())
		if err == nil && status == http.StatusOK {
			var entries []json.RawMessage
			if json.Unmarshal(body, &entries) == nil && len(entries) > 0 {
				writeRaw(w, http.StatusOK, body)
				return
			}
			logger.Info("no data from telemetry service, using fallback")
		} else if err != nil {
			logger.Error("telemetry service unreachable", zap.Error(err))
		}

		list, err := rovers.List(r.Context(), "", "")
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to build telemetry fallback")
			return
		}

		entries := make([]fallbackEntry, 0, len(list))
		for _, rover := range list {
			entries = append(entries, fallbackEntry{
				Rover: fallbackRover{
					ID:     rover.ID,
					Name:   rover.Name,
					Model:  rover.Model,
					Status: string(rover.Status),
					Planet: rover.Location.Planet,
				},
				Telemetry: fallbackTelemetry{
					BatteryLevel:   rover.BatteryLevel,
					TemperatureC:   rover.TemperatureC,
					SignalStrength: 70 + rng.Intn(30),
					Errors:         []string{},
				},
			})
		}

		logger.Info("generated fallback telemetry", zap.Int("rovers", len(entries)))
		writeJSON(w, http.StatusOK, entries)
	}
}
