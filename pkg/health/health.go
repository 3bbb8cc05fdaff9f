package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkivikoski/eyeguard/pkg/mqtt"
)

// Checker provides the /health endpoint for the daemon
type Checker struct {
	mqtt           mqtt.Client
	gammaSupported bool
	logger         *slog.Logger
}

// NewChecker creates a health checker. gammaSupported is fixed at
// startup: platform support cannot appear or vanish at runtime.
func NewChecker(mqttClient mqtt.Client, gammaSupported bool, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:           mqttClient,
		gammaSupported: gammaSupported,
		logger:         logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services reports the state of the daemon's dependencies
type Services struct {
	MQTT  string `json:"mqtt"`
	Gamma string `json:"gamma"`
}

// HandlerFunc returns the liveness handler: 200 whenever the process is
// up, without touching dependencies, so orchestrator probes stay fast.
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}

// DetailedHandlerFunc returns a handler that reports dependency state.
// An unsupported gamma platform degrades the status but is not an
// error: the reminder side keeps working regardless.
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{
			MQTT:  "disconnected",
			Gamma: "unsupported",
		}

		if h.mqtt != nil && h.mqtt.IsConnected() {
			services.MQTT = "connected"
		}
		if h.gammaSupported {
			services.Gamma = "available"
		}

		status := "healthy"
		statusCode := http.StatusOK
		if services.MQTT == "disconnected" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		} else if !h.gammaSupported {
			status = "degraded"
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}
