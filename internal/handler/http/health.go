package http

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DatasetStatus reports whether the city reference dataset is loaded.
type DatasetStatus interface {
	Loaded() bool
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	dataset DatasetStatus
	log     *zap.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(dataset DatasetStatus, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		dataset: dataset,
		log:     log,
	}
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version"`
	DatasetStatus string    `json:"dataset_status"`
	Uptime        string    `json:"uptime,omitempty"`
}

var startTime = time.Now()

// Health is the main health check endpoint. A missing city dataset is
// reported but never fails the probe: the dashboard degrades to
// marker-less maps rather than going unhealthy.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	datasetStatus := "loaded"
	if h.dataset == nil || !h.dataset.Loaded() {
		datasetStatus = "not_loaded"
	}

	response := HealthResponse{
		Status:        "healthy",
		Timestamp:     time.Now(),
		Version:       "1.0.0",
		DatasetStatus: datasetStatus,
		Uptime:        time.Since(startTime).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("failed to encode health response", zap.Error(err))
	}
}

// Ready is the readiness probe endpoint.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error("failed to encode ready response", zap.Error(err))
	}
}
