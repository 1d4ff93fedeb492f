package handler

import (
	"context"
	"net/http"
	"time"

	"postpulse/pkg/logger"
)

// Dependency states reported by the health check
const (
	healthOK          = "ok"
	healthUnavailable = "unavailable"
	healthDisabled    = "disabled"
)

// HealthCheckFunc pings one dependency
type HealthCheckFunc func(ctx context.Context) error

// HealthHandler handles health check requests
type HealthHandler struct {
	store  HealthCheckFunc
	cache  HealthCheckFunc
	logger *logger.Logger
}

// NewHealthHandler creates a health handler. A nil cache check reports the
// cache as disabled.
func NewHealthHandler(store, cache HealthCheckFunc, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{store: store, cache: cache, logger: logger}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// Check handles GET /health. A lost cache only degrades tracking; a lost
// store fails the check.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    healthOK,
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "postpulse",
		Checks: map[string]string{
			"store": h.checkComponent(ctx, "store", h.store),
			"cache": h.checkComponent(ctx, "cache", h.cache),
		},
	}

	status := http.StatusOK
	switch {
	case response.Checks["store"] == healthUnavailable:
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	case response.Checks["cache"] == healthUnavailable:
		response.Status = "degraded"
	}

	writeJSON(w, status, response, h.logger)
}

func (h *HealthHandler) checkComponent(ctx context.Context, name string, check HealthCheckFunc) string {
	if check == nil {
		return healthDisabled
	}
	if err := check(ctx); err != nil {
		h.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
		return healthUnavailable
	}
	return healthOK
}
