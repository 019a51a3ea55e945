package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"threatdash/pkg/logger"
)

// Pinger is a dependency that can report its own health
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	environment string
	version     string
	checks      map[string]Pinger
	logger      *logger.Logger
	startTime   time.Time
}

// NewHealthHandler creates a new HealthHandler. Ready runs checks.
func NewHealthHandler(environment, version string, checks map[string]Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		environment: environment,
		version:     version,
		checks:      checks,
		logger:      log.WithComponent("health"),
		startTime:   time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   string            `json:"timestamp"`
	Uptime      float64           `json:"uptime"`
	Environment string            `json:"environment"`
	Version     string            `json:"version,omitempty"`
	Checks      map[string]string `json:"checks,omitempty"`
}

// Check handles GET /api/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, h.response("OK"))
}

// Ready handles GET /api/ready - pings the record backend and cache
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := h.response("ready")
	resp.Checks = make(map[string]string, len(names))
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Str("check", name).Msg("readiness check failed")
			resp.Checks[name] = "unhealthy: " + err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "healthy"
	}

	respondJSON(w, h.logger, status, resp)
}

func (h *HealthHandler) response(status string) HealthResponse {
	return HealthResponse{
		Status:      status,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.startTime).Seconds(),
		Environment: h.environment,
		Version:     h.version,
	}
}
