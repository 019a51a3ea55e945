package handlers

import (
	"net/http"

	"threatdash/internal/domain/models"
	"threatdash/internal/domain/services"
	"threatdash/pkg/logger"
)

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	stats  *services.StatsService
	logger *logger.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(stats *services.StatsService, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		logger: log.WithComponent("stats"),
	}
}

// StatsResponse wraps the dashboard aggregates
type StatsResponse struct {
	Data *models.DashboardStats `json:"data"`
}

// Get handles GET /api/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Get(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "Failed to retrieve statistics")
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	respondJSON(w, h.logger, http.StatusOK, StatsResponse{Data: stats})
}
