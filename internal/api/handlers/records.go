package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"threatdash/internal/domain/models"
	"threatdash/internal/domain/services"
	"threatdash/pkg/logger"
)

type (
	// ActorsHandler serves /api/actors
	ActorsHandler = ResourceHandler[*models.ThreatActor, models.ActorInput, models.ActorPatch]
	// IndicatorsHandler serves /api/indicators
	IndicatorsHandler = ResourceHandler[*models.ThreatIndicator, models.IndicatorInput, models.IndicatorPatch]
	// FeedsHandler serves /api/feeds and /api/sources
	FeedsHandler = ResourceHandler[*models.ThreatFeed, models.FeedInput, models.FeedPatch]
)

// IncidentsHandler serves /api/incidents plus the critical incident view
type IncidentsHandler struct {
	*ResourceHandler[*models.Incident, models.IncidentInput, models.IncidentPatch]
	incidents *services.IncidentService
}

// NewIncidentsHandler creates a new IncidentsHandler
func NewIncidentsHandler(svc *services.IncidentService, maxBody int64, log *logger.Logger) *IncidentsHandler {
	return &IncidentsHandler{
		ResourceHandler: NewResourceHandler[*models.Incident, models.IncidentInput, models.IncidentPatch](
			svc, models.CollectionIncidents, maxBody, log,
		),
		incidents: svc,
	}
}

// Routes mounts the CRUD routes and GET /critical
func (h *IncidentsHandler) Routes(r chi.Router) {
	r.Get("/critical", h.Critical)
	h.ResourceHandler.Routes(r)
}

// CriticalResponse lists open critical incidents
type CriticalResponse struct {
	Data  []*models.Incident `json:"data"`
	Count int                `json:"count"`
}

// Critical handles GET /api/incidents/critical
func (h *IncidentsHandler) Critical(w http.ResponseWriter, r *http.Request) {
	list := h.incidents.Critical(r.Context())
	respondJSON(w, h.logger, http.StatusOK, CriticalResponse{Data: list, Count: len(list)})
}
