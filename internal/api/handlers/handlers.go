package handlers

import (
	"threatdash/internal/domain/models"
	"threatdash/internal/domain/services"
	"threatdash/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health     *HealthHandler
	Stats      *StatsHandler
	Auth       *AuthHandler
	Actors     *ActorsHandler
	Indicators *IndicatorsHandler
	Incidents  *IncidentsHandler
	Feeds      *FeedsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Actors     *services.ActorService
	Indicators *services.IndicatorService
	Incidents  *services.IncidentService
	Feeds      *services.FeedService
	Stats      *services.StatsService
	Auth       *services.AuthService

	// Checks run on /api/ready, keyed by name
	Checks       map[string]Pinger
	Environment  string
	Version      string
	MaxBodyBytes int64
	Logger       *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	log := deps.Logger
	return &Handlers{
		Health: NewHealthHandler(deps.Environment, deps.Version, deps.Checks, log),
		Stats:  NewStatsHandler(deps.Stats, log),
		Auth:   NewAuthHandler(deps.Auth, deps.MaxBodyBytes, log),
		Actors: NewResourceHandler[*models.ThreatActor, models.ActorInput, models.ActorPatch](
			deps.Actors, models.CollectionActors, deps.MaxBodyBytes, log,
		),
		Indicators: NewResourceHandler[*models.ThreatIndicator, models.IndicatorInput, models.IndicatorPatch](
			deps.Indicators, models.CollectionIndicators, deps.MaxBodyBytes, log,
		),
		Incidents: NewIncidentsHandler(deps.Incidents, deps.MaxBodyBytes, log),
		Feeds: NewResourceHandler[*models.ThreatFeed, models.FeedInput, models.FeedPatch](
			deps.Feeds, models.CollectionFeeds, deps.MaxBodyBytes, log,
		),
	}
}
