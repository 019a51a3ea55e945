package services

import (
	"context"

	"threatdash/internal/domain/filter"
	"threatdash/internal/domain/models"
	"threatdash/internal/domain/validation"
	"threatdash/pkg/logger"
)

// ActorService manages threat actor records
type ActorService struct {
	resource[*models.ThreatActor]
}

// NewActorService creates a new ActorService
func NewActorService(store Store[*models.ThreatActor], opts Options, log *logger.Logger) *ActorService {
	cfg := filter.Config[*models.ThreatActor]{
		SearchFields: []func(*models.ThreatActor) string{
			func(a *models.ThreatActor) string { return a.Name },
			func(a *models.ThreatActor) string { return a.Description },
		},
		SearchLists: []func(*models.ThreatActor) []string{
			func(a *models.ThreatActor) []string { return a.Aliases },
		},
		Categorical: map[string]func(*models.ThreatActor) string{
			"origin":         func(a *models.ThreatActor) string { return a.Origin },
			"status":         func(a *models.ThreatActor) string { return string(a.Status) },
			"motivation":     func(a *models.ThreatActor) string { return string(a.Motivation) },
			"sophistication": func(a *models.ThreatActor) string { return string(a.Sophistication) },
		},
	}
	return &ActorService{
		resource: newResource(store, "Threat actor", cfg, opts, log.WithComponent("actors")),
	}
}

// Get returns one actor; there are no expandable references
func (s *ActorService) Get(ctx context.Context, id int64, _ []string) (*models.ThreatActor, error) {
	return s.get(ctx, id)
}

// Create validates and stores a new actor
func (s *ActorService) Create(ctx context.Context, in models.ActorInput) (*models.ThreatActor, error) {
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.create(ctx, in.Build(s.opts.now()))
}

// Update merges a validated patch into an existing actor
func (s *ActorService) Update(ctx context.Context, id int64, p models.ActorPatch) (*models.ThreatActor, error) {
	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Normalize()
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	p.Apply(a, s.opts.now())
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}
