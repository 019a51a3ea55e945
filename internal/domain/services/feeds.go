package services

import (
	"context"
	"strings"

	"threatdash/internal/domain/apperr"
	"threatdash/internal/domain/filter"
	"threatdash/internal/domain/models"
	"threatdash/internal/domain/validation"
	"threatdash/pkg/logger"
)

// FeedService manages threat feed records
type FeedService struct {
	resource[*models.ThreatFeed]
}

// NewFeedService creates a new FeedService
func NewFeedService(store Store[*models.ThreatFeed], opts Options, log *logger.Logger) *FeedService {
	cfg := filter.Config[*models.ThreatFeed]{
		SearchFields: []func(*models.ThreatFeed) string{
			func(f *models.ThreatFeed) string { return f.Name },
			func(f *models.ThreatFeed) string { return f.Description },
			func(f *models.ThreatFeed) string { return f.SourceOrganization },
		},
		SearchLists: []func(*models.ThreatFeed) []string{
			func(f *models.ThreatFeed) []string { return f.Tags },
		},
		Categorical: map[string]func(*models.ThreatFeed) string{
			"type":        func(f *models.ThreatFeed) string { return string(f.Type) },
			"status":      func(f *models.ThreatFeed) string { return string(f.Status) },
			"reliability": func(f *models.ThreatFeed) string { return string(f.Reliability) },
		},
	}
	return &FeedService{
		resource: newResource(store, "Threat feed", cfg, opts, log.WithComponent("feeds")),
	}
}

func (s *FeedService) Get(ctx context.Context, id int64, _ []string) (*models.ThreatFeed, error) {
	return s.get(ctx, id)
}

func (s *FeedService) checkUnique(ctx context.Context, name string, self int64) error {
	for _, other := range s.store.List(ctx) {
		if other.ID != self && strings.EqualFold(other.Name, name) {
			return apperr.Conflict("Threat feed named %s already exists", name)
		}
	}
	return nil
}

// Create validates and stores a new feed
func (s *FeedService) Create(ctx context.Context, in models.FeedInput) (*models.ThreatFeed, error) {
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in.Name, 0); err != nil {
		return nil, err
	}
	return s.create(ctx, in.Build(s.opts.now()))
}

// Update merges a validated patch into an existing feed
func (s *FeedService) Update(ctx context.Context, id int64, p models.FeedPatch) (*models.ThreatFeed, error) {
	f, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Normalize()
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	if p.Name != nil && !strings.EqualFold(*p.Name, f.Name) {
		if err := s.checkUnique(ctx, *p.Name, id); err != nil {
			return nil, err
		}
	}
	p.Apply(f, s.opts.now())
	if err := s.save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}
