package services

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"threatdash/internal/domain/apperr"
	"threatdash/internal/domain/filter"
	"threatdash/internal/domain/models"
	"threatdash/internal/domain/validation"
	"threatdash/pkg/logger"
)

// ExpandSource populates ThreatIndicator.SourceFeed
const ExpandSource = "source"

// IndicatorService manages indicator records
type IndicatorService struct {
	resource[*models.ThreatIndicator]
	feeds Store[*models.ThreatFeed]
}

// NewIndicatorService creates a new IndicatorService. feeds resolves the
// source reference on expand and may be nil.
func NewIndicatorService(store Store[*models.ThreatIndicator], feeds Store[*models.ThreatFeed], opts Options, log *logger.Logger) *IndicatorService {
	cfg := filter.Config[*models.ThreatIndicator]{
		SearchFields: []func(*models.ThreatIndicator) string{
			func(i *models.ThreatIndicator) string { return i.Value },
			func(i *models.ThreatIndicator) string { return i.Description },
		},
		SearchLists: []func(*models.ThreatIndicator) []string{
			func(i *models.ThreatIndicator) []string { return i.Tags },
		},
		Categorical: map[string]func(*models.ThreatIndicator) string{
			"type":     func(i *models.ThreatIndicator) string { return string(i.Type) },
			"severity": func(i *models.ThreatIndicator) string { return string(i.Severity) },
			"status":   func(i *models.ThreatIndicator) string { return string(i.Status) },
			"tlp":      func(i *models.ThreatIndicator) string { return string(i.TLP) },
			"source":   func(i *models.ThreatIndicator) string { return i.Source },
		},
		Thresholds: map[string]func(*models.ThreatIndicator) int{
			"confidence": func(i *models.ThreatIndicator) int { return i.Confidence },
		},
	}
	return &IndicatorService{
		resource: newResource(store, "Indicator", cfg, opts, log.WithComponent("indicators")),
		feeds:    feeds,
	}
}

// Get returns one indicator, resolving its source feed when asked
func (s *IndicatorService) Get(ctx context.Context, id int64, expand []string) (*models.ThreatIndicator, error) {
	ind, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if slices.Contains(expand, ExpandSource) && s.feeds != nil {
		if feedID, err := strconv.ParseInt(ind.Source, 10, 64); err == nil {
			if feed, err := s.feeds.Get(ctx, feedID); err == nil {
				ind.SourceFeed = feed
			}
		}
	}
	return ind, nil
}

// checkUnique rejects a value already used by another indicator
func (s *IndicatorService) checkUnique(ctx context.Context, value string, self int64) error {
	for _, other := range s.store.List(ctx) {
		if other.ID != self && strings.EqualFold(other.Value, value) {
			return apperr.Conflict("Indicator with value %s already exists", value)
		}
	}
	return nil
}

// Create validates and stores a new indicator
func (s *IndicatorService) Create(ctx context.Context, in models.IndicatorInput) (*models.ThreatIndicator, error) {
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in.Value, 0); err != nil {
		return nil, err
	}
	return s.create(ctx, in.Build(s.opts.now()))
}

// Update merges a validated patch into an existing indicator
func (s *IndicatorService) Update(ctx context.Context, id int64, p models.IndicatorPatch) (*models.ThreatIndicator, error) {
	ind, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Normalize()
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	if p.Value != nil && !strings.EqualFold(*p.Value, ind.Value) {
		if err := s.checkUnique(ctx, *p.Value, id); err != nil {
			return nil, err
		}
	}
	p.Apply(ind, s.opts.now())
	if err := s.save(ctx, ind); err != nil {
		return nil, err
	}
	return ind, nil
}
