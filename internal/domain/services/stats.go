package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"threatdash/internal/domain/models"
	"threatdash/pkg/logger"
)

const (
	statsCacheKey = "cache:stats"
	statsCacheTTL = 5 * time.Minute
)

// JSONCache is the subset of the Redis cache used for stats
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Snapshotter lists a whole collection and reports read failures.
// *storage.Repository satisfies it.
type Snapshotter[T any] interface {
	ListErr(ctx context.Context) ([]T, error)
}

// StatsService computes dashboard aggregates over all collections
type StatsService struct {
	actors     Snapshotter[*models.ThreatActor]
	indicators Snapshotter[*models.ThreatIndicator]
	incidents  Snapshotter[*models.Incident]
	feeds      Snapshotter[*models.ThreatFeed]

	cache  JSONCache // nil disables caching
	group  singleflight.Group
	now    func() time.Time
	logger *logger.Logger
}

// NewStatsService creates a new StatsService. cache may be nil.
func NewStatsService(
	actors Snapshotter[*models.ThreatActor],
	indicators Snapshotter[*models.ThreatIndicator],
	incidents Snapshotter[*models.Incident],
	feeds Snapshotter[*models.ThreatFeed],
	cache JSONCache,
	log *logger.Logger,
) *StatsService {
	return &StatsService{
		actors:     actors,
		indicators: indicators,
		incidents:  incidents,
		feeds:      feeds,
		cache:      cache,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     log.WithComponent("stats"),
	}
}

// Get returns cached stats when available; otherwise computes them once for
// all concurrent callers and caches the result. Stats computed while a
// collection could not be read are returned with that collection counted as
// empty, and are not cached.
func (s *StatsService) Get(ctx context.Context) (*models.DashboardStats, error) {
	if s.cache != nil {
		var cached models.DashboardStats
		if err := s.cache.GetJSON(ctx, statsCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	v, err, _ := s.group.Do(statsCacheKey, func() (any, error) {
		// shared by every waiting caller, so one cancelled request must not
		// fail the read for the rest
		ctx := context.WithoutCancel(ctx)
		stats, err := s.Compute(ctx)
		if err != nil {
			s.logger.Error().Stack().Err(err).Msg("stats computed from incomplete data, not caching")
			return stats, nil
		}
		if s.cache != nil {
			if err := s.cache.SetJSON(ctx, statsCacheKey, stats, statsCacheTTL); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache stats")
			}
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.DashboardStats), nil
}

// Invalidate drops the cached stats. It is wired as the write hook of every
// resource service.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate stats cache")
	}
}

// Compute aggregates counts directly from the stores. A collection that
// cannot be read counts as empty and its error is returned with the stats.
func (s *StatsService) Compute(ctx context.Context) (*models.DashboardStats, error) {
	var errs []error
	actors, err := s.actors.ListErr(ctx)
	errs = append(errs, err)
	indicators, err := s.indicators.ListErr(ctx)
	errs = append(errs, err)
	incidents, err := s.incidents.ListErr(ctx)
	errs = append(errs, err)
	feeds, err := s.feeds.ListErr(ctx)
	errs = append(errs, err)

	stats := &models.DashboardStats{
		TotalActors:         len(actors),
		TotalIndicators:     len(indicators),
		TotalIncidents:      len(incidents),
		TotalFeeds:          len(feeds),
		IndicatorsByType:    make(map[string]int, len(models.IndicatorTypes)),
		IncidentsBySeverity: make(map[string]int, len(models.Severities)),
		Timestamp:           s.now(),
	}
	for _, t := range models.IndicatorTypes {
		stats.IndicatorsByType[string(t)] = 0
	}
	for _, sev := range models.Severities {
		stats.IncidentsBySeverity[string(sev)] = 0
	}

	for _, a := range actors {
		if a.IsActive() {
			stats.ActiveActors++
		}
	}
	for _, f := range feeds {
		if f.IsActive() {
			stats.ActiveFeeds++
		}
	}
	for _, i := range indicators {
		stats.IndicatorsByType[string(i.Type)]++
		if i.IsActive() {
			stats.ActiveIndicators++
			if strings.EqualFold(string(i.Severity), string(models.SeverityCritical)) {
				stats.CriticalIndicators++
			}
		}
	}
	for _, inc := range incidents {
		sev := strings.ToLower(string(inc.Severity))
		stats.IncidentsBySeverity[sev]++
		if inc.IsCritical() {
			stats.CriticalIncidents++
		}
		if !inc.IsClosed() && !strings.EqualFold(string(inc.Status), string(models.IncidentStatusResolved)) {
			stats.OpenIncidents++
		}
	}

	return stats, errors.Join(errs...)
}
