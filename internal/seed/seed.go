// Package seed loads sample records into a storage backend through the
// same services the API uses, so defaults and validation apply.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"threatdash/internal/domain/apperr"
	"threatdash/internal/domain/models"
	"threatdash/internal/domain/services"
	"threatdash/internal/infrastructure/storage"
	"threatdash/pkg/logger"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures are raw documents per collection
type Fixtures struct {
	Actors     []map[string]any `yaml:"actors"`
	Indicators []map[string]any `yaml:"indicators"`
	Incidents  []map[string]any `yaml:"incidents"`
	Feeds      []map[string]any `yaml:"feeds"`
}

// Count is the number of documents across all collections
func (f *Fixtures) Count() int {
	return len(f.Actors) + len(f.Indicators) + len(f.Incidents) + len(f.Feeds)
}

// Load decodes fixtures from YAML
func Load(r io.Reader) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	return &f, nil
}

// LoadFile reads fixtures from path on fs
func LoadFile(fs afero.Fs, path string) (*Fixtures, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures %s: %w", path, err)
	}
	return Load(bytes.NewReader(data))
}

// Default returns the built-in fixtures
func Default() (*Fixtures, error) {
	return Load(bytes.NewReader(defaultFixtures))
}

// Result counts what a run did per collection
type Result struct {
	Created map[string]int
	Skipped map[string]int
}

func (r Result) record(collection string, created bool) {
	if created {
		r.Created[collection]++
	} else {
		r.Skipped[collection]++
	}
}

// Seeder writes fixtures into a backend
type Seeder struct {
	backend   storage.Backend
	actors    *storage.Repository[*models.ThreatActor]
	incidents *storage.Repository[*models.Incident]
	actorSvc  *services.ActorService
	indSvc    *services.IndicatorService
	incSvc    *services.IncidentService
	feedSvc   *services.FeedService
	logger    *logger.Logger
}

// New creates a Seeder over backend
func New(backend storage.Backend, log *logger.Logger) *Seeder {
	log = log.WithComponent("seed")
	actors := storage.NewRepository[*models.ThreatActor](backend, models.CollectionActors, log)
	indicators := storage.NewRepository[*models.ThreatIndicator](backend, models.CollectionIndicators, log)
	incidents := storage.NewRepository[*models.Incident](backend, models.CollectionIncidents, log)
	feeds := storage.NewRepository[*models.ThreatFeed](backend, models.CollectionFeeds, log)

	opts := services.Options{}
	return &Seeder{
		backend:   backend,
		actors:    actors,
		incidents: incidents,
		actorSvc:  services.NewActorService(actors, opts, log),
		indSvc:    services.NewIndicatorService(indicators, feeds, opts, log),
		incSvc:    services.NewIncidentService(incidents, actors, opts, log),
		feedSvc:   services.NewFeedService(feeds, opts, log),
		logger:    log,
	}
}

// Reset empties every record collection. Users are left alone.
func (s *Seeder) Reset(ctx context.Context) error {
	for _, c := range models.Collections {
		if err := s.backend.Truncate(ctx, c); err != nil {
			return fmt.Errorf("failed to reset %s: %w", c, err)
		}
		s.logger.Info().Str("collection", c).Msg("collection reset")
	}
	return nil
}

// Run inserts the fixtures. Records that already exist (same indicator
// value, feed name, actor name or incident title) are skipped, so running
// twice is harmless.
func (s *Seeder) Run(ctx context.Context, f *Fixtures) (Result, error) {
	res := Result{Created: map[string]int{}, Skipped: map[string]int{}}

	// feeds and actors first so references from the others resolve
	for i, doc := range f.Feeds {
		var in models.FeedInput
		if err := decode(models.CollectionFeeds, doc, &in); err != nil {
			return res, fmt.Errorf("feeds[%d]: %w", i, err)
		}
		created, err := skipConflict(s.feedSvc.Create(ctx, in))
		if err != nil {
			return res, fmt.Errorf("feeds[%d]: %w", i, err)
		}
		res.record(models.CollectionFeeds, created)
	}

	existingActors := map[string]bool{}
	for _, a := range s.actors.List(ctx) {
		existingActors[strings.ToLower(a.Name)] = true
	}
	for i, doc := range f.Actors {
		var in models.ActorInput
		if err := decode(models.CollectionActors, doc, &in); err != nil {
			return res, fmt.Errorf("actors[%d]: %w", i, err)
		}
		key := strings.ToLower(strings.TrimSpace(in.Name))
		if existingActors[key] {
			res.record(models.CollectionActors, false)
			continue
		}
		if _, err := s.actorSvc.Create(ctx, in); err != nil {
			return res, fmt.Errorf("actors[%d]: %w", i, err)
		}
		existingActors[key] = true
		res.record(models.CollectionActors, true)
	}

	for i, doc := range f.Indicators {
		var in models.IndicatorInput
		if err := decode(models.CollectionIndicators, doc, &in); err != nil {
			return res, fmt.Errorf("indicators[%d]: %w", i, err)
		}
		created, err := skipConflict(s.indSvc.Create(ctx, in))
		if err != nil {
			return res, fmt.Errorf("indicators[%d]: %w", i, err)
		}
		res.record(models.CollectionIndicators, created)
	}

	existingIncidents := map[string]bool{}
	for _, inc := range s.incidents.List(ctx) {
		existingIncidents[strings.ToLower(inc.Title)] = true
	}
	for i, doc := range f.Incidents {
		var in models.IncidentInput
		if err := decode(models.CollectionIncidents, doc, &in); err != nil {
			return res, fmt.Errorf("incidents[%d]: %w", i, err)
		}
		key := strings.ToLower(strings.TrimSpace(in.Title))
		if existingIncidents[key] {
			res.record(models.CollectionIncidents, false)
			continue
		}
		if _, err := s.incSvc.Create(ctx, in); err != nil {
			return res, fmt.Errorf("incidents[%d]: %w", i, err)
		}
		existingIncidents[key] = true
		res.record(models.CollectionIncidents, true)
	}

	s.logger.Info().
		Interface("created", res.Created).
		Interface("skipped", res.Skipped).
		Msg("seed complete")
	return res, nil
}

// decode maps a YAML document through the legacy-key normalization and into
// an API input struct
func decode(collection string, doc map[string]any, dst any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	data, err = models.NormalizeJSON(collection, data)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func skipConflict[T any](_ T, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if apperr.Is(err, apperr.KindConflict) {
		return false, nil
	}
	return false, err
}
