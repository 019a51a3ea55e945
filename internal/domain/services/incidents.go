package services

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"threatdash/internal/domain/filter"
	"threatdash/internal/domain/models"
	"threatdash/internal/domain/validation"
	"threatdash/pkg/logger"
)

// ExpandThreatActor populates Incident.ThreatActorRecord
const ExpandThreatActor = "threat_actor"

// IncidentService manages incident records
type IncidentService struct {
	resource[*models.Incident]
	actors Store[*models.ThreatActor]
}

// NewIncidentService creates a new IncidentService. actors resolves the
// threat_actor reference on expand and may be nil.
func NewIncidentService(store Store[*models.Incident], actors Store[*models.ThreatActor], opts Options, log *logger.Logger) *IncidentService {
	cfg := filter.Config[*models.Incident]{
		SearchFields: []func(*models.Incident) string{
			func(i *models.Incident) string { return i.Title },
			func(i *models.Incident) string { return i.Description },
			func(i *models.Incident) string { return i.ThreatActor },
		},
		SearchLists: []func(*models.Incident) []string{
			func(i *models.Incident) []string { return i.Tags },
		},
		Categorical: map[string]func(*models.Incident) string{
			"severity":      func(i *models.Incident) string { return string(i.Severity) },
			"status":        func(i *models.Incident) string { return string(i.Status) },
			"incident_type": func(i *models.Incident) string { return string(i.IncidentType) },
		},
	}
	return &IncidentService{
		resource: newResource(store, "Incident", cfg, opts, log.WithComponent("incidents")),
		actors:   actors,
	}
}

// Get returns one incident, resolving its threat actor when asked. The
// reference may be an actor id or an actor name.
func (s *IncidentService) Get(ctx context.Context, id int64, expand []string) (*models.Incident, error) {
	inc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if slices.Contains(expand, ExpandThreatActor) && s.actors != nil && inc.ThreatActor != "" {
		inc.ThreatActorRecord = s.resolveActor(ctx, inc.ThreatActor)
	}
	return inc, nil
}

func (s *IncidentService) resolveActor(ctx context.Context, ref string) *models.ThreatActor {
	if actorID, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if a, err := s.actors.Get(ctx, actorID); err == nil {
			return a
		}
		return nil
	}
	for _, a := range s.actors.List(ctx) {
		if strings.EqualFold(a.Name, ref) || slices.ContainsFunc(a.Aliases, func(alias string) bool {
			return strings.EqualFold(alias, ref)
		}) {
			return a
		}
	}
	return nil
}

// Critical lists incidents with critical severity that are not closed
func (s *IncidentService) Critical(ctx context.Context) []*models.Incident {
	out := []*models.Incident{}
	for _, inc := range s.store.List(ctx) {
		if inc.IsCritical() {
			out = append(out, inc)
		}
	}
	return out
}

// Create validates and stores a new incident
func (s *IncidentService) Create(ctx context.Context, in models.IncidentInput) (*models.Incident, error) {
	in.Normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.create(ctx, in.Build(s.opts.now()))
}

// Update merges a validated patch into an existing incident; status changes
// and timeline_event are appended to the timeline
func (s *IncidentService) Update(ctx context.Context, id int64, p models.IncidentPatch) (*models.Incident, error) {
	inc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Normalize()
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	p.Apply(inc, s.opts.now())
	if err := s.save(ctx, inc); err != nil {
		return nil, err
	}
	return inc, nil
}
