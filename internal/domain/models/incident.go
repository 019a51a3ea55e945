package models

import (
	"fmt"
	"strings"
	"time"
)

// IncidentStatus represents the handling state of an incident
type IncidentStatus string

const (
	IncidentStatusNew           IncidentStatus = "new"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusContained     IncidentStatus = "contained"
	IncidentStatusResolved      IncidentStatus = "resolved"
	IncidentStatusClosed        IncidentStatus = "closed"
)

var IncidentStatuses = []IncidentStatus{
	IncidentStatusNew,
	IncidentStatusInvestigating,
	IncidentStatusContained,
	IncidentStatusResolved,
	IncidentStatusClosed,
}

// IncidentType classifies an incident
type IncidentType string

const (
	IncidentTypeMalware       IncidentType = "malware"
	IncidentTypePhishing      IncidentType = "phishing"
	IncidentTypeDataBreach    IncidentType = "data-breach"
	IncidentTypeDDoS          IncidentType = "ddos"
	IncidentTypeRansomware    IncidentType = "ransomware"
	IncidentTypeInsiderThreat IncidentType = "insider-threat"
	IncidentTypeOther         IncidentType = "other"
)

var IncidentTypes = []IncidentType{
	IncidentTypeMalware,
	IncidentTypePhishing,
	IncidentTypeDataBreach,
	IncidentTypeDDoS,
	IncidentTypeRansomware,
	IncidentTypeInsiderThreat,
	IncidentTypeOther,
}

// ImpactLevel rates one CIA dimension
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

var ImpactLevels = []ImpactLevel{ImpactLow, ImpactMedium, ImpactHigh}

// Impact is the confidentiality/integrity/availability assessment
type Impact struct {
	Confidentiality ImpactLevel `json:"confidentiality" validate:"omitempty,oneof=low medium high"`
	Integrity       ImpactLevel `json:"integrity" validate:"omitempty,oneof=low medium high"`
	Availability    ImpactLevel `json:"availability" validate:"omitempty,oneof=low medium high"`
}

func (i *Impact) normalize() {
	for _, lvl := range []*ImpactLevel{&i.Confidentiality, &i.Integrity, &i.Availability} {
		if strings.TrimSpace(string(*lvl)) == "" {
			*lvl = ImpactLow
		}
		*lvl = canonical(*lvl, ImpactLevels)
	}
}

// TimelineEntry is one entry of an incident's append-only history
type TimelineEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
}

// Incident represents a security incident under investigation
type Incident struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Severity        Severity        `json:"severity"`
	Status          IncidentStatus  `json:"status"`
	IncidentType    IncidentType    `json:"incident_type"`
	DateDiscovered  time.Time       `json:"date_discovered,omitzero"`
	DateUpdated     time.Time       `json:"date_updated,omitzero"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
	AffectedSystems []string        `json:"affected_systems"`
	ThreatActor     string          `json:"threat_actor"`
	AttackVector    string          `json:"attack_vector"`
	Indicators      []string        `json:"indicators"`
	MitreTactics    []string        `json:"mitre_tactics"`
	MitreTechniques []string        `json:"mitre_techniques"`
	Impact          Impact          `json:"impact"`
	Timeline        []TimelineEntry `json:"timeline"`
	Analyst         string          `json:"analyst,omitempty"`
	Organization    string          `json:"organization,omitempty"`
	Tags            []string        `json:"tags"`

	// Populated on request by expand=threat_actor, never stored
	ThreatActorRecord *ThreatActor `json:"threatActorRecord,omitempty"`
}

func (i *Incident) GetID() int64   { return i.ID }
func (i *Incident) SetID(id int64) { i.ID = id }

// IsCritical reports whether the incident is critical and not yet closed
func (i *Incident) IsCritical() bool {
	return strings.EqualFold(string(i.Severity), string(SeverityCritical)) && !i.IsClosed()
}

// IsClosed reports whether the incident has closed status
func (i *Incident) IsClosed() bool {
	return strings.EqualFold(string(i.Status), string(IncidentStatusClosed))
}

// AppendTimeline adds an entry at the end of the timeline
func (i *Incident) AppendTimeline(at time.Time, event string) {
	i.Timeline = append(i.Timeline, TimelineEntry{Timestamp: at, Event: event})
}

// IncidentInput is the create payload for an incident
type IncidentInput struct {
	Title           string         `json:"title" validate:"required"`
	Description     string         `json:"description" validate:"required"`
	Severity        Severity       `json:"severity" validate:"oneof=low medium high critical"`
	Status          IncidentStatus `json:"status" validate:"oneof=new investigating contained resolved closed"`
	IncidentType    IncidentType   `json:"incident_type" validate:"oneof=malware phishing data-breach ddos ransomware insider-threat other"`
	DateDiscovered  *time.Time     `json:"date_discovered"`
	AffectedSystems []string       `json:"affected_systems"`
	ThreatActor     string         `json:"threat_actor"`
	AttackVector    string         `json:"attack_vector"`
	Indicators      []string       `json:"indicators"`
	MitreTactics    []string       `json:"mitre_tactics"`
	MitreTechniques []string       `json:"mitre_techniques"`
	Impact          Impact         `json:"impact"`
	Analyst         string         `json:"analyst"`
	Organization    string         `json:"organization"`
	Tags            []string       `json:"tags"`
}

// Normalize trims input, canonicalizes enum case and applies defaults
func (in *IncidentInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.ThreatActor = strings.TrimSpace(in.ThreatActor)
	in.AttackVector = strings.TrimSpace(in.AttackVector)
	in.Analyst = strings.TrimSpace(in.Analyst)
	in.Organization = strings.TrimSpace(in.Organization)
	in.AffectedSystems = cleanList(in.AffectedSystems)
	in.Indicators = cleanList(in.Indicators)
	in.MitreTactics = cleanList(in.MitreTactics)
	in.MitreTechniques = cleanList(in.MitreTechniques)
	in.Tags = cleanList(in.Tags)
	in.Impact.normalize()

	if strings.TrimSpace(string(in.Severity)) == "" {
		in.Severity = SeverityMedium
	}
	in.Severity = canonical(in.Severity, Severities)
	if strings.TrimSpace(string(in.Status)) == "" {
		in.Status = IncidentStatusNew
	}
	in.Status = canonical(in.Status, IncidentStatuses)
	if strings.TrimSpace(string(in.IncidentType)) == "" {
		in.IncidentType = IncidentTypeOther
	}
	in.IncidentType = canonical(in.IncidentType, IncidentTypes)
}

// Build creates the record to be stored with its initial timeline entry
func (in IncidentInput) Build(now time.Time) *Incident {
	discovered := now
	if in.DateDiscovered != nil {
		discovered = *in.DateDiscovered
	}
	inc := &Incident{
		Title:           in.Title,
		Description:     in.Description,
		Severity:        in.Severity,
		Status:          in.Status,
		IncidentType:    in.IncidentType,
		DateDiscovered:  discovered,
		DateUpdated:     now,
		AffectedSystems: in.AffectedSystems,
		ThreatActor:     in.ThreatActor,
		AttackVector:    in.AttackVector,
		Indicators:      in.Indicators,
		MitreTactics:    in.MitreTactics,
		MitreTechniques: in.MitreTechniques,
		Impact:          in.Impact,
		Analyst:         in.Analyst,
		Organization:    in.Organization,
		Tags:            in.Tags,
		Timeline:        []TimelineEntry{},
	}
	inc.AppendTimeline(now, "Incident created")
	if inc.Status == IncidentStatusResolved {
		inc.ResolvedAt = &now
	}
	return inc
}

// IncidentPatch lists the fields a client may update. The timeline cannot
// be replaced; TimelineEvent appends a free-form entry instead.
type IncidentPatch struct {
	Title           *string         `json:"title" validate:"omitempty,notblank"`
	Description     *string         `json:"description" validate:"omitempty,notblank"`
	Severity        *Severity       `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Status          *IncidentStatus `json:"status" validate:"omitempty,oneof=new investigating contained resolved closed"`
	IncidentType    *IncidentType   `json:"incident_type" validate:"omitempty,oneof=malware phishing data-breach ddos ransomware insider-threat other"`
	AffectedSystems *[]string       `json:"affected_systems"`
	ThreatActor     *string         `json:"threat_actor"`
	AttackVector    *string         `json:"attack_vector"`
	Indicators      *[]string       `json:"indicators"`
	MitreTactics    *[]string       `json:"mitre_tactics"`
	MitreTechniques *[]string       `json:"mitre_techniques"`
	Impact          *Impact         `json:"impact"`
	Analyst         *string         `json:"analyst"`
	Organization    *string         `json:"organization"`
	Tags            *[]string       `json:"tags"`
	TimelineEvent   *string         `json:"timeline_event"`
}

func (p *IncidentPatch) Normalize() {
	trimPtr(p.Title)
	trimPtr(p.Description)
	trimPtr(p.ThreatActor)
	trimPtr(p.AttackVector)
	trimPtr(p.Analyst)
	trimPtr(p.Organization)
	trimPtr(p.TimelineEvent)
	cleanListPtr(p.AffectedSystems)
	cleanListPtr(p.Indicators)
	cleanListPtr(p.MitreTactics)
	cleanListPtr(p.MitreTechniques)
	cleanListPtr(p.Tags)
	canonicalPtr(p.Severity, Severities)
	canonicalPtr(p.Status, IncidentStatuses)
	canonicalPtr(p.IncidentType, IncidentTypes)
	if p.Impact != nil {
		p.Impact.normalize()
	}
}

// Apply merges the patch into inc, records status changes on the timeline
// and stamps DateUpdated
func (p *IncidentPatch) Apply(inc *Incident, now time.Time) {
	if p.Title != nil {
		inc.Title = *p.Title
	}
	if p.Description != nil {
		inc.Description = *p.Description
	}
	if p.Severity != nil {
		inc.Severity = *p.Severity
	}
	if p.Status != nil && !strings.EqualFold(string(*p.Status), string(inc.Status)) {
		inc.AppendTimeline(now, fmt.Sprintf("Status changed from %s to %s", inc.Status, *p.Status))
		inc.Status = *p.Status
		if inc.Status == IncidentStatusResolved && inc.ResolvedAt == nil {
			resolved := now
			inc.ResolvedAt = &resolved
		}
	}
	if p.IncidentType != nil {
		inc.IncidentType = *p.IncidentType
	}
	if p.AffectedSystems != nil {
		inc.AffectedSystems = *p.AffectedSystems
	}
	if p.ThreatActor != nil {
		inc.ThreatActor = *p.ThreatActor
	}
	if p.AttackVector != nil {
		inc.AttackVector = *p.AttackVector
	}
	if p.Indicators != nil {
		inc.Indicators = *p.Indicators
	}
	if p.MitreTactics != nil {
		inc.MitreTactics = *p.MitreTactics
	}
	if p.MitreTechniques != nil {
		inc.MitreTechniques = *p.MitreTechniques
	}
	if p.Impact != nil {
		inc.Impact = *p.Impact
	}
	if p.Analyst != nil {
		inc.Analyst = *p.Analyst
	}
	if p.Organization != nil {
		inc.Organization = *p.Organization
	}
	if p.Tags != nil {
		inc.Tags = *p.Tags
	}
	if p.TimelineEvent != nil && *p.TimelineEvent != "" {
		inc.AppendTimeline(now, *p.TimelineEvent)
	}
	inc.DateUpdated = now
}
