package models

import (
	"strings"
	"time"
)

// Sophistication represents a threat actor's capability level
type Sophistication string

const (
	SophisticationBeginner     Sophistication = "beginner"
	SophisticationIntermediate Sophistication = "intermediate"
	SophisticationAdvanced     Sophistication = "advanced"
	SophisticationExpert       Sophistication = "expert"
)

var Sophistications = []Sophistication{
	SophisticationBeginner,
	SophisticationIntermediate,
	SophisticationAdvanced,
	SophisticationExpert,
}

// Motivation represents why a threat actor operates
type Motivation string

const (
	MotivationFinancial  Motivation = "financial"
	MotivationPolitical  Motivation = "political"
	MotivationHacktivist Motivation = "hacktivist"
	MotivationEspionage  Motivation = "espionage"
	MotivationUnknown    Motivation = "unknown"
)

var Motivations = []Motivation{
	MotivationFinancial,
	MotivationPolitical,
	MotivationHacktivist,
	MotivationEspionage,
	MotivationUnknown,
}

// ActorStatus represents whether an actor is currently operating
type ActorStatus string

const (
	ActorStatusActive   ActorStatus = "active"
	ActorStatusInactive ActorStatus = "inactive"
)

var ActorStatuses = []ActorStatus{ActorStatusActive, ActorStatusInactive}

// ThreatActor represents a tracked threat actor or group
type ThreatActor struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Aliases        []string       `json:"aliases"`
	Origin         string         `json:"origin"`
	FirstSeen      string         `json:"firstSeen,omitempty"`
	LastSeen       string         `json:"lastSeen,omitempty"`
	Tactics        []string       `json:"tactics"`
	Techniques     []string       `json:"techniques"`
	Description    string         `json:"description"`
	Sophistication Sophistication `json:"sophistication,omitempty"`
	Motivation     Motivation     `json:"motivation,omitempty"`
	Targets        []string       `json:"targets"`
	Status         ActorStatus    `json:"status"`
	CreatedAt      time.Time      `json:"createdAt,omitzero"`
	UpdatedAt      time.Time      `json:"updatedAt,omitzero"`
}

func (a *ThreatActor) GetID() int64   { return a.ID }
func (a *ThreatActor) SetID(id int64) { a.ID = id }

// IsActive reports whether the actor has active status
func (a *ThreatActor) IsActive() bool {
	return strings.EqualFold(string(a.Status), string(ActorStatusActive))
}

// ActorInput is the create payload for a threat actor
type ActorInput struct {
	Name           string         `json:"name" validate:"required"`
	Aliases        []string       `json:"aliases"`
	Origin         string         `json:"origin" validate:"required"`
	FirstSeen      string         `json:"firstSeen" validate:"omitempty,datetime=2006-01-02"`
	LastSeen       string         `json:"lastSeen" validate:"omitempty,datetime=2006-01-02"`
	Tactics        []string       `json:"tactics"`
	Techniques     []string       `json:"techniques"`
	Description    string         `json:"description" validate:"required"`
	Sophistication Sophistication `json:"sophistication" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	Motivation     Motivation     `json:"motivation" validate:"omitempty,oneof=financial political hacktivist espionage unknown"`
	Targets        []string       `json:"targets"`
	Status         ActorStatus    `json:"status" validate:"oneof=active inactive"`
}

// Normalize trims input, canonicalizes enum case and applies defaults
func (in *ActorInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Origin = strings.TrimSpace(in.Origin)
	in.Description = strings.TrimSpace(in.Description)
	in.FirstSeen = strings.TrimSpace(in.FirstSeen)
	in.LastSeen = strings.TrimSpace(in.LastSeen)
	in.Aliases = cleanList(in.Aliases)
	in.Tactics = cleanList(in.Tactics)
	in.Techniques = cleanList(in.Techniques)
	in.Targets = cleanList(in.Targets)
	in.Sophistication = canonical(in.Sophistication, Sophistications)
	in.Motivation = canonical(in.Motivation, Motivations)
	if strings.TrimSpace(string(in.Status)) == "" {
		in.Status = ActorStatusActive
	}
	in.Status = canonical(in.Status, ActorStatuses)
}

// Build creates the record to be stored. The id is assigned by the store.
func (in ActorInput) Build(now time.Time) *ThreatActor {
	return &ThreatActor{
		Name:           in.Name,
		Aliases:        in.Aliases,
		Origin:         in.Origin,
		FirstSeen:      in.FirstSeen,
		LastSeen:       in.LastSeen,
		Tactics:        in.Tactics,
		Techniques:     in.Techniques,
		Description:    in.Description,
		Sophistication: in.Sophistication,
		Motivation:     in.Motivation,
		Targets:        in.Targets,
		Status:         in.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ActorPatch lists the fields a client may update. Absent fields are kept.
type ActorPatch struct {
	Name           *string         `json:"name" validate:"omitempty,notblank"`
	Aliases        *[]string       `json:"aliases"`
	Origin         *string         `json:"origin" validate:"omitempty,notblank"`
	FirstSeen      *string         `json:"firstSeen" validate:"omitempty,datetime=2006-01-02"`
	LastSeen       *string         `json:"lastSeen" validate:"omitempty,datetime=2006-01-02"`
	Tactics        *[]string       `json:"tactics"`
	Techniques     *[]string       `json:"techniques"`
	Description    *string         `json:"description" validate:"omitempty,notblank"`
	Sophistication *Sophistication `json:"sophistication" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	Motivation     *Motivation     `json:"motivation" validate:"omitempty,oneof=financial political hacktivist espionage unknown"`
	Targets        *[]string       `json:"targets"`
	Status         *ActorStatus    `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (p *ActorPatch) Normalize() {
	trimPtr(p.Name)
	trimPtr(p.Origin)
	trimPtr(p.Description)
	trimPtr(p.FirstSeen)
	trimPtr(p.LastSeen)
	cleanListPtr(p.Aliases)
	cleanListPtr(p.Tactics)
	cleanListPtr(p.Techniques)
	cleanListPtr(p.Targets)
	canonicalPtr(p.Sophistication, Sophistications)
	canonicalPtr(p.Motivation, Motivations)
	canonicalPtr(p.Status, ActorStatuses)
}

// Apply merges the patch into a and stamps UpdatedAt
func (p *ActorPatch) Apply(a *ThreatActor, now time.Time) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Aliases != nil {
		a.Aliases = *p.Aliases
	}
	if p.Origin != nil {
		a.Origin = *p.Origin
	}
	if p.FirstSeen != nil {
		a.FirstSeen = *p.FirstSeen
	}
	if p.LastSeen != nil {
		a.LastSeen = *p.LastSeen
	}
	if p.Tactics != nil {
		a.Tactics = *p.Tactics
	}
	if p.Techniques != nil {
		a.Techniques = *p.Techniques
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Sophistication != nil {
		a.Sophistication = *p.Sophistication
	}
	if p.Motivation != nil {
		a.Motivation = *p.Motivation
	}
	if p.Targets != nil {
		a.Targets = *p.Targets
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	a.UpdatedAt = now
}
