package models

import (
	"strings"
	"time"
)

// IndicatorType represents the kind of artifact an indicator describes
type IndicatorType string

const (
	IndicatorTypeIP     IndicatorType = "IP"
	IndicatorTypeDomain IndicatorType = "Domain"
	IndicatorTypeURL    IndicatorType = "URL"
	IndicatorTypeHash   IndicatorType = "Hash"
)

var IndicatorTypes = []IndicatorType{
	IndicatorTypeIP,
	IndicatorTypeDomain,
	IndicatorTypeURL,
	IndicatorTypeHash,
}

// TLP is a Traffic Light Protocol sharing marking
type TLP string

const (
	TLPWhite TLP = "WHITE"
	TLPGreen TLP = "GREEN"
	TLPAmber TLP = "AMBER"
	TLPRed   TLP = "RED"
)

var TLPs = []TLP{TLPWhite, TLPGreen, TLPAmber, TLPRed}

// IndicatorStatus represents the lifecycle state of an indicator
type IndicatorStatus string

const (
	IndicatorStatusActive   IndicatorStatus = "active"
	IndicatorStatusInactive IndicatorStatus = "inactive"
	IndicatorStatusExpired  IndicatorStatus = "expired"
)

var IndicatorStatuses = []IndicatorStatus{
	IndicatorStatusActive,
	IndicatorStatusInactive,
	IndicatorStatusExpired,
}

// DefaultConfidence is applied when a create payload omits confidence
const DefaultConfidence = 50

// IndicatorMetadata carries optional network context
type IndicatorMetadata struct {
	Country  string `json:"country,omitempty"`
	ASN      string `json:"asn,omitempty"`
	Port     int    `json:"port,omitempty"`
	Protocol string `json:"protocol,omitempty"`
}

// ThreatIndicator represents a single indicator of compromise (IOC)
type ThreatIndicator struct {
	ID          int64              `json:"id"`
	Type        IndicatorType      `json:"type"`
	Value       string             `json:"value"`
	Confidence  int                `json:"confidence"`
	Severity    Severity           `json:"severity"`
	Tags        []string           `json:"tags"`
	FirstSeen   time.Time          `json:"firstSeen,omitzero"`
	LastSeen    time.Time          `json:"lastSeen,omitzero"`
	Source      string             `json:"source"`
	Description string             `json:"description"`
	TLP         TLP                `json:"tlp"`
	IOC         bool               `json:"ioc"`
	ThreatTypes []string           `json:"threat_types"`
	Status      IndicatorStatus    `json:"status"`
	Metadata    *IndicatorMetadata `json:"metadata,omitempty"`
	CreatedAt   time.Time          `json:"createdAt,omitzero"`
	UpdatedAt   time.Time          `json:"updatedAt,omitzero"`

	// Populated on request by expand=source, never stored
	SourceFeed *ThreatFeed `json:"sourceFeed,omitempty"`
}

func (i *ThreatIndicator) GetID() int64   { return i.ID }
func (i *ThreatIndicator) SetID(id int64) { i.ID = id }

// IsActive reports whether the indicator has active status
func (i *ThreatIndicator) IsActive() bool {
	return strings.EqualFold(string(i.Status), string(IndicatorStatusActive))
}

// ClampConfidence bounds c to [0,100]
func ClampConfidence(c int) int {
	return min(max(c, 0), 100)
}

// IndicatorInput is the create payload for an indicator
type IndicatorInput struct {
	Type        IndicatorType      `json:"type" validate:"required,oneof=IP Domain URL Hash"`
	Value       string             `json:"value" validate:"required"`
	Confidence  *int               `json:"confidence"`
	Severity    Severity           `json:"severity" validate:"oneof=low medium high critical"`
	Tags        []string           `json:"tags"`
	Source      string             `json:"source" validate:"required"`
	Description string             `json:"description"`
	TLP         TLP                `json:"tlp" validate:"oneof=WHITE GREEN AMBER RED"`
	IOC         *bool              `json:"ioc"`
	ThreatTypes []string           `json:"threat_types"`
	Status      IndicatorStatus    `json:"status" validate:"oneof=active inactive expired"`
	Metadata    *IndicatorMetadata `json:"metadata"`
}

// Normalize trims input, canonicalizes enum case and applies defaults
func (in *IndicatorInput) Normalize() {
	in.Value = strings.TrimSpace(in.Value)
	in.Source = strings.TrimSpace(in.Source)
	in.Description = strings.TrimSpace(in.Description)
	in.Tags = cleanList(in.Tags)
	in.ThreatTypes = cleanList(in.ThreatTypes)
	in.Type = canonical(in.Type, IndicatorTypes)

	if in.Confidence == nil {
		c := DefaultConfidence
		in.Confidence = &c
	}
	*in.Confidence = ClampConfidence(*in.Confidence)
	if in.IOC == nil {
		ioc := true
		in.IOC = &ioc
	}
	if strings.TrimSpace(string(in.Severity)) == "" {
		in.Severity = SeverityMedium
	}
	in.Severity = canonical(in.Severity, Severities)
	if strings.TrimSpace(string(in.TLP)) == "" {
		in.TLP = TLPWhite
	}
	in.TLP = canonical(in.TLP, TLPs)
	if strings.TrimSpace(string(in.Status)) == "" {
		in.Status = IndicatorStatusActive
	}
	in.Status = canonical(in.Status, IndicatorStatuses)
}

// Build creates the record to be stored; first and last seen start at now
func (in IndicatorInput) Build(now time.Time) *ThreatIndicator {
	return &ThreatIndicator{
		Type:        in.Type,
		Value:       in.Value,
		Confidence:  *in.Confidence,
		Severity:    in.Severity,
		Tags:        in.Tags,
		FirstSeen:   now,
		LastSeen:    now,
		Source:      in.Source,
		Description: in.Description,
		TLP:         in.TLP,
		IOC:         *in.IOC,
		ThreatTypes: in.ThreatTypes,
		Status:      in.Status,
		Metadata:    in.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IndicatorPatch lists the fields a client may update
type IndicatorPatch struct {
	Type        *IndicatorType     `json:"type" validate:"omitempty,oneof=IP Domain URL Hash"`
	Value       *string            `json:"value" validate:"omitempty,notblank"`
	Confidence  *int               `json:"confidence"`
	Severity    *Severity          `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Tags        *[]string          `json:"tags"`
	LastSeen    *time.Time         `json:"lastSeen"`
	Source      *string            `json:"source" validate:"omitempty,notblank"`
	Description *string            `json:"description"`
	TLP         *TLP               `json:"tlp" validate:"omitempty,oneof=WHITE GREEN AMBER RED"`
	IOC         *bool              `json:"ioc"`
	ThreatTypes *[]string          `json:"threat_types"`
	Status      *IndicatorStatus   `json:"status" validate:"omitempty,oneof=active inactive expired"`
	Metadata    *IndicatorMetadata `json:"metadata"`
}

func (p *IndicatorPatch) Normalize() {
	trimPtr(p.Value)
	trimPtr(p.Source)
	trimPtr(p.Description)
	cleanListPtr(p.Tags)
	cleanListPtr(p.ThreatTypes)
	canonicalPtr(p.Type, IndicatorTypes)
	canonicalPtr(p.Severity, Severities)
	canonicalPtr(p.TLP, TLPs)
	canonicalPtr(p.Status, IndicatorStatuses)
	if p.Confidence != nil {
		c := ClampConfidence(*p.Confidence)
		p.Confidence = &c
	}
}

// Apply merges the patch into i and stamps UpdatedAt
func (p *IndicatorPatch) Apply(i *ThreatIndicator, now time.Time) {
	if p.Type != nil {
		i.Type = *p.Type
	}
	if p.Value != nil {
		i.Value = *p.Value
	}
	if p.Confidence != nil {
		i.Confidence = *p.Confidence
	}
	if p.Severity != nil {
		i.Severity = *p.Severity
	}
	if p.Tags != nil {
		i.Tags = *p.Tags
	}
	if p.LastSeen != nil {
		i.LastSeen = *p.LastSeen
	}
	if p.Source != nil {
		i.Source = *p.Source
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
	if p.TLP != nil {
		i.TLP = *p.TLP
	}
	if p.IOC != nil {
		i.IOC = *p.IOC
	}
	if p.ThreatTypes != nil {
		i.ThreatTypes = *p.ThreatTypes
	}
	if p.Status != nil {
		i.Status = *p.Status
	}
	if p.Metadata != nil {
		i.Metadata = p.Metadata
	}
	i.UpdatedAt = now
}
