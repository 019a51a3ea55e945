package models

import (
	"strings"
	"time"
)

// FeedType represents the kind of organization behind a feed
type FeedType string

const (
	FeedTypeOpenSource FeedType = "open-source"
	FeedTypeCommercial FeedType = "commercial"
	FeedTypeCommunity  FeedType = "community"
	FeedTypeGovernment FeedType = "government"
	FeedTypeMISP       FeedType = "misp"
	FeedTypeSTIXTAXII  FeedType = "stix-taxii"
)

var FeedTypes = []FeedType{
	FeedTypeOpenSource,
	FeedTypeCommercial,
	FeedTypeCommunity,
	FeedTypeGovernment,
	FeedTypeMISP,
	FeedTypeSTIXTAXII,
}

// FeedStatus represents the current status of a feed
type FeedStatus string

const (
	FeedStatusActive   FeedStatus = "active"
	FeedStatusInactive FeedStatus = "inactive"
	FeedStatusError    FeedStatus = "error"
)

var FeedStatuses = []FeedStatus{FeedStatusActive, FeedStatusInactive, FeedStatusError}

// Reliability is an ordinal trust rating of a feed
type Reliability string

const (
	ReliabilityLow      Reliability = "low"
	ReliabilityMedium   Reliability = "medium"
	ReliabilityHigh     Reliability = "high"
	ReliabilityVeryHigh Reliability = "very-high"
)

var Reliabilities = []Reliability{
	ReliabilityLow,
	ReliabilityMedium,
	ReliabilityHigh,
	ReliabilityVeryHigh,
}

// ReliabilityFromScore maps a numeric 0-10 reliability score onto the
// ordinal scale
func ReliabilityFromScore(score float64) Reliability {
	switch {
	case score >= 9:
		return ReliabilityVeryHigh
	case score >= 7:
		return ReliabilityHigh
	case score >= 4:
		return ReliabilityMedium
	default:
		return ReliabilityLow
	}
}

// ThreatFeed represents a threat intelligence source/feed
type ThreatFeed struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Type               FeedType    `json:"type"`
	URL                string      `json:"url"`
	Description        string      `json:"description"`
	Status             FeedStatus  `json:"status"`
	Reliability        Reliability `json:"reliability"`
	LastUpdated        time.Time   `json:"last_updated,omitzero"`
	UpdateFrequency    string      `json:"update_frequency,omitempty"`
	Tags               []string    `json:"tags"`
	DataTypes          []string    `json:"data_types"`
	Format             string      `json:"format,omitempty"`
	Authentication     string      `json:"authentication,omitempty"`
	TotalIndicators    int         `json:"total_indicators"`
	NewIndicatorsToday int         `json:"new_indicators_today"`
	SourceOrganization string      `json:"source_organization"`
	TLPLevels          []string    `json:"tlp_levels"`
	Categories         []string    `json:"categories"`
	CreatedAt          time.Time   `json:"createdAt,omitzero"`
}

func (f *ThreatFeed) GetID() int64   { return f.ID }
func (f *ThreatFeed) SetID(id int64) { f.ID = id }

// IsActive reports whether the feed has active status
func (f *ThreatFeed) IsActive() bool {
	return strings.EqualFold(string(f.Status), string(FeedStatusActive))
}

// FeedInput is the create payload for a feed
type FeedInput struct {
	Name               string      `json:"name" validate:"required"`
	Type               FeedType    `json:"type" validate:"required,oneof=open-source commercial community government misp stix-taxii"`
	URL                string      `json:"url" validate:"required,url"`
	Description        string      `json:"description" validate:"required"`
	Status             FeedStatus  `json:"status" validate:"oneof=active inactive error"`
	Reliability        Reliability `json:"reliability" validate:"oneof=low medium high very-high"`
	UpdateFrequency    string      `json:"update_frequency"`
	Tags               []string    `json:"tags"`
	DataTypes          []string    `json:"data_types"`
	Format             string      `json:"format"`
	Authentication     string      `json:"authentication"`
	TotalIndicators    int         `json:"total_indicators" validate:"gte=0"`
	NewIndicatorsToday int         `json:"new_indicators_today" validate:"gte=0"`
	SourceOrganization string      `json:"source_organization"`
	TLPLevels          []string    `json:"tlp_levels"`
	Categories         []string    `json:"categories"`
}

// Normalize trims input, canonicalizes enum case and applies defaults
func (in *FeedInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	in.Description = strings.TrimSpace(in.Description)
	in.UpdateFrequency = strings.TrimSpace(in.UpdateFrequency)
	in.Format = strings.TrimSpace(in.Format)
	in.Authentication = strings.TrimSpace(in.Authentication)
	in.SourceOrganization = strings.TrimSpace(in.SourceOrganization)
	in.Tags = cleanList(in.Tags)
	in.DataTypes = cleanList(in.DataTypes)
	in.TLPLevels = cleanList(in.TLPLevels)
	in.Categories = cleanList(in.Categories)
	in.Type = canonical(in.Type, FeedTypes)

	if strings.TrimSpace(string(in.Status)) == "" {
		in.Status = FeedStatusActive
	}
	in.Status = canonical(in.Status, FeedStatuses)
	if strings.TrimSpace(string(in.Reliability)) == "" {
		in.Reliability = ReliabilityMedium
	}
	in.Reliability = canonical(in.Reliability, Reliabilities)
}

func (in FeedInput) Build(now time.Time) *ThreatFeed {
	return &ThreatFeed{
		Name:               in.Name,
		Type:               in.Type,
		URL:                in.URL,
		Description:        in.Description,
		Status:             in.Status,
		Reliability:        in.Reliability,
		LastUpdated:        now,
		UpdateFrequency:    in.UpdateFrequency,
		Tags:               in.Tags,
		DataTypes:          in.DataTypes,
		Format:             in.Format,
		Authentication:     in.Authentication,
		TotalIndicators:    in.TotalIndicators,
		NewIndicatorsToday: in.NewIndicatorsToday,
		SourceOrganization: in.SourceOrganization,
		TLPLevels:          in.TLPLevels,
		Categories:         in.Categories,
		CreatedAt:          now,
	}
}

// FeedPatch lists the fields a client may update
type FeedPatch struct {
	Name               *string      `json:"name" validate:"omitempty,notblank"`
	Type               *FeedType    `json:"type" validate:"omitempty,oneof=open-source commercial community government misp stix-taxii"`
	URL                *string      `json:"url" validate:"omitempty,url"`
	Description        *string      `json:"description" validate:"omitempty,notblank"`
	Status             *FeedStatus  `json:"status" validate:"omitempty,oneof=active inactive error"`
	Reliability        *Reliability `json:"reliability" validate:"omitempty,oneof=low medium high very-high"`
	UpdateFrequency    *string      `json:"update_frequency"`
	Tags               *[]string    `json:"tags"`
	DataTypes          *[]string    `json:"data_types"`
	Format             *string      `json:"format"`
	Authentication     *string      `json:"authentication"`
	TotalIndicators    *int         `json:"total_indicators" validate:"omitempty,gte=0"`
	NewIndicatorsToday *int         `json:"new_indicators_today" validate:"omitempty,gte=0"`
	SourceOrganization *string      `json:"source_organization"`
	TLPLevels          *[]string    `json:"tlp_levels"`
	Categories         *[]string    `json:"categories"`
}

func (p *FeedPatch) Normalize() {
	trimPtr(p.Name)
	trimPtr(p.URL)
	trimPtr(p.Description)
	trimPtr(p.UpdateFrequency)
	trimPtr(p.Format)
	trimPtr(p.Authentication)
	trimPtr(p.SourceOrganization)
	cleanListPtr(p.Tags)
	cleanListPtr(p.DataTypes)
	cleanListPtr(p.TLPLevels)
	cleanListPtr(p.Categories)
	canonicalPtr(p.Type, FeedTypes)
	canonicalPtr(p.Status, FeedStatuses)
	canonicalPtr(p.Reliability, Reliabilities)
}

// Apply merges the patch into f and refreshes LastUpdated
func (p *FeedPatch) Apply(f *ThreatFeed, now time.Time) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Type != nil {
		f.Type = *p.Type
	}
	if p.URL != nil {
		f.URL = *p.URL
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.Reliability != nil {
		f.Reliability = *p.Reliability
	}
	if p.UpdateFrequency != nil {
		f.UpdateFrequency = *p.UpdateFrequency
	}
	if p.Tags != nil {
		f.Tags = *p.Tags
	}
	if p.DataTypes != nil {
		f.DataTypes = *p.DataTypes
	}
	if p.Format != nil {
		f.Format = *p.Format
	}
	if p.Authentication != nil {
		f.Authentication = *p.Authentication
	}
	if p.TotalIndicators != nil {
		f.TotalIndicators = *p.TotalIndicators
	}
	if p.NewIndicatorsToday != nil {
		f.NewIndicatorsToday = *p.NewIndicatorsToday
	}
	if p.SourceOrganization != nil {
		f.SourceOrganization = *p.SourceOrganization
	}
	if p.TLPLevels != nil {
		f.TLPLevels = *p.TLPLevels
	}
	if p.Categories != nil {
		f.Categories = *p.Categories
	}
	f.LastUpdated = now
}
