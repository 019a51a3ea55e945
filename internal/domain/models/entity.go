package models

import (
	"strings"
)

// Collection names used by every storage backend
const (
	CollectionActors     = "actors"
	CollectionIndicators = "indicators"
	CollectionIncidents  = "incidents"
	CollectionFeeds      = "feeds"
	CollectionUsers      = "users"
)

// Collections lists the record collections served by the API
var Collections = []string{
	CollectionActors,
	CollectionIndicators,
	CollectionIncidents,
	CollectionFeeds,
}

// Entity is a stored record with a store-assigned integer id
type Entity interface {
	GetID() int64
	SetID(id int64)
}

// Severity represents an ordinal impact rating
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities in ascending order
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// ParseEnum returns the member of allowed equal to raw ignoring case.
// Unknown values are returned unchanged with ok=false so that validation
// can report them.
func ParseEnum[E ~string](raw string, allowed []E) (E, bool) {
	raw = strings.TrimSpace(raw)
	for _, v := range allowed {
		if strings.EqualFold(raw, string(v)) {
			return v, true
		}
	}
	return E(raw), false
}

// EnumStrings converts enum values to plain strings, e.g. for templates
func EnumStrings[E ~string](values []E) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// canonical returns raw mapped onto allowed, or raw itself when unknown
func canonical[E ~string](raw E, allowed []E) E {
	v, _ := ParseEnum(string(raw), allowed)
	return v
}

// cleanList trims every element and drops empty ones. A nil input yields an
// empty, non-nil slice.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func cleanListPtr(l *[]string) {
	if l != nil {
		*l = cleanList(*l)
	}
}

func canonicalPtr[E ~string](v *E, allowed []E) {
	if v != nil {
		*v = canonical(*v, allowed)
	}
}
