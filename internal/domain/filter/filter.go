// Package filter turns list query parameters into a predicate chain over an
// in-memory collection, then slices the survivors into a page.
package filter

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultLimit is used when a pipeline is configured without one
const DefaultLimit = 50

// Reserved query parameter names
const (
	ParamSearch = "search"
	ParamLimit  = "limit"
	ParamOffset = "offset"
)

// Params is the raw, unvalidated set of list parameters
type Params struct {
	Search string
	Limit  string
	Offset string
	Values map[string]string
}

// ParseParams extracts list parameters from a query string. Only the first
// value of each key is kept and surrounding whitespace is dropped.
func ParseParams(q url.Values) Params {
	p := Params{Values: make(map[string]string, len(q))}
	for key, vals := range q {
		if len(vals) == 0 {
			continue
		}
		v := strings.TrimSpace(vals[0])
		switch key {
		case ParamSearch:
			p.Search = v
		case ParamLimit:
			p.Limit = v
		case ParamOffset:
			p.Offset = v
		default:
			p.Values[key] = v
		}
	}
	return p
}

// Get returns a non-reserved parameter value, or "" when absent
func (p Params) Get(key string) string {
	if p.Values == nil {
		return ""
	}
	return p.Values[key]
}

// Meta describes the page relative to the filtered collection
type Meta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// Page is the list response envelope
type Page[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

// Config describes how one entity type is searched and filtered
type Config[T any] struct {
	// SearchFields are matched by case-insensitive substring
	SearchFields []func(T) string
	// SearchLists are tag-like fields; any element may match
	SearchLists []func(T) []string
	// Categorical maps a query parameter to a field compared by
	// case-insensitive equality
	Categorical map[string]func(T) string
	// Thresholds maps a query parameter to a numeric field that must be
	// greater than or equal to the parameter
	Thresholds map[string]func(T) int
	// DefaultLimit is the page size when limit is absent or invalid
	DefaultLimit int
}

// Pipeline applies a Config to collections of T
type Pipeline[T any] struct {
	cfg Config[T]
}

// New creates a pipeline for the given configuration
func New[T any](cfg Config[T]) *Pipeline[T] {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	return &Pipeline[T]{cfg: cfg}
}

// Predicates builds the predicate chain for params. An empty chain keeps
// every record.
func (p *Pipeline[T]) Predicates(params Params) []func(T) bool {
	var preds []func(T) bool

	if params.Search != "" {
		needle := strings.ToLower(params.Search)
		preds = append(preds, func(item T) bool {
			return p.matchSearch(item, needle)
		})
	}

	for name, field := range p.cfg.Categorical {
		want := params.Get(name)
		if want == "" {
			continue
		}
		field := field
		preds = append(preds, func(item T) bool {
			return strings.EqualFold(field(item), want)
		})
	}

	for name, field := range p.cfg.Thresholds {
		raw := params.Get(name)
		if raw == "" {
			continue
		}
		min, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		field := field
		preds = append(preds, func(item T) bool {
			return field(item) >= min
		})
	}

	return preds
}

func (p *Pipeline[T]) matchSearch(item T, needle string) bool {
	for _, field := range p.cfg.SearchFields {
		if strings.Contains(strings.ToLower(field(item)), needle) {
			return true
		}
	}
	for _, list := range p.cfg.SearchLists {
		for _, v := range list(item) {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
	}
	return false
}

// Filter returns the records of items that satisfy every predicate, in
// their original order. items is not modified.
func (p *Pipeline[T]) Filter(items []T, params Params) []T {
	preds := p.Predicates(params)
	out := make([]T, 0, len(items))
next:
	for _, item := range items {
		for _, pred := range preds {
			if !pred(item) {
				continue next
			}
		}
		out = append(out, item)
	}
	return out
}

// Apply filters items and returns the requested page
func (p *Pipeline[T]) Apply(items []T, params Params) Page[T] {
	filtered := p.Filter(items, params)
	limit := parseLimit(params.Limit, p.cfg.DefaultLimit)
	offset := parseOffset(params.Offset)
	return Paginate(filtered, limit, offset)
}

// Paginate slices items to at most limit records starting at offset.
// The returned Data has length min(limit, max(0, len(items)-offset)).
// HasMore reports offset+limit < total without overflowing.
func Paginate[T any](items []T, limit, offset int) Page[T] {
	total := len(items)
	start := offset
	if start > total {
		start = total
	}
	end := total
	if limit < total-start {
		end = start + limit
	}

	data := make([]T, end-start)
	copy(data, items[start:end])

	return Page[T]{
		Data: data,
		Meta: Meta{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: offset < total && limit < total-offset,
		},
	}
}

// parseLimit returns the positive integer in raw, or def
func parseLimit(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// parseOffset returns the non-negative integer in raw, or 0
func parseOffset(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
