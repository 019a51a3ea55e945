package web

import (
	"threatdash/internal/domain/models"
)

// Field is a filter control or form input
type Field struct {
	Name     string   `json:"name"` // JSON key; dotted for nested objects
	Label    string   `json:"label"`
	Kind     string   `json:"kind"` // text, textarea, select, number, date, list, url
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required,omitempty"`
}

// Column is one table column or card line
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Kind  string `json:"kind"` // text, badge, date, list
}

// Resource describes a CRUD page driven by the ResourceManager script
type Resource struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Singular string   `json:"singular"`
	API      string   `json:"api"`
	View     string   `json:"view"` // table or grid
	PageSize int      `json:"pageSize"`
	TitleKey string   `json:"titleKey"`
	Filters  []Field  `json:"filters"`
	Fields   []Field  `json:"fields"`
	Columns  []Column `json:"columns"`
}

func sel(name, label string, options []string) Field {
	return Field{Name: name, Label: label, Kind: "select", Options: options}
}

func required(f Field) Field {
	f.Required = true
	return f
}

// resources builds the page definitions. Select options come from the
// model enums so the UI never drifts from what the API accepts.
func resources(gridSize, tableSize int) []Resource {
	severities := models.EnumStrings(models.Severities)

	return []Resource{
		{
			Slug: "actors", Title: "Threat Actors", Singular: "Threat Actor",
			API: "/api/actors", View: "grid", PageSize: gridSize, TitleKey: "name",
			Filters: []Field{
				sel("status", "Status", models.EnumStrings(models.ActorStatuses)),
				sel("motivation", "Motivation", models.EnumStrings(models.Motivations)),
				sel("sophistication", "Sophistication", models.EnumStrings(models.Sophistications)),
			},
			Fields: []Field{
				required(Field{Name: "name", Label: "Name", Kind: "text"}),
				{Name: "aliases", Label: "Aliases", Kind: "list"},
				required(Field{Name: "origin", Label: "Origin", Kind: "text"}),
				required(Field{Name: "description", Label: "Description", Kind: "textarea"}),
				sel("sophistication", "Sophistication", models.EnumStrings(models.Sophistications)),
				sel("motivation", "Motivation", models.EnumStrings(models.Motivations)),
				sel("status", "Status", models.EnumStrings(models.ActorStatuses)),
				{Name: "firstSeen", Label: "First seen", Kind: "date"},
				{Name: "lastSeen", Label: "Last seen", Kind: "date"},
				{Name: "tactics", Label: "Tactics", Kind: "list"},
				{Name: "techniques", Label: "Techniques", Kind: "list"},
				{Name: "targets", Label: "Targets", Kind: "list"},
			},
			Columns: []Column{
				{Key: "aliases", Label: "Aliases", Kind: "list"},
				{Key: "origin", Label: "Origin", Kind: "text"},
				{Key: "sophistication", Label: "Sophistication", Kind: "text"},
				{Key: "motivation", Label: "Motivation", Kind: "text"},
				{Key: "lastSeen", Label: "Last seen", Kind: "date"},
				{Key: "status", Label: "Status", Kind: "badge"},
			},
		},
		{
			Slug: "indicators", Title: "Threat Indicators", Singular: "Indicator",
			API: "/api/indicators", View: "table", PageSize: tableSize, TitleKey: "value",
			Filters: []Field{
				sel("type", "Type", models.EnumStrings(models.IndicatorTypes)),
				sel("severity", "Severity", severities),
				sel("status", "Status", models.EnumStrings(models.IndicatorStatuses)),
				sel("tlp", "TLP", models.EnumStrings(models.TLPs)),
			},
			Fields: []Field{
				required(sel("type", "Type", models.EnumStrings(models.IndicatorTypes))),
				required(Field{Name: "value", Label: "Value", Kind: "text"}),
				required(Field{Name: "source", Label: "Source", Kind: "text"}),
				sel("severity", "Severity", severities),
				{Name: "confidence", Label: "Confidence (0-100)", Kind: "number"},
				sel("tlp", "TLP", models.EnumStrings(models.TLPs)),
				sel("status", "Status", models.EnumStrings(models.IndicatorStatuses)),
				{Name: "description", Label: "Description", Kind: "textarea"},
				{Name: "tags", Label: "Tags", Kind: "list"},
				{Name: "threat_types", Label: "Threat types", Kind: "list"},
			},
			Columns: []Column{
				{Key: "value", Label: "Value", Kind: "text"},
				{Key: "type", Label: "Type", Kind: "text"},
				{Key: "severity", Label: "Severity", Kind: "badge"},
				{Key: "confidence", Label: "Confidence", Kind: "text"},
				{Key: "source", Label: "Source", Kind: "text"},
				{Key: "status", Label: "Status", Kind: "badge"},
			},
		},
		{
			Slug: "incidents", Title: "Incidents", Singular: "Incident",
			API: "/api/incidents", View: "table", PageSize: tableSize, TitleKey: "title",
			Filters: []Field{
				sel("severity", "Severity", severities),
				sel("status", "Status", models.EnumStrings(models.IncidentStatuses)),
				sel("incident_type", "Type", models.EnumStrings(models.IncidentTypes)),
			},
			Fields: []Field{
				required(Field{Name: "title", Label: "Title", Kind: "text"}),
				required(Field{Name: "description", Label: "Description", Kind: "textarea"}),
				sel("severity", "Severity", severities),
				sel("status", "Status", models.EnumStrings(models.IncidentStatuses)),
				sel("incident_type", "Type", models.EnumStrings(models.IncidentTypes)),
				{Name: "threat_actor", Label: "Threat actor", Kind: "text"},
				{Name: "attack_vector", Label: "Attack vector", Kind: "text"},
				{Name: "affected_systems", Label: "Affected systems", Kind: "list"},
				{Name: "analyst", Label: "Analyst", Kind: "text"},
				sel("impact.confidentiality", "Confidentiality impact", models.EnumStrings(models.ImpactLevels)),
				sel("impact.integrity", "Integrity impact", models.EnumStrings(models.ImpactLevels)),
				sel("impact.availability", "Availability impact", models.EnumStrings(models.ImpactLevels)),
				{Name: "tags", Label: "Tags", Kind: "list"},
			},
			Columns: []Column{
				{Key: "title", Label: "Title", Kind: "text"},
				{Key: "severity", Label: "Severity", Kind: "badge"},
				{Key: "status", Label: "Status", Kind: "badge"},
				{Key: "incident_type", Label: "Type", Kind: "text"},
				{Key: "threat_actor", Label: "Threat actor", Kind: "text"},
				{Key: "date_discovered", Label: "Discovered", Kind: "date"},
			},
		},
		{
			Slug: "feeds", Title: "Threat Feeds", Singular: "Threat Feed",
			API: "/api/feeds", View: "grid", PageSize: gridSize, TitleKey: "name",
			Filters: []Field{
				sel("type", "Type", models.EnumStrings(models.FeedTypes)),
				sel("status", "Status", models.EnumStrings(models.FeedStatuses)),
				sel("reliability", "Reliability", models.EnumStrings(models.Reliabilities)),
			},
			Fields: []Field{
				required(Field{Name: "name", Label: "Name", Kind: "text"}),
				required(sel("type", "Type", models.EnumStrings(models.FeedTypes))),
				required(Field{Name: "url", Label: "URL", Kind: "url"}),
				required(Field{Name: "description", Label: "Description", Kind: "textarea"}),
				sel("status", "Status", models.EnumStrings(models.FeedStatuses)),
				sel("reliability", "Reliability", models.EnumStrings(models.Reliabilities)),
				{Name: "source_organization", Label: "Organization", Kind: "text"},
				{Name: "update_frequency", Label: "Update frequency", Kind: "text"},
				{Name: "format", Label: "Format", Kind: "text"},
				{Name: "total_indicators", Label: "Total indicators", Kind: "number"},
				{Name: "tags", Label: "Tags", Kind: "list"},
			},
			Columns: []Column{
				{Key: "type", Label: "Type", Kind: "text"},
				{Key: "source_organization", Label: "Organization", Kind: "text"},
				{Key: "reliability", Label: "Reliability", Kind: "text"},
				{Key: "total_indicators", Label: "Indicators", Kind: "text"},
				{Key: "last_updated", Label: "Updated", Kind: "date"},
				{Key: "status", Label: "Status", Kind: "badge"},
			},
		},
	}
}
