package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// legacyKeys maps document-store field names onto the canonical names, per
// collection
var legacyKeys = map[string]map[string]string{
	CollectionActors: {
		"actorName":           "name",
		"knownAliases":        "aliases",
		"alias":               "aliases",
		"sophisticationLevel": "sophistication",
		"activeSince":         "firstSeen",
		"lastActivity":        "lastSeen",
		"targetSectors":       "targets",
	},
	CollectionIndicators: {
		"indicatorType": "type",
		"severityLevel": "severity",
	},
	CollectionIncidents: {
		"incidentTitle":  "title",
		"reportedDate":   "date_discovered",
		"affectedAssets": "affected_systems",
		"incidentType":   "incident_type",
	},
	CollectionFeeds: {
		"sourceName":  "name",
		"sourceType":  "type",
		"lastChecked": "last_updated",
	},
}

// activeStatuses holds the {active, inactive} status values that replace the
// legacy isActive flag
var activeStatuses = map[string][2]string{
	CollectionActors:     {string(ActorStatusActive), string(ActorStatusInactive)},
	CollectionIndicators: {string(IndicatorStatusActive), string(IndicatorStatusInactive)},
	CollectionFeeds:      {string(FeedStatusActive), string(FeedStatusInactive)},
}

// NormalizeKeys rewrites a decoded document in place so that it uses the
// canonical field names. Canonical keys already present win over legacy ones.
// It reports whether anything changed.
func NormalizeKeys(collection string, doc map[string]any) bool {
	changed := false

	for legacy, canon := range legacyKeys[collection] {
		v, ok := doc[legacy]
		if !ok {
			continue
		}
		delete(doc, legacy)
		changed = true
		if _, exists := doc[canon]; !exists {
			doc[canon] = v
		}
	}

	if _, ok := doc["_id"]; ok {
		delete(doc, "_id")
		changed = true
	}

	if statuses, ok := activeStatuses[collection]; ok {
		if v, ok := doc["isActive"]; ok {
			delete(doc, "isActive")
			changed = true
			if _, exists := doc["status"]; !exists {
				if active, _ := v.(bool); active {
					doc["status"] = statuses[0]
				} else {
					doc["status"] = statuses[1]
				}
			}
		}
	}

	switch collection {
	case CollectionIndicators:
		// source may be a numeric feed id
		if n, ok := doc["source"].(json.Number); ok {
			doc["source"] = n.String()
			changed = true
		}
		if n, ok := doc["source"].(float64); ok {
			doc["source"] = strconv.FormatFloat(n, 'f', -1, 64)
			changed = true
		}
		if n, ok := doc["confidence"].(json.Number); ok {
			if _, err := n.Int64(); err != nil {
				if f, err := n.Float64(); err == nil {
					doc["confidence"] = int(f)
					changed = true
				}
			}
		}
	case CollectionFeeds:
		if v, ok := doc["reliabilityScore"]; ok {
			delete(doc, "reliabilityScore")
			changed = true
			if _, exists := doc["reliability"]; !exists {
				if score, ok := toFloat(v); ok {
					doc["reliability"] = string(ReliabilityFromScore(score))
				}
			}
		}
	}

	return changed
}

// NormalizeJSON applies NormalizeKeys to a raw JSON object. Documents that
// need no rewriting are returned unchanged.
func NormalizeJSON(collection string, data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil || !NormalizeKeys(collection, doc) {
		return data, nil
	}
	return json.Marshal(doc)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
