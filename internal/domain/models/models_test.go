package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnum(t *testing.T) {
	v, ok := ParseEnum("CRITICAL", Severities)
	assert.True(t, ok)
	assert.Equal(t, SeverityCritical, v)

	tlp, ok := ParseEnum(" amber ", TLPs)
	assert.True(t, ok)
	assert.Equal(t, TLPAmber, tlp)

	_, ok = ParseEnum("catastrophic", Severities)
	assert.False(t, ok)
}

func TestIndicatorInputDefaultsAndClamp(t *testing.T) {
	conf := 250
	in := IndicatorInput{Type: "domain", Value: " evil.com ", Source: "1", Confidence: &conf}
	in.Normalize()

	assert.Equal(t, IndicatorTypeDomain, in.Type)
	assert.Equal(t, "evil.com", in.Value)
	assert.Equal(t, 100, *in.Confidence)
	assert.Equal(t, SeverityMedium, in.Severity)
	assert.Equal(t, TLPWhite, in.TLP)
	assert.Equal(t, IndicatorStatusActive, in.Status)
	assert.True(t, *in.IOC)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ind := in.Build(now)
	assert.Equal(t, now, ind.FirstSeen)
	assert.Equal(t, now, ind.LastSeen)
	assert.NotNil(t, ind.Tags)

	missing := IndicatorInput{}
	missing.Normalize()
	assert.Equal(t, DefaultConfidence, *missing.Confidence)

	neg := -4
	patch := IndicatorPatch{Confidence: &neg}
	patch.Normalize()
	assert.Equal(t, 0, *patch.Confidence)
}

func TestIncidentTimeline(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := IncidentInput{Title: "Breach", Description: "d"}
	in.Normalize()
	inc := in.Build(created)

	require.Len(t, inc.Timeline, 1)
	assert.Equal(t, "Incident created", inc.Timeline[0].Event)
	assert.Equal(t, IncidentStatusNew, inc.Status)
	assert.Equal(t, IncidentTypeOther, inc.IncidentType)
	assert.Equal(t, ImpactLow, inc.Impact.Availability)

	later := created.Add(time.Hour)
	status := IncidentStatus("Resolved")
	note := "Root cause identified"
	patch := IncidentPatch{Status: &status, TimelineEvent: &note}
	patch.Normalize()
	patch.Apply(inc, later)

	require.Len(t, inc.Timeline, 3)
	assert.Equal(t, "Incident created", inc.Timeline[0].Event)
	assert.Equal(t, "Status changed from new to resolved", inc.Timeline[1].Event)
	assert.Equal(t, note, inc.Timeline[2].Event)
	require.NotNil(t, inc.ResolvedAt)
	assert.Equal(t, later, *inc.ResolvedAt)
	assert.Equal(t, later, inc.DateUpdated)

	// same status again leaves the timeline alone
	again := IncidentStatusResolved
	(&IncidentPatch{Status: &again}).Apply(inc, later.Add(time.Hour))
	assert.Len(t, inc.Timeline, 3)
	assert.Equal(t, later, *inc.ResolvedAt)
}

func TestIncidentIsCritical(t *testing.T) {
	assert.True(t, (&Incident{Severity: "critical", Status: "new"}).IsCritical())
	assert.True(t, (&Incident{Severity: "Critical", Status: "resolved"}).IsCritical())
	assert.False(t, (&Incident{Severity: "critical", Status: "closed"}).IsCritical())
	assert.False(t, (&Incident{Severity: "high", Status: "new"}).IsCritical())
}

func TestActorPatchKeepsAbsentFields(t *testing.T) {
	a := &ThreatActor{ID: 3, Name: "APT1", Origin: "CN", Aliases: []string{"Comment Crew"}}
	name := "  APT-1 "
	p := ActorPatch{Name: &name}
	p.Normalize()
	p.Apply(a, time.Now())

	assert.Equal(t, int64(3), a.ID)
	assert.Equal(t, "APT-1", a.Name)
	assert.Equal(t, "CN", a.Origin)
	assert.Equal(t, []string{"Comment Crew"}, a.Aliases)
}

func TestReliabilityFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Reliability
	}{
		{0, ReliabilityLow},
		{3.9, ReliabilityLow},
		{4, ReliabilityMedium},
		{7, ReliabilityHigh},
		{9.5, ReliabilityVeryHigh},
		{10, ReliabilityVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReliabilityFromScore(tt.score), "score %v", tt.score)
	}
}

func TestNormalizeJSON(t *testing.T) {
	t.Run("actor legacy names", func(t *testing.T) {
		out, err := NormalizeJSON(CollectionActors, []byte(`{"id":1,"actorName":"Lazarus","alias":["Hidden Cobra"],"targetSectors":["finance"],"_id":"abc"}`))
		require.NoError(t, err)

		var a ThreatActor
		require.NoError(t, json.Unmarshal(out, &a))
		assert.Equal(t, "Lazarus", a.Name)
		assert.Equal(t, []string{"Hidden Cobra"}, a.Aliases)
		assert.Equal(t, []string{"finance"}, a.Targets)
	})

	t.Run("actor and feed isActive", func(t *testing.T) {
		out, err := NormalizeJSON(CollectionActors, []byte(`{"actorName":"A","isActive":false}`))
		require.NoError(t, err)
		var a ThreatActor
		require.NoError(t, json.Unmarshal(out, &a))
		assert.Equal(t, ActorStatusInactive, a.Status)

		out, err = NormalizeJSON(CollectionFeeds, []byte(`{"sourceName":"F","isActive":true}`))
		require.NoError(t, err)
		var f ThreatFeed
		require.NoError(t, json.Unmarshal(out, &f))
		assert.Equal(t, FeedStatusActive, f.Status)

		out, err = NormalizeJSON(CollectionFeeds, []byte(`{"status":"error","isActive":true}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"error"}`, string(out))
	})

	t.Run("canonical wins", func(t *testing.T) {
		out, err := NormalizeJSON(CollectionIndicators, []byte(`{"severity":"low","severityLevel":"critical"}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"severity":"low"}`, string(out))
	})

	t.Run("indicator flags and numeric source", func(t *testing.T) {
		out, err := NormalizeJSON(CollectionIndicators, []byte(`{"indicatorType":"IP","isActive":false,"source":12}`))
		require.NoError(t, err)

		var ind ThreatIndicator
		require.NoError(t, json.Unmarshal(out, &ind))
		assert.Equal(t, IndicatorTypeIP, ind.Type)
		assert.Equal(t, IndicatorStatusInactive, ind.Status)
		assert.Equal(t, "12", ind.Source)
	})

	t.Run("feed reliability score", func(t *testing.T) {
		out, err := NormalizeJSON(CollectionFeeds, []byte(`{"sourceName":"OTX","sourceType":"community","reliabilityScore":8}`))
		require.NoError(t, err)

		var f ThreatFeed
		require.NoError(t, json.Unmarshal(out, &f))
		assert.Equal(t, "OTX", f.Name)
		assert.Equal(t, FeedTypeCommunity, f.Type)
		assert.Equal(t, ReliabilityHigh, f.Reliability)
	})

	t.Run("canonical document untouched", func(t *testing.T) {
		in := []byte(`{"id": 4, "title": "x"}`)
		out, err := NormalizeJSON(CollectionIncidents, in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := NormalizeJSON(CollectionIncidents, []byte(`[`))
		assert.Error(t, err)
	})
}
