package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatdash/internal/domain/filter"
	"threatdash/internal/domain/models"
	"threatdash/internal/domain/services"
	"threatdash/internal/infrastructure/storage"
	"threatdash/pkg/logger"
)

func newBackend(t *testing.T) storage.Backend {
	t.Helper()
	b, err := storage.NewFileBackend(afero.NewMemMapFs(), "/data", logger.Nop())
	require.NoError(t, err)
	return b
}

func TestDefaultFixturesSeed(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)

	f, err := Default()
	require.NoError(t, err)
	require.Len(t, f.Indicators, 8)

	res, err := New(backend, logger.Nop()).Run(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"actors": 4, "indicators": 8, "incidents": 4, "feeds": 4}, res.Created)

	indicators := storage.NewRepository[*models.ThreatIndicator](backend, models.CollectionIndicators, logger.Nop())
	svc := services.NewIndicatorService(indicators, nil, services.Options{}, logger.Nop())
	page := svc.List(ctx, filter.Params{Values: map[string]string{"severity": "critical"}})
	assert.Equal(t, 3, page.Meta.Total)
	assert.Len(t, page.Data, 3)

	// legacy names in the fixtures were mapped
	actors := storage.NewRepository[*models.ThreatActor](backend, models.CollectionActors, logger.Nop())
	var fin7 *models.ThreatActor
	for _, a := range actors.List(ctx) {
		if a.Name == "FIN7" {
			fin7 = a
		}
	}
	require.NotNil(t, fin7)
	assert.Equal(t, []string{"Carbanak"}, fin7.Aliases)
	assert.Equal(t, models.SophisticationAdvanced, fin7.Sophistication)
	assert.Equal(t, "2015-06-01", fin7.FirstSeen)

	feeds := storage.NewRepository[*models.ThreatFeed](backend, models.CollectionFeeds, logger.Nop())
	for _, feed := range feeds.List(ctx) {
		if feed.Name == "CISA AIS" {
			assert.Equal(t, models.ReliabilityVeryHigh, feed.Reliability)
			assert.Equal(t, models.FeedTypeGovernment, feed.Type)
		}
	}
}

func TestRunTwiceSkipsExisting(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	f, err := Default()
	require.NoError(t, err)

	s := New(backend, logger.Nop())
	_, err = s.Run(ctx, f)
	require.NoError(t, err)

	res, err := s.Run(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Equal(t, f.Count(), res.Skipped["actors"]+res.Skipped["indicators"]+res.Skipped["incidents"]+res.Skipped["feeds"])
}

func TestResetEmptiesCollections(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	f, err := Default()
	require.NoError(t, err)

	s := New(backend, logger.Nop())
	_, err = s.Run(ctx, f)
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx))

	for _, c := range models.Collections {
		docs, err := backend.List(ctx, c)
		require.NoError(t, err)
		assert.Empty(t, docs, c)
	}
}

func TestLoadRejectsUnknownSections(t *testing.T) {
	_, err := Load(strings.NewReader("actors: []\nweapons: []\n"))
	assert.Error(t, err)
}

func TestRunReportsInvalidFixture(t *testing.T) {
	f := &Fixtures{Indicators: []map[string]any{{"type": "IP", "source": "x"}}}
	_, err := New(newBackend(t), logger.Nop()).Run(context.Background(), f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indicators[0]")
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/fx.yaml", []byte("feeds:\n  - name: X\n"), 0o644))
	f, err := LoadFile(fs, "/fx.yaml")
	require.NoError(t, err)
	assert.Len(t, f.Feeds, 1)
}
