package samples_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/samples"
	"github.com/respawnmetrics/respawn/pkg/sources"
)

func TestGenerateSizes(t *testing.T) {
	sizes := map[string]int{
		datasets.Anxiety:          1000,
		datasets.Aggression:       800,
		datasets.Wellbeing:        1500,
		datasets.PredictionScales: 1200,
		datasets.SteamGames:       500,
	}
	for name, want := range sizes {
		t.Run(name, func(t *testing.T) {
			tbl, err := samples.Generate(name)
			require.NoError(t, err)
			assert.Equal(t, want, tbl.Len())
			assert.Equal(t, name, tbl.Name())

			spec, err := datasets.Default().Lookup(name)
			require.NoError(t, err)
			require.NoError(t, spec.Validate(tbl))
		})
	}

	_, err := samples.Generate("nope")
	assert.True(t, errors.IsNotFound(err))
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := samples.Generate(datasets.Aggression)
	require.NoError(t, err)
	b, err := samples.Generate(datasets.Aggression)
	require.NoError(t, err)
	assert.Equal(t, a.Rows(), b.Rows())
}

func TestDistributionsAreClipped(t *testing.T) {
	for _, r := range samples.Anxiety(samples.AnxietySize) {
		assert.GreaterOrEqual(t, *r.AnxietyScore, 1.0)
		assert.LessOrEqual(t, *r.AnxietyScore, 10.0)
		assert.GreaterOrEqual(t, *r.Age, 13)
		assert.LessOrEqual(t, *r.Age, 65)
	}
	for _, r := range samples.PredictionScales(samples.PredictionScalesSize) {
		assert.GreaterOrEqual(t, *r.EscapismScore, 1.0)
		assert.LessOrEqual(t, *r.EscapismScore, 7.0)
		assert.LessOrEqual(t, *r.TotalGamingHours, 100.0)
	}

	games := samples.SteamGames(samples.SteamGamesSize)
	assert.Equal(t, 100000, games[0].AppID)
	assert.Equal(t, "2010-01-01", games[0].ReleaseDate.Format("2006-01-02"))
	assert.Equal(t, "2023-12-31", games[len(games)-1].ReleaseDate.Format("2006-01-02"))
	for _, g := range games {
		assert.GreaterOrEqual(t, *g.MetacriticScore, 40)
		assert.LessOrEqual(t, *g.Price, 60.0)
	}
}

func TestWriteRoundTripsThroughLoader(t *testing.T) {
	dir := t.TempDir()
	registry := datasets.Default()

	written, err := samples.Write(context.Background(), dir, registry, samples.CleanFileName)
	require.NoError(t, err)
	require.Len(t, written, registry.Len())
	assert.Equal(t, filepath.Join(dir, "gaming_anxiety_clean.csv"), written[0].Location)

	srcs, missing, err := sources.Discover(dir, registry)
	require.NoError(t, err)
	assert.Empty(t, missing)

	loaded, err := sources.LoadAll(context.Background(), srcs)
	require.NoError(t, err)
	assert.Empty(t, loaded.Failures)
	assert.Equal(t, 1000+800+1500+1200+500, loaded.Records())
}

func TestRawFileName(t *testing.T) {
	spec, err := datasets.Default().Lookup(datasets.SteamGames)
	require.NoError(t, err)
	assert.Equal(t, "steam_games.csv", samples.RawFileName(spec))
	assert.Equal(t, "steam_games_clean.csv", samples.CleanFileName(spec))
}
