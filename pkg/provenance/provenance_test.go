package provenance_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/provenance"
)

func TestTracker(t *testing.T) {
	tr := provenance.NewTracker()

	assert.Equal(t, 0, tr.Track("mental_health", provenance.Origin{Source: "anxiety", Key: "A0001", SourceRow: 0}))
	assert.Equal(t, 1, tr.Track("mental_health", provenance.Origin{Source: "aggression", Key: "G0001", SourceRow: 0}))
	tr.Track("master", provenance.Origin{Source: "anxiety", Key: "A0001"})

	o, ok := tr.Find("mental_health", 1)
	require.True(t, ok)
	assert.Equal(t, "aggression:G0001", o.String())

	_, ok = tr.Find("mental_health", 2)
	assert.False(t, ok)

	origins := tr.Origins("mental_health")
	origins[0].Source = "changed"
	assert.Equal(t, "anxiety", tr.Origins("mental_health")[0].Source)

	assert.Len(t, tr.Lineage(), 2)
	tr.Clear()
	assert.Empty(t, tr.Lineage())
}

func TestDistribution(t *testing.T) {
	l := provenance.Lineage{"master": {
		{Source: "wellbeing", Key: "W1"},
		{Source: "anxiety", Key: "A1"},
		{Source: "wellbeing", Key: "W2"},
		{Source: "aggression", Key: "G1"},
	}}

	assert.Equal(t, []provenance.SourceCount{
		{Source: "wellbeing", Rows: 2},
		{Source: "aggression", Rows: 1},
		{Source: "anxiety", Rows: 1},
	}, l.Distribution("master"))
}

func TestAudit(t *testing.T) {
	good := provenance.Lineage{"mental_health": {
		{Source: "anxiety", Key: "X1"},
		{Source: "aggression", Key: "X1"},
	}}
	assert.NoError(t, good.Audit(map[string]int{"mental_health": 2}))

	t.Run("row count mismatch", func(t *testing.T) {
		err := good.Audit(map[string]int{"mental_health": 3})
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("repeated origin", func(t *testing.T) {
		bad := provenance.Lineage{"mental_health": {
			{Source: "anxiety", Key: "X1", SourceRow: 0},
			{Source: "anxiety", Key: "X1", SourceRow: 5},
		}}
		err := bad.Audit(map[string]int{"mental_health": 2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "share an origin")
	})

	t.Run("missing origin", func(t *testing.T) {
		bad := provenance.Lineage{"master": {{Source: "anxiety"}}}
		assert.Error(t, bad.Audit(map[string]int{"master": 1}))
	})
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lineage.yaml")
	l := provenance.Lineage{"steam_games": {{Source: "steam_games", Key: "100000", SourceRow: 0}}}

	require.NoError(t, l.Save(path))
	loaded, err := provenance.Load(path)
	require.NoError(t, err)
	assert.Equal(t, l, loaded)

	_, err = provenance.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
