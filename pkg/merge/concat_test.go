package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/provenance"
	"github.com/respawnmetrics/respawn/pkg/table"
)

func TestConcatFailsOnRepeatedKey(t *testing.T) {
	schema := table.MustSchema(
		table.Column{Name: datasets.ParticipantIDColumn, Kind: table.KindString},
		table.Column{Name: "wellbeing_score", Kind: table.KindFloat},
	)
	tbl, err := table.New(datasets.Wellbeing, schema, []table.Row{
		{table.String("S1"), table.Float(40)},
		{table.String("S2"), table.Float(55)},
		{table.String("S1"), table.Float(61)},
	})
	require.NoError(t, err)

	spec := datasets.Spec{Name: datasets.Wellbeing, KeyColumn: datasets.ParticipantIDColumn}
	m := member{
		src:     source{spec: spec, table: tbl, rows: []int{0, 1, 4}},
		columns: schema.Names(),
	}
	out, err := schema.Append(table.Column{Name: datasets.SourceDatasetColumn, Kind: table.KindString})
	require.NoError(t, err)

	tracker := provenance.NewTracker()
	_, err = concat("wellbeing_analysis", datasets.SourceDatasetColumn, out, []member{m}, tracker)
	require.Error(t, err)

	var dup *errors.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "S1", dup.Key)
	assert.Equal(t, []int{0, 4}, dup.Rows)
}
