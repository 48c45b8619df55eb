package merge_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/logging"
	"github.com/respawnmetrics/respawn/pkg/merge"
	"github.com/respawnmetrics/respawn/pkg/reconcile"
	"github.com/respawnmetrics/respawn/pkg/table"
)

func ptr[T any](v T) *T { return &v }

func anxietyTable(t *testing.T, n int, prefix string) *table.Table {
	t.Helper()
	recs := make([]datasets.AnxietyRecord, n)
	for i := range recs {
		recs[i] = datasets.AnxietyRecord{
			ParticipantID:     fmt.Sprintf("%s%04d", prefix, i+1),
			Age:               ptr(18 + i%40),
			GamingHoursWeekly: ptr(float64(i % 60)),
			AnxietyScore:      ptr(float64(i%21) / 2),
			GamingPreference:  ptr("RPG"),
		}
	}
	tbl, err := table.FromRecords(datasets.Anxiety, recs)
	require.NoError(t, err)
	return tbl
}

func aggressionTable(t *testing.T, n int) *table.Table {
	t.Helper()
	recs := make([]datasets.AggressionRecord, n)
	for i := range recs {
		recs[i] = datasets.AggressionRecord{
			ParticipantID:    fmt.Sprintf("G%04d", i+1),
			Age:              ptr(20 + i%30),
			GamingHoursDaily: ptr(float64(i%12) / 2),
			AggressionScore:  ptr(float64(i % 10)),
			GamingPreference: ptr("FPS"),
		}
	}
	tbl, err := table.FromRecords(datasets.Aggression, recs)
	require.NoError(t, err)
	return tbl
}

func wellbeingTable(t *testing.T, n int) *table.Table {
	t.Helper()
	recs := make([]datasets.WellbeingRecord, n)
	for i := range recs {
		recs[i] = datasets.WellbeingRecord{
			ParticipantID:  fmt.Sprintf("S%04d", i+1),
			GameTitle:      ptr(fmt.Sprintf("Game_%d", i%5)),
			HoursPlayed:    ptr(float64(i * 3)),
			WellbeingScore: ptr(float64(i % 7)),
		}
	}
	tbl, err := table.FromRecords(datasets.Wellbeing, recs)
	require.NoError(t, err)
	return tbl
}

func scalesTable(t *testing.T, n int) *table.Table {
	t.Helper()
	recs := make([]datasets.ScalesRecord, n)
	for i := range recs {
		recs[i] = datasets.ScalesRecord{
			ParticipantID:       fmt.Sprintf("P%04d", i+1),
			GamingAddictionRisk: ptr(float64(i%5) + 1),
			EscapismScore:       ptr(float64(i%4) + 1),
		}
	}
	tbl, err := table.FromRecords(datasets.PredictionScales, recs)
	require.NoError(t, err)
	return tbl
}

func steamTable(t *testing.T, n int) *table.Table {
	t.Helper()
	recs := make([]datasets.SteamGameRecord, n)
	for i := range recs {
		recs[i] = datasets.SteamGameRecord{
			AppID:     100000 + i,
			GameTitle: ptr(fmt.Sprintf("Game_%d", i)),
			Price:     ptr(9.99),
		}
	}
	tbl, err := table.FromRecords(datasets.SteamGames, recs)
	require.NoError(t, err)
	return tbl
}

func fullInput(t *testing.T) map[string]*table.Table {
	return map[string]*table.Table{
		datasets.Anxiety:          anxietyTable(t, 1000, "A"),
		datasets.Aggression:       aggressionTable(t, 800),
		datasets.Wellbeing:        wellbeingTable(t, 50),
		datasets.PredictionScales: scalesTable(t, 30),
		datasets.SteamGames:       steamTable(t, 20),
	}
}

func newEngine(t *testing.T, opts ...merge.Option) *merge.Engine {
	t.Helper()
	logger := logging.NewNopLogger()
	e, err := merge.New(append([]merge.Option{merge.WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return e
}

func sourcesOf(t *testing.T, d *merge.Dataset) map[string]int {
	t.Helper()
	col, err := d.Table.Column(d.ProvenanceColumn)
	require.NoError(t, err)
	counts := make(map[string]int)
	for _, v := range col {
		counts[v.String()]++
	}
	return counts
}

func TestMergeDatasets(t *testing.T) {
	result, err := newEngine(t).Merge(context.Background(), fullInput(t))
	require.NoError(t, err)
	assert.False(t, result.HasFailures())

	t.Run("master columns are fixed", func(t *testing.T) {
		require.NotNil(t, result.Master)
		assert.Equal(t, []string{
			"participant_id", "age", "gaming_hours_weekly",
			"gaming_preference", "data_source", "game_title",
		}, result.Master.Columns())
	})

	t.Run("master holds every participant source", func(t *testing.T) {
		assert.Equal(t, map[string]int{
			datasets.Anxiety:          1000,
			datasets.Aggression:       800,
			datasets.Wellbeing:        50,
			datasets.PredictionScales: 30,
		}, sourcesOf(t, result.Master))
		assert.Equal(t, 1880, result.Master.Records())
	})

	t.Run("mental health keeps every scored participant", func(t *testing.T) {
		d, ok := result.Dataset(merge.MentalHealth)
		require.True(t, ok)
		assert.GreaterOrEqual(t, d.Records(), 1800)
		assert.Equal(t, 1850, d.Records())
		assert.Equal(t, []string{datasets.Anxiety, datasets.Aggression, datasets.Wellbeing}, d.Sources)
		assert.Equal(t, datasets.SourceDatasetColumn, d.Columns()[len(d.Columns())-1])
		assert.Contains(t, d.Columns(), "aggression_score")
		assert.Contains(t, d.Columns(), "wellbeing_score")
	})

	t.Run("specialized totals match their sources", func(t *testing.T) {
		inputs := make(map[string]int)
		for _, in := range result.Inputs {
			inputs[in.Name] = in.Records
		}
		for _, d := range result.Specialized {
			want := 0
			for _, s := range d.Sources {
				want += inputs[s]
			}
			assert.Equal(t, want, d.Records(), d.Name)
		}
	})

	t.Run("whole source datasets", func(t *testing.T) {
		scales, ok := result.Dataset(merge.PredictionScales)
		require.True(t, ok)
		assert.Equal(t, 30, scales.Records())

		steam, ok := result.Dataset(merge.SteamGames)
		require.True(t, ok)
		assert.Equal(t, 20, steam.Records())
		assert.Equal(t, "app_id", steam.Columns()[0])
	})

	t.Run("lineage covers every row", func(t *testing.T) {
		for _, d := range result.Datasets() {
			assert.Len(t, result.Lineage[d.Name], d.Records(), d.Name)
		}
		first := result.Lineage["master"][0]
		assert.Equal(t, datasets.Anxiety, first.Source)
		assert.Equal(t, "A0001", first.Key)
		assert.Equal(t, 0, first.SourceRow)
		assert.NoError(t, result.Lineage.Audit(result.Stats.RowsOut))
	})

	t.Run("stats", func(t *testing.T) {
		assert.Equal(t, 5, result.Stats.SourcesIn)
		assert.Equal(t, 5, result.Stats.SourcesUsed)
		assert.Equal(t, 1900, result.Stats.RowsIn)
		assert.Equal(t, 1880, result.Stats.RowsOut["master"])
	})
}

func TestMergeIsIdempotent(t *testing.T) {
	e := newEngine(t)
	input := fullInput(t)

	first, err := e.Merge(context.Background(), input)
	require.NoError(t, err)
	second, err := e.Merge(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, second.Datasets(), len(first.Datasets()))
	for i, d := range first.Datasets() {
		other := second.Datasets()[i]
		assert.Equal(t, d.Name, other.Name)
		assert.Equal(t, d.Columns(), other.Columns())
		assert.Equal(t, d.Table.Rows(), other.Table.Rows())
	}
	assert.Equal(t, first.Lineage, second.Lineage)
	assert.Equal(t, first.Summary(), second.Summary())
}

func TestMergeKeepsSameKeyFromDifferentSources(t *testing.T) {
	input := map[string]*table.Table{
		datasets.Anxiety:          anxietyTable(t, 3, "P"),
		datasets.PredictionScales: scalesTable(t, 3),
	}
	result, err := newEngine(t).Merge(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 6, result.Master.Records())
	assert.Equal(t, map[string]int{datasets.Anxiety: 3, datasets.PredictionScales: 3}, sourcesOf(t, result.Master))
}

func TestMergeRejectsDuplicateKeys(t *testing.T) {
	dup, err := table.FromRecords(datasets.Anxiety, []datasets.AnxietyRecord{
		{ParticipantID: "A1", AnxietyScore: ptr(1.0)},
		{ParticipantID: "A2", AnxietyScore: ptr(2.0)},
		{ParticipantID: "A1", AnxietyScore: ptr(3.0)},
	})
	require.NoError(t, err)

	input := map[string]*table.Table{
		datasets.Anxiety:    dup,
		datasets.Aggression: aggressionTable(t, 10),
	}
	result, err := newEngine(t).Merge(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	f := result.Failures[0]
	assert.Equal(t, datasets.Anxiety, f.Source)
	assert.Equal(t, merge.StageKeys, f.Stage)
	assert.Equal(t, "DuplicateKeyError", f.Kind)

	var dupErr *errors.DuplicateKeyError
	require.True(t, errors.As(f, &dupErr))
	assert.Equal(t, "A1", dupErr.Key)
	assert.Equal(t, []int{0, 2}, dupErr.Rows)

	for _, d := range result.Datasets() {
		assert.NotContains(t, sourcesOf(t, d), datasets.Anxiety, d.Name)
		assert.NotContains(t, d.Sources, datasets.Anxiety, d.Name)
	}
	assert.Equal(t, []string{datasets.Anxiety}, result.Rejected())
	assert.Equal(t, 1, result.Stats.SourcesRejected)
}

func TestMergeRejectsMissingKey(t *testing.T) {
	keyless, err := table.New("extra", table.MustSchema(
		table.Column{Name: "age", Kind: table.KindInt},
		table.Column{Name: "anxiety_score", Kind: table.KindFloat},
	), []table.Row{{table.Int(20), table.Float(3)}})
	require.NoError(t, err)

	result, err := newEngine(t).Merge(context.Background(), map[string]*table.Table{
		"extra":          keyless,
		datasets.Anxiety: anxietyTable(t, 5, "A"),
	})
	require.NoError(t, err)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "extra", result.Failures[0].Source)
	assert.True(t, errors.IsMissingKey(result.Failures[0]))
	assert.Equal(t, 5, result.Master.Records())
}

func TestMergeNoUsableSources(t *testing.T) {
	keyless, err := table.New(datasets.Anxiety, table.MustSchema(
		table.Column{Name: "age", Kind: table.KindInt},
	), nil)
	require.NoError(t, err)

	result, err := newEngine(t).Merge(context.Background(), map[string]*table.Table{datasets.Anxiety: keyless})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoUsableSources)

	var mergeErr *errors.MergeError
	require.True(t, errors.As(err, &mergeErr))
	assert.Equal(t, []string{datasets.Anxiety}, mergeErr.Rejected)

	require.NotNil(t, result)
	assert.Nil(t, result.Master)
	assert.Len(t, result.Failures, 1)

	_, err = newEngine(t).Merge(context.Background(), nil)
	assert.ErrorIs(t, err, errors.ErrNoUsableSources)
}

func TestMergeRejectsIncompatibleColumnPerTarget(t *testing.T) {
	extra, err := table.New("extra", table.MustSchema(
		table.Column{Name: "participant_id", Kind: table.KindString},
		table.Column{Name: "age", Kind: table.KindString},
		table.Column{Name: "gaming_preference", Kind: table.KindString},
	), []table.Row{{table.String("X1"), table.String("twenty"), table.String("RPG")}})
	require.NoError(t, err)

	result, err := newEngine(t).Merge(context.Background(), map[string]*table.Table{
		"extra":          extra,
		datasets.Anxiety: anxietyTable(t, 4, "A"),
	})
	require.NoError(t, err)

	targets := make(map[string]string)
	for _, f := range result.Failures {
		assert.Equal(t, "extra", f.Source)
		assert.Equal(t, merge.StageSchema, f.Stage)
		assert.True(t, errors.IsSchemaMismatch(f))
		targets[f.Target] = f.Kind
	}
	assert.Contains(t, targets, "master")
	assert.Contains(t, targets, merge.GamingBehavior)
	assert.Empty(t, result.Rejected())
	assert.Equal(t, 4, result.Master.Records())
}

func TestMergeSkipsRowsWithoutKey(t *testing.T) {
	tbl, err := table.New(datasets.Anxiety, table.MustSchema(
		table.Column{Name: "participant_id", Kind: table.KindString},
		table.Column{Name: "anxiety_score", Kind: table.KindFloat},
	), []table.Row{
		{table.String("A1"), table.Float(1)},
		{table.Null(), table.Float(2)},
		{table.String("  "), table.Float(3)},
		{table.String("A4"), table.Float(4)},
	})
	require.NoError(t, err)

	result, err := newEngine(t).Merge(context.Background(), map[string]*table.Table{datasets.Anxiety: tbl})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Master.Records())
	assert.Equal(t, 2, result.Stats.RowsWithoutKey)
	assert.True(t, result.HasWarnings())

	last := result.Lineage["master"][1]
	assert.Equal(t, "A4", last.Key)
	assert.Equal(t, 3, last.SourceRow)
}

func TestMergeStandardizesAliases(t *testing.T) {
	raw, err := table.New(datasets.Aggression, table.MustSchema(
		table.Column{Name: "user_id", Kind: table.KindString},
		table.Column{Name: "game_type_preference", Kind: table.KindString},
		table.Column{Name: "aggression_score", Kind: table.KindFloat},
	), []table.Row{{table.String("G1"), table.String("MOBA"), table.Float(2)}})
	require.NoError(t, err)

	result, err := newEngine(t).Merge(context.Background(), map[string]*table.Table{datasets.Aggression: raw})
	require.NoError(t, err)

	assert.Equal(t, "G1", result.Master.Table.Value(0, "participant_id").String())
	assert.Equal(t, "MOBA", result.Master.Table.Value(0, "gaming_preference").String())
	assert.Len(t, result.Renames, 2)
}

func TestMergeWithEquivalences(t *testing.T) {
	input := map[string]*table.Table{datasets.Wellbeing: wellbeingTable(t, 3)}

	result, err := newEngine(t).Merge(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, result.Master.Table.Value(2, "gaming_hours_weekly").IsNull())

	result, err = newEngine(t, merge.WithEquivalences(reconcile.Equivalence{
		From: "hours_played", To: "gaming_hours_weekly",
	})).Merge(context.Background(), input)
	require.NoError(t, err)
	hours, ok := result.Master.Table.Value(2, "gaming_hours_weekly").Float64()
	require.True(t, ok)
	assert.InDelta(t, 6.0, hours, 1e-9)
}

func TestMergeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(t).Merge(ctx, fullInput(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  merge.Option
	}{
		{"nil registry", merge.WithRegistry(nil)},
		{"unnamed target", merge.WithTargets(merge.Target{Select: merge.WholeSource("x")})},
		{"duplicate target", merge.WithTargets(
			merge.Target{Name: "a", Select: merge.WholeSource("x")},
			merge.Target{Name: "a", Select: merge.WholeSource("y")},
		)},
		{"empty master", merge.WithMasterColumns()},
		{"half equivalence", merge.WithEquivalences(reconcile.Equivalence{From: "x"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := merge.New(tt.opt)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}
}

func TestCustomMasterColumns(t *testing.T) {
	e := newEngine(t, merge.WithMasterColumns(
		table.Column{Name: "participant_id", Kind: table.KindString},
		table.Column{Name: "anxiety_score", Kind: table.KindFloat},
	), merge.WithTargets(merge.Target{Name: "anxiety_only", Select: merge.WholeSource(datasets.Anxiety)}))

	assert.Equal(t, "data_source", e.MasterColumns()[2].Name)

	result, err := e.Merge(context.Background(), map[string]*table.Table{datasets.Anxiety: anxietyTable(t, 2, "A")})
	require.NoError(t, err)
	assert.Equal(t, []string{"participant_id", "anxiety_score", "data_source"}, result.Master.Columns())
	require.Len(t, result.Specialized, 1)
	assert.Equal(t, "anxiety_only", result.Specialized[0].Name)
}
