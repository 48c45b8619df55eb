package cleaning_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respawnmetrics/respawn/pkg/cleaning"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/table"
)

func ptr[T any](v T) *T { return &v }

func TestAnxietyLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{1, cleaning.AnxietyLow},
		{3, cleaning.AnxietyLow},
		{3.01, cleaning.AnxietyModerate},
		{6, cleaning.AnxietyModerate},
		{6.5, cleaning.AnxietyHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleaning.AnxietyLevel(tt.score), "score %v", tt.score)
	}
}

func TestAgeGroup(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{13, cleaning.AgeTeen},
		{18, cleaning.AgeYoungAdult},
		{24, cleaning.AgeYoungAdult},
		{25, cleaning.AgeAdult},
		{34, cleaning.AgeAdult},
		{35, cleaning.AgeOlderAdult},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleaning.AgeGroup(tt.age), "age %d", tt.age)
	}
}

func TestGender(t *testing.T) {
	tests := map[string]string{
		"M":      "Male",
		"m":      "Male",
		"male":   "Male",
		"F":      "Female",
		"female": "Female",
		"Male":   "Male",
		"Other":  "Other",
		"nb":     "nb",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleaning.Gender(in), in)
	}
}

func TestMedian(t *testing.T) {
	_, ok := cleaning.Median(nil)
	assert.False(t, ok)

	m, ok := cleaning.Median([]*float64{ptr(3.0), nil, ptr(1.0), ptr(2.0)})
	require.True(t, ok)
	assert.Equal(t, 2.0, m)

	m, ok = cleaning.Median([]*float64{ptr(4.0), ptr(1.0), ptr(2.0), ptr(3.0)})
	require.True(t, ok)
	assert.Equal(t, 2.5, m)
}

func TestAnxietyCleaner(t *testing.T) {
	in := []datasets.AnxietyRecord{
		{ParticipantID: "A1", Age: ptr(16), GamingHoursWeekly: ptr(10.0), AnxietyScore: ptr(2.0)},
		{ParticipantID: "A2", Age: ptr(30), AnxietyScore: ptr(8.0)},
		{ParticipantID: "A3", GamingHoursWeekly: ptr(20.0)},
	}
	out, stats := cleaning.Anxiety(in)
	require.Len(t, out, 3)

	assert.Nil(t, in[1].GamingHoursWeekly, "input must not change")
	assert.Equal(t, 15.0, *out[1].GamingHoursWeekly)
	assert.Equal(t, 5.0, *out[2].AnxietyScore)
	assert.Equal(t, map[string]int{"gaming_hours_weekly": 1, "anxiety_score": 1}, stats.Filled)

	assert.Equal(t, cleaning.AnxietyLow, *out[0].GamingAnxietyLevel)
	assert.Equal(t, cleaning.AnxietyHigh, *out[1].GamingAnxietyLevel)
	assert.Equal(t, cleaning.AnxietyModerate, *out[2].GamingAnxietyLevel)
	assert.Equal(t, cleaning.AgeTeen, *out[0].AgeGroup)
	assert.Equal(t, cleaning.AgeAdult, *out[1].AgeGroup)
	assert.Nil(t, out[2].AgeGroup)
}

func TestSteamGamesCleaner(t *testing.T) {
	in := []datasets.SteamGameRecord{
		{AppID: 1, GameTitle: ptr("  Hades "), MetacriticScore: ptr(90)},
		{AppID: 2, Price: ptr(19.99), MetacriticScore: ptr(71)},
		{AppID: 3, GameTitle: ptr(" ")},
	}
	out, stats := cleaning.SteamGames(in)

	assert.Equal(t, 0.0, *out[0].Price)
	assert.Equal(t, 19.99, *out[1].Price)
	assert.Equal(t, 81, *out[2].MetacriticScore)
	assert.Equal(t, "Hades", *out[0].GameTitle)
	assert.Equal(t, "Unknown Game", *out[1].GameTitle)
	assert.Equal(t, "Unknown Game", *out[2].GameTitle)
	assert.Equal(t, 2, stats.Filled["price"])
	assert.Equal(t, 2, stats.Filled["game_title"])
	assert.Equal(t, 1, stats.Filled["metacritic_score"])
}

func TestCleanTable(t *testing.T) {
	raw, err := table.New(datasets.Aggression, table.MustSchema(
		table.Column{Name: "participant_id", Kind: table.KindString},
		table.Column{Name: "gender", Kind: table.KindString},
		table.Column{Name: "aggression_score", Kind: table.KindFloat},
	), []table.Row{
		{table.String("G1"), table.String("m"), table.Float(2)},
		{table.String("G1"), table.String("m"), table.Float(2)},
		{table.String("G2"), table.String("female"), table.Null()},
		{table.String("G3"), table.String("F"), table.Float(4)},
	})
	require.NoError(t, err)

	out, stats, err := cleaning.Clean(datasets.Aggression, raw)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Input)
	assert.Equal(t, 3, stats.Output)
	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, 1, stats.Filled["aggression_score"])

	assert.Equal(t, 3, out.Len())
	assert.Equal(t, datasets.Aggression, out.Name())
	assert.Equal(t, "Male", out.Value(0, "gender").String())
	assert.Equal(t, "Female", out.Value(1, "gender").String())
	score, ok := out.Value(1, "aggression_score").Float64()
	require.True(t, ok)
	assert.Equal(t, 3.0, score)
	assert.True(t, out.Schema().Has("competitive_gaming"))
}

func TestCleanKeepsNearDuplicates(t *testing.T) {
	raw, err := table.New(datasets.PredictionScales, table.MustSchema(
		table.Column{Name: "participant_id", Kind: table.KindString},
		table.Column{Name: "escapism_score", Kind: table.KindFloat},
	), []table.Row{
		{table.String("S1"), table.Float(2)},
		{table.String("S1"), table.Float(3)},
	})
	require.NoError(t, err)

	out, stats, err := cleaning.Clean(datasets.PredictionScales, raw)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
	assert.Zero(t, stats.DuplicatesRemoved)
}

func TestCleanErrors(t *testing.T) {
	empty, err := table.New("x", table.MustSchema(table.Column{Name: "age", Kind: table.KindInt}), nil)
	require.NoError(t, err)

	_, _, err = cleaning.Clean("unknown", empty)
	assert.True(t, errors.IsNotFound(err))

	_, _, err = cleaning.Clean(datasets.Anxiety, empty)
	assert.True(t, errors.IsMissingKey(err))
}

func TestCleanCarriesUndeclaredColumns(t *testing.T) {
	raw, err := table.New(datasets.Anxiety, table.MustSchema(
		table.Column{Name: "participant_id", Kind: table.KindString},
		table.Column{Name: "anxiety_score", Kind: table.KindFloat},
		table.Column{Name: "stress_score", Kind: table.KindFloat},
	), []table.Row{
		{table.String("A1"), table.Float(2), table.Float(7.5)},
		{table.String("A1"), table.Float(2), table.Float(7.5)},
		{table.String("A2"), table.Null(), table.Null()},
		{table.String("A3"), table.Float(8), table.Float(1)},
	})
	require.NoError(t, err)

	out, _, err := cleaning.Clean(datasets.Anxiety, raw)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	names := out.Schema().Names()
	assert.Equal(t, "stress_score", names[len(names)-1])
	assert.True(t, out.Schema().Has("gaming_anxiety_level"))

	stress, err := out.Column("stress_score")
	require.NoError(t, err)
	assert.True(t, table.Float(7.5).Equal(stress[0]))
	assert.True(t, stress[1].IsNull(), "undeclared columns are not filled")
	assert.True(t, table.Float(1).Equal(stress[2]))
}

func TestAssess(t *testing.T) {
	spec, err := datasets.Default().Lookup(datasets.Aggression)
	require.NoError(t, err)
	schema := table.MustSchema(
		table.Column{Name: "participant_id", Kind: table.KindString},
		table.Column{Name: "gender", Kind: table.KindString},
		table.Column{Name: "aggression_score", Kind: table.KindFloat},
		table.Column{Name: "competitive_gaming", Kind: table.KindString},
	)

	sparse, err := table.New(datasets.Aggression, schema, []table.Row{
		{table.String("G1"), table.Null(), table.Null(), table.Null()},
		{table.String("G1"), table.Null(), table.Null(), table.Null()},
		{table.String("G2"), table.String("Male"), table.Float(2), table.Null()},
	})
	require.NoError(t, err)

	q := cleaning.Assess(spec, sparse)
	assert.Equal(t, 3, q.Records)
	assert.Equal(t, 4, q.Columns)
	assert.InDelta(t, 5.0/12*100, q.Completeness, 1e-9)
	assert.Equal(t, 1, q.DuplicateRows)
	assert.Empty(t, q.MissingColumns)
	assert.False(t, q.Valid)

	dense, err := table.New(datasets.Aggression, schema, []table.Row{
		{table.String("G1"), table.String("Female"), table.Float(3), table.Null()},
		{table.String("G2"), table.String("Male"), table.Float(2), table.String("yes")},
	})
	require.NoError(t, err)
	q = cleaning.Assess(spec, dense)
	assert.InDelta(t, 87.5, q.Completeness, 1e-9)
	assert.Zero(t, q.DuplicateRows)
	assert.True(t, q.Valid)

	unkeyed, err := dense.Project("gender", "aggression_score")
	require.NoError(t, err)
	q = cleaning.Assess(spec, unkeyed)
	assert.Equal(t, []string{"participant_id"}, q.MissingColumns)
	assert.False(t, q.Valid)

	empty, err := table.New(datasets.Aggression, schema, nil)
	require.NoError(t, err)
	q = cleaning.Assess(spec, empty)
	assert.Zero(t, q.Completeness)
	assert.False(t, q.Valid)
}
