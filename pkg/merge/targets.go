package merge

import (
	"slices"
	"strings"

	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Specialized dataset names.
const (
	MentalHealth     = "mental_health"
	GamingBehavior   = "gaming_behavior"
	PredictionScales = datasets.PredictionScales
	SteamGames       = datasets.SteamGames
)

// Selector decides whether a source contributes to a target and which of its
// columns the target keeps, in order.
type Selector func(spec datasets.Spec, schema table.Schema) (columns []string, ok bool)

// Target describes one specialized dataset.
type Target struct {
	Name        string
	Description string
	Select      Selector
}

// hoursColumns are the distinct play-time measurements, in preference order.
var hoursColumns = []string{"gaming_hours_weekly", "gaming_hours_daily", "hours_played"}

// DefaultMasterColumns is the declared master column list.
func DefaultMasterColumns() []table.Column {
	return []table.Column{
		{Name: datasets.ParticipantIDColumn, Kind: table.KindString, Required: true},
		{Name: "age", Kind: table.KindInt},
		{Name: "gaming_hours_weekly", Kind: table.KindFloat},
		{Name: "gaming_preference", Kind: table.KindString},
		{Name: datasets.DataSourceColumn, Kind: table.KindString},
		{Name: "game_title", Kind: table.KindString},
	}
}

// DefaultTargets returns the four RespawnMetrics specialized datasets.
func DefaultTargets() []Target {
	return []Target{
		{
			Name:        MentalHealth,
			Description: "Mental health scores with basic demographics and play time",
			Select:      selectMentalHealth,
		},
		{
			Name:        GamingBehavior,
			Description: "Play time, preferences and other gaming habits",
			Select:      selectGamingBehavior,
		},
		{
			Name:        PredictionScales,
			Description: "Seven-scale gaming motivation survey",
			Select:      WholeSource(datasets.PredictionScales),
		},
		{
			Name:        SteamGames,
			Description: "Steam game catalog",
			Select:      WholeSource(datasets.SteamGames),
		},
	}
}

// WholeSource selects every column of the named source and nothing else.
func WholeSource(name string) Selector {
	return func(spec datasets.Spec, schema table.Schema) ([]string, bool) {
		if spec.Name != name {
			return nil, false
		}
		return schema.Names(), true
	}
}

var (
	mentalHealthScores   = []string{"anxiety_score", "wellbeing_score", "aggression_score"}
	mentalHealthKeywords = []string{"anxiety", "wellbeing", "aggression", "depression", "stress"}
	gamingKeywords       = []string{"gaming", "play", "hours", "time", "frequency", "preference"}
)

// selectMentalHealth keeps participant sources carrying a mental health score.
func selectMentalHealth(spec datasets.Spec, schema table.Schema) ([]string, bool) {
	if !spec.Participant() || !hasAny(schema, mentalHealthScores...) {
		return nil, false
	}

	cols := []string{spec.KeyColumn, "age"}
	for _, h := range hoursColumns {
		if schema.Has(h) {
			cols = append(cols, h)
			break
		}
	}
	cols = append(cols, "gaming_preference")
	cols = append(cols, matching(schema, mentalHealthKeywords)...)

	cols = present(schema, cols)
	if len(cols) <= 2 {
		return nil, false
	}
	return cols, true
}

// selectGamingBehavior keeps participant sources that report play time or a
// preferred genre.
func selectGamingBehavior(spec datasets.Spec, schema table.Schema) ([]string, bool) {
	if !spec.Participant() {
		return nil, false
	}

	cols := []string{spec.KeyColumn, "age"}
	cols = append(cols, hoursColumns...)
	cols = append(cols, matching(schema, gamingKeywords)...)

	cols = present(schema, cols)
	if !slices.ContainsFunc(cols, func(c string) bool {
		return slices.Contains(hoursColumns, c) || c == "gaming_preference"
	}) {
		return nil, false
	}
	return cols, true
}

func hasAny(schema table.Schema, names ...string) bool {
	return slices.ContainsFunc(names, schema.Has)
}

// matching returns the schema columns whose lowercased name contains any keyword.
func matching(schema table.Schema, keywords []string) []string {
	var out []string
	for _, name := range schema.Names() {
		lower := strings.ToLower(name)
		if slices.ContainsFunc(keywords, func(k string) bool { return strings.Contains(lower, k) }) {
			out = append(out, name)
		}
	}
	return out
}

// present filters cols down to those in schema, dropping repeats.
func present(schema table.Schema, cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if schema.Has(c) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
