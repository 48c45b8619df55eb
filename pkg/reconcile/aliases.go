package reconcile

import (
	"maps"
	"slices"
	"strings"
)

// Aliases maps alternate column names to their canonical name.
type Aliases map[string]string

// DefaultAliases returns the column names seen across RespawnMetrics sources.
// Daily hours and hours played stay distinct from weekly hours: they are not
// the same measurement.
func DefaultAliases() Aliases {
	return Aliases{
		"gaming_hours_per_week": "gaming_hours_weekly",
		"weekly_gaming_hours":   "gaming_hours_weekly",
		"hours_per_week":        "gaming_hours_weekly",
		"gaming_hours_daily":    "gaming_hours_daily",
		"hours_played":          "hours_played",

		"id":         "participant_id",
		"user_id":    "participant_id",
		"subject_id": "participant_id",

		"participant_age": "age",
		"user_age":        "age",

		"game_preference":      "gaming_preference",
		"preferred_genre":      "gaming_preference",
		"favorite_genre":       "gaming_preference",
		"game_type_preference": "gaming_preference",
	}
}

// Canonical returns the canonical name for a column. Lookup ignores case and
// surrounding whitespace; unknown names are returned trimmed.
func (a Aliases) Canonical(name string) string {
	trimmed := strings.TrimSpace(name)
	if to, ok := a[trimmed]; ok {
		return to
	}
	if to, ok := a[strings.ToLower(trimmed)]; ok {
		return to
	}
	return trimmed
}

// Merge returns a new alias map with the entries of other layered on top.
func (a Aliases) Merge(other map[string]string) Aliases {
	out := maps.Clone(a)
	if out == nil {
		out = Aliases{}
	}
	maps.Copy(out, other)
	return out
}

// Equivalence declares that two differently named columns measure the same
// thing, so From is renamed to To. Without one, similar-looking columns are
// kept apart.
type Equivalence struct {
	From string `json:"from" yaml:"from" mapstructure:"from"`
	To   string `json:"to" yaml:"to" mapstructure:"to"`
}

// WithEquivalences returns a new alias map that also applies the equivalences.
func (a Aliases) WithEquivalences(eqs ...Equivalence) Aliases {
	extra := make(map[string]string, len(eqs))
	for _, eq := range eqs {
		if eq.From != "" && eq.To != "" {
			extra[eq.From] = eq.To
		}
	}
	return a.Merge(extra)
}

// Sorted returns alias entries ordered by alias name.
func (a Aliases) Sorted() []Equivalence {
	out := make([]Equivalence, 0, len(a))
	for _, from := range slices.Sorted(maps.Keys(a)) {
		out = append(out, Equivalence{From: from, To: a[from]})
	}
	return out
}
