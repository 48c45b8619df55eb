package cleaning

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/respawnmetrics/respawn/pkg/datasets"
)

// Anxiety levels.
const (
	AnxietyLow      = "Low"
	AnxietyModerate = "Moderate"
	AnxietyHigh     = "High"
)

// Age groups.
const (
	AgeTeen       = "Teen"
	AgeYoungAdult = "Young Adult"
	AgeAdult      = "Adult"
	AgeOlderAdult = "Older Adult"
)

// AnxietyLevel buckets an anxiety score.
func AnxietyLevel(score float64) string {
	switch {
	case score <= 3:
		return AnxietyLow
	case score <= 6:
		return AnxietyModerate
	default:
		return AnxietyHigh
	}
}

// AgeGroup buckets an age in years.
func AgeGroup(age int) string {
	switch {
	case age < 18:
		return AgeTeen
	case age < 25:
		return AgeYoungAdult
	case age < 35:
		return AgeAdult
	default:
		return AgeOlderAdult
	}
}

// Gender maps the usual abbreviations and lowercase spellings onto Male and
// Female. Other values are returned unchanged.
func Gender(g string) string {
	lower := strings.ToLower(strings.TrimSpace(g))
	switch lower {
	case "m":
		lower = "male"
	case "f":
		lower = "female"
	case "male", "female":
	default:
		return g
	}
	return cases.Title(language.English).String(lower)
}

// Anxiety fills missing hours and scores and derives the anxiety level and age
// group.
func Anxiety(recs []datasets.AnxietyRecord) ([]datasets.AnxietyRecord, Stats) {
	out := clone(recs)
	stats := Stats{Input: len(recs), Output: len(out)}

	stats.fill("gaming_hours_weekly", fillMedian(out, func(r *datasets.AnxietyRecord) **float64 { return &r.GamingHoursWeekly }))
	stats.fill("anxiety_score", fillMedian(out, func(r *datasets.AnxietyRecord) **float64 { return &r.AnxietyScore }))

	for i := range out {
		if s := out[i].AnxietyScore; s != nil {
			level := AnxietyLevel(*s)
			out[i].GamingAnxietyLevel = &level
		}
		if a := out[i].Age; a != nil {
			group := AgeGroup(*a)
			out[i].AgeGroup = &group
		}
	}
	return out, stats
}

// Aggression fills missing hours and scores and normalizes gender.
func Aggression(recs []datasets.AggressionRecord) ([]datasets.AggressionRecord, Stats) {
	out := clone(recs)
	stats := Stats{Input: len(recs), Output: len(out)}

	stats.fill("gaming_hours_daily", fillMedian(out, func(r *datasets.AggressionRecord) **float64 { return &r.GamingHoursDaily }))
	stats.fill("aggression_score", fillMedian(out, func(r *datasets.AggressionRecord) **float64 { return &r.AggressionScore }))

	for i := range out {
		if g := out[i].Gender; g != nil {
			normalized := Gender(*g)
			out[i].Gender = &normalized
		}
	}
	return out, stats
}

// PredictionScales fills missing scale scores, the addiction risk and total
// hours.
func PredictionScales(recs []datasets.ScalesRecord) ([]datasets.ScalesRecord, Stats) {
	out := clone(recs)
	stats := Stats{Input: len(recs), Output: len(out)}

	columns := map[string]func(*datasets.ScalesRecord) **float64{
		"gaming_addiction_risk":   func(r *datasets.ScalesRecord) **float64 { return &r.GamingAddictionRisk },
		"social_gaming_score":     func(r *datasets.ScalesRecord) **float64 { return &r.SocialGamingScore },
		"escapism_score":          func(r *datasets.ScalesRecord) **float64 { return &r.EscapismScore },
		"achievement_score":       func(r *datasets.ScalesRecord) **float64 { return &r.AchievementScore },
		"immersion_score":         func(r *datasets.ScalesRecord) **float64 { return &r.ImmersionScore },
		"skill_development_score": func(r *datasets.ScalesRecord) **float64 { return &r.SkillDevelopmentScore },
		"recreation_score":        func(r *datasets.ScalesRecord) **float64 { return &r.RecreationScore },
		"total_gaming_hours":      func(r *datasets.ScalesRecord) **float64 { return &r.TotalGamingHours },
	}
	for name, get := range columns {
		stats.fill(name, fillMedian(out, get))
	}
	return out, stats
}

// Wellbeing fills every missing measurement and cleans game titles.
func Wellbeing(recs []datasets.WellbeingRecord) ([]datasets.WellbeingRecord, Stats) {
	out := clone(recs)
	stats := Stats{Input: len(recs), Output: len(out)}

	columns := map[string]func(*datasets.WellbeingRecord) **float64{
		"hours_played":         func(r *datasets.WellbeingRecord) **float64 { return &r.HoursPlayed },
		"wellbeing_score":      func(r *datasets.WellbeingRecord) **float64 { return &r.WellbeingScore },
		"life_satisfaction":    func(r *datasets.WellbeingRecord) **float64 { return &r.LifeSatisfaction },
		"affect_balance":       func(r *datasets.WellbeingRecord) **float64 { return &r.AffectBalance },
		"autonomy":             func(r *datasets.WellbeingRecord) **float64 { return &r.Autonomy },
		"competence":           func(r *datasets.WellbeingRecord) **float64 { return &r.Competence },
		"relatedness":          func(r *datasets.WellbeingRecord) **float64 { return &r.Relatedness },
		"intrinsic_motivation": func(r *datasets.WellbeingRecord) **float64 { return &r.IntrinsicMotivation },
		"extrinsic_motivation": func(r *datasets.WellbeingRecord) **float64 { return &r.ExtrinsicMotivation },
	}
	for name, get := range columns {
		stats.fill(name, fillMedian(out, get))
	}

	for i := range out {
		if out[i].GameTitle == nil || strings.TrimSpace(*out[i].GameTitle) == "" {
			stats.fill("game_title", 1)
		}
		out[i].GameTitle = GameTitle(out[i].GameTitle)
	}
	return out, stats
}

// SteamGames treats a missing price as free, fills the metacritic score and
// cleans game titles.
func SteamGames(recs []datasets.SteamGameRecord) ([]datasets.SteamGameRecord, Stats) {
	out := clone(recs)
	stats := Stats{Input: len(recs), Output: len(out)}

	for i := range out {
		if out[i].Price == nil {
			free := 0.0
			out[i].Price = &free
			stats.fill("price", 1)
		}
	}
	stats.fill("metacritic_score", fillMedianInt(out, func(r *datasets.SteamGameRecord) **int { return &r.MetacriticScore }))

	for i := range out {
		if out[i].GameTitle == nil || strings.TrimSpace(*out[i].GameTitle) == "" {
			stats.fill("game_title", 1)
		}
		out[i].GameTitle = GameTitle(out[i].GameTitle)
	}
	return out, stats
}

// clone copies the slice so cleaners never write through the caller's records.
// Pointer fields are replaced, never mutated, so a shallow copy is enough.
func clone[T any](recs []T) []T {
	out := make([]T, len(recs))
	copy(out, recs)
	return out
}
