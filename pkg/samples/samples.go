// Package samples generates deterministic stand-in data for the five
// RespawnMetrics sources. It is used when a raw source file is missing and by
// the sample command.
//
// Every generator seeds its own PCG source with constants.SampleSeed, so a
// dataset is identical across runs regardless of which others are generated.
package samples

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Default sample sizes.
const (
	AnxietySize          = 1000
	AggressionSize       = 800
	WellbeingSize        = 1500
	PredictionScalesSize = 1200
	SteamGamesSize       = 500
)

// Generate returns the sample table for a dataset.
func Generate(name string) (*table.Table, error) {
	switch name {
	case datasets.Anxiety:
		return table.FromRecords(name, Anxiety(AnxietySize))
	case datasets.Aggression:
		return table.FromRecords(name, Aggression(AggressionSize))
	case datasets.Wellbeing:
		return table.FromRecords(name, Wellbeing(WellbeingSize))
	case datasets.PredictionScales:
		return table.FromRecords(name, PredictionScales(PredictionScalesSize))
	case datasets.SteamGames:
		return table.FromRecords(name, SteamGames(SteamGamesSize))
	default:
		return nil, errors.NewNotFoundError("sample generator", name)
	}
}

// generator wraps a seeded source with the distributions the samples use.
type generator struct {
	r *rand.Rand
}

func newGenerator() *generator {
	return &generator{r: rand.New(rand.NewPCG(constants.SampleSeed, constants.SampleSeed))}
}

func (g *generator) normal(mean, sd float64) float64 {
	return g.r.NormFloat64()*sd + mean
}

func (g *generator) lognormal(mu, sigma float64) float64 {
	return math.Exp(g.normal(mu, sigma))
}

func (g *generator) exponential(scale float64) float64 {
	return g.r.ExpFloat64() * scale
}

func (g *generator) choice(options []string) string {
	return options[g.r.IntN(len(options))]
}

// weighted picks options[i] with probability weights[i].
func (g *generator) weighted(options []string, weights []float64) string {
	x := g.r.Float64()
	for i, w := range weights {
		if x < w {
			return options[i]
		}
		x -= w
	}
	return options[len(options)-1]
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func ptr[T any](v T) *T { return &v }

// Anxiety generates n anxiety survey participants.
func Anxiety(n int) []datasets.AnxietyRecord {
	g := newGenerator()
	prefs := []string{"Action", "Strategy", "RPG", "Casual"}
	out := make([]datasets.AnxietyRecord, n)
	for i := range out {
		out[i] = datasets.AnxietyRecord{
			ParticipantID:     fmt.Sprintf("A%04d", i+1),
			GamingHoursWeekly: ptr(g.lognormal(2.5, 0.8)),
			AnxietyScore:      ptr(clip(g.normal(4.5, 2.0), 1, 10)),
			Age:               ptr(int(clip(g.normal(25, 8), 13, 65))),
			GamingPreference:  ptr(g.choice(prefs)),
		}
	}
	return out
}

// Aggression generates n aggression survey participants.
func Aggression(n int) []datasets.AggressionRecord {
	g := newGenerator()
	genders := []string{"Male", "Female", "Other"}
	prefs := []string{"FPS", "MOBA", "RPG", "Strategy", "Sports"}
	out := make([]datasets.AggressionRecord, n)
	for i := range out {
		out[i] = datasets.AggressionRecord{
			ParticipantID:     fmt.Sprintf("G%04d", i+1),
			GamingHoursDaily:  ptr(clip(g.lognormal(1.2, 0.6), 0.5, 16)),
			AggressionScore:   ptr(clip(g.normal(3.5, 1.8), 1, 10)),
			Age:               ptr(int(clip(g.normal(23, 7), 13, 60))),
			Gender:            ptr(g.weighted(genders, []float64{0.6, 0.35, 0.05})),
			GamingPreference:  ptr(g.choice(prefs)),
			CompetitiveGaming: ptr(g.r.Float64() < 0.4),
		}
	}
	return out
}

var gameTitles = []string{
	"The Witcher 3", "Cyberpunk 2077", "Minecraft", "Fortnite", "Counter-Strike",
	"League of Legends", "World of Warcraft", "Apex Legends", "Among Us", "Fall Guys",
	"Valheim", "Hades", "Animal Crossing", "Stardew Valley", "Terraria",
}

// Wellbeing generates n wellbeing survey participants.
func Wellbeing(n int) []datasets.WellbeingRecord {
	g := newGenerator()
	score := func(mean, sd float64) *float64 { return ptr(clip(g.normal(mean, sd), 1, 5)) }
	out := make([]datasets.WellbeingRecord, n)
	for i := range out {
		out[i] = datasets.WellbeingRecord{
			ParticipantID:       fmt.Sprintf("W%04d", i+1),
			GameTitle:           ptr(g.choice(gameTitles)),
			HoursPlayed:         ptr(clip(g.lognormal(2.3, 0.9), 0.5, 200)),
			WellbeingScore:      score(3.8, 1.2),
			LifeSatisfaction:    score(3.5, 1.3),
			AffectBalance:       score(3.7, 1.1),
			Autonomy:            score(4.1, 1.0),
			Competence:          score(4.0, 1.2),
			Relatedness:         score(3.6, 1.4),
			IntrinsicMotivation: score(4.3, 1.1),
			ExtrinsicMotivation: score(3.2, 1.3),
		}
	}
	return out
}

// PredictionScales generates n seven-scale survey participants.
func PredictionScales(n int) []datasets.ScalesRecord {
	g := newGenerator()
	scale := func(mean, sd float64) *float64 { return ptr(clip(g.normal(mean, sd), 1, 7)) }
	out := make([]datasets.ScalesRecord, n)
	for i := range out {
		out[i] = datasets.ScalesRecord{
			ParticipantID:         fmt.Sprintf("S%04d", i+1),
			GamingAddictionRisk:   scale(3.5, 1.5),
			SocialGamingScore:     scale(4.2, 1.8),
			EscapismScore:         scale(3.8, 1.6),
			AchievementScore:      scale(5.1, 1.4),
			ImmersionScore:        scale(4.7, 1.7),
			SkillDevelopmentScore: scale(5.3, 1.3),
			RecreationScore:       scale(5.8, 1.2),
			TotalGamingHours:      ptr(clip(g.lognormal(2.8, 0.7), 1, 100)),
		}
	}
	return out
}

// SteamGames generates n catalog games with release dates spread evenly
// between 2010 and the end of 2023. The first games carry the titles the
// wellbeing sample plays.
func SteamGames(n int) []datasets.SteamGameRecord {
	g := newGenerator()
	genres := []string{"Action", "Adventure", "Strategy", "RPG", "Simulation", "Sports", "Racing", "Indie"}
	first := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	span := int64(last.Sub(first) / time.Second)

	out := make([]datasets.SteamGameRecord, n)
	for i := range out {
		released := first
		if n > 1 {
			released = first.Add(time.Duration(span*int64(i)/int64(n-1)) * time.Second)
		}
		title := fmt.Sprintf("Game_%d", i+1)
		if i < len(gameTitles) {
			title = gameTitles[i]
		}
		out[i] = datasets.SteamGameRecord{
			AppID:           100000 + i,
			GameTitle:       ptr(title),
			ReleaseDate:     ptr(released),
			Genre:           ptr(g.choice(genres)),
			Price:           ptr(clip(g.exponential(15), 0, 60)),
			PositiveReviews: ptr(int(g.exponential(1000))),
			NegativeReviews: ptr(int(g.exponential(200))),
			MetacriticScore: ptr(int(clip(g.normal(75, 15), 40, 100))),
		}
	}
	return out
}
