package datasets

import "time"

// AnxietyRecord is one participant of the gaming anxiety survey.
type AnxietyRecord struct {
	ParticipantID      string   `col:"participant_id,required"`
	Age                *int     `col:"age"`
	GamingHoursWeekly  *float64 `col:"gaming_hours_weekly"`
	AnxietyScore       *float64 `col:"anxiety_score"`
	GamingPreference   *string  `col:"gaming_preference"`
	GamingAnxietyLevel *string  `col:"gaming_anxiety_level"`
	AgeGroup           *string  `col:"age_group"`
}

// AggressionRecord is one participant of the gaming aggression survey.
type AggressionRecord struct {
	ParticipantID     string   `col:"participant_id,required"`
	Age               *int     `col:"age"`
	GamingHoursDaily  *float64 `col:"gaming_hours_daily"`
	AggressionScore   *float64 `col:"aggression_score"`
	Gender            *string  `col:"gender"`
	GamingPreference  *string  `col:"gaming_preference"`
	CompetitiveGaming *bool    `col:"competitive_gaming"`
}

// WellbeingRecord is one participant of the Steam wellbeing survey.
type WellbeingRecord struct {
	ParticipantID       string   `col:"participant_id,required"`
	GameTitle           *string  `col:"game_title"`
	HoursPlayed         *float64 `col:"hours_played"`
	WellbeingScore      *float64 `col:"wellbeing_score"`
	LifeSatisfaction    *float64 `col:"life_satisfaction"`
	AffectBalance       *float64 `col:"affect_balance"`
	Autonomy            *float64 `col:"autonomy"`
	Competence          *float64 `col:"competence"`
	Relatedness         *float64 `col:"relatedness"`
	IntrinsicMotivation *float64 `col:"intrinsic_motivation"`
	ExtrinsicMotivation *float64 `col:"extrinsic_motivation"`
}

// ScalesRecord is one participant of the seven-scale gaming motivation survey.
type ScalesRecord struct {
	ParticipantID         string   `col:"participant_id,required"`
	GamingAddictionRisk   *float64 `col:"gaming_addiction_risk"`
	SocialGamingScore     *float64 `col:"social_gaming_score"`
	EscapismScore         *float64 `col:"escapism_score"`
	AchievementScore      *float64 `col:"achievement_score"`
	ImmersionScore        *float64 `col:"immersion_score"`
	SkillDevelopmentScore *float64 `col:"skill_development_score"`
	RecreationScore       *float64 `col:"recreation_score"`
	TotalGamingHours      *float64 `col:"total_gaming_hours"`
}

// SteamGameRecord is one game of the Steam catalog.
type SteamGameRecord struct {
	AppID           int        `col:"app_id,required"`
	GameTitle       *string    `col:"game_title"`
	ReleaseDate     *time.Time `col:"release_date"`
	Genre           *string    `col:"genre"`
	Price           *float64   `col:"price"`
	PositiveReviews *int       `col:"positive_reviews"`
	NegativeReviews *int       `col:"negative_reviews"`
	MetacriticScore *int       `col:"metacritic_score"`
}
