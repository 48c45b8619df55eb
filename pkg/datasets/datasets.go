// Package datasets declares the source datasets the respawn pipeline merges.
//
// Each source has a Spec: the cleaned file it is read from, the raw file names
// the cleaner looks for, its key column, and a typed schema derived from a
// record struct. Loaders validate tables against their declared Spec so the
// merge engine only ever sees well-formed sources.
package datasets

import (
	"fmt"
	"slices"

	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Source dataset names.
const (
	Anxiety          = "anxiety"
	Aggression       = "aggression"
	Wellbeing        = "wellbeing"
	PredictionScales = "prediction_scales"
	SteamGames       = "steam_games"
)

// Shared column names.
const (
	// ParticipantIDColumn keys every survey source.
	ParticipantIDColumn = "participant_id"

	// AppIDColumn keys the Steam catalog.
	AppIDColumn = "app_id"

	// SourceDatasetColumn tags specialized dataset rows with their source.
	SourceDatasetColumn = "source_dataset"

	// DataSourceColumn tags master dataset rows with their source.
	DataSourceColumn = "data_source"
)

// Entity says what a source's rows describe.
type Entity string

const (
	// EntityParticipant rows are survey participants and feed the master dataset.
	EntityParticipant Entity = "participant"

	// EntityCatalog rows are catalog items such as games.
	EntityCatalog Entity = "catalog"
)

// Spec declares one source dataset.
type Spec struct {
	Name         string            `json:"name" yaml:"name"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	FileName     string            `json:"file" yaml:"file"`
	RawFileNames []string          `json:"raw_files,omitempty" yaml:"raw_files,omitempty"`
	KeyColumn    string            `json:"key" yaml:"key"`
	Entity       Entity            `json:"entity" yaml:"entity"`
	Schema       table.Schema      `json:"-" yaml:"-"`
	Aliases      map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Participant reports whether the source describes survey participants.
func (s Spec) Participant() bool {
	return s.Entity == EntityParticipant
}

// Validate checks a loaded table against s: the key column must be
// present, and every declared column the table carries must have a
// compatible kind.
func (s Spec) Validate(t *table.Table) error {
	if !t.Schema().Has(s.KeyColumn) {
		return errors.NewMissingKeyError(s.Name, s.KeyColumn)
	}
	for _, want := range s.Schema.Columns() {
		got, ok := t.Schema().Column(want.Name)
		if !ok {
			continue
		}
		if !want.Kind.Compatible(got.Kind) {
			return errors.NewSchemaMismatchError(s.Name, want.Name, want.Kind.String(), got.Kind.String())
		}
	}
	return nil
}

// Registry holds the declared sources in a fixed order.
type Registry struct {
	specs  []Spec
	byName map[string]int
}

// NewRegistry builds a registry, rejecting unnamed, unkeyed, or repeated specs.
func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(specs))}
	for _, s := range specs {
		if s.Name == "" {
			return nil, errors.NewValidationError("name", s.Name, "dataset name cannot be empty")
		}
		if s.KeyColumn == "" {
			return nil, errors.NewValidationError("key", s.Name, "dataset must declare a key column")
		}
		if _, dup := r.byName[s.Name]; dup {
			return nil, errors.NewValidationError("name", s.Name, "dataset declared twice")
		}
		if s.Entity == "" {
			s.Entity = EntityParticipant
		}
		r.byName[s.Name] = len(r.specs)
		r.specs = append(r.specs, s)
	}
	return r, nil
}

// Lookup returns the spec for a source name.
func (r *Registry) Lookup(name string) (Spec, error) {
	i, ok := r.byName[name]
	if !ok {
		return Spec{}, errors.NewNotFoundError("dataset", name)
	}
	return r.specs[i], nil
}

// Names returns the source names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.specs))
	for i, s := range r.specs {
		names[i] = s.Name
	}
	return names
}

// Specs returns a copy of the specs in declaration order.
func (r *Registry) Specs() []Spec {
	return slices.Clone(r.specs)
}

// Len returns the number of declared sources.
func (r *Registry) Len() int { return len(r.specs) }

// Default returns the registry of the five RespawnMetrics sources.
func Default() *Registry {
	r, err := NewRegistry(defaultSpecs()...)
	if err != nil {
		panic(fmt.Sprintf("datasets: invalid default registry: %v", err))
	}
	return r
}

func defaultSpecs() []Spec {
	return []Spec{
		{
			Name:        Anxiety,
			Description: "Gaming and anxiety survey",
			FileName:    "gaming_anxiety_clean.csv",
			RawFileNames: []string{
				"gaming_anxiety.csv", "gaming_anxiety_raw.csv",
				"anxiety_gaming.csv", "gaming_and_anxiety.csv",
			},
			KeyColumn: ParticipantIDColumn,
			Entity:    EntityParticipant,
			Schema:    table.MustSchemaOf[AnxietyRecord](),
		},
		{
			Name:        Aggression,
			Description: "Gaming and aggression survey",
			FileName:    "gaming_aggression_clean.csv",
			RawFileNames: []string{
				"gaming_aggression.csv", "gaming_aggression_raw.csv",
				"aggression_gaming.csv", "gaming_and_aggression.csv",
			},
			KeyColumn: ParticipantIDColumn,
			Entity:    EntityParticipant,
			Schema:    table.MustSchemaOf[AggressionRecord](),
		},
		{
			Name:        Wellbeing,
			Description: "Steam players wellbeing survey",
			FileName:    "games_wellbeing_steam_clean.csv",
			RawFileNames: []string{
				"games_wellbeing_steam.csv", "games_wellbeing_steam_raw.csv",
				"steam_wellbeing.csv", "wellbeing_steam_games.csv",
			},
			KeyColumn: ParticipantIDColumn,
			Entity:    EntityParticipant,
			Schema:    table.MustSchemaOf[WellbeingRecord](),
		},
		{
			Name:        PredictionScales,
			Description: "Seven-scale gaming motivation survey",
			FileName:    "gaming_7scales_clean.csv",
			RawFileNames: []string{
				"gaming_7scales.csv", "gaming_7scales_raw.csv",
				"gaming_prediction_scales.csv", "7_scales_gaming.csv",
			},
			KeyColumn: ParticipantIDColumn,
			Entity:    EntityParticipant,
			Schema:    table.MustSchemaOf[ScalesRecord](),
		},
		{
			Name:        SteamGames,
			Description: "Steam game catalog",
			FileName:    "steam_games_clean.csv",
			RawFileNames: []string{
				"steam_games.csv", "steam_games_raw.csv",
				"steam_data.csv", "games_steam.csv",
			},
			KeyColumn: AppIDColumn,
			Entity:    EntityCatalog,
			Schema:    table.MustSchemaOf[SteamGameRecord](),
			Aliases:   map[string]string{"name": "game_title"},
		},
	}
}
