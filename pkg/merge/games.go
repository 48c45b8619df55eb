package merge

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/provenance"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// WellbeingSteam is the wellbeing survey joined to the Steam catalog on game
// title.
const WellbeingSteam = "wellbeing_steam"

const (
	titleColumn = "game_title"
	steamSuffix = "_steam"
)

// GameMatch counts the wellbeing rows that found their game in the catalog.
// Ambiguous lists normalized titles the catalog holds more than once; rows
// join to the first of them.
type GameMatch struct {
	Matched   int      `json:"matched" yaml:"matched"`
	Unmatched int      `json:"unmatched" yaml:"unmatched"`
	Ambiguous []string `json:"ambiguous,omitempty" yaml:"ambiguous,omitempty"`
}

// NormalizeTitle folds case, drops punctuation and collapses whitespace, so
// "The Witcher 3: Wild Hunt" and "the witcher 3  wild hunt" compare equal.
func NormalizeTitle(title string) string {
	kept := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), r == '_':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, cases.Fold().String(title))
	return strings.Join(strings.Fields(kept), " ")
}

// joinable reports whether a normalized title can match. Blank titles and the
// cleaning placeholder never do.
func joinable(title string) bool {
	return title != "" && title != NormalizeTitle(constants.UnknownGameTitle)
}

// joinGames left-joins the wellbeing survey to the Steam catalog on the
// normalized game title. Every survey row appears once; catalog columns whose
// name the survey also uses get a _steam suffix. Nothing is built unless both
// sources passed validation and carry a game_title column.
func joinGames(prev state, tracker provenance.Tracker, logger *zerolog.Logger) (*Dataset, *GameMatch, state, error) {
	st := prev
	survey, ok := st.source(datasets.Wellbeing)
	if !ok {
		return nil, nil, st, nil
	}
	catalog, ok := st.source(datasets.SteamGames)
	if !ok {
		return nil, nil, st, nil
	}
	for _, src := range []source{survey, catalog} {
		if !src.table.Schema().Has(titleColumn) {
			st.warnings = append(slices.Clone(st.warnings),
				fmt.Sprintf("%s: no %s column, %s not built", src.spec.Name, titleColumn, WellbeingSteam))
			logger.Warn().Str("dataset", src.spec.Name).Msg("Skipping game title join")
			return nil, nil, st, nil
		}
		if src.table.Schema().Has(datasets.SourceDatasetColumn) {
			st = st.rejectFor(src.spec.Name, WellbeingSteam, reservedColumn(src.spec.Name, datasets.SourceDatasetColumn))
			return nil, nil, st, nil
		}
	}

	schema := survey.table.Schema()
	for _, c := range catalog.table.Schema().Columns() {
		if schema.Has(c.Name) {
			c.Name += steamSuffix
		}
		c.Required = false
		var err error
		if schema, err = schema.Append(c); err != nil {
			return nil, nil, st, fmt.Errorf("joining %s: %w", WellbeingSteam, err)
		}
	}
	schema, err := schema.Append(table.Column{Name: datasets.SourceDatasetColumn, Kind: table.KindString})
	if err != nil {
		return nil, nil, st, err
	}

	match := &GameMatch{}
	index := make(map[string]int, catalog.table.Len())
	for i := range catalog.table.Len() {
		title := NormalizeTitle(catalog.table.Value(i, titleColumn).String())
		if !joinable(title) {
			continue
		}
		if _, dup := index[title]; dup {
			if !slices.Contains(match.Ambiguous, title) {
				match.Ambiguous = append(match.Ambiguous, title)
			}
			continue
		}
		index[title] = i
	}

	b := table.NewBuilder(WellbeingSteam, schema)
	unmatched := make(table.Row, catalog.table.Schema().Len())
	for r := range survey.table.Len() {
		row := append(make(table.Row, 0, schema.Len()), survey.table.Row(r)...)
		title := NormalizeTitle(survey.table.Value(r, titleColumn).String())
		if i, found := index[title]; found && joinable(title) {
			row = append(row, catalog.table.Row(i)...)
			match.Matched++
		} else {
			row = append(row, unmatched...)
			match.Unmatched++
		}
		row = append(row, table.String(survey.spec.Name))
		if err := b.AddRow(row); err != nil {
			return nil, nil, st, err
		}
		tracker.Track(WellbeingSteam, provenance.Origin{
			Source:    survey.spec.Name,
			Key:       datasets.KeyText(survey.table.Value(r, survey.spec.KeyColumn)),
			SourceRow: survey.rows[r],
		})
	}

	ds := &Dataset{
		Name:             WellbeingSteam,
		Table:            b.Build(),
		Sources:          []string{survey.spec.Name, catalog.spec.Name},
		ProvenanceColumn: datasets.SourceDatasetColumn,
	}
	if len(match.Ambiguous) > 0 {
		st.warnings = append(slices.Clone(st.warnings),
			fmt.Sprintf("%s: %d titles appear more than once in %s", WellbeingSteam, len(match.Ambiguous), catalog.spec.Name))
	}
	logger.Info().
		Int("records", ds.Records()).
		Int("matched", match.Matched).
		Int("unmatched", match.Unmatched).
		Msg("Wellbeing joined to Steam catalog")
	return ds, match, st, nil
}

// source returns the validated source with the given name.
func (s state) source(name string) (source, bool) {
	for _, src := range s.sources {
		if src.spec.Name == name {
			return src, true
		}
	}
	return source{}, false
}
