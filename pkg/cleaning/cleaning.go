// Package cleaning prepares raw survey and catalog tables for the merge.
//
// Each source has a typed cleaner working on its datasets record. Cleaners
// fill missing numeric measurements with the column median, derive category
// columns and normalize free-text values. Clean dispatches a loaded table to
// the right cleaner after removing rows that are exact duplicates.
package cleaning

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Stats describes what cleaning changed in one dataset.
type Stats struct {
	Dataset           string         `json:"dataset" yaml:"dataset"`
	Input             int            `json:"input" yaml:"input"`
	Output            int            `json:"output" yaml:"output"`
	DuplicatesRemoved int            `json:"duplicates_removed" yaml:"duplicates_removed"`
	Filled            map[string]int `json:"filled,omitempty" yaml:"filled,omitempty"`
}

func (s *Stats) fill(column string, n int) {
	if n == 0 {
		return
	}
	if s.Filled == nil {
		s.Filled = make(map[string]int)
	}
	s.Filled[column] += n
}

// Clean removes exact duplicate rows from t and runs the cleaner registered
// for the dataset name. The cleaned table holds the record's declared columns
// followed by any other columns of t, unchanged.
func Clean(name string, t *table.Table) (*table.Table, Stats, error) {
	deduped, removed := DropDuplicates(t)

	var (
		out   *table.Table
		stats Stats
		err   error
	)
	switch name {
	case datasets.Anxiety:
		out, stats, err = run(name, deduped, Anxiety)
	case datasets.Aggression:
		out, stats, err = run(name, deduped, Aggression)
	case datasets.Wellbeing:
		out, stats, err = run(name, deduped, Wellbeing)
	case datasets.PredictionScales:
		out, stats, err = run(name, deduped, PredictionScales)
	case datasets.SteamGames:
		out, stats, err = run(name, deduped, SteamGames)
	default:
		return nil, Stats{}, errors.NewNotFoundError("cleaner", name)
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("cleaning %s: %w", name, err)
	}

	stats.Input = t.Len()
	stats.DuplicatesRemoved = removed
	return out, stats, nil
}

func run[T any](name string, t *table.Table, clean func([]T) ([]T, Stats)) (*table.Table, Stats, error) {
	recs, err := table.Decode[T](t)
	if err != nil {
		return nil, Stats{}, err
	}
	cleaned, stats := clean(recs)
	out, err := table.FromRecords(name, cleaned)
	if err != nil {
		return nil, Stats{}, err
	}
	if out, err = out.Extend(t); err != nil {
		return nil, Stats{}, err
	}
	stats.Dataset = name
	return out, stats, nil
}

// DropDuplicates removes rows identical to an earlier row in every column and
// returns the number removed.
func DropDuplicates(t *table.Table) (*table.Table, int) {
	seen := make(map[string]bool, t.Len())
	removed := 0
	out := t.Filter(func(_ int, r table.Row) bool {
		key := rowKey(r)
		if seen[key] {
			removed++
			return false
		}
		seen[key] = true
		return true
	})
	return out, removed
}

func rowKey(r table.Row) string {
	var b strings.Builder
	for _, v := range r {
		if v.IsNull() {
			b.WriteString("\x00")
		} else {
			fmt.Fprintf(&b, "%d:%s", v.Kind(), v.String())
		}
		b.WriteByte('\x1f')
	}
	return b.String()
}

// Median returns the median of the set values, or false when none are set.
func Median(values []*float64) (float64, bool) {
	var set []float64
	for _, v := range values {
		if v != nil && !math.IsNaN(*v) {
			set = append(set, *v)
		}
	}
	if len(set) == 0 {
		return 0, false
	}
	slices.Sort(set)
	mid := len(set) / 2
	if len(set)%2 == 1 {
		return set[mid], true
	}
	return (set[mid-1] + set[mid]) / 2, true
}

// fillMedian sets every nil field selected by get to the median of the set
// ones and returns how many were filled.
func fillMedian[T any](recs []T, get func(*T) **float64) int {
	values := make([]*float64, len(recs))
	for i := range recs {
		values[i] = *get(&recs[i])
	}
	median, ok := Median(values)
	if !ok {
		return 0
	}
	filled := 0
	for i := range recs {
		if p := get(&recs[i]); *p == nil {
			v := median
			*p = &v
			filled++
		}
	}
	return filled
}

// fillMedianInt is fillMedian for integer fields; the median is rounded.
func fillMedianInt[T any](recs []T, get func(*T) **int) int {
	values := make([]*float64, 0, len(recs))
	for i := range recs {
		if p := *get(&recs[i]); p != nil {
			f := float64(*p)
			values = append(values, &f)
		}
	}
	median, ok := Median(values)
	if !ok {
		return 0
	}
	filled := 0
	for i := range recs {
		if p := get(&recs[i]); *p == nil {
			v := int(math.Round(median))
			*p = &v
			filled++
		}
	}
	return filled
}

// GameTitle trims a title and substitutes a placeholder for blanks.
func GameTitle(title *string) *string {
	t := constants.UnknownGameTitle
	if title != nil && strings.TrimSpace(*title) != "" {
		t = strings.TrimSpace(*title)
	}
	return &t
}
