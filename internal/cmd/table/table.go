// Package table converts pipeline results into rows for terminal tables.
package table

import (
	"fmt"
	"slices"
	"strings"

	"github.com/respawnmetrics/respawn/pkg/cleaning"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/export"
	"github.com/respawnmetrics/respawn/pkg/report"
	"github.com/respawnmetrics/respawn/pkg/sources"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// SpecsToTableData lists the declared sources.
func SpecsToTableData(specs []datasets.Spec) Data {
	rows := make([][]string, 0, len(specs))
	for _, s := range specs {
		rows = append(rows, []string{
			s.Name,
			string(s.Entity),
			s.KeyColumn,
			s.FileName,
			fmt.Sprintf("%d", s.Schema.Len()),
		})
	}
	return Data{
		Headers: []string{"NAME", "ENTITY", "KEY", "FILE", "COLUMNS"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignDefault, AlignDefault, AlignDefault, AlignDefault, AlignRight,
		},
	}
}

// SchemaToTableData lists the declared columns of one source.
func SchemaToTableData(spec datasets.Spec) Data {
	var rows [][]string
	for _, c := range spec.Schema.Columns() {
		var notes []string
		if c.Name == spec.KeyColumn {
			notes = append(notes, "key")
		}
		if c.Required {
			notes = append(notes, "required")
		}
		var aliases []string
		for from, to := range spec.Aliases {
			if to == c.Name {
				aliases = append(aliases, "alias "+from)
			}
		}
		slices.Sort(aliases)
		notes = append(notes, aliases...)
		rows = append(rows, []string{c.Name, c.Kind.String(), strings.Join(notes, ", ")})
	}
	return Data{
		Headers: []string{"COLUMN", "KIND", "NOTES"},
		Rows:    rows,
	}
}

// SummaryToTableData lists the input and output datasets of a run.
func SummaryToTableData(s *report.Summary) Data {
	var rows [][]string
	add := func(role string, d report.Dataset) {
		rows = append(rows, []string{role, d.Name, fmt.Sprintf("%d", d.Records), fmt.Sprintf("%d", len(d.Columns))})
	}
	for _, d := range s.Inputs {
		add("input", d)
	}
	if s.Master != nil {
		add("master", *s.Master)
	}
	for _, d := range s.Specialized {
		add("specialized", d)
	}
	if s.Games != nil {
		add("joined", s.Games.Dataset)
	}
	return Data{
		Headers:         []string{"ROLE", "DATASET", "RECORDS", "COLUMNS"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignDefault, AlignDefault, AlignRight, AlignRight},
	}
}

// FailuresToTableData lists rejected sources.
func FailuresToTableData(failures []report.Failure) Data {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		target := f.Target
		if target == "" {
			target = "*"
		}
		rows = append(rows, []string{f.Source, f.Stage, target, f.Kind, f.Message})
	}
	return Data{
		Headers: []string{"SOURCE", "STAGE", "TARGET", "KIND", "MESSAGE"},
		Rows:    rows,
	}
}

// WrittenToTableData lists stored datasets.
func WrittenToTableData(written []export.Written) Data {
	rows := make([][]string, 0, len(written))
	for _, w := range written {
		rows = append(rows, []string{w.Sink, w.Dataset, fmt.Sprintf("%d", w.Records), w.Location})
	}
	return Data{
		Headers:         []string{"SINK", "DATASET", "RECORDS", "LOCATION"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignDefault, AlignDefault, AlignRight, AlignDefault},
	}
}

// CleanStatsToTableData lists per-source cleaning results.
func CleanStatsToTableData(stats []cleaning.Stats, generated []string) Data {
	synthetic := make(map[string]bool, len(generated))
	for _, name := range generated {
		synthetic[name] = true
	}
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		origin := "raw"
		if synthetic[s.Dataset] {
			origin = "sample"
		}
		rows = append(rows, []string{
			s.Dataset,
			origin,
			fmt.Sprintf("%d", s.Input),
			fmt.Sprintf("%d", s.Output),
			fmt.Sprintf("%d", s.DuplicatesRemoved),
			filled(s.Filled),
		})
	}
	return Data{
		Headers:         []string{"DATASET", "ORIGIN", "IN", "OUT", "DUPLICATES", "FILLED"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignDefault, AlignDefault, AlignRight, AlignRight, AlignRight, AlignDefault},
	}
}

// LoadedToTableData lists each source's load outcome in input order, with
// its quality when one was assessed.
func LoadedToTableData(loaded *sources.Loaded, quality map[string]cleaning.Quality, ok, failed string) Data {
	var rows [][]string
	for _, name := range loaded.Order {
		t := loaded.Tables[name]
		status, completeness, duplicates, details := ok, "", "", ""
		if q, assessed := quality[name]; assessed {
			completeness = fmt.Sprintf("%.1f%%", q.Completeness)
			duplicates = fmt.Sprintf("%d", q.DuplicateRows)
			if !q.Valid {
				status = failed
				details = "below quality threshold"
				if len(q.MissingColumns) > 0 {
					details = "missing " + strings.Join(q.MissingColumns, ", ")
				}
			}
		}
		rows = append(rows, []string{name, status, fmt.Sprintf("%d", t.Len()), completeness, duplicates, details})
	}
	for _, f := range loaded.Failures {
		rows = append(rows, []string{f.Source, failed, "", "", "", f.Err.Error()})
	}
	return Data{
		Headers:         []string{"SOURCE", "STATUS", "RECORDS", "COMPLETE", "DUPLICATES", "DETAILS"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignDefault, AlignCenter, AlignRight, AlignRight, AlignRight, AlignDefault},
	}
}

func filled(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(counts))
	for col, n := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", col, n))
	}
	slices.Sort(parts)
	return strings.Join(parts, " ")
}
