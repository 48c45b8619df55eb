package merge

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/respawnmetrics/respawn/pkg/provenance"
	"github.com/respawnmetrics/respawn/pkg/reconcile"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Stage names used in failures.
const (
	StageStandardize = "standardize"
	StageKeys        = "keys"
	StageSchema      = "schema"
)

// Failure is a source rejected by the merge. An empty Target means the
// source was rejected for the whole run; otherwise only for that output.
type Failure struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
	Stage  string `json:"stage" yaml:"stage"`
	Kind   string `json:"kind" yaml:"kind"`
	Err    error  `json:"-" yaml:"-"`
}

// Error implements the error interface.
func (f Failure) Error() string {
	if f.Target != "" {
		return fmt.Sprintf("%s (for %s): %v", f.Source, f.Target, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Source, f.Err)
}

// Unwrap returns the underlying error.
func (f Failure) Unwrap() error { return f.Err }

// Dataset is one output table and the sources that fed it.
type Dataset struct {
	Name             string       `json:"name" yaml:"name"`
	Table            *table.Table `json:"-" yaml:"-"`
	Sources          []string     `json:"sources" yaml:"sources"`
	ProvenanceColumn string       `json:"provenance_column" yaml:"provenance_column"`
}

// Records returns the number of rows.
func (d *Dataset) Records() int { return d.Table.Len() }

// Columns returns the column names.
func (d *Dataset) Columns() []string { return d.Table.Schema().Names() }

// Input summarizes one standardized source as the merge saw it.
type Input struct {
	Name    string   `json:"name" yaml:"name"`
	Records int      `json:"records" yaml:"records"`
	Columns []string `json:"columns" yaml:"columns"`
}

// Stats holds merge counters.
type Stats struct {
	SourcesIn       int            `json:"sources_in" yaml:"sources_in"`
	SourcesUsed     int            `json:"sources_used" yaml:"sources_used"`
	SourcesRejected int            `json:"sources_rejected" yaml:"sources_rejected"`
	RowsIn          int            `json:"rows_in" yaml:"rows_in"`
	RowsWithoutKey  int            `json:"rows_without_key" yaml:"rows_without_key"`
	RowsOut         map[string]int `json:"rows_out" yaml:"rows_out"`
}

// Result is the outcome of a merge.
type Result struct {
	Inputs      []Input            `json:"inputs" yaml:"inputs"`
	Master      *Dataset           `json:"master,omitempty" yaml:"master,omitempty"`
	Specialized []*Dataset         `json:"specialized" yaml:"specialized"`
	Games       *Dataset           `json:"games,omitempty" yaml:"games,omitempty"`
	GameMatch   *GameMatch         `json:"game_match,omitempty" yaml:"game_match,omitempty"`
	Renames     []reconcile.Rename `json:"renames,omitempty" yaml:"renames,omitempty"`
	Failures    []Failure          `json:"failures,omitempty" yaml:"failures,omitempty"`
	Warnings    []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Lineage     provenance.Lineage `json:"-" yaml:"-"`
	Stats       Stats              `json:"stats" yaml:"stats"`
	Duration    time.Duration      `json:"duration" yaml:"duration"`
}

// Datasets returns the master dataset, the specialized ones and the
// wellbeing_steam join, skipping those not built.
func (r *Result) Datasets() []*Dataset {
	out := make([]*Dataset, 0, len(r.Specialized)+2)
	if r.Master != nil {
		out = append(out, r.Master)
	}
	out = append(out, r.Specialized...)
	if r.Games != nil {
		out = append(out, r.Games)
	}
	return out
}

// Dataset returns an output dataset by name.
func (r *Result) Dataset(name string) (*Dataset, bool) {
	for _, d := range r.Datasets() {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Rejected returns the sources rejected for the whole run.
func (r *Result) Rejected() []string {
	var out []string
	for _, f := range r.Failures {
		if f.Target == "" && !slices.Contains(out, f.Source) {
			out = append(out, f.Source)
		}
	}
	return out
}

// HasFailures reports whether any source was rejected.
func (r *Result) HasFailures() bool { return len(r.Failures) > 0 }

// HasWarnings reports whether the merge produced warnings.
func (r *Result) HasWarnings() bool { return len(r.Warnings) > 0 }

// Summary returns a one-line description of the result.
func (r *Result) Summary() string {
	var b strings.Builder
	if r.Master != nil {
		fmt.Fprintf(&b, "master: %d records", r.Master.Records())
	}
	for _, d := range append(slices.Clone(r.Specialized), r.Games) {
		if d == nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %d records", d.Name, d.Records())
	}
	if n := len(r.Failures); n > 0 {
		fmt.Fprintf(&b, " (%d rejections)", n)
	}
	return b.String()
}
