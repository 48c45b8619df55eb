// Package report summarizes a merge run for people.
//
// A Summary is built from the merge result and the load outcome. It renders
// as plain text in the layout of the classic merge_summary_report.txt, as
// markdown, or through any structured encoder via its tags.
package report

import (
	"slices"
	"time"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/merge"
	"github.com/respawnmetrics/respawn/pkg/sources"
)

// Stage of failures that happened while loading.
const StageLoad = "load"

// Dataset is the shape of one table.
type Dataset struct {
	Name    string   `json:"name" yaml:"name"`
	Records int      `json:"records" yaml:"records"`
	Columns []string `json:"columns" yaml:"columns"`
}

// Share is one source's part of the master dataset.
type Share struct {
	Source  string  `json:"source" yaml:"source"`
	Records int     `json:"records" yaml:"records"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// GameJoin is the wellbeing survey joined to the Steam catalog.
type GameJoin struct {
	Dataset   Dataset `json:"dataset" yaml:"dataset"`
	Matched   int     `json:"matched" yaml:"matched"`
	Unmatched int     `json:"unmatched" yaml:"unmatched"`
}

// Failure is a rejected source.
type Failure struct {
	Source  string `json:"source" yaml:"source"`
	Target  string `json:"target,omitempty" yaml:"target,omitempty"`
	Stage   string `json:"stage" yaml:"stage"`
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// Summary describes a merge run.
type Summary struct {
	RunID        string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	GeneratedAt  time.Time     `json:"generated_at" yaml:"generated_at"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	OutputDir    string        `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Inputs       []Dataset     `json:"inputs" yaml:"inputs"`
	InputRecords int           `json:"input_records" yaml:"input_records"`
	Master       *Dataset      `json:"master,omitempty" yaml:"master,omitempty"`
	Specialized  []Dataset     `json:"specialized" yaml:"specialized"`
	Games        *GameJoin     `json:"games,omitempty" yaml:"games,omitempty"`
	Distribution []Share       `json:"distribution,omitempty" yaml:"distribution,omitempty"`
	Failures     []Failure     `json:"failures,omitempty" yaml:"failures,omitempty"`
	Warnings     []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Option configures a Summary.
type Option func(*Summary)

// WithRunID sets the run identifier.
func WithRunID(id string) Option {
	return func(s *Summary) { s.RunID = id }
}

// WithOutputDir records where the datasets were written.
func WithOutputDir(dir string) Option {
	return func(s *Summary) { s.OutputDir = dir }
}

// WithGeneratedAt overrides the generation time.
func WithGeneratedAt(t time.Time) Option {
	return func(s *Summary) { s.GeneratedAt = t }
}

// WithLoaded adds load failures and load time.
func WithLoaded(loaded *sources.Loaded) Option {
	return func(s *Summary) {
		if loaded == nil {
			return
		}
		s.Duration += loaded.Duration
		failures := make([]Failure, 0, len(loaded.Failures)+len(s.Failures))
		for _, f := range loaded.Failures {
			failures = append(failures, Failure{
				Source:  f.Source,
				Stage:   StageLoad,
				Kind:    f.Kind,
				Message: f.Err.Error(),
			})
		}
		s.Failures = append(failures, s.Failures...)
	}
}

// New builds a summary of result. A nil result yields a summary holding only
// what the options add.
func New(result *merge.Result, opts ...Option) *Summary {
	s := &Summary{GeneratedAt: time.Now()}
	if result != nil {
		s.Duration = result.Duration
		s.Warnings = slices.Clone(result.Warnings)

		for _, in := range result.Inputs {
			s.Inputs = append(s.Inputs, Dataset{Name: in.Name, Records: in.Records, Columns: in.Columns})
			s.InputRecords += in.Records
		}
		if m := result.Master; m != nil {
			s.Master = &Dataset{Name: m.Name, Records: m.Records(), Columns: m.Columns()}
			for _, c := range result.Lineage.Distribution(constants.MasterDataset) {
				share := Share{Source: c.Source, Records: c.Rows}
				if total := m.Records(); total > 0 {
					share.Percent = float64(c.Rows) / float64(total) * 100
				}
				s.Distribution = append(s.Distribution, share)
			}
		}
		for _, d := range result.Specialized {
			s.Specialized = append(s.Specialized, Dataset{Name: d.Name, Records: d.Records(), Columns: d.Columns()})
		}
		if g := result.Games; g != nil && result.GameMatch != nil {
			s.Games = &GameJoin{
				Dataset:   Dataset{Name: g.Name, Records: g.Records(), Columns: g.Columns()},
				Matched:   result.GameMatch.Matched,
				Unmatched: result.GameMatch.Unmatched,
			}
		}
		for _, f := range result.Failures {
			s.Failures = append(s.Failures, Failure{
				Source:  f.Source,
				Target:  f.Target,
				Stage:   f.Stage,
				Kind:    f.Kind,
				Message: f.Err.Error(),
			})
		}
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OK reports whether every source made it through.
func (s *Summary) OK() bool { return len(s.Failures) == 0 }
