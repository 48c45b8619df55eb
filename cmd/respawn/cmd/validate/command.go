// Package validate provides the validate command.
package validate

import (
	"fmt"
	"maps"

	"github.com/spf13/cobra"

	"github.com/respawnmetrics/respawn"
	"github.com/respawnmetrics/respawn/cmd/application"
	"github.com/respawnmetrics/respawn/internal/cmd/emoji"
	"github.com/respawnmetrics/respawn/internal/cmd/output"
	"github.com/respawnmetrics/respawn/internal/cmd/table"
	"github.com/respawnmetrics/respawn/pkg/cleaning"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/sources"
)

// Result is the structured outcome of a validation.
type Result struct {
	Loaded   map[string]int     `json:"loaded" yaml:"loaded"`
	Quality  []cleaning.Quality `json:"quality,omitempty" yaml:"quality,omitempty"`
	Failures []sources.Failure  `json:"failures,omitempty" yaml:"failures,omitempty"`
	Errors   []string           `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewCommand creates the validate command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:     "validate",
		GroupID: "management",
		Short:   "Load and validate the cleaned sources without merging",
		Long: `Validate loads every cleaned source the way merge does and checks
the key column and column types against the declared schemas. A source whose
key is missing or repeated fails, as it would in a merge.

Each loaded source also gets a quality check: the percentage of set cells,
the number of duplicate rows, and whether it is complete enough to use.

It exits with an error when any source fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []respawn.Option
			if cmd.Flags().Changed("input") {
				opts = append(opts, respawn.WithInputDir(input))
			}
			client, err := app.Client(opts...)
			if err != nil {
				return err
			}

			loaded, err := client.Load(cmd.Context())
			if err != nil {
				return err
			}
			loaded = checkKeys(app.Registry(), loaded)
			quality := assess(app.Registry(), loaded)

			format := output.DetectFormat(app.OutputFormat())
			rows := table.LoadedToTableData(loaded, quality, emoji.Success, emoji.Error)
			if err := output.Write(cmd.OutOrStdout(), format, rows, newResult(loaded, quality)); err != nil {
				return err
			}

			total := len(loaded.Failures) + len(loaded.Order)
			if n := len(loaded.Failures); n > 0 {
				return fmt.Errorf("%d of %d sources failed validation", n, total)
			}
			if n := invalid(quality); n > 0 {
				return fmt.Errorf("%d of %d sources are below the quality threshold", n, total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "directory with cleaned source files")

	return cmd
}

// checkKeys runs the merge key check on every loaded source and moves the
// ones that fail it to Failures.
func checkKeys(registry *datasets.Registry, loaded *sources.Loaded) *sources.Loaded {
	out := &sources.Loaded{
		Tables:   maps.Clone(loaded.Tables),
		Failures: loaded.Failures,
		Duration: loaded.Duration,
	}
	for _, name := range loaded.Order {
		spec, err := registry.Lookup(name)
		if err == nil {
			_, err = spec.CheckKeys(loaded.Tables[name], nil)
		}
		if err != nil {
			delete(out.Tables, name)
			out.Failures = append(out.Failures, sources.Failure{Source: name, Kind: errors.Kind(err), Err: err})
			continue
		}
		out.Order = append(out.Order, name)
	}
	return out
}

func assess(registry *datasets.Registry, loaded *sources.Loaded) map[string]cleaning.Quality {
	quality := make(map[string]cleaning.Quality, len(loaded.Order))
	for _, name := range loaded.Order {
		if spec, err := registry.Lookup(name); err == nil {
			quality[name] = cleaning.Assess(spec, loaded.Tables[name])
		}
	}
	return quality
}

func invalid(quality map[string]cleaning.Quality) int {
	n := 0
	for _, q := range quality {
		if !q.Valid {
			n++
		}
	}
	return n
}

func newResult(loaded *sources.Loaded, quality map[string]cleaning.Quality) Result {
	r := Result{Loaded: make(map[string]int, len(loaded.Tables)), Failures: loaded.Failures}
	for _, name := range loaded.Order {
		r.Loaded[name] = loaded.Tables[name].Len()
		if q, ok := quality[name]; ok {
			r.Quality = append(r.Quality, q)
		}
	}
	for _, f := range loaded.Failures {
		r.Errors = append(r.Errors, f.Error())
	}
	return r
}
