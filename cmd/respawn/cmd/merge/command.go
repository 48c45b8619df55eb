// Package merge provides the merge command.
package merge

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/respawnmetrics/respawn"
	"github.com/respawnmetrics/respawn/cmd/application"
	"github.com/respawnmetrics/respawn/internal/cmd/output"
	"github.com/respawnmetrics/respawn/internal/cmd/table"
	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/export"
	"github.com/respawnmetrics/respawn/pkg/report"
)

// Flags holds the merge command flags.
type Flags struct {
	Input     string
	Output    string
	Raw       string
	SQLite    string
	Clean     bool
	NoReports bool
	Strict    bool
}

// NewCommand creates the merge command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}
	cmd := &cobra.Command{
		Use:     "merge",
		GroupID: "core",
		Short:   "Merge the cleaned datasets into the master and specialized datasets",
		Long: `Merge loads every cleaned source, validates it, and writes:
  - the master dataset with the shared participant columns
  - the mental_health, gaming_behavior, prediction_scales and steam_games datasets
  - a text and markdown summary and a lineage file

A source with a missing key column, duplicate keys or incompatible column
types is rejected and listed in the summary; the others are still merged.
When every source is rejected the summary is still printed and written, and
merge exits with status 3.`,
		Example: `  respawn merge
  respawn merge --clean --raw respawn_data
  respawn merge --sqlite -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Input, "input", "i", "", "directory with cleaned source files")
	cmd.Flags().StringVar(&flags.Output, "output", "", "directory for merged datasets and reports")
	cmd.Flags().StringVar(&flags.Raw, "raw", "", "directory with raw source files (with --clean)")
	cmd.Flags().StringVar(&flags.SQLite, "sqlite", "", "also write the datasets to this SQLite database")
	cmd.Flags().Lookup("sqlite").NoOptDefVal = constants.DefaultSQLiteFile
	cmd.Flags().BoolVar(&flags.Clean, "clean", false, "clean raw files before merging")
	cmd.Flags().BoolVar(&flags.NoReports, "no-reports", false, "skip the summary reports and lineage file")
	cmd.Flags().BoolVar(&flags.Strict, "strict", false, "exit with an error when any source is rejected")

	return cmd
}

// Options converts the changed flags into client options.
func (f *Flags) Options(cmd *cobra.Command) []respawn.Option {
	var opts []respawn.Option
	changed := cmd.Flags().Changed
	if changed("input") {
		opts = append(opts, respawn.WithInputDir(f.Input))
	}
	if changed("output") {
		opts = append(opts, respawn.WithOutputDir(f.Output))
	}
	if changed("raw") {
		opts = append(opts, respawn.WithRawDir(f.Raw))
	}
	if changed("sqlite") {
		opts = append(opts, respawn.WithSQLitePath(f.SQLite))
	}
	if changed("clean") {
		opts = append(opts, respawn.WithCleaning(f.Clean))
	}
	if f.NoReports {
		opts = append(opts, respawn.WithReports(false))
	}
	return opts
}

func run(cmd *cobra.Command, app application.Application, flags *Flags) error {
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}

	client, err := app.Client(flags.Options(cmd)...)
	if err != nil {
		return err
	}

	logger := app.Logger()
	client.OnSourceRejected(func(r respawn.Rejection) {
		event := logger.Warn().Str("source", r.Source).Str("stage", r.Stage).Str("kind", r.Kind).Err(r.Err)
		if r.Target != "" {
			event = event.Str("target", r.Target)
		}
		event.Msg("Source rejected")
	})
	client.OnDatasetWritten(func(w export.Written) {
		logger.Debug().Str("sink", w.Sink).Str("dataset", w.Dataset).Int("records", w.Records).Str("location", w.Location).Msg("Dataset written")
	})

	result, runErr := client.Run(cmd.Context())
	if result == nil || result.Summary == nil {
		return runErr
	}

	if err := render(cmd.OutOrStdout(), format, result.Summary); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	if flags.Strict && !result.Summary.OK() {
		return fmt.Errorf("%d source rejection(s)", len(result.Summary.Failures))
	}
	return nil
}

func render(w io.Writer, format output.Format, summary *report.Summary) error {
	switch {
	case format.Structured():
		return output.NewFormatter(format).Format(w, summary)
	case format == output.FormatMarkdown:
		return report.Markdown(w, summary)
	case format == output.FormatTable || format == output.FormatWide:
		tf := output.NewFormatter(format)
		if err := tf.Format(w, table.SummaryToTableData(summary)); err != nil {
			return err
		}
		if len(summary.Failures) == 0 {
			return nil
		}
		return tf.Format(w, table.FailuresToTableData(summary.Failures))
	default:
		return report.Text(w, summary)
	}
}
