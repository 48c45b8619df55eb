// Package clean provides the clean command.
package clean

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/respawnmetrics/respawn"
	"github.com/respawnmetrics/respawn/cmd/application"
	"github.com/respawnmetrics/respawn/internal/cmd/output"
	"github.com/respawnmetrics/respawn/internal/cmd/table"
)

// NewCommand creates the clean command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var raw, input string
	cmd := &cobra.Command{
		Use:     "clean",
		GroupID: "core",
		Short:   "Clean raw source files into the merge input directory",
		Long: `Clean reads each source's raw file, removes exact duplicate rows,
fills missing numeric values with the column median, normalizes gender and
game titles, and derives anxiety levels and age groups.

A source without a raw file is replaced by generated sample data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []respawn.Option
			if cmd.Flags().Changed("raw") {
				opts = append(opts, respawn.WithRawDir(raw))
			}
			if cmd.Flags().Changed("input") {
				opts = append(opts, respawn.WithInputDir(input))
			}

			client, err := app.Client(opts...)
			if err != nil {
				return err
			}
			result, err := client.Clean(cmd.Context())
			if err != nil {
				return err
			}

			logger := app.Logger()
			for _, f := range result.Failures {
				logger.Warn().Str("source", f.Source).Str("kind", f.Kind).Err(f.Err).Msg("Cleaning failed")
			}

			format := output.DetectFormat(app.OutputFormat())
			if err := output.Write(cmd.OutOrStdout(), format, table.CleanStatsToTableData(result.Stats, result.Generated), result); err != nil {
				return err
			}
			if len(result.Stats) == 0 && len(result.Failures) > 0 {
				return fmt.Errorf("cleaning failed for all %d sources", len(result.Failures))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&raw, "raw", "", "directory with raw source files")
	cmd.Flags().StringVarP(&input, "input", "i", "", "directory the cleaned files are written to")

	return cmd
}
