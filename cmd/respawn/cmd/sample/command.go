// Package sample provides the sample command.
package sample

import (
	"github.com/spf13/cobra"

	"github.com/respawnmetrics/respawn/cmd/application"
	"github.com/respawnmetrics/respawn/internal/cmd/output"
	"github.com/respawnmetrics/respawn/internal/cmd/table"
	"github.com/respawnmetrics/respawn/pkg/samples"
)

// NewCommand creates the sample command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var (
		dir     string
		cleaned bool
	)
	cmd := &cobra.Command{
		Use:     "sample",
		GroupID: "management",
		Short:   "Write deterministic sample datasets",
		Long: `Sample writes generated data for every declared source.

By default the files use the raw file names and land in the raw directory,
ready for "respawn clean". With --cleaned they use the cleaned file names
and land in the input directory, ready for "respawn merge".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dirs := app.Directories()
			naming := samples.RawFileName
			target := dirs.Raw
			if cleaned {
				naming = samples.CleanFileName
				target = dirs.Input
			}
			if dir != "" {
				target = dir
			}

			written, err := samples.Write(cmd.Context(), target, app.Registry(), naming)
			if err != nil {
				return err
			}
			app.Logger().Info().Str("dir", target).Int("files", len(written)).Msg("Sample data written")

			format := output.DetectFormat(app.OutputFormat())
			return output.Write(cmd.OutOrStdout(), format, table.WrittenToTableData(written), written)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "directory to write to (default: raw or input directory)")
	cmd.Flags().BoolVar(&cleaned, "cleaned", false, "write cleaned file names for direct merging")

	return cmd
}
