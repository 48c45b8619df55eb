// Package schema provides the schema command.
package schema

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/respawnmetrics/respawn/cmd/application"
	"github.com/respawnmetrics/respawn/internal/cmd/output"
	"github.com/respawnmetrics/respawn/internal/cmd/table"
)

// NewCommand creates the schema command using app context.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "schema [dataset]",
		GroupID: "management",
		Short:   "Show the declared source datasets or one dataset's columns",
		Args:    cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return app.Registry().Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := app.Registry()
			format := output.DetectFormat(app.OutputFormat())
			w := cmd.OutOrStdout()

			if len(args) == 0 {
				return output.Write(w, format, table.SpecsToTableData(registry.Specs()), registry.Specs())
			}

			spec, err := registry.Lookup(args[0])
			if err != nil {
				return fmt.Errorf("unknown dataset %q: must be one of: %s", args[0], strings.Join(registry.Names(), ", "))
			}
			return output.Write(w, format, table.SchemaToTableData(spec), spec.Schema.Columns())
		},
	}
}
