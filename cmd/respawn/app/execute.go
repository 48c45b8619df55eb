package app

import (
	"context"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/respawnmetrics/respawn/cmd/respawn/cmd/clean"
	"github.com/respawnmetrics/respawn/cmd/respawn/cmd/merge"
	"github.com/respawnmetrics/respawn/cmd/respawn/cmd/sample"
	"github.com/respawnmetrics/respawn/cmd/respawn/cmd/schema"
	"github.com/respawnmetrics/respawn/cmd/respawn/cmd/validate"
	"github.com/respawnmetrics/respawn/internal/cmd/output"
)

// Execute runs the CLI with args, not including the program name.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "respawn",
		Short:   "RespawnMetrics dataset pipeline",
		Version: a.version,
		Long: `Respawn consolidates the RespawnMetrics gaming and mental health
survey datasets into one master dataset and a set of specialized analysis
datasets.

Sources that fail validation are rejected and reported; the remaining
sources are still merged.`,
		PersistentPreRunE: a.configure,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.SetVersionTemplate("respawn {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default is $HOME/.respawn.yaml)")
	pf.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	pf.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	pf.Bool("no-color", false, "disable colored output")
	pf.StringP("format", "o", "", "output format: table, json, yaml, wide, markdown")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	root.AddGroup(
		&cobra.Group{ID: "core", Title: "Pipeline Commands:"},
		&cobra.Group{ID: "management", Title: "Dataset Commands:"},
	)
	root.AddCommand(
		merge.NewCommand(a),
		clean.NewCommand(a),
		validate.NewCommand(a),
		schema.NewCommand(a),
		sample.NewCommand(a),
		a.versionCommand(),
	)
	return root
}

// configure applies the config file and global flags, then rebuilds the
// logger unless one was injected.
func (a *App) configure(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	format := stringFlag(flags, "format")
	if _, err := output.ParseFormat(format); err != nil {
		return err
	}

	if path := stringFlag(flags, "config"); path != "" {
		config, err := LoadConfig(path)
		if err != nil {
			return err
		}
		a.config = config
	}
	a.config.UpdateFromFlags(
		boolFlag(flags, "verbose"),
		boolFlag(flags, "quiet"),
		boolFlag(flags, "no-color"),
		format,
		stringFlag(flags, "log-level"),
	)

	if !a.fixedLogger {
		a.setLogger(NewLogger(a.config))
	}
	return nil
}

func (a *App) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("respawn %s\n", a.version)
			if !a.config.Verbose {
				return
			}
			for _, line := range [][2]string{
				{"commit", a.commit},
				{"built", a.date},
				{"built by", a.builtBy},
				{"go version", runtime.Version()},
				{"platform", runtime.GOOS + "/" + runtime.GOARCH},
			} {
				cmd.Printf("  %-11s %s\n", line[0]+":", line[1])
			}
		},
	}
}

// The persistent flags are registered in rootCommand; a lookup failure is a
// programming error.
func boolFlag(flags *pflag.FlagSet, name string) bool {
	v, err := flags.GetBool(name)
	if err != nil {
		panic("flag " + name + ": " + err.Error())
	}
	return v
}

func stringFlag(flags *pflag.FlagSet, name string) string {
	v, err := flags.GetString(name)
	if err != nil {
		panic("flag " + name + ": " + err.Error())
	}
	return v
}
