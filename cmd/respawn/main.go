// Command respawn cleans, merges and reports on the RespawnMetrics datasets.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/respawnmetrics/respawn/cmd/respawn/app"
)

// Set at build time with -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	a, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	ctx, stop := app.ContextWithSignals(context.Background())
	defer stop()

	if err := a.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		return app.ExitCode(err)
	}
	return 0
}
