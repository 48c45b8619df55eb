package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/respawnmetrics/respawn/pkg/errors"
)

// Exit codes returned by the respawn binary.
const (
	ExitFailure     = 1
	ExitUsage       = 2
	ExitNoSources   = 3
	ExitInterrupted = 130
)

// ContextWithSignals cancels the returned context on SIGINT or SIGTERM so a
// merge in progress stops between stages.
func ContextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	var cfgErr *errors.ConfigError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, errors.ErrNoUsableSources):
		return ExitNoSources
	case errors.IsValidationError(err), errors.As(err, &cfgErr):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// ExitOnError prints err and exits with its ExitCode. It does nothing for a
// nil error.
func ExitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error: "+err.Error())
	os.Exit(ExitCode(err))
}
