// Package logging sets up the zerolog logger shared by the respawn pipeline.
//
// The process logger is built from LOG_* environment variables at start-up
// and replaced by the CLI once flags are parsed. Pipeline stages take their
// logger from the context so that run and dataset fields follow each event:
//
//	ctx = logging.WithRun(ctx, runID)
//	ctx = logging.WithDataset(ctx, "wellbeing")
//	logging.FromContext(ctx).Debug().Msg("Standardizing columns")
package logging

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu      sync.RWMutex
	process = NewLoggerFromConfig(ConfigFromEnv())
)

// Default returns the process logger.
func Default() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &process
}

// SetDefault replaces the process logger and zerolog's global logger.
func SetDefault(logger zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	process = logger
	log.Logger = logger
}

func stderrIsTerminal() bool {
	info, err := os.Stderr.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
