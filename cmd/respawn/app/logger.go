package app

import (
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog"

	"github.com/respawnmetrics/respawn/pkg/logging"
)

var logLevels = []string{"trace", "debug", "info", "warn", "error"}

// NewLogger builds the CLI logger. The level comes from --log-level (or
// LOG_LEVEL), then -q, then -v, then info. Problems with the flags are
// reported on stderr before logging is up.
func NewLogger(config *Config) zerolog.Logger {
	level, warning := levelFor(config)
	if warning != "" {
		fmt.Fprintln(os.Stderr, "Warning: "+warning)
	}

	return logging.NewLoggerFromConfig(&logging.Config{
		Level:      level,
		Format:     config.LogFormat,
		Output:     config.LogOutput,
		TimeFormat: "kitchen",
		NoColor:    config.NoColor,
		AddCaller:  level == "debug" || level == "trace",
	})
}

// levelFor resolves the log level and any warning about conflicting or
// unknown settings.
func levelFor(config *Config) (string, string) {
	switch {
	case config.LogLevel != "" && !slices.Contains(logLevels, config.LogLevel):
		return "info", fmt.Sprintf("invalid log level %q, using \"info\"", config.LogLevel)
	case config.LogLevel != "":
		return config.LogLevel, ""
	case config.Quiet && config.Verbose:
		return "warn", "both --verbose and --quiet specified, using --quiet"
	case config.Quiet:
		return "warn", ""
	case config.Verbose:
		return "debug", ""
	default:
		return "info", ""
	}
}
