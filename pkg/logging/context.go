package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{ name string }

var (
	loggerKey = ctxKey{"logger"}
	runKey    = ctxKey{"run"}
)

// WithLogger stores logger in ctx. A nil logger stores the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, _ := ctx.Value(loggerKey).(*zerolog.Logger); logger != nil {
			return logger
		}
	}
	return Default()
}

// WithField returns a ctx whose logger carries key.
func WithField(ctx context.Context, key string, value any) context.Context {
	logger := addField(FromContext(ctx).With(), key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithRun tags ctx and its logger with a run identifier.
func WithRun(ctx context.Context, runID string) context.Context {
	return WithField(context.WithValue(ctx, runKey, runID), "run_id", runID)
}

// RunID returns the run identifier set by WithRun.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runKey).(string)
	return id
}

// WithDataset tags the logger with a source dataset name.
func WithDataset(ctx context.Context, dataset string) context.Context {
	return WithField(ctx, "dataset", dataset)
}

// WithTarget tags the logger with an output dataset name.
func WithTarget(ctx context.Context, target string) context.Context {
	return WithField(ctx, "target", target)
}

// WithOperation tags the logger with a CLI or pipeline operation.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}
