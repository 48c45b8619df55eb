// Package respawn provides the main entry point for the RespawnMetrics
// dataset pipeline. It loads the gaming and mental health survey sources,
// merges them into a master dataset and specialized analysis datasets, and
// writes the results with a summary report.
//
// A Client runs the whole pipeline:
//   - optional cleaning of raw files, generating sample data for missing ones
//   - parallel loading of the cleaned sources behind a barrier
//   - the merge, which rejects bad sources instead of failing the run
//   - export to CSV and, optionally, SQLite
//   - a text and markdown summary plus a lineage file
//
// Example usage:
//
//	client, err := respawn.New(
//	    respawn.WithInputDir("respawn_data_cleaned"),
//	    respawn.WithOutputDir("respawn_data_merged"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client.OnSourceRejected(func(r respawn.Rejection) {
//	    log.Printf("rejected %s: %v", r.Source, r.Err)
//	})
//
//	result, err := client.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Merge.Summary())
package respawn

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/logging"
	"github.com/respawnmetrics/respawn/pkg/merge"
	"github.com/respawnmetrics/respawn/pkg/sources"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Loader loads the cleaned sources.
type Loader interface {
	Load(ctx context.Context) (*sources.Loaded, error)
}

// Cleaner cleans raw sources into the input directory.
type Cleaner interface {
	Clean(ctx context.Context) (*CleanResult, error)
}

// Runner runs the full pipeline. When every source is rejected Run returns
// the partial result, summary included, together with the error.
type Runner interface {
	Run(ctx context.Context) (*Result, error)
}

// Client runs the RespawnMetrics pipeline with event hooks.
type Client interface {
	// Loader loads the cleaned sources
	Loader

	// Cleaner cleans raw sources
	Cleaner

	// Runner runs clean, load, merge, export and report
	Runner

	// Hooks provides access to event callback registration
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options
	engine  *merge.Engine
	logger  *zerolog.Logger
	hooks   *hooks
}

// New creates a new Client with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = logging.Default()
	}

	engine := o.engine
	if engine == nil {
		if engine, err = merge.New(merge.WithRegistry(o.registry), merge.WithLogger(logger)); err != nil {
			return nil, errors.WrapResource("create", "merge engine", "", err)
		}
	}

	return &client{
		options: o,
		engine:  engine,
		logger:  logger,
		hooks:   newHooks(),
	}, nil
}

// OnSourceLoaded registers a callback for loaded sources.
func (c *client) OnSourceLoaded(fn SourceLoadedHook) { c.hooks.OnSourceLoaded(fn) }

// OnSourceRejected registers a callback for rejected sources.
func (c *client) OnSourceRejected(fn SourceRejectedHook) { c.hooks.OnSourceRejected(fn) }

// OnDatasetWritten registers a callback for written datasets.
func (c *client) OnDatasetWritten(fn DatasetWrittenHook) { c.hooks.OnDatasetWritten(fn) }
