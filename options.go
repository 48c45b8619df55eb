package respawn

import (
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/merge"
)

// options holds the pipeline configuration.
type options struct {
	inputDir    string
	rawDir      string
	outputDir   string
	sqlitePath  string
	cleaning    bool
	registry    *datasets.Registry
	engine      *merge.Engine
	concurrency int
	loadTimeout time.Duration
	logger      *zerolog.Logger
	runID       string
	reports     bool
}

func defaults() *options {
	return &options{
		inputDir:    constants.DefaultInputDir,
		rawDir:      constants.DefaultRawDir,
		outputDir:   constants.DefaultOutputDir,
		registry:    datasets.Default(),
		concurrency: constants.MaxConcurrentLoads,
		loadTimeout: constants.LoadTimeout,
		reports:     true,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Option is a function that configures a Client.
type Option func(*options) error

// WithInputDir sets the directory cleaned source files are read from.
func WithInputDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return &errors.ValidationError{Field: "input_dir", Message: "cannot be empty"}
		}
		o.inputDir = dir
		return nil
	}
}

// WithRawDir sets the directory raw source files are cleaned from.
func WithRawDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return &errors.ValidationError{Field: "raw_dir", Message: "cannot be empty"}
		}
		o.rawDir = dir
		return nil
	}
}

// WithOutputDir sets the directory merged datasets and reports are written to.
func WithOutputDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return &errors.ValidationError{Field: "output_dir", Message: "cannot be empty"}
		}
		o.outputDir = dir
		return nil
	}
}

// WithSQLitePath also writes the merged datasets to a SQLite database. A
// bare file name is placed in the output directory.
func WithSQLitePath(path string) Option {
	return func(o *options) error {
		o.sqlitePath = path
		return nil
	}
}

// WithCleaning cleans raw files into the input directory before merging.
func WithCleaning(enabled bool) Option {
	return func(o *options) error {
		o.cleaning = enabled
		return nil
	}
}

// WithRegistry sets the declared sources.
func WithRegistry(registry *datasets.Registry) Option {
	return func(o *options) error {
		if registry == nil {
			return &errors.ValidationError{Field: "registry", Message: "cannot be nil"}
		}
		o.registry = registry
		return nil
	}
}

// WithEngine sets the merge engine. By default one is built from the
// registry and the client logger.
func WithEngine(engine *merge.Engine) Option {
	return func(o *options) error {
		if engine == nil {
			return &errors.ValidationError{Field: "engine", Message: "cannot be nil"}
		}
		o.engine = engine
		return nil
	}
}

// WithConcurrency bounds how many sources load at once.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return &errors.ValidationError{Field: "concurrency", Value: n, Message: "must be at least 1"}
		}
		o.concurrency = n
		return nil
	}
}

// WithLoadTimeout bounds each source load.
func WithLoadTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return &errors.ValidationError{Field: "load_timeout", Value: d, Message: "cannot be negative"}
		}
		o.loadTimeout = d
		return nil
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithRunID fixes the run identifier instead of generating one per run.
func WithRunID(id string) Option {
	return func(o *options) error {
		o.runID = id
		return nil
	}
}

// WithReports controls whether summary reports and lineage are written next
// to the merged datasets.
func WithReports(enabled bool) Option {
	return func(o *options) error {
		o.reports = enabled
		return nil
	}
}

// sqlitePathIn resolves the configured SQLite path against the output dir.
func (o *options) sqlitePathIn() string {
	if o.sqlitePath == "" || filepath.IsAbs(o.sqlitePath) || filepath.Dir(o.sqlitePath) != "." {
		return o.sqlitePath
	}
	return filepath.Join(o.outputDir, o.sqlitePath)
}
