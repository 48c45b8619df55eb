// Package app wires the respawn CLI: it loads configuration, builds the
// logger and hands subcommands a shared pipeline client.
package app

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/respawnmetrics/respawn"
	"github.com/respawnmetrics/respawn/cmd/application"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/logging"
)

var _ application.Application = (*App)(nil)

// App holds the CLI's configuration, logger and cached client.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config   *Config
	registry *datasets.Registry

	mu          sync.RWMutex
	logger      *zerolog.Logger
	fixedLogger bool
	client      respawn.Client
}

// New loads configuration from the environment, .env files and
// $HOME/.respawn.yaml, then applies opts.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version:  version,
		commit:   commit,
		date:     date,
		builtBy:  builtBy,
		registry: datasets.Default(),
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Build metadata, as stamped into the binary.
func (a *App) Version() string { return a.version }
func (a *App) Commit() string  { return a.commit }
func (a *App) Date() string    { return a.date }
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Registry returns the declared sources.
func (a *App) Registry() *datasets.Registry {
	return a.registry
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Directories returns the configured working directories.
func (a *App) Directories() application.Directories {
	return application.Directories{
		Raw:    a.config.RawDir,
		Input:  a.config.InputDir,
		Output: a.config.OutputDir,
	}
}

// Client returns the pipeline client. Without options it returns the cached
// default instance, creating it lazily. With options it builds a new client
// with the options applied after the configured ones.
func (a *App) Client(opts ...respawn.Option) (respawn.Client, error) {
	if len(opts) > 0 {
		client, err := respawn.New(append(a.clientOptions(), opts...)...)
		if err != nil {
			return nil, errors.WrapResource("create", "client", "with custom options", err)
		}
		return client, nil
	}

	a.mu.RLock()
	if a.client != nil {
		client := a.client
		a.mu.RUnlock()
		return client, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	client, err := respawn.New(a.clientOptionsLocked()...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	a.client = client
	return client, nil
}

// setLogger replaces the application logger and the library default.
func (a *App) setLogger(logger zerolog.Logger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger = &logger
	logging.SetDefault(logger)
}

func (a *App) clientOptions() []respawn.Option {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.clientOptionsLocked()
}

// clientOptionsLocked constructs client options from the app configuration.
func (a *App) clientOptionsLocked() []respawn.Option {
	opts := []respawn.Option{
		respawn.WithRegistry(a.registry),
		respawn.WithLogger(a.logger),
		respawn.WithCleaning(a.config.Clean),
	}
	if a.config.RawDir != "" {
		opts = append(opts, respawn.WithRawDir(a.config.RawDir))
	}
	if a.config.InputDir != "" {
		opts = append(opts, respawn.WithInputDir(a.config.InputDir))
	}
	if a.config.OutputDir != "" {
		opts = append(opts, respawn.WithOutputDir(a.config.OutputDir))
	}
	if a.config.SQLitePath != "" {
		opts = append(opts, respawn.WithSQLitePath(a.config.SQLitePath))
	}
	if a.config.Concurrency > 0 {
		opts = append(opts, respawn.WithConcurrency(a.config.Concurrency))
	}
	if a.config.LoadTimeout > 0 {
		opts = append(opts, respawn.WithLoadTimeout(a.config.LoadTimeout))
	}
	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if err := config.Validate(); err != nil {
			return err
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger. Flags no longer rebuild it.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		a.fixedLogger = true
		return nil
	}
}

// WithRegistry sets the declared sources.
func WithRegistry(registry *datasets.Registry) Option {
	return func(a *App) error {
		if registry == nil {
			return &errors.ValidationError{Field: "registry", Message: "cannot be nil"}
		}
		a.registry = registry
		return nil
	}
}

// WithClient sets a custom client instance (useful for testing).
func WithClient(client respawn.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}
