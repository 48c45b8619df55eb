package merge

import (
	"github.com/rs/zerolog"

	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/reconcile"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// options configures an Engine.
type options struct {
	registry *datasets.Registry
	targets  []Target
	master   []table.Column
	aliases  reconcile.Aliases
	gameJoin bool
	logger   *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		registry: datasets.Default(),
		targets:  DefaultTargets(),
		master:   DefaultMasterColumns(),
		aliases:  reconcile.DefaultAliases(),
		gameJoin: true,
	}
}

// Option is a function that configures an Engine.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns engine options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithRegistry sets the declared sources used to find key columns.
func WithRegistry(registry *datasets.Registry) Option {
	return func(o *options) error {
		if registry == nil {
			return &errors.ValidationError{Field: "registry", Message: "cannot be nil"}
		}
		o.registry = registry
		return nil
	}
}

// WithTargets replaces the specialized datasets to build.
func WithTargets(targets ...Target) Option {
	return func(o *options) error {
		seen := make(map[string]bool, len(targets))
		for _, t := range targets {
			if t.Name == "" || t.Select == nil {
				return &errors.ValidationError{Field: "target", Value: t.Name, Message: "needs a name and a selector"}
			}
			if seen[t.Name] {
				return &errors.ValidationError{Field: "target", Value: t.Name, Message: "declared twice"}
			}
			seen[t.Name] = true
		}
		o.targets = targets
		return nil
	}
}

// WithMasterColumns replaces the declared master column list. The master
// provenance column is appended when missing.
func WithMasterColumns(columns ...table.Column) Option {
	return func(o *options) error {
		if len(columns) == 0 {
			return &errors.ValidationError{Field: "master_columns", Message: "cannot be empty"}
		}
		if _, err := table.NewSchema(columns...); err != nil {
			return err
		}
		o.master = columns
		return nil
	}
}

// WithAliases replaces the column alias map.
func WithAliases(aliases reconcile.Aliases) Option {
	return func(o *options) error {
		o.aliases = aliases
		return nil
	}
}

// WithEquivalences adds explicit column equivalences on top of the aliases.
func WithEquivalences(eqs ...reconcile.Equivalence) Option {
	return func(o *options) error {
		for _, eq := range eqs {
			if eq.From == "" || eq.To == "" {
				return &errors.ValidationError{Field: "equivalence", Value: eq, Message: "needs both from and to"}
			}
		}
		o.aliases = o.aliases.WithEquivalences(eqs...)
		return nil
	}
}

// WithGameJoin enables or disables the wellbeing_steam dataset. It is
// enabled by default.
func WithGameJoin(enabled bool) Option {
	return func(o *options) error {
		o.gameJoin = enabled
		return nil
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
