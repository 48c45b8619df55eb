// Package application is the seam between the respawn binary and its
// subcommands. Commands take an Application instead of the concrete app so
// they can be tested with a Mock:
//
//	mock := &application.Mock{OutputFormatFunc: func() string { return "json" }}
//	cmd := merge.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/respawnmetrics/respawn"
	"github.com/respawnmetrics/respawn/pkg/datasets"
)

// Application is what a subcommand needs from the running binary. All
// methods are safe for concurrent use.
type Application interface {
	// Client returns the configured pipeline client. Without options the
	// same cached client is returned on every call. Options produce a fresh
	// client layered on the configured ones.
	Client(opts ...respawn.Option) (respawn.Client, error)

	// Registry returns the declared sources.
	Registry() *datasets.Registry

	Logger() *zerolog.Logger

	// OutputFormat is the --format value, possibly empty.
	OutputFormat() string

	Directories() Directories
}

// Directories are the pipeline's working directories.
type Directories struct {
	Raw    string `json:"raw" yaml:"raw"`
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
}
