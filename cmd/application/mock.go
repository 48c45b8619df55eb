package application

import (
	"github.com/rs/zerolog"

	"github.com/respawnmetrics/respawn"
	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/datasets"
)

var _ Application = (*Mock)(nil)

// Mock is an Application for command tests. Unset funcs fall back to a
// silent client over the default registry and directories, with table
// output.
type Mock struct {
	ClientFunc       func(opts ...respawn.Option) (respawn.Client, error)
	RegistryFunc     func() *datasets.Registry
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	DirectoriesFunc  func() Directories
}

func (m *Mock) Client(opts ...respawn.Option) (respawn.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(opts...)
	}
	base := []respawn.Option{respawn.WithLogger(m.Logger()), respawn.WithRegistry(m.Registry())}
	return respawn.New(append(base, opts...)...)
}

func (m *Mock) Registry() *datasets.Registry {
	if m.RegistryFunc != nil {
		return m.RegistryFunc()
	}
	return datasets.Default()
}

func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	nop := zerolog.Nop()
	return &nop
}

func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

func (m *Mock) Directories() Directories {
	if m.DirectoriesFunc != nil {
		return m.DirectoriesFunc()
	}
	return Directories{
		Raw:    constants.DefaultRawDir,
		Input:  constants.DefaultInputDir,
		Output: constants.DefaultOutputDir,
	}
}
