package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/logging"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Failure is a source that could not be loaded. It is terminal for that
// source only.
type Failure struct {
	Source string `json:"source" yaml:"source"`
	Kind   string `json:"kind" yaml:"kind"`
	Err    error  `json:"-" yaml:"-"`
}

// Error implements the error interface.
func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Source, f.Err)
}

// Unwrap returns the underlying error.
func (f Failure) Unwrap() error { return f.Err }

// Loaded is the outcome of LoadAll.
type Loaded struct {
	// Tables holds every successfully loaded source by name
	Tables map[string]*table.Table

	// Order lists loaded source names in the order the sources were given
	Order []string

	// Failures lists the sources that could not be loaded, in input order
	Failures []Failure

	// Duration is the wall time of the whole load
	Duration time.Duration
}

// Table returns a loaded table by name.
func (l *Loaded) Table(name string) (*table.Table, bool) {
	t, ok := l.Tables[name]
	return t, ok
}

// Records returns the total number of rows loaded.
func (l *Loaded) Records() int {
	n := 0
	for _, t := range l.Tables {
		n += t.Len()
	}
	return n
}

// LoadOption configures LoadAll.
type LoadOption func(*loadOptions)

type loadOptions struct {
	concurrency int
	timeout     time.Duration
	logger      *zerolog.Logger
	observer    func(name string, t *table.Table, err error)
}

// WithConcurrency bounds how many sources load at once.
func WithConcurrency(n int) LoadOption {
	return func(o *loadOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithTimeout bounds each individual load.
func WithTimeout(d time.Duration) LoadOption {
	return func(o *loadOptions) {
		o.timeout = d
	}
}

// WithLogger sets the logger used for load progress.
func WithLogger(logger *zerolog.Logger) LoadOption {
	return func(o *loadOptions) {
		o.logger = logger
	}
}

// WithObserver registers a callback run after each load, with either the
// loaded table or the failure. It may run concurrently.
func WithObserver(fn func(name string, t *table.Table, err error)) LoadOption {
	return func(o *loadOptions) {
		o.observer = fn
	}
}

// LoadAll loads every source in parallel and waits for all of them. Loaded
// tables are validated against their spec. Per-source errors are collected
// as Failures; only cancellation of ctx is returned as an error.
func LoadAll(ctx context.Context, srcs []Source, opts ...LoadOption) (*Loaded, error) {
	o := &loadOptions{
		concurrency: constants.MaxConcurrentLoads,
		timeout:     constants.LoadTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	start := time.Now()
	tables := make([]*table.Table, len(srcs))
	errs := make([]error, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, src := range srcs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lctx := logging.WithDataset(logging.WithLogger(gctx, logger), src.Name())
			t, err := loadOne(lctx, src, o.timeout)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			tables[i], errs[i] = t, err
			if o.observer != nil {
				o.observer(src.Name(), t, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading sources: %w", err)
	}

	loaded := &Loaded{
		Tables:   make(map[string]*table.Table, len(srcs)),
		Duration: time.Since(start),
	}
	for i, src := range srcs {
		if errs[i] != nil {
			loaded.Failures = append(loaded.Failures, Failure{
				Source: src.Name(),
				Kind:   errors.Kind(errs[i]),
				Err:    errs[i],
			})
			logger.Warn().Err(errs[i]).Str("dataset", src.Name()).Msg("Source rejected")
			continue
		}
		loaded.Tables[src.Name()] = tables[i]
		loaded.Order = append(loaded.Order, src.Name())
		logger.Info().
			Str("dataset", src.Name()).
			Int("records", tables[i].Len()).
			Int("columns", tables[i].Schema().Len()).
			Msg("Source loaded")
	}
	return loaded, nil
}

func loadOne(ctx context.Context, src Source, timeout time.Duration) (*table.Table, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	t, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	t = t.Named(src.Name())
	if err := src.Spec().Validate(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Discover creates a CSV source for every spec whose file exists in dir and
// returns the names of specs whose file is missing.
func Discover(dir string, registry *datasets.Registry, opts ...CSVOption) ([]Source, []string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.NewNotFoundError("directory", dir)
		}
		return nil, nil, errors.WrapIO("stat", dir, err)
	}
	if !info.IsDir() {
		return nil, nil, errors.NewValidationError("dir", dir, "not a directory")
	}

	var (
		found   []Source
		missing []string
	)
	for _, spec := range registry.Specs() {
		path := filepath.Join(dir, spec.FileName)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, spec.Name)
			continue
		}
		found = append(found, NewCSVSource(spec, path, opts...))
	}
	return found, missing, nil
}

// FindRaw returns the first of spec's raw file names present in dir.
func FindRaw(dir string, spec datasets.Spec) (string, bool) {
	for _, name := range spec.RawFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
