// Package sources loads the source datasets that feed the merge.
//
// A Source knows its declared dataset spec and how to produce a table. CSV
// files are the usual input; MemorySource wraps tables built in code. LoadAll
// loads many sources in parallel and only returns once every load has
// finished, so the merge always starts from a complete picture.
//
// Example usage:
//
//	srcs, missing, err := sources.Discover("respawn_data_cleaned", datasets.Default())
//	if err != nil {
//	    return err
//	}
//	loaded, err := sources.LoadAll(ctx, srcs, sources.WithConcurrency(4))
//	if err != nil {
//	    return err // canceled
//	}
//	for _, f := range loaded.Failures {
//	    log.Warn().Err(f.Err).Str("dataset", f.Source).Msg("Source rejected")
//	}
package sources

import (
	"context"
	"slices"
	"sync"

	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Source produces one source dataset.
type Source interface {
	// Name returns the dataset name
	Name() string

	// Spec returns the declared dataset
	Spec() datasets.Spec

	// Load reads the dataset. Implementations must honor ctx cancellation.
	Load(ctx context.Context) (*table.Table, error)
}

// Sources is a thread-safe set of sources kept in insertion order.
type Sources struct {
	mu      sync.RWMutex
	order   []string
	sources map[string]Source
}

// NewSources creates a set holding srcs.
func NewSources(srcs ...Source) *Sources {
	s := &Sources{sources: make(map[string]Source, len(srcs))}
	for _, src := range srcs {
		s.Set(src)
	}
	return s
}

// Get returns a source by name.
func (s *Sources) Get(name string) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[name]
	return src, ok
}

// Set adds or replaces a source.
func (s *Sources) Set(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[src.Name()]; !ok {
		s.order = append(s.order, src.Name())
	}
	s.sources[src.Name()] = src
}

// Delete removes a source by name.
func (s *Sources) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[name]; !ok {
		return
	}
	delete(s.sources, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
}

// Len returns the number of sources.
func (s *Sources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// List returns the sources in insertion order.
func (s *Sources) List() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Source, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.sources[name])
	}
	return out
}

// Names returns the source names in insertion order.
func (s *Sources) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// MemorySource serves a table already held in memory.
type MemorySource struct {
	spec  datasets.Spec
	table *table.Table
}

// NewMemorySource wraps t as the source declared by spec.
func NewMemorySource(spec datasets.Spec, t *table.Table) *MemorySource {
	return &MemorySource{spec: spec, table: t.Named(spec.Name)}
}

// Name returns the dataset name.
func (m *MemorySource) Name() string { return m.spec.Name }

// Spec returns the declared dataset.
func (m *MemorySource) Spec() datasets.Spec { return m.spec }

// Load returns the wrapped table.
func (m *MemorySource) Load(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.table, nil
}
