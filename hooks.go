package respawn

import (
	"sync"

	"github.com/respawnmetrics/respawn/pkg/export"
)

// Rejection describes a source that was dropped from a run, either at load
// time or by the merge. An empty Target means every output.
type Rejection struct {
	Source string
	Target string
	Stage  string
	Kind   string
	Err    error
}

// Hook function types for pipeline events
type (
	// SourceLoadedHook is called when a source loads and validates
	SourceLoadedHook func(name string, records int)

	// SourceRejectedHook is called when a source is rejected
	SourceRejectedHook func(r Rejection)

	// DatasetWrittenHook is called after a dataset reaches a sink
	DatasetWrittenHook func(w export.Written)
)

// Hooks provides event callback registration.
type Hooks interface {
	// OnSourceLoaded registers a callback for loaded sources
	OnSourceLoaded(SourceLoadedHook)

	// OnSourceRejected registers a callback for rejected sources
	OnSourceRejected(SourceRejectedHook)

	// OnDatasetWritten registers a callback for written datasets
	OnDatasetWritten(DatasetWrittenHook)
}

// hooks manages event callbacks. Loads run in parallel, so triggers may be
// called concurrently.
type hooks struct {
	mu               sync.RWMutex
	onSourceLoaded   []SourceLoadedHook
	onSourceRejected []SourceRejectedHook
	onDatasetWritten []DatasetWrittenHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnSourceLoaded registers a callback for loaded sources.
func (h *hooks) OnSourceLoaded(fn SourceLoadedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSourceLoaded = append(h.onSourceLoaded, fn)
}

// OnSourceRejected registers a callback for rejected sources.
func (h *hooks) OnSourceRejected(fn SourceRejectedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSourceRejected = append(h.onSourceRejected, fn)
}

// OnDatasetWritten registers a callback for written datasets.
func (h *hooks) OnDatasetWritten(fn DatasetWrittenHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDatasetWritten = append(h.onDatasetWritten, fn)
}

func (h *hooks) sourceLoaded(name string, records int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onSourceLoaded {
		fn(name, records)
	}
}

func (h *hooks) sourceRejected(r Rejection) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onSourceRejected {
		fn(r)
	}
}

func (h *hooks) datasetWritten(w export.Written) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onDatasetWritten {
		fn(w)
	}
}
