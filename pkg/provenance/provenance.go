// Package provenance records which source row every output row came from.
package provenance

import (
	"cmp"
	"fmt"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/errors"
)

// Origin identifies one source row.
type Origin struct {
	Source    string `json:"source" yaml:"source"`
	Key       string `json:"key" yaml:"key"`
	SourceRow int    `json:"row" yaml:"row"`
}

// String returns source:key.
func (o Origin) String() string {
	return fmt.Sprintf("%s:%s", o.Source, o.Key)
}

// Lineage maps an output dataset name to the origin of each of its rows,
// indexed by output row.
type Lineage map[string][]Origin

// Tracker records origins while output datasets are built.
type Tracker interface {
	// Track records the origin of the next row of dataset and returns its index
	Track(dataset string, origin Origin) int

	// Origins returns the origins of every row of dataset
	Origins(dataset string) []Origin

	// Find returns the origin of one output row
	Find(dataset string, row int) (Origin, bool)

	// Lineage returns a copy of everything tracked
	Lineage() Lineage

	// Clear removes all tracked data
	Clear()
}

// tracker is the default implementation.
type tracker struct {
	mu      sync.RWMutex
	lineage Lineage
}

// NewTracker creates an empty tracker.
func NewTracker() Tracker {
	return &tracker{lineage: make(Lineage)}
}

func (t *tracker) Track(dataset string, origin Origin) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lineage[dataset] = append(t.lineage[dataset], origin)
	return len(t.lineage[dataset]) - 1
}

func (t *tracker) Origins(dataset string) []Origin {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.lineage[dataset])
}

func (t *tracker) Find(dataset string, row int) (Origin, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	origins := t.lineage[dataset]
	if row < 0 || row >= len(origins) {
		return Origin{}, false
	}
	return origins[row], true
}

func (t *tracker) Lineage() Lineage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(Lineage, len(t.lineage))
	for k, v := range t.lineage {
		out[k] = slices.Clone(v)
	}
	return out
}

func (t *tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lineage = make(Lineage)
}

// SourceCount is the number of rows one source contributed to a dataset.
type SourceCount struct {
	Source string `json:"source" yaml:"source"`
	Rows   int    `json:"rows" yaml:"rows"`
}

// Distribution counts rows per source for dataset, largest first.
func (l Lineage) Distribution(dataset string) []SourceCount {
	counts := make(map[string]int)
	for _, o := range l[dataset] {
		counts[o.Source]++
	}
	out := make([]SourceCount, 0, len(counts))
	for src, n := range counts {
		out = append(out, SourceCount{Source: src, Rows: n})
	}
	slices.SortFunc(out, func(a, b SourceCount) int {
		if c := cmp.Compare(b.Rows, a.Rows); c != 0 {
			return c
		}
		return cmp.Compare(a.Source, b.Source)
	})
	return out
}

// Audit checks that each dataset has exactly one origin per row and that no
// (key, source) pair appears twice in one dataset. rows gives the row count
// of each output dataset.
func (l Lineage) Audit(rows map[string]int) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(rows)) {
		origins := l[name]
		if len(origins) != rows[name] {
			errs = append(errs, errors.NewValidationError(name, len(origins),
				fmt.Sprintf("dataset has %d rows but %d origins", rows[name], len(origins))))
			continue
		}
		seen := make(map[Origin]int, len(origins))
		for i, o := range origins {
			if o.Source == "" || o.Key == "" {
				errs = append(errs, errors.NewValidationError(name, i, "row has no origin"))
				continue
			}
			pair := Origin{Source: o.Source, Key: o.Key}
			if first, dup := seen[pair]; dup {
				errs = append(errs, errors.NewValidationError(name, pair.String(),
					fmt.Sprintf("rows %d and %d share an origin", first, i)))
				continue
			}
			seen[pair] = i
		}
	}
	return errors.Join(errs...)
}

// Save writes the lineage as YAML.
func (l Lineage) Save(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// Load reads lineage previously written by Save.
func Load(path string) (Lineage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var l Lineage
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return l, nil
}
