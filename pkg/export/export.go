// Package export writes merged datasets to their destinations.
//
// A Sink receives whole tables. CSVSink writes one delimited file per
// dataset; SQLiteSink writes one typed table per dataset into a SQLite
// database. WriteAll feeds every table to every sink in order.
package export

import (
	"context"
	"fmt"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/logging"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Sink is a destination for datasets.
type Sink interface {
	// Name identifies the sink in logs and errors.
	Name() string
	// Write stores one table. Writing a table with the same name twice
	// replaces the earlier copy.
	Write(ctx context.Context, t *table.Table) error
	// Close releases the sink.
	Close() error
}

// Written describes one stored table.
type Written struct {
	Sink     string `json:"sink" yaml:"sink"`
	Dataset  string `json:"dataset" yaml:"dataset"`
	Location string `json:"location" yaml:"location"`
	Records  int    `json:"records" yaml:"records"`
}

// Locator is implemented by sinks that can say where a table was stored.
type Locator interface {
	Location(name string) string
}

// WriteAll writes every table to every sink. It stops at the first error and
// returns what was written before it. The observer, if set, is called after
// each successful write.
func WriteAll(ctx context.Context, sinks []Sink, tables []*table.Table, observe func(Written)) ([]Written, error) {
	var out []Written
	for _, sink := range sinks {
		for _, t := range tables {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			if err := sink.Write(logging.WithTarget(ctx, t.Name()), t); err != nil {
				return out, fmt.Errorf("%s: writing %s: %w", sink.Name(), t.Name(), err)
			}
			w := Written{Sink: sink.Name(), Dataset: t.Name(), Records: t.Len()}
			if l, ok := sink.(Locator); ok {
				w.Location = l.Location(t.Name())
			}
			logging.FromContext(ctx).Debug().Str("sink", w.Sink).Str("target", w.Dataset).Int("records", w.Records).Msg("Dataset written")
			out = append(out, w)
			if observe != nil {
				observe(w)
			}
		}
	}
	return out, nil
}

// MergedFileName returns the file name used for a merged dataset.
func MergedFileName(name string) string {
	if name == constants.MasterDataset {
		return constants.MasterFileName
	}
	return name + constants.SpecializedFileSuffix
}
