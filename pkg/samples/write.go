package samples

import (
	"context"

	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/export"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// RawFileName names a sample after the first raw file name the cleaner looks
// for.
func RawFileName(spec datasets.Spec) string {
	if len(spec.RawFileNames) > 0 {
		return spec.RawFileNames[0]
	}
	return spec.FileName
}

// CleanFileName names a sample after the cleaned file the merge reads.
func CleanFileName(spec datasets.Spec) string {
	return spec.FileName
}

// Write generates every dataset in the registry and writes it as CSV into
// dir, naming files with naming.
func Write(ctx context.Context, dir string, registry *datasets.Registry, naming func(datasets.Spec) string) ([]export.Written, error) {
	tables := make([]*table.Table, 0, registry.Len())
	for _, spec := range registry.Specs() {
		t, err := Generate(spec.Name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	sink, err := export.NewCSVSink(dir, export.WithFileNames(func(name string) string {
		spec, err := registry.Lookup(name)
		if err != nil {
			return name + ".csv"
		}
		return naming(spec)
	}))
	if err != nil {
		return nil, err
	}
	defer sink.Close() //nolint:errcheck

	return export.WriteAll(ctx, []export.Sink{sink}, tables, nil)
}
