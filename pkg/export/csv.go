package export

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/respawnmetrics/respawn/pkg/constants"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// CSVSink writes each table to its own file in a directory.
type CSVSink struct {
	dir    string
	naming func(name string) string
}

// CSVOption configures a CSVSink.
type CSVOption func(*CSVSink)

// WithFileNames sets how dataset names map to file names.
func WithFileNames(naming func(name string) string) CSVOption {
	return func(s *CSVSink) {
		if naming != nil {
			s.naming = naming
		}
	}
}

// NewCSVSink creates dir if needed and returns a sink writing into it. Files
// are named with MergedFileName unless WithFileNames says otherwise.
func NewCSVSink(dir string, opts ...CSVOption) (*CSVSink, error) {
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", dir, err)
	}
	s := &CSVSink{dir: dir, naming: MergedFileName}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns "csv".
func (s *CSVSink) Name() string { return "csv" }

// Location returns the path a dataset is written to.
func (s *CSVSink) Location(name string) string {
	return filepath.Join(s.dir, s.naming(name))
}

// Write writes the table through a temporary file so a failed write never
// leaves a truncated dataset behind.
func (s *CSVSink) Write(ctx context.Context, t *table.Table) error {
	path := s.Location(t.Name())
	tmp, err := os.CreateTemp(s.dir, ".respawn-*.csv")
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := WriteCSV(ctx, tmp, t); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.WrapIO("rename", path, err)
	}
	return nil
}

// Close is a no-op.
func (s *CSVSink) Close() error { return nil }

// WriteCSV writes a header row and one record per table row. Unset cells are
// written empty.
func WriteCSV(ctx context.Context, w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Schema().Names()); err != nil {
		return errors.WrapIO("write", t.Name(), err)
	}

	record := make([]string, t.Schema().Len())
	for i, row := range t.Rows() {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for j, v := range row {
			record[j] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return errors.WrapIO("write", t.Name(), err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.WrapIO("write", t.Name(), err)
	}
	return nil
}
