package sources

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/respawnmetrics/respawn/pkg/datasets"
	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/logging"
	"github.com/respawnmetrics/respawn/pkg/reconcile"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// cancelCheckInterval is how many records are read between context checks.
const cancelCheckInterval = 1024

// CSVSource reads a dataset from a delimited file.
type CSVSource struct {
	spec    datasets.Spec
	path    string
	aliases reconcile.Aliases
	comma   rune
}

// CSVOption configures a CSVSource.
type CSVOption func(*CSVSource)

// WithAliases replaces the column aliases applied to the header. The Spec's
// own aliases are always layered on top.
func WithAliases(aliases reconcile.Aliases) CSVOption {
	return func(s *CSVSource) {
		s.aliases = aliases
	}
}

// WithComma sets the field delimiter.
func WithComma(comma rune) CSVOption {
	return func(s *CSVSource) {
		s.comma = comma
	}
}

// NewCSVSource creates a source reading path as the dataset declared by spec.
func NewCSVSource(spec datasets.Spec, path string, opts ...CSVOption) *CSVSource {
	s := &CSVSource{
		spec:    spec,
		path:    path,
		aliases: reconcile.DefaultAliases(),
		comma:   ',',
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the dataset name.
func (s *CSVSource) Name() string { return s.spec.Name }

// Spec returns the declared dataset.
func (s *CSVSource) Spec() datasets.Spec { return s.spec }

// Path returns the file the source reads.
func (s *CSVSource) Path() string { return s.path }

// Load reads the file. Header names are standardized, declared columns are
// parsed with their declared kind, and other columns get an inferred kind.
func (s *CSVSource) Load(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("file", s.path)
		}
		return nil, errors.WrapIO("open", s.path, err)
	}
	defer func() { _ = f.Close() }()

	logging.FromContext(ctx).Debug().Str("path", s.path).Msg("Reading CSV")
	return s.read(ctx, f)
}

func (s *CSVSource) read(ctx context.Context, r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = s.comma
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &errors.ParseError{Format: "csv", File: s.path, Message: "file has no header"}
	}
	if err != nil {
		return nil, s.parseError(err)
	}

	names, err := s.standardize(header)
	if err != nil {
		return nil, err
	}

	var records [][]string
	for {
		if len(records)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, s.parseError(err)
		}
		records = append(records, rec)
	}

	return s.build(names, records)
}

// standardize maps raw header names onto canonical column names.
func (s *CSVSource) standardize(header []string) ([]string, error) {
	cols := make([]table.Column, len(header))
	for i, h := range header {
		if i == 0 {
			h = trimBOM(h)
		}
		cols[i] = table.Column{Name: h, Kind: table.KindString}
	}
	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, &errors.ParseError{Format: "csv", File: s.path, Line: 1, Message: "invalid header", Err: err}
	}
	headerOnly, err := table.New(s.spec.Name, schema, nil)
	if err != nil {
		return nil, err
	}
	std, _, err := reconcile.Standardize(headerOnly, s.aliases.Merge(s.spec.Aliases))
	if err != nil {
		return nil, err
	}
	return std.Schema().Names(), nil
}

func (s *CSVSource) build(names []string, records [][]string) (*table.Table, error) {
	cols := make([]table.Column, len(names))
	for i, name := range names {
		if declared, ok := s.spec.Schema.Column(name); ok {
			cols[i] = declared
			continue
		}
		samples := make([]string, len(records))
		for r, rec := range records {
			samples[r] = rec[i]
		}
		cols[i] = table.Column{Name: name, Kind: table.InferKind(samples)}
	}

	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	if !schema.Has(s.spec.KeyColumn) {
		return nil, errors.NewMissingKeyError(s.spec.Name, s.spec.KeyColumn)
	}

	b := table.NewBuilder(s.spec.Name, schema)
	row := make(table.Row, len(cols))
	for r, rec := range records {
		for i, raw := range rec {
			v, err := table.ParseValue(cols[i].Kind, raw)
			if err != nil {
				return nil, &errors.SchemaMismatchError{
					Dataset:  s.spec.Name,
					Column:   cols[i].Name,
					Expected: cols[i].Kind.String(),
					Actual:   table.InferKind([]string{raw}).String(),
					Row:      r,
					Message:  err.Error(),
				}
			}
			row[i] = v
		}
		if err := b.AddRow(row); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func (s *CSVSource) parseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &errors.ParseError{Format: "csv", File: s.path, Line: pe.Line, Message: pe.Err.Error(), Err: err}
	}
	return errors.WrapParse("csv", s.path, err)
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
