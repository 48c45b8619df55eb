package table

import (
	"fmt"

	"github.com/respawnmetrics/respawn/pkg/errors"
)

// Row is a slice of values aligned with its table's schema.
type Row []Value

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Table is an immutable named table.
type Table struct {
	name   string
	schema Schema
	rows   []Row
}

// New builds a table, checking every row against the schema.
func New(name string, schema Schema, rows []Row) (*Table, error) {
	b := NewBuilder(name, schema)
	for _, r := range rows {
		if err := b.AddRow(r); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Schema returns the table schema.
func (t *Table) Schema() Schema { return t.schema }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns a copy of row i.
func (t *Table) Row(i int) Row { return t.rows[i].Clone() }

// Rows returns a copy of all rows.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Clone()
	}
	return out
}

// Value returns the cell at row i in the named column. Missing columns read
// as unset.
func (t *Table) Value(i int, column string) Value {
	idx := t.schema.Index(column)
	if idx < 0 {
		return Null()
	}
	return t.rows[i][idx]
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]Value, error) {
	idx := t.schema.Index(name)
	if idx < 0 {
		return nil, errors.NewNotFoundError("column", fmt.Sprintf("%s.%s", t.name, name))
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[idx]
	}
	return out, nil
}

// Named returns the same data under a different name.
func (t *Table) Named(name string) *Table {
	return &Table{name: name, schema: t.schema, rows: t.rows}
}

// Project returns a table holding only the named columns, in the given order.
func (t *Table) Project(columns ...string) (*Table, error) {
	schema, err := t.schema.Project(columns...)
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = t.schema.Index(c)
	}
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out := make(Row, len(idx))
		for j, k := range idx {
			out[j] = r[k]
		}
		rows[i] = out
	}
	return &Table{name: t.name, schema: schema, rows: rows}, nil
}

// Reshape returns the rows laid out on a wider schema: columns the table has
// are converted to the target kind, the rest are unset. Every column of t
// must exist in schema.
func (t *Table) Reshape(schema Schema) (*Table, error) {
	src := make([]int, schema.Len())
	for i := range src {
		src[i] = t.schema.Index(schema.At(i).Name)
	}
	for _, c := range t.schema.columns {
		if !schema.Has(c.Name) {
			return nil, errors.NewNotFoundError("column", c.Name)
		}
	}

	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out := make(Row, schema.Len())
		for j, k := range src {
			if k < 0 {
				continue
			}
			v, err := r[k].Convert(schema.At(j).Kind)
			if err != nil {
				return nil, &errors.SchemaMismatchError{
					Dataset:  t.name,
					Column:   schema.At(j).Name,
					Expected: schema.At(j).Kind.String(),
					Actual:   r[k].Kind().String(),
					Row:      i,
				}
			}
			out[j] = v
		}
		rows[i] = out
	}
	return &Table{name: t.name, schema: schema, rows: rows}, nil
}

// Rename returns a table with columns renamed per mapping (old -> new).
// Names absent from the table are ignored.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	cols := t.schema.Columns()
	for i, c := range cols {
		if to, ok := mapping[c.Name]; ok {
			cols[i].Name = to
		}
	}
	schema, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	return &Table{name: t.name, schema: schema, rows: t.rows}, nil
}

// WithColumn returns a table with a constant column appended.
func (t *Table) WithColumn(name string, kind Kind, v Value) (*Table, error) {
	if !v.IsNull() && v.Kind() != kind {
		return nil, errors.NewSchemaMismatchError(t.name, name, kind.String(), v.Kind().String())
	}
	schema, err := t.schema.Append(Column{Name: name, Kind: kind})
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out := make(Row, len(r), len(r)+1)
		copy(out, r)
		rows[i] = append(out, v)
	}
	return &Table{name: t.name, schema: schema, rows: rows}, nil
}

// Extend returns t with the columns of from that t lacks appended, row by
// row. Both tables must hold the same number of rows.
func (t *Table) Extend(from *Table) (*Table, error) {
	if from.Len() != t.Len() {
		return nil, errors.NewValidationError("rows", from.Len(),
			fmt.Sprintf("table %s has %d rows", t.name, t.Len()))
	}
	var extra []int
	schema := t.schema
	for i, c := range from.schema.columns {
		if t.schema.Has(c.Name) {
			continue
		}
		var err error
		if schema, err = schema.Append(c); err != nil {
			return nil, err
		}
		extra = append(extra, i)
	}
	if len(extra) == 0 {
		return t, nil
	}
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out := make(Row, len(r), len(r)+len(extra))
		copy(out, r)
		for _, k := range extra {
			out = append(out, from.rows[i][k])
		}
		rows[i] = out
	}
	return &Table{name: t.name, schema: schema, rows: rows}, nil
}

// Filter returns a table holding the rows keep accepts. The row index passed
// to keep is the position in t.
func (t *Table) Filter(keep func(i int, r Row) bool) *Table {
	rows := make([]Row, 0, len(t.rows))
	for i, r := range t.rows {
		if keep(i, r) {
			rows = append(rows, r)
		}
	}
	return &Table{name: t.name, schema: t.schema, rows: rows}
}

// Builder accumulates rows for a new table.
type Builder struct {
	name   string
	schema Schema
	rows   []Row
}

// NewBuilder returns a builder for a table with the given schema.
func NewBuilder(name string, schema Schema) *Builder {
	return &Builder{name: name, schema: schema}
}

// Len returns the number of rows added so far.
func (b *Builder) Len() int { return len(b.rows) }

// Add appends a row given as values.
func (b *Builder) Add(values ...Value) error {
	return b.AddRow(Row(values))
}

// AddRow appends a copy of r after checking its width and kinds.
func (b *Builder) AddRow(r Row) error {
	if len(r) != b.schema.Len() {
		return errors.NewValidationError("row", len(r),
			fmt.Sprintf("table %s expects %d values", b.name, b.schema.Len()))
	}
	for i, v := range r {
		if v.IsNull() {
			continue
		}
		col := b.schema.At(i)
		if v.Kind() != col.Kind {
			return &errors.SchemaMismatchError{
				Dataset:  b.name,
				Column:   col.Name,
				Expected: col.Kind.String(),
				Actual:   v.Kind().String(),
				Row:      len(b.rows),
			}
		}
	}
	b.rows = append(b.rows, r.Clone())
	return nil
}

// Build returns the table and resets the builder.
func (b *Builder) Build() *Table {
	t := &Table{name: b.name, schema: b.schema, rows: b.rows}
	b.rows = nil
	return t
}
