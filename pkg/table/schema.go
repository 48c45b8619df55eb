package table

import (
	"fmt"
	"strings"

	"github.com/respawnmetrics/respawn/pkg/errors"
)

// Column describes one named, typed column.
type Column struct {
	Name     string `json:"name" yaml:"name"`
	Kind     Kind   `json:"kind" yaml:"kind"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// Schema is an ordered list of uniquely named columns.
type Schema struct {
	columns []Column
	index   map[string]int
}

// NewSchema builds a schema, rejecting empty or repeated column names.
func NewSchema(columns ...Column) (Schema, error) {
	s := Schema{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		if strings.TrimSpace(c.Name) == "" {
			return Schema{}, errors.NewValidationError("column", c.Name, "column name cannot be empty")
		}
		if _, dup := s.index[c.Name]; dup {
			return Schema{}, errors.NewValidationError("column", c.Name, "column appears more than once")
		}
		s.index[c.Name] = len(s.columns)
		s.columns = append(s.columns, c)
	}
	return s, nil
}

// MustSchema is NewSchema for static declarations. It panics on error.
func MustSchema(columns ...Column) Schema {
	s, err := NewSchema(columns...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.columns) }

// Columns returns a copy of the columns in order.
func (s Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of a column, or -1.
func (s Schema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the schema contains the column.
func (s Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Column returns the named column.
func (s Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// At returns the column at position i.
func (s Schema) At(i int) Column { return s.columns[i] }

// Project returns a schema holding only the named columns, in the given order.
func (s Schema) Project(names ...string) (Schema, error) {
	cols := make([]Column, 0, len(names))
	for _, n := range names {
		c, ok := s.Column(n)
		if !ok {
			return Schema{}, errors.NewNotFoundError("column", n)
		}
		cols = append(cols, c)
	}
	return NewSchema(cols...)
}

// Append returns a schema with the column added at the end.
func (s Schema) Append(c Column) (Schema, error) {
	return NewSchema(append(s.Columns(), c)...)
}

// Union returns the ordered union of s and other: columns of s first, then
// columns only other has. Shared columns must have compatible kinds and are
// widened.
func (s Schema) Union(other Schema) (Schema, error) {
	cols := s.Columns()
	for _, c := range other.columns {
		i, ok := s.index[c.Name]
		if !ok {
			cols = append(cols, c)
			continue
		}
		existing := cols[i]
		if !existing.Kind.Compatible(c.Kind) {
			return Schema{}, &errors.SchemaMismatchError{
				Column:   c.Name,
				Expected: existing.Kind.String(),
				Actual:   c.Kind.String(),
				Row:      -1,
			}
		}
		existing.Kind = Widen(existing.Kind, c.Kind)
		existing.Required = existing.Required && c.Required
		cols[i] = existing
	}
	return NewSchema(cols...)
}

// Equal reports whether both schemas have the same columns in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s.columns) != len(other.columns) {
		return false
	}
	for i := range s.columns {
		if s.columns[i] != other.columns[i] {
			return false
		}
	}
	return true
}

// String renders the schema as name:kind pairs.
func (s Schema) String() string {
	parts := make([]string, len(s.columns))
	for i, c := range s.columns {
		parts[i] = fmt.Sprintf("%s:%s", c.Name, c.Kind)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
