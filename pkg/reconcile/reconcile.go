// Package reconcile aligns the column sets of independently shaped sources.
//
// Standardize renames a table's columns onto canonical names. Intersect and
// Union compute the schema of an output dataset from the schemas of the
// sources contributing to it: Intersect projects onto a declared column list
// (the master dataset), Union keeps every column (specialized datasets).
// A source whose column kind cannot be reconciled with the others is
// rejected for that output; the rest proceed.
package reconcile

import (
	"fmt"

	"github.com/respawnmetrics/respawn/pkg/errors"
	"github.com/respawnmetrics/respawn/pkg/table"
)

// Rename records one column renamed by Standardize.
type Rename struct {
	Dataset string `json:"dataset" yaml:"dataset"`
	From    string `json:"from" yaml:"from"`
	To      string `json:"to" yaml:"to"`
}

// Standardize renames the columns of t onto canonical names. Two columns
// landing on the same name would silently lose one of them, so that is a
// schema mismatch for the source.
func Standardize(t *table.Table, aliases Aliases) (*table.Table, []Rename, error) {
	mapping := make(map[string]string)
	owner := make(map[string]string, t.Schema().Len())
	var renames []Rename

	for _, name := range t.Schema().Names() {
		to := aliases.Canonical(name)
		if prev, taken := owner[to]; taken {
			return nil, nil, &errors.SchemaMismatchError{
				Dataset:  t.Name(),
				Column:   to,
				Expected: "one source column",
				Actual:   fmt.Sprintf("%q and %q", prev, name),
				Row:      -1,
				Message:  "columns collapse onto the same name",
			}
		}
		owner[to] = name
		if to != name {
			mapping[name] = to
			renames = append(renames, Rename{Dataset: t.Name(), From: name, To: to})
		}
	}

	if len(mapping) == 0 {
		return t, nil, nil
	}
	out, err := t.Rename(mapping)
	if err != nil {
		return nil, nil, err
	}
	return out, renames, nil
}

// Member is one source taking part in an output schema.
type Member struct {
	Name   string
	Schema table.Schema
}

// Reconciled is the schema of an output dataset and the members that could
// not take part in it.
type Reconciled struct {
	Schema   table.Schema
	Accepted []string
	Rejected map[string]error
}

// IsRejected reports whether the member was rejected.
func (r Reconciled) IsRejected(name string) bool {
	_, ok := r.Rejected[name]
	return ok
}

// Intersect builds a schema holding exactly the declared columns. A member
// carrying a declared column with an incompatible kind is rejected; compatible
// numeric kinds widen the declared kind.
func Intersect(declared []table.Column, members ...Member) (Reconciled, error) {
	cols := make([]table.Column, len(declared))
	copy(cols, declared)
	result := Reconciled{Rejected: make(map[string]error)}

	for _, m := range members {
		widened := make([]table.Column, len(cols))
		copy(widened, cols)
		var mismatch error
		for i, want := range widened {
			got, ok := m.Schema.Column(want.Name)
			if !ok {
				continue
			}
			if !want.Kind.Compatible(got.Kind) {
				mismatch = errors.NewSchemaMismatchError(m.Name, want.Name, want.Kind.String(), got.Kind.String())
				break
			}
			widened[i].Kind = table.Widen(want.Kind, got.Kind)
		}
		if mismatch != nil {
			result.Rejected[m.Name] = mismatch
			continue
		}
		cols = widened
		result.Accepted = append(result.Accepted, m.Name)
	}

	schema, err := table.NewSchema(cols...)
	if err != nil {
		return Reconciled{}, err
	}
	result.Schema = schema
	return result, nil
}

// Union builds the ordered union of the member schemas. Columns keep the
// position of their first appearance; a later member whose kind for a shared
// column is incompatible is rejected.
func Union(members ...Member) (Reconciled, error) {
	var schema table.Schema
	result := Reconciled{Rejected: make(map[string]error)}

	for _, m := range members {
		merged, err := schema.Union(m.Schema)
		if err != nil {
			var mismatch *errors.SchemaMismatchError
			if !errors.As(err, &mismatch) {
				return Reconciled{}, err
			}
			mismatch.Dataset = m.Name
			result.Rejected[m.Name] = mismatch
			continue
		}
		schema = merged
		result.Accepted = append(result.Accepted, m.Name)
	}

	result.Schema = schema
	return result, nil
}
