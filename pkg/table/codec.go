package table

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/respawnmetrics/respawn/pkg/errors"
)

// field maps one struct field to a column.
type field struct {
	index    int
	column   Column
	optional bool
}

var timeType = reflect.TypeOf(time.Time{})

// fieldsOf reads `col:"name[,required]"` tags from a struct type. Untagged
// fields and fields tagged "-" are skipped. Pointer fields are optional.
func fieldsOf(typ reflect.Type) ([]field, error) {
	if typ.Kind() != reflect.Struct {
		return nil, errors.NewValidationError("type", typ.String(), "record type must be a struct")
	}
	var fields []field
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		tag, ok := sf.Tag.Lookup("col")
		if !ok || tag == "-" || !sf.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = sf.Name
		}

		ft := sf.Type
		optional := false
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
			optional = true
		}
		kind, err := kindOf(ft)
		if err != nil {
			return nil, errors.NewValidationError(sf.Name, ft.String(), err.Error())
		}
		fields = append(fields, field{
			index:    i,
			column:   Column{Name: name, Kind: kind, Required: opts == "required"},
			optional: optional,
		})
	}
	return fields, nil
}

func kindOf(t reflect.Type) (Kind, error) {
	if t == timeType {
		return KindTime, nil
	}
	switch t.Kind() {
	case reflect.String:
		return KindString, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt, nil
	case reflect.Float32, reflect.Float64:
		return KindFloat, nil
	case reflect.Bool:
		return KindBool, nil
	default:
		return KindString, fmt.Errorf("unsupported field type %s", t)
	}
}

// SchemaOf derives a schema from the col tags of T.
func SchemaOf[T any]() (Schema, error) {
	fields, err := fieldsOf(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return Schema{}, err
	}
	cols := make([]Column, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	return NewSchema(cols...)
}

// MustSchemaOf is SchemaOf for package-level declarations.
func MustSchemaOf[T any]() Schema {
	s, err := SchemaOf[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// Decode converts the rows of t into records. Columns the record does not
// declare are ignored. A non-pointer field must be present and set in every
// row; pointer fields stay nil for absent columns and unset cells.
func Decode[T any](t *Table) ([]T, error) {
	fields, err := fieldsOf(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}

	cols := make([]int, len(fields))
	for i, f := range fields {
		cols[i] = t.schema.Index(f.column.Name)
		if cols[i] >= 0 || f.optional {
			continue
		}
		if f.column.Required {
			return nil, errors.NewMissingKeyError(t.name, f.column.Name)
		}
		return nil, errors.NewSchemaMismatchError(t.name, f.column.Name, f.column.Kind.String(), "absent")
	}

	out := make([]T, len(t.rows))
	for r, row := range t.rows {
		rv := reflect.ValueOf(&out[r]).Elem()
		for i, f := range fields {
			if cols[i] < 0 {
				continue
			}
			v := row[cols[i]]
			if v.IsNull() {
				if !f.optional {
					return nil, &errors.SchemaMismatchError{
						Dataset:  t.name,
						Column:   f.column.Name,
						Expected: f.column.Kind.String(),
						Actual:   "unset",
						Row:      r,
					}
				}
				continue
			}
			if err := assign(rv.Field(f.index), f, v); err != nil {
				return nil, &errors.SchemaMismatchError{
					Dataset:  t.name,
					Column:   f.column.Name,
					Expected: f.column.Kind.String(),
					Actual:   v.Kind().String(),
					Row:      r,
					Message:  err.Error(),
				}
			}
		}
	}
	return out, nil
}

func assign(dst reflect.Value, f field, v Value) error {
	v, err := v.Convert(f.column.Kind)
	if err != nil {
		return err
	}
	if f.optional {
		ptr := reflect.New(dst.Type().Elem())
		dst.Set(ptr)
		dst = ptr.Elem()
	}
	switch f.column.Kind {
	case KindString:
		dst.SetString(v.s)
	case KindInt:
		dst.SetInt(v.i)
	case KindFloat:
		dst.SetFloat(v.f)
	case KindBool:
		dst.SetBool(v.b)
	case KindTime:
		dst.Set(reflect.ValueOf(v.t))
	}
	return nil
}

// FromRecords builds a table from records using their col tags.
func FromRecords[T any](name string, records []T) (*Table, error) {
	fields, err := fieldsOf(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	cols := make([]Column, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	schema, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	b := NewBuilder(name, schema)
	for _, rec := range records {
		rv := reflect.ValueOf(rec)
		row := make(Row, len(fields))
		for i, f := range fields {
			row[i] = valueOf(rv.Field(f.index), f)
		}
		b.rows = append(b.rows, row)
	}
	return b.Build(), nil
}

func valueOf(fv reflect.Value, f field) Value {
	if f.optional {
		if fv.IsNil() {
			return Null()
		}
		fv = fv.Elem()
	}
	switch f.column.Kind {
	case KindString:
		return String(fv.String())
	case KindInt:
		return Int(fv.Int())
	case KindFloat:
		return Float(fv.Float())
	case KindBool:
		return Bool(fv.Bool())
	case KindTime:
		return Time(fv.Interface().(time.Time))
	default:
		return Null()
	}
}
