// Package table provides the immutable, typed tables that flow through the
// respawn pipeline.
//
// A Table pairs a Schema (ordered, typed columns) with rows of Values. Values
// distinguish an unset cell from a zero one, so merging sources of different
// shapes never fills absent fields. Every transformation returns a new Table;
// once built a Table is safe to share between goroutines.
//
// Example:
//
//	schema := table.MustSchema(
//		table.Column{Name: "participant_id", Kind: table.KindString, Required: true},
//		table.Column{Name: "age", Kind: table.KindInt},
//	)
//	b := table.NewBuilder("anxiety", schema)
//	_ = b.Add(table.String("A0001"), table.Int(24))
//	t := b.Build()
package table

import (
	"fmt"
	"strings"
)

// Kind is the type of a column.
type Kind int

const (
	// KindString holds free text.
	KindString Kind = iota
	// KindInt holds 64-bit integers.
	KindInt
	// KindFloat holds 64-bit floats.
	KindFloat
	// KindBool holds booleans.
	KindBool
	// KindTime holds timestamps and dates.
	KindTime
)

// String returns the kind name used in schemas and error messages.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text":
		return KindString, nil
	case "int", "integer":
		return KindInt, nil
	case "float", "real", "double":
		return KindFloat, nil
	case "bool", "boolean":
		return KindBool, nil
	case "time", "date", "timestamp":
		return KindTime, nil
	default:
		return KindString, fmt.Errorf("unknown column kind %q", s)
	}
}

// Compatible reports whether columns of kinds k and other can share a name
// in one output table. Ints and floats are compatible and widen to float.
func (k Kind) Compatible(other Kind) bool {
	if k == other {
		return true
	}
	return k.numeric() && other.numeric()
}

// Widen returns the kind two compatible kinds unify to.
func Widen(a, b Kind) Kind {
	if a == b {
		return a
	}
	if a.numeric() && b.numeric() {
		return KindFloat
	}
	return a
}

func (k Kind) numeric() bool {
	return k == KindInt || k == KindFloat
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
