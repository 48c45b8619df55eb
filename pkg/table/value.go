package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/respawnmetrics/respawn/pkg/constants"
)

// Value is a single typed cell. The zero Value is unset.
type Value struct {
	kind Kind
	set  bool
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
}

// Null returns an unset value.
func Null() Value { return Value{} }

// String returns a set string value.
func String(s string) Value { return Value{kind: KindString, set: true, s: s} }

// Int returns a set integer value.
func Int(i int64) Value { return Value{kind: KindInt, set: true, i: i} }

// Float returns a set float value. NaN is treated as unset.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{kind: KindFloat, set: true, f: f}
}

// Bool returns a set boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, set: true, b: b} }

// Time returns a set time value.
func Time(t time.Time) Value { return Value{kind: KindTime, set: true, t: t} }

// IsNull reports whether the cell is unset.
func (v Value) IsNull() bool { return !v.set }

// Kind returns the kind of a set value. Unset values report KindString.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload.
func (v Value) Str() (string, bool) {
	return v.s, v.set && v.kind == KindString
}

// Int64 returns the integer payload.
func (v Value) Int64() (int64, bool) {
	return v.i, v.set && v.kind == KindInt
}

// Float64 returns the numeric payload, widening ints.
func (v Value) Float64() (float64, bool) {
	if !v.set {
		return 0, false
	}
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// Boolean returns the boolean payload.
func (v Value) Boolean() (bool, bool) {
	return v.b, v.set && v.kind == KindBool
}

// Timestamp returns the time payload.
func (v Value) Timestamp() (time.Time, bool) {
	return v.t, v.set && v.kind == KindTime
}

// Any returns the payload as a Go value, or nil when unset.
func (v Value) Any() any {
	if !v.set {
		return nil
	}
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	default:
		return v.s
	}
}

// String renders the value as delimited-file text. Unset values render empty.
func (v Value) String() string {
	if !v.set {
		return ""
	}
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindTime:
		if v.t.Equal(v.t.Truncate(24 * time.Hour)) {
			return v.t.Format(constants.TimeFormatDate)
		}
		return v.t.Format(time.RFC3339)
	default:
		return v.s
	}
}

// Equal reports whether two values have the same kind and payload.
// Two unset values are equal.
func (v Value) Equal(other Value) bool {
	if v.set != other.set {
		return false
	}
	if !v.set {
		return true
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindBool:
		return v.b == other.b
	case KindTime:
		return v.t.Equal(other.t)
	default:
		return v.s == other.s
	}
}

// Convert returns the value as the given kind. Unset values stay unset; ints
// widen to floats; integral floats narrow to ints.
func (v Value) Convert(kind Kind) (Value, error) {
	if !v.set || v.kind == kind {
		return v, nil
	}
	switch {
	case v.kind == KindInt && kind == KindFloat:
		return Float(float64(v.i)), nil
	case v.kind == KindFloat && kind == KindInt && wholeInt(v.f):
		return Int(int64(v.f)), nil
	case kind == KindString:
		return String(v.String()), nil
	default:
		return Null(), fmt.Errorf("cannot convert %s value %q to %s", v.kind, v.String(), kind)
	}
}

// wholeInt reports whether f is a whole number int64 can hold.
func wholeInt(f float64) bool {
	return f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63
}

// ParseValue converts delimited-file text into a value of the given kind.
// Empty text and the usual missing-value markers are unset.
func ParseValue(kind Kind, raw string) (Value, error) {
	text := strings.TrimSpace(raw)
	if isMissing(text) {
		return Null(), nil
	}

	switch kind {
	case KindString:
		return String(raw), nil
	case KindInt:
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(i), nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || !wholeInt(f) {
			return Null(), fmt.Errorf("%q is not an integer", raw)
		}
		return Int(int64(f)), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Null(), fmt.Errorf("%q is not a number", raw)
		}
		return Float(f), nil
	case KindBool:
		switch strings.ToLower(text) {
		case "true", "t", "1", "yes", "y":
			return Bool(true), nil
		case "false", "f", "0", "no", "n":
			return Bool(false), nil
		}
		return Null(), fmt.Errorf("%q is not a boolean", raw)
	case KindTime:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return Time(t), nil
			}
		}
		return Null(), fmt.Errorf("%q is not a date or timestamp", raw)
	default:
		return Null(), fmt.Errorf("unsupported kind %s", kind)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	constants.TimeFormatDate,
}

// InferKind picks the narrowest kind every non-missing sample parses as.
func InferKind(samples []string) Kind {
	candidates := []Kind{KindInt, KindFloat, KindBool, KindTime}
	seen := false
	for _, s := range samples {
		if isMissing(strings.TrimSpace(s)) {
			continue
		}
		seen = true
		kept := candidates[:0]
		for _, k := range candidates {
			if _, err := ParseValue(k, s); err == nil {
				kept = append(kept, k)
			}
		}
		candidates = kept
		if len(candidates) == 0 {
			return KindString
		}
	}
	if !seen {
		return KindString
	}
	return candidates[0]
}

func isMissing(text string) bool {
	switch text {
	case "", "NaN", "nan", "NULL", "null", "NA", "N/A", "<NA>", "None":
		return true
	}
	return false
}
