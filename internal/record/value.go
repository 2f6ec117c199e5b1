package record

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Value is a sealed interface over the types a Record field may hold.
// Only Null, Bool, Int, Float, String, Bytes, Date, Timestamp and Array
// implement it, so type switches over Value are exhaustive.
type Value interface {
	recordValue() // Sealed - only types in this package implement it
}

// Null represents an absent value (SQL NULL, JSON null).
type Null struct{}

func (Null) recordValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) recordValue() {}

// Int represents an integer value. All integer widths collapse to int64.
type Int int64

func (Int) recordValue() {}

// Float represents a floating-point value.
type Float float64

func (Float) recordValue() {}

// String represents a text value.
type String string

func (String) recordValue() {}

// Bytes represents a binary blob. Encoded as base64 in JSON.
type Bytes []byte

func (Bytes) recordValue() {}

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (Date) recordValue() {}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Timestamp is a date and time of day as reported by the backend.
type Timestamp struct {
	time.Time
}

func (Timestamp) recordValue() {}

// TimestampOf wraps t as a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// Array is an ordered sequence of values.
type Array []Value

func (Array) recordValue() {}

// FromNative converts a Go value into a Value.
// Values that are already a Value are returned unchanged; nil becomes Null.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return fromUint(uint64(val))
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		return fromUint(val)
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case json.Number:
		return numberValue(val), nil
	case string:
		return String(val), nil
	case []byte:
		b := make([]byte, len(val))
		copy(b, val)
		return Bytes(b), nil
	case time.Time:
		return Timestamp{Time: val}, nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case []string:
		arr := make(Array, len(val))
		for i, elem := range val {
			arr[i] = String(elem)
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

func fromUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("integer out of int64 range: %d", u)
	}
	return Int(int64(u)), nil
}

// numberValue keeps integral literals as Int and everything else as Float.
// Integers that overflow int64 fall back to Float.
func numberValue(n json.Number) Value {
	s := string(n)
	if !isFloatLiteral(s) {
		if i, err := n.Int64(); err == nil {
			return Int(i)
		}
	}
	f, _ := n.Float64()
	return Float(f)
}

func isFloatLiteral(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', 'e', 'E':
			return true
		}
	}
	return false
}

// Text returns the value's plain text form: strings unquoted, everything
// else as its JSON literal. Used for loose comparisons and text output.
func Text(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case String:
		return string(val)
	case Bytes:
		return base64.StdEncoding.EncodeToString(val)
	case Date:
		return val.String()
	case Timestamp:
		return val.Format(time.RFC3339Nano)
	default:
		b, err := marshalValue(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// formatFloat renders a finite float so that it decodes back as a Float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !isFloatLiteral(s) {
		s += ".0"
	}
	return s
}
