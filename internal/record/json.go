package record

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// ParseError reports record text that is not a well-formed JSON object.
type ParseError struct {
	Offset  int64 // Byte offset of the failure, when known
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("parse record at offset %d: %s", e.Offset, e.Message)
	}
	return fmt.Sprintf("parse record: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Decode parses a JSON object into a Record, preserving field order.
// Nested objects are rejected; nested arrays are kept as Array.
func Decode(text string) (*Record, error) {
	r := New()
	if err := r.UnmarshalJSON([]byte(text)); err != nil {
		return nil, err
	}
	return r, nil
}

// Encode returns the JSON object text of the record.
// Non-finite floats are encoded as null.
func (r *Record) Encode() string {
	b, _ := r.MarshalJSON() // never fails
	return string(b)
}

// MarshalJSON encodes the record as a flat JSON object in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, k)
		buf.WriteByte(':')
		writeValue(&buf, r.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the record's fields with those of a JSON object.
// The collection tag is left untouched.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return syntaxError(dec, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return &ParseError{Offset: dec.InputOffset(), Message: "expected a JSON object"}
	}

	r.keys = nil
	r.values = make(map[string]Value)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return syntaxError(dec, err)
		}
		key, ok := tok.(string)
		if !ok {
			return &ParseError{Offset: dec.InputOffset(), Message: "expected an object key"}
		}
		val, err := decodeValue(dec)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		r.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return syntaxError(dec, err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return &ParseError{Offset: dec.InputOffset(), Message: "unexpected data after object"}
	}
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, syntaxError(dec, err)
	}
	switch t := tok.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return numberValue(t), nil
	case json.Delim:
		if t != '[' {
			return nil, &ParseError{Offset: dec.InputOffset(), Message: "nested objects are not supported"}
		}
		arr := Array{}
		for dec.More() {
			elem, err := decodeValue(dec)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", len(arr), err)
			}
			arr = append(arr, elem)
		}
		if _, err := dec.Token(); err != nil {
			return nil, syntaxError(dec, err)
		}
		return arr, nil
	default:
		return nil, &ParseError{Offset: dec.InputOffset(), Message: fmt.Sprintf("unexpected token %v", tok)}
	}
}

func syntaxError(dec *json.Decoder, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return &ParseError{Offset: se.Offset, Message: se.Error(), Err: err}
	}
	return &ParseError{Offset: dec.InputOffset(), Message: err.Error(), Err: err}
}

// writeValue uses type-switch dispatch over the sealed Value set.
func writeValue(buf *bytes.Buffer, v Value) {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf.WriteString("null")
			return
		}
		buf.WriteString(formatFloat(f))
	case String:
		writeJSONString(buf, string(val))
	case Bytes:
		writeJSONString(buf, base64.StdEncoding.EncodeToString(val))
	case Date:
		writeJSONString(buf, val.String())
	case Timestamp:
		writeJSONString(buf, val.Format(time.RFC3339Nano))
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeValue(buf, elem)
		}
		buf.WriteByte(']')
	}
}

func writeJSONString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
}

// marshalValue encodes a single value as JSON.
func marshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	writeValue(&buf, v)
	return buf.Bytes(), nil
}
