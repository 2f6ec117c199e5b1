package sqlsource

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gitm/javango/internal/record"
)

// columnKind is the target representation of a backend column type.
type columnKind int

const (
	kindOpaque columnKind = iota
	kindArray
	kindInteger
	kindBoolean
	kindBytes
	kindFloat
	kindDate
	kindTimestamp
	kindString
)

// classify maps a backend-reported type name to a column kind.
// Names are compared after upper-casing and dropping any length or
// precision suffix and the UNSIGNED qualifier.
func classify(typeName string) columnKind {
	name := strings.ToUpper(strings.TrimSpace(typeName))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(name, " UNSIGNED"), "UNSIGNED "))

	switch {
	case strings.HasPrefix(name, "_"), strings.HasSuffix(name, "[]"), name == "ARRAY":
		return kindArray
	}

	switch name {
	case "BIGINT", "INT", "INTEGER", "MEDIUMINT", "SMALLINT", "TINYINT",
		"INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL", "SMALLSERIAL":
		return kindInteger
	case "BOOL", "BOOLEAN", "BIT":
		return kindBoolean
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BYTEA", "BINARY", "VARBINARY":
		return kindBytes
	case "DOUBLE", "DOUBLE PRECISION", "FLOAT", "FLOAT4", "FLOAT8", "REAL":
		return kindFloat
	case "DATE":
		return kindDate
	case "TIMESTAMP", "TIMESTAMPTZ", "DATETIME":
		return kindTimestamp
	case "CHAR", "VARCHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT",
		"NCHAR", "NVARCHAR", "NTEXT", "BPCHAR", "CHARACTER", "CHARACTER VARYING",
		"CLOB", "NCLOB", "ENUM", "SET", "NAME":
		return kindString
	}
	return kindOpaque
}

// ConvertRows reads every row of rows into a RecordSet. Column names become
// field names in column order. rows is not closed.
func ConvertRows(rows *sql.Rows) (*record.RecordSet, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}
	kinds := make([]columnKind, len(cols))
	for i, c := range cols {
		kinds[i] = classify(c.DatabaseTypeName())
	}

	set := record.NewRecordSet()
	raw := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", set.Len(), err)
		}
		r := record.New()
		for i, c := range cols {
			v, err := convertValue(kinds[i], raw[i])
			if err != nil {
				return nil, fmt.Errorf("column %q (%s): %w", c.Name(), c.DatabaseTypeName(), err)
			}
			r.Set(c.Name(), v)
		}
		set.Append(r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return set, nil
}

// convertValue coerces one scanned driver value. A nil raw value is Null
// regardless of kind.
func convertValue(kind columnKind, raw any) (record.Value, error) {
	if raw == nil {
		return record.Null{}, nil
	}

	switch kind {
	case kindInteger:
		switch v := raw.(type) {
		case int64:
			return record.Int(v), nil
		case bool:
			if v {
				return record.Int(1), nil
			}
			return record.Int(0), nil
		case []byte:
			return parseInt(string(v))
		case string:
			return parseInt(v)
		}
	case kindBoolean:
		switch v := raw.(type) {
		case bool:
			return record.Bool(v), nil
		case int64:
			return record.Bool(v != 0), nil
		case []byte:
			return parseBool(string(v))
		case string:
			return parseBool(v)
		}
	case kindBytes:
		switch v := raw.(type) {
		case []byte:
			b := make([]byte, len(v))
			copy(b, v)
			return record.Bytes(b), nil
		case string:
			return record.Bytes(v), nil
		}
	case kindFloat:
		switch v := raw.(type) {
		case float64:
			return record.Float(v), nil
		case float32:
			return record.Float(v), nil
		case int64:
			return record.Float(v), nil
		case []byte:
			return parseFloat(string(v))
		case string:
			return parseFloat(v)
		}
	case kindDate:
		switch v := raw.(type) {
		case time.Time:
			return record.DateOf(v), nil
		case []byte:
			return parseDate(string(v))
		case string:
			return parseDate(v)
		}
	case kindTimestamp:
		switch v := raw.(type) {
		case time.Time:
			return record.TimestampOf(v), nil
		case []byte:
			return parseTimestamp(string(v))
		case string:
			return parseTimestamp(v)
		}
	case kindString:
		switch v := raw.(type) {
		case string:
			return record.String(v), nil
		case []byte:
			return record.String(v), nil
		}
	case kindArray:
		switch v := raw.(type) {
		case string:
			return parsePGArray(v)
		case []byte:
			return parsePGArray(string(v))
		case []any:
			return record.FromNative(v)
		}
	}

	// Opaque columns, and kinds whose driver value was not one of the
	// shapes above, pass through as the driver's native value.
	if b, ok := raw.([]byte); ok && utf8.Valid(b) {
		return record.String(b), nil
	}
	return record.FromNative(raw)
}

func parseInt(s string) (record.Value, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, err
	}
	return record.Int(n), nil
}

func parseFloat(s string) (record.Value, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	return record.Float(f), nil
}

func parseBool(s string) (record.Value, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true", "1", "y", "yes":
		return record.Bool(true), nil
	case "f", "false", "0", "n", "no":
		return record.Bool(false), nil
	}
	return nil, fmt.Errorf("invalid boolean %q", s)
}

func parseDate(s string) (record.Value, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return record.DateOf(t), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp accepts the text forms drivers return for timestamp
// columns. Values without a zone are read as UTC.
func parseTimestamp(s string) (record.Value, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return record.TimestampOf(t), nil
		}
	}
	return nil, fmt.Errorf("invalid timestamp %q", s)
}

// parsePGArray parses a one-dimensional postgres array literal such as
// {1,"a b",NULL}. Elements become strings; unquoted NULL becomes Null.
func parsePGArray(s string) (record.Value, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, fmt.Errorf("invalid array literal %q", s)
	}
	body := s[1 : len(s)-1]
	out := record.Array{}
	if body == "" {
		return out, nil
	}

	var (
		elem    strings.Builder
		quoted  bool
		inQuote bool
		escaped bool
	)
	flush := func() {
		text := elem.String()
		if !quoted && strings.EqualFold(strings.TrimSpace(text), "NULL") {
			out = append(out, record.Null{})
		} else if quoted {
			out = append(out, record.String(text))
		} else {
			out = append(out, record.String(strings.TrimSpace(text)))
		}
		elem.Reset()
		quoted = false
	}

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case escaped:
			elem.WriteByte(c)
			escaped = false
		case c == '\\' && inQuote:
			escaped = true
		case c == '"':
			inQuote = !inQuote
			quoted = true
		case c == '{' && !inQuote:
			return nil, fmt.Errorf("nested array literal %q not supported", s)
		case c == ',' && !inQuote:
			flush()
		default:
			elem.WriteByte(c)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated array literal %q", s)
	}
	flush()
	return out, nil
}

// formatPGArray renders a postgres array literal with every element quoted.
func formatPGArray(a record.Array) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		if _, ok := v.(record.Null); ok || v == nil {
			b.WriteString("NULL")
			continue
		}
		b.WriteByte('"')
		text := record.Text(v)
		text = strings.ReplaceAll(text, `\`, `\\`)
		text = strings.ReplaceAll(text, `"`, `\"`)
		b.WriteString(text)
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}
