package sqlsource

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gitm/javango/internal/datasource"
	"github.com/gitm/javango/internal/query"
	"github.com/gitm/javango/internal/record"
)

var (
	// ErrInvalidIdentifier is returned for collection or field names that
	// cannot be used as a SQL identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidOrder is returned for order clauses other than a list of
	// "column [ASC|DESC]".
	ErrInvalidOrder = query.ErrInvalidOrder
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// Statement is SQL text with its bound arguments.
type Statement struct {
	SQL  string
	Args []any
}

// BuildSelect compiles q to a parameterized SELECT.
//
//	SELECT * FROM <collection> [WHERE f1 = ? AND f2 = ?] [ORDER BY <order>]
//
// Filter values are always bound, never interpolated. Terms appear in
// filter order.
func (d Dialect) BuildSelect(q query.Query) (Statement, error) {
	if err := q.Validate(); err != nil {
		return Statement{}, datasource.ErrNoCollection
	}
	if err := checkIdent(q.Collection()); err != nil {
		return Statement{}, err
	}

	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(d.QuoteIdent(q.Collection()))

	var args []any
	if q.HasFilter() {
		terms := q.Filter().Terms()
		conds := make([]string, len(terms))
		args = make([]any, len(terms))
		for i, t := range terms {
			if err := checkIdent(t.Field); err != nil {
				return Statement{}, err
			}
			conds[i] = d.QuoteIdent(t.Field) + " = ?"
			args[i] = d.arg(t.Value)
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if q.Order() != "" {
		order, err := query.ParseOrder(q.Order())
		if err != nil {
			return Statement{}, err
		}
		cols := make([]string, len(order))
		for i, o := range order {
			cols[i] = d.QuoteIdent(o.Field)
			if o.Descending {
				cols[i] += " DESC"
			}
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(cols, ", "))
	}

	return Statement{SQL: d.Rebind(b.String()), Args: args}, nil
}

// BuildInsert compiles r to a parameterized INSERT into r's collection.
// Columns and placeholders come from one pass over r's fields, so they
// correspond positionally.
func (d Dialect) BuildInsert(r *record.Record) (Statement, error) {
	if r == nil || r.Len() == 0 {
		return Statement{}, datasource.ErrEmptyRecord
	}
	if r.CollectionName() == "" {
		return Statement{}, datasource.ErrNoCollection
	}
	if err := checkIdent(r.CollectionName()); err != nil {
		return Statement{}, err
	}

	cols := make([]string, 0, r.Len())
	marks := make([]string, 0, r.Len())
	args := make([]any, 0, r.Len())
	var identErr error
	r.Each(func(key string, v record.Value) {
		if identErr != nil {
			return
		}
		if err := checkIdent(key); err != nil {
			identErr = err
			return
		}
		cols = append(cols, d.QuoteIdent(key))
		marks = append(marks, "?")
		args = append(args, d.arg(v))
	})
	if identErr != nil {
		return Statement{}, identErr
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(r.CollectionName()),
		strings.Join(cols, ", "),
		strings.Join(marks, ", "))
	return Statement{SQL: d.Rebind(stmt), Args: args}, nil
}

// arg converts a record value to a database/sql argument.
func (d Dialect) arg(v record.Value) any {
	switch val := v.(type) {
	case nil, record.Null:
		return nil
	case record.Bool:
		return bool(val)
	case record.Int:
		return int64(val)
	case record.Float:
		return float64(val)
	case record.String:
		return string(val)
	case record.Bytes:
		return []byte(val)
	case record.Date:
		return val.String()
	case record.Timestamp:
		return val.Time.UTC()
	case record.Array:
		if d.driver == DriverPostgres {
			return formatPGArray(val)
		}
		return record.Text(val)
	default:
		return record.Text(v)
	}
}
