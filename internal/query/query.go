package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoCollection is returned when a query without a collection name is executed.
var ErrNoCollection = errors.New("query has no collection name")

// ErrInvalidOrder is returned when an order clause cannot be parsed.
var ErrInvalidOrder = errors.New("invalid order clause")

// Query describes a retrieval: the target collection, an optional
// conjunctive equality filter and an optional order clause.
//
// An empty filter is stored as "no filter", so backends only need to
// check HasFilter to decide whether to emit a WHERE clause.
type Query struct {
	collection string
	filter     *Filter
	order      string
}

// New creates a query for a whole collection.
func New(collection string) Query {
	return Query{collection: collection}
}

// SetCollection sets the target collection.
func (q *Query) SetCollection(name string) {
	q.collection = name
}

// SetFilter sets the filter. An empty or nil filter clears it.
// The filter is copied so later changes by the caller are not observed.
func (q *Query) SetFilter(f *Filter) {
	if f.IsEmpty() {
		q.filter = nil
		return
	}
	q.filter = f.Clone()
}

// SetOrder sets the order clause. The clause is opaque at this layer.
func (q *Query) SetOrder(order string) {
	q.order = strings.TrimSpace(order)
}

// WithFilter returns a copy of q with the filter set.
func (q Query) WithFilter(f *Filter) Query {
	q.SetFilter(f)
	return q
}

// WithOrder returns a copy of q with the order clause set.
func (q Query) WithOrder(order string) Query {
	q.SetOrder(order)
	return q
}

// Collection returns the target collection name.
func (q Query) Collection() string {
	return q.collection
}

// Filter returns a copy of the filter, or nil when there is none.
func (q Query) Filter() *Filter {
	return q.filter.Clone()
}

// HasFilter reports whether a non-empty filter is set.
func (q Query) HasFilter() bool {
	return q.filter != nil
}

// Order returns the raw order clause, or "".
func (q Query) Order() string {
	return q.order
}

// Validate checks that q can be executed.
func (q Query) Validate() error {
	if q.collection == "" {
		return ErrNoCollection
	}
	return nil
}

// OrderTerm is one column of a parsed order clause.
type OrderTerm struct {
	Field      string
	Descending bool
}

var orderTermPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\s+(?i:(ASC|DESC)))?$`)

// ParseOrder parses "field [ASC|DESC], ..." into terms.
// An empty clause yields no terms.
func ParseOrder(order string) ([]OrderTerm, error) {
	order = strings.TrimSpace(order)
	if order == "" {
		return nil, nil
	}
	parts := strings.Split(order, ",")
	terms := make([]OrderTerm, 0, len(parts))
	for _, p := range parts {
		m := orderTermPattern.FindStringSubmatch(strings.TrimSpace(p))
		if m == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOrder, strings.TrimSpace(p))
		}
		terms = append(terms, OrderTerm{
			Field:      m[1],
			Descending: strings.EqualFold(m[2], "DESC"),
		})
	}
	return terms, nil
}
