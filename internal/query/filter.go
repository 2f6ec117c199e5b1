package query

import (
	"sort"

	"github.com/gitm/javango/internal/record"
)

// Term is a single field = literal equality condition.
type Term struct {
	Field string
	Value record.Value
}

// Filter is a conjunction of equality terms, kept in insertion order.
// Order only affects clause order in generated statements, never which
// rows match. A field appears at most once; adding it again replaces the
// value in place.
//
// A nil *Filter is a valid empty filter.
type Filter struct {
	terms []Term
	index map[string]int
}

// NewFilter creates a filter from terms in the given order.
func NewFilter(terms ...Term) *Filter {
	f := &Filter{index: make(map[string]int, len(terms))}
	for _, t := range terms {
		f.Add(t.Field, t.Value)
	}
	return f
}

// FilterFromStrings builds a filter of String values from a map.
// Keys are sorted so the resulting clause order is deterministic.
func FilterFromStrings(m map[string]string) *Filter {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := NewFilter()
	for _, k := range keys {
		f.Add(k, record.String(m[k]))
	}
	return f
}

// Add appends field = v, or replaces the value if field is already present.
func (f *Filter) Add(field string, v record.Value) *Filter {
	if f.index == nil {
		f.index = make(map[string]int)
	}
	if v == nil {
		v = record.Null{}
	}
	if i, ok := f.index[field]; ok {
		f.terms[i].Value = v
		return f
	}
	f.index[field] = len(f.terms)
	f.terms = append(f.terms, Term{Field: field, Value: v})
	return f
}

// Get returns the value required for field.
func (f *Filter) Get(field string) (record.Value, bool) {
	if f == nil {
		return nil, false
	}
	i, ok := f.index[field]
	if !ok {
		return nil, false
	}
	return f.terms[i].Value, true
}

// Len returns the number of terms.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.terms)
}

// IsEmpty reports whether the filter has no terms.
func (f *Filter) IsEmpty() bool {
	return f.Len() == 0
}

// Fields returns the filtered field names in order.
func (f *Filter) Fields() []string {
	if f == nil {
		return nil
	}
	fields := make([]string, len(f.terms))
	for i, t := range f.terms {
		fields[i] = t.Field
	}
	return fields
}

// Terms returns a copy of the terms in order.
func (f *Filter) Terms() []Term {
	if f == nil {
		return nil
	}
	terms := make([]Term, len(f.terms))
	copy(terms, f.terms)
	return terms
}

// Clone returns an independent copy of the filter.
func (f *Filter) Clone() *Filter {
	if f == nil {
		return nil
	}
	return NewFilter(f.terms...)
}
