// Package memory provides an in-process DataSource keeping records in
// insertion order per collection.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/gitm/javango/internal/datasource"
	"github.com/gitm/javango/internal/query"
	"github.com/gitm/javango/internal/record"
)

// ErrDuplicateKey is returned when a unique field would hold the same value twice.
var ErrDuplicateKey = errors.New("duplicate key")

// Option configures a DataSource.
type Option func(*DataSource)

// WithUnique declares fields of collection whose values must be unique.
func WithUnique(collection string, fields ...string) Option {
	return func(d *DataSource) {
		d.unique[collection] = append(d.unique[collection], fields...)
	}
}

// DataSource stores records in memory. Safe for concurrent use.
type DataSource struct {
	mu          sync.RWMutex
	collections map[string][]*record.Record
	unique      map[string][]string
}

var _ datasource.DataSource = (*DataSource)(nil)

// New creates an empty in-memory DataSource.
func New(opts ...Option) *DataSource {
	d := &DataSource{
		collections: make(map[string][]*record.Record),
		unique:      make(map[string][]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Create appends a copy of r to its collection.
func (d *DataSource) Create(ctx context.Context, r *record.Record) error {
	if err := datasource.CheckCreatable(r); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return datasource.NewCreateError(r.CollectionName(), err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	name := r.CollectionName()
	for _, field := range d.unique[name] {
		v, ok := r.Get(field)
		if !ok {
			continue
		}
		for _, existing := range d.collections[name] {
			if ev, ok := existing.Get(field); ok && valuesEqual(ev, v) {
				return datasource.NewCreateError(name, ErrDuplicateKey)
			}
		}
	}
	d.collections[name] = append(d.collections[name], r.Clone())
	return nil
}

// Retrieve returns copies of the records matching q's filter, ordered by
// q's order clause when one is set and by insertion order otherwise.
func (d *DataSource) Retrieve(ctx context.Context, q query.Query) (*record.RecordSet, error) {
	if err := datasource.CheckRetrievable(q); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, datasource.NewRetrievalError(q.Collection(), err)
	}
	order, err := query.ParseOrder(q.Order())
	if err != nil {
		return nil, datasource.NewRetrievalError(q.Collection(), err)
	}

	d.mu.RLock()
	var matched []*record.Record
	filter := q.Filter()
	for _, r := range d.collections[q.Collection()] {
		if matches(r, filter) {
			matched = append(matched, r.Clone())
		}
	}
	d.mu.RUnlock()

	if len(order) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return less(matched[i], matched[j], order)
		})
	}

	set := record.NewRecordSet()
	for _, r := range matched {
		set.Append(r)
	}
	return set, nil
}

// Update is reserved.
func (d *DataSource) Update(context.Context) error {
	return datasource.ErrUnsupported
}

// Delete is reserved.
func (d *DataSource) Delete(context.Context) error {
	return datasource.ErrUnsupported
}

// Len returns the number of records stored in collection.
func (d *DataSource) Len(collection string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.collections[collection])
}

func matches(r *record.Record, f *query.Filter) bool {
	for _, t := range f.Terms() {
		v, ok := r.Get(t.Field)
		if !ok || !valuesEqual(v, t.Value) {
			return false
		}
	}
	return true
}

// valuesEqual compares loosely, the way a SQL backend compares a bound
// text parameter against a typed column: by text form. Null only equals Null.
func valuesEqual(a, b record.Value) bool {
	_, aNull := a.(record.Null)
	_, bNull := b.(record.Null)
	if aNull || bNull {
		return aNull && bNull
	}
	return record.Text(a) == record.Text(b)
}

func less(a, b *record.Record, order []query.OrderTerm) bool {
	for _, term := range order {
		av, _ := a.Get(term.Field)
		bv, _ := b.Get(term.Field)
		c := compareValues(av, bv)
		if c == 0 {
			continue
		}
		if term.Descending {
			return c > 0
		}
		return c < 0
	}
	return false
}

// compareValues orders missing and Null first, numbers numerically and
// everything else by text form.
func compareValues(a, b record.Value) int {
	an, bn := isNull(a), isNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	if af, ok := number(a); ok {
		if bf, ok := number(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(record.Text(a), record.Text(b))
}

func isNull(v record.Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(record.Null)
	return ok
}

func number(v record.Value) (float64, bool) {
	switch n := v.(type) {
	case record.Int:
		return float64(n), true
	case record.Float:
		return float64(n), true
	}
	return 0, false
}
