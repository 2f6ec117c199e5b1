// Package model binds a named field whitelist to one DataSource.
package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gitm/javango/internal/datasource"
	"github.com/gitm/javango/internal/query"
	"github.com/gitm/javango/internal/record"
)

// Definition declares a Model: its collection name and accepted fields.
type Definition struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// Validate checks that the definition is usable.
func (d Definition) Validate() error {
	if d.Name == "" {
		return errors.New("model name is required")
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("model %q declares no fields", d.Name)
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f == "" {
			return fmt.Errorf("model %q declares an empty field name", d.Name)
		}
		if seen[f] {
			return fmt.Errorf("model %q declares field %q twice", d.Name, f)
		}
		seen[f] = true
	}
	return nil
}

// InvalidFieldError reports filter or record keys that the Model does not
// declare. Fields is sorted and free of duplicates.
type InvalidFieldError struct {
	Model  string
	Fields []string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("model %s does not have field(s) %s", e.Model, strings.Join(e.Fields, ", "))
}

// IsInvalidFieldError returns true if err is or wraps an *InvalidFieldError.
func IsInvalidFieldError(err error) bool {
	var fe *InvalidFieldError
	return errors.As(err, &fe)
}

// Model is a typed resource over a DataSource. It holds no state between
// calls.
type Model struct {
	name           string
	fields         []string
	declared       map[string]struct{}
	ds             datasource.DataSource
	log            logrus.FieldLogger
	validateCreate bool
}

// Option configures a Model.
type Option func(*Model)

// WithCreateValidation makes CreateNew reject records with undeclared
// fields. Off by default.
func WithCreateValidation() Option {
	return func(m *Model) {
		m.validateCreate = true
	}
}

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Model) {
		m.log = log
	}
}

// New creates a Model from def, owning ds.
func New(def Definition, ds datasource.DataSource, opts ...Option) (*Model, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, fmt.Errorf("model %q has no data source", def.Name)
	}

	m := &Model{
		name:     def.Name,
		fields:   append([]string(nil), def.Fields...),
		declared: make(map[string]struct{}, len(def.Fields)),
		ds:       ds,
		log:      logrus.StandardLogger(),
	}
	for _, f := range def.Fields {
		m.declared[f] = struct{}{}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Name returns the backing collection name.
func (m *Model) Name() string {
	return m.name
}

// Fields returns the declared fields in declaration order.
func (m *Model) Fields() []string {
	return append([]string(nil), m.fields...)
}

// Definition returns the Model's definition.
func (m *Model) Definition() Definition {
	return Definition{Name: m.name, Fields: m.Fields()}
}

// GetAll retrieves every record of the collection.
func (m *Model) GetAll(ctx context.Context) (*record.RecordSet, error) {
	return m.ds.Retrieve(ctx, query.New(m.name))
}

// GetWithFilter retrieves the records matching every term of f.
// Filters naming undeclared fields fail with *InvalidFieldError before the
// DataSource is called. An empty filter behaves like GetAll.
func (m *Model) GetWithFilter(ctx context.Context, f *query.Filter) (*record.RecordSet, error) {
	if err := m.checkFields(f.Fields()); err != nil {
		m.log.WithFields(logrus.Fields{
			"model":  m.name,
			"fields": err.Fields,
		}).Debug("filter rejected")
		return nil, err
	}
	return m.ds.Retrieve(ctx, query.New(m.name).WithFilter(f))
}

// GetWithFilterMap is GetWithFilter for string-valued filters.
func (m *Model) GetWithFilterMap(ctx context.Context, filter map[string]string) (*record.RecordSet, error) {
	return m.GetWithFilter(ctx, query.FilterFromStrings(filter))
}

// CreateNew tags r with the Model's collection, overwriting any previous
// tag, and hands it to the DataSource. Errors from the DataSource are
// returned unchanged.
func (m *Model) CreateNew(ctx context.Context, r *record.Record) error {
	if r == nil {
		return &datasource.CreateError{Collection: m.name, Err: datasource.ErrEmptyRecord}
	}
	if m.validateCreate {
		if err := m.checkFields(r.Keys()); err != nil {
			m.log.WithFields(logrus.Fields{
				"model":  m.name,
				"fields": err.Fields,
			}).Debug("record rejected")
			return err
		}
	}
	r.SetCollectionName(m.name)
	return m.ds.Create(ctx, r)
}

// checkFields returns the sorted set difference of keys minus the
// declared fields, or nil when it is empty.
func (m *Model) checkFields(keys []string) *InvalidFieldError {
	var unknown []string
	seen := make(map[string]bool)
	for _, k := range keys {
		if _, ok := m.declared[k]; ok || seen[k] {
			continue
		}
		seen[k] = true
		unknown = append(unknown, k)
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &InvalidFieldError{Model: m.name, Fields: unknown}
}
