// Package testutil provides test doubles shared across packages.
package testutil

import (
	"context"
	"sync"

	"github.com/gitm/javango/internal/datasource"
	"github.com/gitm/javango/internal/query"
	"github.com/gitm/javango/internal/record"
)

// Operation names counted by CountingDataSource.
const (
	OpCreate   = "create"
	OpRetrieve = "retrieve"
	OpUpdate   = "update"
	OpDelete   = "delete"
)

// CountingDataSource records every call made to it and forwards the call
// to an inner DataSource.
//
// With no inner DataSource it is a stub that always succeeds: Create
// accepts every record and Retrieve returns an empty set.
//
// Thread-safety: all methods are safe for concurrent use.
type CountingDataSource struct {
	inner datasource.DataSource

	mu      sync.Mutex
	calls   map[string]int
	created []*record.Record
	queries []query.Query
}

var _ datasource.DataSource = (*CountingDataSource)(nil)

// NewCountingDataSource wraps inner, which may be nil.
func NewCountingDataSource(inner datasource.DataSource) *CountingDataSource {
	return &CountingDataSource{
		inner: inner,
		calls: make(map[string]int),
	}
}

// Create records a copy of r as received, then forwards it.
func (c *CountingDataSource) Create(ctx context.Context, r *record.Record) error {
	c.mu.Lock()
	c.calls[OpCreate]++
	if r != nil {
		c.created = append(c.created, r.Clone())
	}
	c.mu.Unlock()

	if c.inner == nil {
		return nil
	}
	return c.inner.Create(ctx, r)
}

// Retrieve records q, then forwards it.
func (c *CountingDataSource) Retrieve(ctx context.Context, q query.Query) (*record.RecordSet, error) {
	c.mu.Lock()
	c.calls[OpRetrieve]++
	c.queries = append(c.queries, q)
	c.mu.Unlock()

	if c.inner == nil {
		return record.NewRecordSet(), nil
	}
	return c.inner.Retrieve(ctx, q)
}

func (c *CountingDataSource) Update(ctx context.Context) error {
	c.count(OpUpdate)
	if c.inner == nil {
		return datasource.ErrUnsupported
	}
	return c.inner.Update(ctx)
}

func (c *CountingDataSource) Delete(ctx context.Context) error {
	c.count(OpDelete)
	if c.inner == nil {
		return datasource.ErrUnsupported
	}
	return c.inner.Delete(ctx)
}

func (c *CountingDataSource) count(op string) {
	c.mu.Lock()
	c.calls[op]++
	c.mu.Unlock()
}

// Calls returns how many times op was called.
func (c *CountingDataSource) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// Total returns the number of calls across all operations.
func (c *CountingDataSource) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

// Created returns the records passed to Create, in call order.
func (c *CountingDataSource) Created() []*record.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*record.Record(nil), c.created...)
}

// LastCreated returns the most recent record passed to Create, or nil.
func (c *CountingDataSource) LastCreated() *record.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.created) == 0 {
		return nil
	}
	return c.created[len(c.created)-1]
}

// Queries returns the queries passed to Retrieve, in call order.
func (c *CountingDataSource) Queries() []query.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]query.Query(nil), c.queries...)
}

// Reset clears all counts and recorded arguments.
func (c *CountingDataSource) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = make(map[string]int)
	c.created = nil
	c.queries = nil
}
