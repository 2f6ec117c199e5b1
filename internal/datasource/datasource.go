//go:generate mockgen -destination=mocks/mock_datasource.go -package=mocks github.com/gitm/javango/internal/datasource DataSource

// Package datasource defines the storage contract consumed by Models.
//
// A DataSource is collection-agnostic: it never knows which Model calls it.
// The collection comes from the Record's tag on create and from the Query
// on retrieve.
package datasource

import (
	"context"

	"github.com/gitm/javango/internal/query"
	"github.com/gitm/javango/internal/record"
)

// DataSource is the capability set every storage backend provides.
//
// Create must be atomic: either the record is inserted or an error is
// returned with no partial write visible to later reads. Retrieve returns
// an empty, non-nil RecordSet when nothing matches and a *RetrievalError
// when the backend fails. Update and Delete are reserved and return
// ErrUnsupported.
type DataSource interface {
	Create(ctx context.Context, r *record.Record) error
	Retrieve(ctx context.Context, q query.Query) (*record.RecordSet, error)
	Update(ctx context.Context) error
	Delete(ctx context.Context) error
}

// CheckCreatable validates r before any backend work is done.
// Errors are returned wrapped in a *CreateError.
func CheckCreatable(r *record.Record) error {
	if r == nil || r.Len() == 0 {
		return &CreateError{Err: ErrEmptyRecord}
	}
	if r.CollectionName() == "" {
		return &CreateError{Err: ErrNoCollection}
	}
	return nil
}

// CheckRetrievable validates q before any backend work is done.
// Errors are returned wrapped in a *RetrievalError.
func CheckRetrievable(q query.Query) error {
	if err := q.Validate(); err != nil {
		return &RetrievalError{Err: ErrNoCollection}
	}
	return nil
}
