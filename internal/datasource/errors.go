package datasource

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned by the reserved Update and Delete operations.
	ErrUnsupported = errors.New("operation not supported")

	// ErrEmptyRecord is returned when creating a record with no fields.
	ErrEmptyRecord = errors.New("record has no fields")

	// ErrNoCollection is returned when the target collection is unknown.
	ErrNoCollection = errors.New("no collection name")
)

// CreateError reports a rejected insertion.
//
// Message carries the backend's diagnostic text unaltered. Err, when set,
// is the underlying cause and is matched by errors.Is / errors.As.
type CreateError struct {
	Collection string
	Message    string
	Err        error
}

// NewCreateError wraps a backend failure for collection.
func NewCreateError(collection string, err error) *CreateError {
	return &CreateError{Collection: collection, Message: err.Error(), Err: err}
}

func (e *CreateError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Collection != "" {
		return fmt.Sprintf("create in %s: %s", e.Collection, msg)
	}
	return fmt.Sprintf("create: %s", msg)
}

func (e *CreateError) Unwrap() error { return e.Err }

// Diagnostic returns the backend's message without any prefix.
func (e *CreateError) Diagnostic() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// RetrievalError reports a backend failure while reading. It is never
// used for "no rows": an empty result is a successful empty RecordSet.
type RetrievalError struct {
	Collection string
	Err        error
}

// NewRetrievalError wraps a backend failure for collection.
func NewRetrievalError(collection string, err error) *RetrievalError {
	return &RetrievalError{Collection: collection, Err: err}
}

func (e *RetrievalError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("retrieve from %s: %v", e.Collection, e.Err)
	}
	return fmt.Sprintf("retrieve: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// IsCreateError returns true if err is or wraps a *CreateError.
func IsCreateError(err error) bool {
	var ce *CreateError
	return errors.As(err, &ce)
}

// IsRetrievalError returns true if err is or wraps a *RetrievalError.
func IsRetrievalError(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}
