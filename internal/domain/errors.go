package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing entity.
	ErrNotFound = errors.New("entity not found")
	// ErrAlreadyExists signals a duplicate entity.
	ErrAlreadyExists = errors.New("entity already exists")
	// ErrValidation signals rejected input; field details travel in a validate.Result.
	ErrValidation = errors.New("validation failed")
	// ErrUnsupportedKey signals a document key that collides with the flat-path encoding.
	ErrUnsupportedKey = errors.New("unsupported document key")
)

// BackendKind categorizes a search-backend rejection.
type BackendKind string

// Backend error kinds.
const (
	BackendNotFound   BackendKind = "not_found"
	BackendConflict   BackendKind = "conflict"
	BackendBadRequest BackendKind = "bad_request"
	BackendForbidden  BackendKind = "forbidden"
	BackendInternal   BackendKind = "internal"
)

// BackendError wraps a search-backend rejection with a status code and kind.
// The core never retries; callers decide what to do with it.
type BackendError struct {
	Status  int
	Kind    BackendKind
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s (status %d): %s", e.Kind, e.Status, e.Message)
}

func (e *BackendError) Unwrap() error { return e.Err }

// NewBackendError creates a backend error.
func NewBackendError(status int, kind BackendKind, message string, err error) error {
	return &BackendError{Status: status, Kind: kind, Message: message, Err: err}
}
