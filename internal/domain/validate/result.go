package validate

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docman/internal/domain"
)

// Code identifies a validation failure class.
type Code string

// Validation error codes.
const (
	CodeRequired      Code = "REQUIRED"
	CodeEmptyValue    Code = "EMPTY_VALUE"
	CodeMaxLength     Code = "MAX_LENGTH"
	CodeMinLength     Code = "MIN_LENGTH"
	CodeOutOfRange    Code = "OUT_OF_RANGE"
	CodeInvalidValue  Code = "INVALID_VALUE"
	CodeInvalidType   Code = "INVALID_TYPE"
	CodeMaxItems      Code = "MAX_ITEMS"
	CodeMaxFilters    Code = "MAX_FILTERS"
	CodeMaxSortFields Code = "MAX_SORT_FIELDS"
	CodeMaxBulkSize   Code = "MAX_BULK_SIZE"
	CodeEmptyArray    Code = "EMPTY_ARRAY"
)

// FieldError is one validation failure bound to a field path such as
// "title", "tags[1]" or "entities[0].priority".
type FieldError struct {
	Field   string `json:"field"`
	Code    Code   `json:"code"`
	Message string `json:"message,omitempty"`
}

// Result accumulates every failure discovered during a validation pass.
// Validation never short-circuits: a caller always sees all offending
// fields at once.
type Result struct {
	errors []FieldError
}

// Add records a failure.
func (r *Result) Add(field string, code Code, message string) {
	r.errors = append(r.errors, FieldError{Field: field, Code: code, Message: message})
}

// Merge appends another result's failures, re-rooting their field paths
// under prefix ("entities[1]" + "title" -> "entities[1].title").
func (r *Result) Merge(prefix string, other Result) {
	for _, e := range other.errors {
		e.Field = joinPath(prefix, e.Field)
		r.errors = append(r.errors, e)
	}
}

// Valid reports whether no failures were recorded.
func (r Result) Valid() bool { return len(r.errors) == 0 }

// Errors returns all recorded failures.
func (r Result) Errors() []FieldError { return r.errors }

// Err returns an error wrapping domain.ErrValidation that carries the
// recorded failures, or nil when the result is valid.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &Error{fields: r.errors}
}

// Error is the failure form of a Result. It unwraps to
// domain.ErrValidation so callers can branch with errors.Is, and exposes
// the individual field failures for rendering.
type Error struct {
	fields []FieldError
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.fields) == 1 {
		return fmt.Sprintf("validation failed: %s (%s)", e.fields[0].Field, e.fields[0].Code)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(e.fields))
}

// Unwrap returns domain.ErrValidation.
func (e *Error) Unwrap() error { return domain.ErrValidation }

// Fields returns the individual failures.
func (e *Error) Fields() []FieldError { return e.fields }

func joinPath(prefix, field string) string {
	switch {
	case field == "":
		return prefix
	case prefix == "":
		return field
	case strings.HasPrefix(field, "["):
		return prefix + field
	default:
		return prefix + "." + field
	}
}
