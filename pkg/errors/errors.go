package errors

import (
	"fmt"
	"strings"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrMalformed is returned when a platform response does not parse or is
// missing the expected shape. Not retryable; the caller skips the item.
type ErrMalformed struct {
	Resource string
	Reason   string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("malformed %s response: %s", e.Resource, e.Reason)
}

// ErrTransient is returned for network failures and 5xx/429 responses.
// Eligible for bounded retry with fixed delay.
type ErrTransient struct {
	Op  string
	Err error
}

func (e *ErrTransient) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transient failure in %s", e.Op)
}

func (e *ErrTransient) Unwrap() error {
	return e.Err
}

// ErrValidation is returned when the platform rejects a mutation with
// field-level userErrors. Not retryable; the request shape is wrong.
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for field, msg := range e.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
		}
		return "validation failed: " + strings.Join(parts, "; ")
	}
	return "validation failed"
}
