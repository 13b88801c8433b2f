// Package errors provides the structured error taxonomy for hirescope.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUpstream     = errors.New("upstream service error")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnavailable  = errors.New("service unavailable")
	ErrInternal     = errors.New("internal error")
)

// Kind is a stable error classification used for metrics labels and
// HTTP status mapping.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindUpstream    Kind = "upstream"
	KindRateLimited Kind = "rate_limited"
	KindInvalid     Kind = "invalid_input"
	KindUnavailable Kind = "unavailable"
	KindInternal    Kind = "internal"
)

// APIError represents an error from an external API call.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %s: %v", e.Service, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	switch e.StatusCode {
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	case 502, 503, 504:
		return ErrUnavailable
	}
	return ErrUpstream
}

// NewAPIError creates a new API error.
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{Service: service, StatusCode: statusCode, Message: message}
}

// Classify returns the taxonomy kind for an error.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrInvalidInput):
		return KindInvalid
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	}
	return KindInternal
}

// IsRetryable returns true if the error is likely transient.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}

// Is, As and Wrap re-exports so callers don't need two errors imports.
func Is(err, target error) bool { return errors.Is(err, target) }
func As(err error, target any) bool { return errors.As(err, target) }

// Wrap annotates err with a sentinel so Classify picks the right kind.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, sentinel)...)
}
