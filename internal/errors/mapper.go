package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusCoder is implemented by provider SDK errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// RemoteError carries the HTTP status reported by a provider SDK.
type RemoteError struct {
	Provider string
	Status   int
	Err      error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) HTTPStatus() int { return e.Status }

// ErrorMapper maps provider errors to the chatlab error taxonomy
type ErrorMapper interface {
	MapError(err error) error
	IsRetryable(err error) bool
	Category(err error) string
}

// DefaultErrorMapper implements the chatlab error taxonomy mapping
type DefaultErrorMapper struct{}

// NewDefaultErrorMapper creates a new error mapper
func NewDefaultErrorMapper() *DefaultErrorMapper {
	return &DefaultErrorMapper{}
}

// MapError classifies a remote call failure. The result always wraps
// ErrRemoteCall plus a finer category when one can be inferred.
func (m *DefaultErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}

	// Propagate context errors as-is
	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timeout: %w", ErrRemoteCall, ErrTransient)
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		if category := statusCategory(sc.HTTPStatus()); category != nil {
			return fmt.Errorf("%w: %w: %v", ErrRemoteCall, category, err)
		}
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "401"), strings.Contains(errStr, "403"),
		strings.Contains(errStr, "unauthorized"), strings.Contains(errStr, "forbidden"),
		strings.Contains(errStr, "invalid x-api-key"), strings.Contains(errStr, "authentication"):
		return fmt.Errorf("%w: access denied: %w: %v", ErrRemoteCall, ErrPermissionDenied, err)

	case strings.Contains(errStr, "429"), strings.Contains(errStr, "rate limit"),
		strings.Contains(errStr, "overloaded"), strings.Contains(errStr, "529"),
		strings.Contains(errStr, "too many requests"):
		return fmt.Errorf("%w: rate limited: %w: %v", ErrRemoteCall, ErrTransient, err)

	case strings.Contains(errStr, "400"), strings.Contains(errStr, "invalid request"), strings.Contains(errStr, "bad request"):
		return fmt.Errorf("%w: invalid request: %w: %v", ErrRemoteCall, ErrInvalidInput, err)

	case strings.Contains(errStr, "404"), strings.Contains(errStr, "not_found"), strings.Contains(errStr, "not found"):
		return fmt.Errorf("%w: %w: %v", ErrRemoteCall, ErrNotFound, err)

	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"),
		strings.Contains(errStr, "connection"), strings.Contains(errStr, "network"),
		strings.Contains(errStr, "unreachable"), strings.Contains(errStr, "500"),
		strings.Contains(errStr, "502"), strings.Contains(errStr, "503"):
		return fmt.Errorf("%w: network error: %w: %v", ErrRemoteCall, ErrTransient, err)

	default:
		return fmt.Errorf("%w: %v", ErrRemoteCall, err)
	}
}

func statusCategory(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrPermissionDenied
	case status == http.StatusTooManyRequests, status == 529, status >= 500:
		return ErrTransient
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 400:
		return ErrInvalidInput
	default:
		return nil
	}
}

// IsRetryable determines if an error should trigger a retry
func (m *DefaultErrorMapper) IsRetryable(err error) bool {
	return IsRetryable(err)
}

// Category returns the chatlab error category for an error
func (m *DefaultErrorMapper) Category(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnknownTool):
		return "ErrUnknownTool"
	case errors.Is(err, ErrInvalidFormat):
		return "ErrInvalidFormat"
	case errors.Is(err, ErrUnsupportedUnit):
		return "ErrUnsupportedUnit"
	case errors.Is(err, ErrMalformedDataset):
		return "ErrMalformedDataset"
	case errors.Is(err, ErrMalformedGrade):
		return "ErrMalformedGrade"
	case errors.Is(err, ErrPersistence):
		return "ErrPersistence"
	case errors.Is(err, ErrMaxRounds):
		return "ErrMaxRounds"
	case errors.Is(err, ErrEmptyResults):
		return "ErrEmptyResults"
	case errors.Is(err, ErrPermissionDenied):
		return "ErrPermissionDenied"
	case errors.Is(err, ErrInvalidInput):
		return "ErrInvalidInput"
	case errors.Is(err, ErrNotFound):
		return "ErrNotFound"
	case errors.Is(err, ErrTransient):
		return "ErrTransient"
	case errors.Is(err, ErrRemoteCall):
		return "ErrRemoteCall"
	case errors.Is(err, ErrInternal):
		return "ErrInternal"
	default:
		return "Unknown"
	}
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", message, err)
}

// WrapWithCategory wraps an error with a specific category while keeping the cause
func WrapWithCategory(err error, message string, category error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w: %w", message, category, err)
}

// IsCategory checks if error belongs to specific category
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// UnknownTool wraps error as unknown tool
func UnknownTool(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

// InvalidFormat wraps error as invalid format
func InvalidFormat(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidFormat)
}

// UnsupportedUnit wraps error as unsupported unit
func UnsupportedUnit(unit string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedUnit, unit)
}

// MalformedDataset wraps error as malformed dataset
func MalformedDataset(message string) error {
	return fmt.Errorf("%s: %w", message, ErrMalformedDataset)
}

// MalformedGrade wraps error as malformed grade
func MalformedGrade(message string) error {
	return fmt.Errorf("%s: %w", message, ErrMalformedGrade)
}

// NotFound wraps error as not found
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// InvalidInput wraps error as invalid input
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// Transient wraps error as transient
func Transient(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransient)
}

// Internal wraps error as internal
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}

// IsRetryable reports whether a remote failure is worth retrying by the caller.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrTransient)
}
