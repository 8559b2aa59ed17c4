package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrRemoteCall - chat completion call failed (network, auth, rate limit); surfaced to caller, never retried locally
	ErrRemoteCall = errors.New("remote call failed")

	// ErrUnknownTool - tool name not registered; converted into an error tool result
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidFormat - date format missing or input not matching the declared format
	ErrInvalidFormat = errors.New("invalid format")

	// ErrUnsupportedUnit - duration unit outside seconds..years
	ErrUnsupportedUnit = errors.New("unsupported unit")

	// ErrMalformedDataset - generated dataset is not a JSON array of test cases
	ErrMalformedDataset = errors.New("malformed dataset")

	// ErrMalformedGrade - grader output is not the requested JSON judgment
	ErrMalformedGrade = errors.New("malformed grade")

	// ErrPersistence - writing an artefact failed (logged, non-fatal)
	ErrPersistence = errors.New("persistence error")

	// ErrMaxRounds - conversation exceeded its round budget
	ErrMaxRounds = errors.New("max rounds reached")

	// ErrEmptyResults - aggregate requested over zero results
	ErrEmptyResults = errors.New("empty results")

	// ErrInvalidInput - invalid input (bad arguments, schema violation)
	ErrInvalidInput = errors.New("invalid input")

	// ErrPermissionDenied - credentials rejected by the remote service
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound - resource not found
	ErrNotFound = errors.New("not found")

	// ErrTransient - transient error (rate limit, timeout, overload)
	ErrTransient = errors.New("transient error")

	// ErrInternal - internal error
	ErrInternal = errors.New("internal error")
)
