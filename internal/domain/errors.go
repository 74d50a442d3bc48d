package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrEmptyQuery signals a blank question.
	ErrEmptyQuery = errors.New("query is empty")
	// ErrInvalidTenant signals a malformed tenant identifier.
	ErrInvalidTenant = errors.New("invalid tenant")
	// ErrVectorDimMismatch signals a vector dimension or count mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrClassificationUnavailable signals that intent could not be determined.
	ErrClassificationUnavailable = errors.New("classification unavailable")
	// ErrAdapterFailure signals a failed capability invocation.
	ErrAdapterFailure = errors.New("adapter failure")
	// ErrAdapterNotRegistered signals a capability with no adapter.
	ErrAdapterNotRegistered = errors.New("adapter not registered")
	// ErrIndexLoad signals an unreadable persisted index.
	ErrIndexLoad = errors.New("index load failed")
	// ErrIndexSave signals a failed index checkpoint.
	ErrIndexSave = errors.New("index save failed")
	// ErrSynthesis signals a failed answer generation.
	ErrSynthesis = errors.New("synthesis failed")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
)

// AdapterError wraps ErrAdapterFailure with the failing capability and source.
type AdapterError struct {
	Capability Capability
	Source     string
	Err        error
}

func (e *AdapterError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s %s/%s: %v", ErrAdapterFailure.Error(), e.Capability, e.Source, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", ErrAdapterFailure.Error(), e.Capability, e.Err)
}

// Is matches ErrAdapterFailure so callers need not unwrap the cause.
func (e *AdapterError) Is(target error) bool { return target == ErrAdapterFailure }

func (e *AdapterError) Unwrap() error { return e.Err }

// NewAdapterError creates an adapter failure for the given task.
func NewAdapterError(c Capability, source string, err error) error {
	return &AdapterError{Capability: c, Source: source, Err: err}
}
