package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrExhaustedRetries is fatal to a run; the checkpoint stays at its last saved state.
	ErrExhaustedRetries = errors.New("retries exhausted")
	ErrNonRetryable     = errors.New("non-retryable provider error")
)
