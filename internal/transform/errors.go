package transform

import (
	"errors"
	"fmt"
)

// ErrBreakerOpen is returned while the client refuses calls after repeated
// consecutive failures.
var ErrBreakerOpen = errors.New("reasoning service breaker is open")

// ServiceError is a non-retryable service failure, such as an auth rejection
// or exhausted quota.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("reasoning service error (status %d): %s", e.Status, e.Message)
}

// TimeoutError reports an exhausted retry budget: every attempt failed with
// a transient transport error or timeout.
type TimeoutError struct {
	Attempts int
	Last     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("reasoning service unreachable after %d attempts: %v", e.Attempts, e.Last)
}

func (e *TimeoutError) Unwrap() error { return e.Last }
