// Package blacklight provides the resilient API client for the Blacklight
// backend. This package centralizes every outbound backend call and owns the
// transport retry policy; semantic statuses (204, 409, other 4xx) are
// surfaced to callers as typed errors for branching.
package blacklight

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for protocol statuses the orchestrator branches on.
var (
	// ErrNoContent is returned for a 204 response: empty queue or no
	// credential available. Not a failure.
	ErrNoContent = errors.New("blacklight: no content")

	// ErrConflict is returned for a 409 response: an active session already
	// exists.
	ErrConflict = errors.New("blacklight: active session conflict")
)

// APIError represents a non-retryable error response from the backend
// (4xx other than 429), carrying the structured error body when present.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("blacklight API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// TerminalError is raised after the retry budget is exhausted. Callers must
// not retry a terminal error.
type TerminalError struct {
	StatusCode int
	URL        string
	Cause      error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("blacklight request failed after retries: %v (status: %d, url: %s)", e.Cause, e.StatusCode, e.URL)
}

func (e *TerminalError) Unwrap() error {
	return e.Cause
}

// SleepFunc waits for a duration or until the context is cancelled. Tests
// substitute a no-op to avoid real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
