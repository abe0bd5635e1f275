package orchestrator

import (
	"errors"
	"fmt"
)

// ErrTransport marks remote call failures. They are retried inside the
// polling loop's own backoff and are never retried by callers.
var ErrTransport = errors.New("assistant transport error")

// JobTerminalError reports a run that ended in FAILED, CANCELLED or EXPIRED.
// Surfaced immediately and not retried.
type JobTerminalError struct {
	State  JobState
	Reason string
}

func (e *JobTerminalError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("analysis job ended in state %s", e.State)
	}
	return fmt.Sprintf("analysis job ended in state %s: %s", e.State, e.Reason)
}

// TimeoutError reports an exhausted poll budget or wall-clock deadline.
// A distinct kind so callers can offer a retry.
type TimeoutError struct {
	Cause string
}

func (e *TimeoutError) Error() string {
	return "analysis job timed out: " + e.Cause
}

// MalformedResponseError reports a completed run whose reply could not be
// parsed into a result. Carries the raw excerpt for diagnostics; never
// conflated with transport failures.
type MalformedResponseError struct {
	Excerpt string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed assistant response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// excerpt bounds diagnostic payloads attached to errors.
func excerpt(s string) string {
	const max = 500
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
