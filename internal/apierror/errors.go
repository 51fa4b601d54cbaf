// Package apierror defines the error taxonomy shared by the token and timeline
// clients. Callers match on the concrete types with errors.As.
package apierror

import (
	"context"
	"errors"
	"fmt"
)

// NetworkError reports a transport-level failure (connection, TLS, timeout,
// cancellation) while talking to the upstream API.
type NetworkError struct {
	// Op names the call that failed, e.g. "token" or "timeline".
	Op  string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying transport error so that errors.Is works for
// context.DeadlineExceeded and friends.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was caused by a deadline.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// AuthError reports that the token exchange completed at the transport level
// but yielded no usable bearer token.
type AuthError struct {
	Status int
	Reason string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("authentication failed (status %d): %s", e.Status, e.Reason)
	}
	return "authentication failed: " + e.Reason
}

// ParseError reports a response body that is not valid JSON or lacks the
// expected shape. It is a soft failure: the timeline client logs it and
// yields no posts instead of returning it.
type ParseError struct {
	Status int
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("unexpected response (status %d): %v", e.Status, e.Err)
}

// Unwrap returns the decoding error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
