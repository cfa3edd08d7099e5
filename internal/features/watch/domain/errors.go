package domain

import "fmt"

// FetchKind classifies a page fetch failure.
type FetchKind string

const (
	// FetchNetwork marks transport-level failures (timeout, DNS, TLS).
	FetchNetwork FetchKind = "network"
	// FetchMalformed marks pages that loaded but are missing required markers.
	FetchMalformed FetchKind = "malformed"
)

// FetchError is a recoverable page fetch failure. The tracker logs it
// and polls again; it never terminates tracking.
type FetchError struct {
	Kind FetchKind
	Err  error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed (%s): %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(err error) *FetchError {
	return &FetchError{Kind: FetchNetwork, Err: err}
}

// NewMalformedError reports a loaded page missing a required marker.
func NewMalformedError(format string, args ...interface{}) *FetchError {
	return &FetchError{Kind: FetchMalformed, Err: fmt.Errorf(format, args...)}
}

// SubmitError is a transport-level failure of an order attempt, raised
// before any response was obtained. It is fatal to the tracker: an order
// attempt is never silently retried, to avoid duplicating a partially
// accepted order.
type SubmitError struct {
	Err error
}

// Error implements the error interface.
func (e *SubmitError) Error() string {
	return fmt.Sprintf("order submission failed: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *SubmitError) Unwrap() error {
	return e.Err
}
