package publix

import (
	"errors"
	"fmt"
)

// NetworkError is a transport failure or a retryable upstream status
// (5xx, 429). the fetch path backs these off and retries, every other
// failure surfaces immediately.
type NetworkError struct {
	Op    string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// ParseError is a response body in a shape the client doesn't
// recognize. never retried.
type ParseError struct {
	Op    string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether another attempt at the failed request
// could plausibly succeed.
func Retryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
