package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured = errors.New("shop api client not configured: base URL required")
	ErrMissingFilter = errors.New("category and type are required")
)

// NetworkError is a transport-level failure: the request never produced a
// response (connection refused, timeout, open circuit breaker).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a response whose status is outside 2xx.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: shop api returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: shop api returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
