package domain

import (
	"errors"
	"fmt"
	"time"
)

// ConnectionError indicates the browser endpoint could not be resolved or attached to.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to browser at %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NavigationError indicates the browser failed to load a URL.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates a selector did not resolve within its bound.
type TimeoutError struct {
	Selector string
	Timeout  time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %q: %v", e.Timeout, e.Selector, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// NotFoundError indicates a selector matched nothing on the current page.
type NotFoundError struct {
	Selector string
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("element not found: %q", e.Selector)
	}
	return fmt.Sprintf("element not found: %q: %v", e.Selector, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// FailureReason maps an error to a short label used in logs and metrics.
func FailureReason(err error) string {
	if err == nil {
		return "none"
	}
	var timeout *TimeoutError
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var nav *NavigationError
	if errors.As(err, &nav) {
		return "navigation"
	}
	var conn *ConnectionError
	if errors.As(err, &conn) {
		return "connection"
	}
	if errors.Is(err, ErrSessionClosed) {
		return "session_closed"
	}
	return "other"
}
