package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

var (
	// ErrNotFound is returned when the API has no usable record for the identifier.
	ErrNotFound = errors.New("not found")

	// ErrThrottled is matched by *ThrottledError.
	ErrThrottled = errors.New("throttled")

	// ErrInvalidArgument is returned for empty identifiers.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformed is matched by a *StatusError for an unparsable answer.
	ErrMalformed = errors.New("malformed response")
)

// ThrottledError signals that the caller must back off before retrying.
type ThrottledError struct {
	// RetryAfter is the server's hint; zero when absent.
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("throttled: retry after %s", e.RetryAfter)
	}
	return "throttled"
}

// Is reports ErrThrottled equivalence.
func (e *ThrottledError) Is(target error) bool {
	return target == ErrThrottled
}

// StatusError describes a non-success API answer. It matches ErrNotFound.
type StatusError struct {
	StatusCode int
	Reason     string
	// Malformed marks a 2xx answer that could not be decoded.
	Malformed bool
}

func (e *StatusError) Error() string {
	if e.StatusCode == 0 {
		return "not found: " + e.Reason
	}
	return fmt.Sprintf("not found (HTTP %d): %s", e.StatusCode, e.Reason)
}

// Is reports ErrNotFound equivalence, and ErrMalformed for undecodable answers.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound || (e.Malformed && target == ErrMalformed)
}

// Transient reports whether the upstream failure was server-side.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// AsThrottled extracts a *ThrottledError from err.
func AsThrottled(err error) (*ThrottledError, bool) {
	var te *ThrottledError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsTransient reports whether err is worth retrying: throttling, timeouts,
// network failures and 5xx answers.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrThrottled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return false
}
