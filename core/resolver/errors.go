package resolver

import (
	"context"
	"errors"

	"track-resolver/core/feedfetch"
	"track-resolver/core/lookup"
	"track-resolver/core/reconcile"
)

var (
	// ErrTransient wraps failures that another attempt could fix.
	ErrTransient = errors.New("transient resolution failure")

	// ErrNoMatch is returned by a FragmentMatcher that found nothing.
	ErrNoMatch = errors.New("no fragment match")
)

// Classify maps an upstream error onto a failure class.
func Classify(err error) reconcile.FailureClass {
	switch {
	case err == nil:
		return reconcile.FailureNone
	case lookup.IsTransient(err), feedfetch.IsTransient(err), errors.Is(err, context.Canceled):
		return reconcile.FailureTransient
	case errors.Is(err, lookup.ErrMalformed), errors.Is(err, feedfetch.ErrMalformed):
		return reconcile.FailureMalformed
	case errors.Is(err, lookup.ErrNotFound), errors.Is(err, feedfetch.ErrNotFound), errors.Is(err, ErrNoMatch):
		return reconcile.FailureNotFound
	default:
		return reconcile.FailureInternal
	}
}

// IsThrottled reports whether err carries an upstream throttling signal.
func IsThrottled(err error) bool {
	return errors.Is(err, lookup.ErrThrottled)
}
