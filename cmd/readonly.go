package cmd

import (
	"context"
	"errors"

	"track-resolver/core/reconcile"
	"track-resolver/core/scheduler"
)

var errReadOnly = errors.New("reruns need lookup credentials (LOOKUP_API_KEY, LOOKUP_API_SECRET)")

// readOnly stands in for the scheduler when the directory API is not configured.
type readOnly struct{}

func (readOnly) Rerun(context.Context, reconcile.State, scheduler.RunOptions) (*scheduler.Report, error) {
	return nil, errReadOnly
}
