package scheduler

import (
	"sort"
	"sync"
	"time"

	"track-resolver/core/reconcile"
)

// Outcome is the stored result of one item that did not resolve.
type Outcome struct {
	FeedID string                 `json:"feedId"`
	ItemID string                 `json:"itemId"`
	State  reconcile.State        `json:"state"`
	Class  reconcile.FailureClass `json:"class,omitempty"`
	Reason string                 `json:"reason,omitempty"`
}

// Report summarizes a run.
type Report struct {
	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`
	// Total is the number of distinct references in the run.
	Total int `json:"total"`

	Resolved    int `json:"resolved"`
	Placeholder int `json:"placeholder"`
	// Failed counts items that exhausted their retries on transient errors
	// or hit an internal error. The former are stored as placeholders.
	Failed int `json:"failed"`
	// Skipped counts references already settled before the run.
	Skipped int `json:"skipped"`
	// Unfinished counts items never started because the run was cancelled.
	Unfinished int `json:"unfinished"`

	Retries   int           `json:"retries"`
	Throttles int           `json:"throttles"`
	Elapsed   time.Duration `json:"elapsed"`
	Cancelled bool          `json:"cancelled"`

	// Reasons lists every processed item that did not resolve, by key.
	Reasons []Outcome `json:"reasons"`
}

// tally collects per-item results from concurrent workers.
type tally struct {
	mu       sync.Mutex
	report   *Report
	finished int
}

func (t *tally) record(track reconcile.ResolvedTrack) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finished++

	switch {
	case track.State == reconcile.StateResolved:
		t.report.Resolved++
		return
	case track.State == reconcile.StateFailed, track.FailureClass == reconcile.FailureTransient:
		t.report.Failed++
	default:
		t.report.Placeholder++
	}
	t.report.Reasons = append(t.report.Reasons, Outcome{
		FeedID: track.FeedID,
		ItemID: track.ItemID,
		State:  track.State,
		Class:  track.FailureClass,
		Reason: track.FailureReason,
	})
}

func (t *tally) retried() {
	t.mu.Lock()
	t.report.Retries++
	t.mu.Unlock()
}

func (t *tally) throttled() {
	t.mu.Lock()
	t.report.Throttles++
	t.mu.Unlock()
}

func (t *tally) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

func sortOutcomes(o []Outcome) {
	sort.Slice(o, func(i, j int) bool {
		if o[i].FeedID != o[j].FeedID {
			return o[i].FeedID < o[j].FeedID
		}
		return o[i].ItemID < o[j].ItemID
	})
}
