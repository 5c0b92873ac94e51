package tracks

import (
	"sort"
	"sync"
	"time"

	"track-resolver/core/reconcile"
	"track-resolver/core/scheduler"
)

// RunStatus is the lifecycle of a background pass.
type RunStatus string

const (
	RunRunning  RunStatus = "running"
	RunFinished RunStatus = "finished"
	RunFailed   RunStatus = "failed"
)

// Run is a background re-resolution pass started over HTTP.
type Run struct {
	ID         string            `json:"id"`
	State      reconcile.State   `json:"state"`
	Status     RunStatus         `json:"status"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
	Report     *scheduler.Report `json:"report,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// registry keeps the most recent runs. Finished runs are evicted oldest
// first once limit is reached; running ones are never evicted.
type registry struct {
	mu    sync.RWMutex
	runs  map[string]*Run
	limit int
}

func newRegistry(limit int) *registry {
	return &registry{runs: make(map[string]*Run), limit: limit}
}

// start records a running pass unless one is already running for state.
func (r *registry) start(id string, state reconcile.State, now time.Time) (Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.State == state && run.Status == RunRunning {
			return *run, false
		}
	}
	r.evict()
	run := &Run{ID: id, State: state, Status: RunRunning, StartedAt: now}
	r.runs[id] = run
	return *run, true
}

func (r *registry) finish(id string, report *scheduler.Report, err error, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return
	}
	run.FinishedAt = &now
	run.Report = report
	run.Status = RunFinished
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
	}
}

func (r *registry) get(id string) (Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// list returns runs newest first.
func (r *registry) list() []Run {
	r.mu.RLock()
	out := make([]Run, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, *run)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// evict must be called with mu held.
func (r *registry) evict() {
	for len(r.runs) >= r.limit {
		var oldest *Run
		for _, run := range r.runs {
			if run.Status == RunRunning {
				continue
			}
			if oldest == nil || run.StartedAt.Before(oldest.StartedAt) {
				oldest = run
			}
		}
		if oldest == nil {
			return
		}
		delete(r.runs, oldest.ID)
	}
}
