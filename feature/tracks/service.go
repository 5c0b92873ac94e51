package tracks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"track-resolver/core/logger"
	"track-resolver/core/reconcile"
	"track-resolver/core/scheduler"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned when a pass for the same state is running.
var ErrRunInProgress = errors.New("a run for this state is already in progress")

const maxRuns = 50

// Store is the read side of the reconciliation store.
type Store interface {
	Get(feedID, itemID string) (reconcile.ResolvedTrack, error)
	ListPending(state reconcile.State) []reconcile.ResolvedTrack
	Counts() map[reconcile.State]int
	Len() int
}

// Rerunner starts explicit re-resolution passes.
type Rerunner interface {
	Rerun(ctx context.Context, state reconcile.State, opts scheduler.RunOptions) (*scheduler.Report, error)
}

// Summary is the per-state count of the store.
type Summary struct {
	Total  int                     `json:"total"`
	States map[reconcile.State]int `json:"states"`
}

// Page is a slice of records in one state.
type Page struct {
	State  reconcile.State           `json:"state"`
	Total  int                       `json:"total"`
	Offset int                       `json:"offset"`
	Items  []reconcile.ResolvedTrack `json:"items"`
}

// Service serves records and background reruns.
type Service struct {
	store    Store
	rerunner Rerunner
	runs     *registry
	logger   *zap.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a Service. Close cancels reruns still in flight.
func NewService(store Store, rerunner Rerunner, logger *zap.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:    store,
		rerunner: rerunner,
		runs:     newRegistry(maxRuns),
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Get returns one record.
func (s *Service) Get(feedID, itemID string) (reconcile.ResolvedTrack, error) {
	return s.store.Get(feedID, itemID)
}

// List returns records in state, offset and limit applied. A non-positive
// limit returns everything after offset.
func (s *Service) List(state reconcile.State, offset, limit int) Page {
	all := s.store.ListPending(state)
	page := Page{State: state, Total: len(all), Offset: offset, Items: []reconcile.ResolvedTrack{}}
	if offset < 0 || offset >= len(all) {
		return page
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page.Items = all[offset:end]
	return page
}

// Summary returns counts per state.
func (s *Service) Summary() Summary {
	return Summary{Total: s.store.Len(), States: s.store.Counts()}
}

// StartRerun launches a re-resolution pass over state in the background.
func (s *Service) StartRerun(state reconcile.State) (Run, error) {
	if s.ctx.Err() != nil {
		return Run{}, fmt.Errorf("service closed: %w", s.ctx.Err())
	}
	run, ok := s.runs.start(uuid.NewString(), state, s.now())
	if !ok {
		return run, ErrRunInProgress
	}

	log := logger.WithRun(s.logger, run.ID)
	log.Info("Rerun requested", zap.String("state", string(state)))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		report, err := s.rerunner.Rerun(s.ctx, state, scheduler.RunOptions{RunID: run.ID})
		if err != nil {
			log.Error("Rerun failed", zap.Error(err))
		}
		s.runs.finish(run.ID, report, err, s.now())
	}()
	return run, nil
}

// Run returns a background pass by id.
func (s *Service) Run(id string) (Run, bool) {
	return s.runs.get(id)
}

// Runs returns the retained passes, newest first.
func (s *Service) Runs() []Run {
	return s.runs.list()
}

// Close cancels running passes and waits for them to checkpoint.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}
