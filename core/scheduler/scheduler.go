package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"track-resolver/core/logger"
	"track-resolver/core/lookup"
	"track-resolver/core/reconcile"
	"track-resolver/core/resolver"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resolver turns one key into a storable record. See resolver.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, key reconcile.Key, prior int) (reconcile.ResolvedTrack, error)
}

// Store is the part of the reconciliation store the scheduler writes to.
type Store interface {
	Get(feedID, itemID string) (reconcile.ResolvedTrack, error)
	Upsert(t reconcile.ResolvedTrack) (reconcile.ResolvedTrack, error)
	ListPending(state reconcile.State) []reconcile.ResolvedTrack
	Checkpoint(ctx context.Context) error
}

// RunOptions tune a single run.
type RunOptions struct {
	// Force re-resolves references whose records are already settled.
	Force bool
	// RunID names the run. A new uuid is used when empty.
	RunID string
}

// Scheduler runs resolution passes. Runs may overlap; they share the store
// and the throttle pause.
type Scheduler struct {
	resolver Resolver
	store    Store
	cfg      Config
	gate     *pauseGate
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
	logger   *zap.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithClock sets the time source for pauses and reports.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithSleep replaces the context-aware sleep used for every delay.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(s *Scheduler) {
		s.sleep = sleep
	}
}

// New creates a Scheduler.
func New(r Resolver, store Store, cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		resolver: r,
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		sleep:    sleepContext,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.BatchSize <= 0 {
		s.cfg.BatchSize = 1
	}
	if s.cfg.Concurrency <= 0 {
		s.cfg.Concurrency = 1
	}
	if s.cfg.MaxBackoff < s.cfg.ThrottleBackoff {
		s.cfg.MaxBackoff = s.cfg.ThrottleBackoff
	}
	s.gate = &pauseGate{base: s.cfg.ThrottleBackoff, max: s.cfg.MaxBackoff, now: s.now}
	return s
}

// Run resolves refs and stores the results. It only returns an error for
// invalid input; upstream failures end up in records and in the report.
func (s *Scheduler) Run(ctx context.Context, refs []Ref, opts RunOptions) (*Report, error) {
	keys, err := normalize(refs)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, keys, opts), nil
}

// Rerun is the explicit re-resolution pass: every record currently in
// state goes through the pipeline again.
func (s *Scheduler) Rerun(ctx context.Context, state reconcile.State, opts RunOptions) (*Report, error) {
	if _, err := reconcile.ParseState(string(state)); err != nil {
		return nil, err
	}
	pending := s.store.ListPending(state)
	keys := make([]reconcile.Key, 0, len(pending))
	for _, t := range pending {
		keys = append(keys, t.Key())
	}
	opts.Force = true
	return s.run(ctx, keys, opts), nil
}

func (s *Scheduler) run(ctx context.Context, keys []reconcile.Key, opts RunOptions) *Report {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	report := &Report{
		RunID:     opts.RunID,
		StartedAt: s.now(),
		Total:     len(keys),
		Reasons:   []Outcome{},
	}
	log := logger.WithRun(s.logger, report.RunID)
	t := &tally{report: report}

	pending := s.seed(keys, opts, report, log)
	log.Info("Run started",
		zap.Int("refs", len(keys)),
		zap.Int("pending", len(pending)),
		zap.Int("skipped", report.Skipped),
		zap.Bool("force", opts.Force),
	)

	lastCheckpoint := 0
	started := 0
	for start := 0; start < len(pending); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(pending))

		if start > 0 && s.cfg.InterBatchDelay > 0 {
			if err := s.sleep(ctx, s.cfg.InterBatchDelay); err != nil {
				break
			}
		}
		if err := s.gate.wait(ctx, s.sleep); err != nil {
			break
		}

		started += s.runBatch(ctx, pending[start:end], t, log)
		log.Info("Batch finished",
			zap.Int("batch", start/s.cfg.BatchSize+1),
			zap.Int("done", t.count()),
			zap.Int("of", len(pending)),
		)

		if s.cfg.CheckpointEvery > 0 && t.count()-lastCheckpoint >= s.cfg.CheckpointEvery {
			s.checkpoint(ctx, log)
			lastCheckpoint = t.count()
		}
	}

	report.Unfinished = len(pending) - started
	report.Cancelled = ctx.Err() != nil && report.Unfinished > 0
	s.checkpoint(context.WithoutCancel(ctx), log)

	sortOutcomes(report.Reasons)
	report.Elapsed = s.now().Sub(report.StartedAt)
	log.Info("Run finished",
		zap.Int("resolved", report.Resolved),
		zap.Int("placeholder", report.Placeholder),
		zap.Int("failed", report.Failed),
		zap.Int("unfinished", report.Unfinished),
		zap.Int("throttles", report.Throttles),
		zap.Duration("elapsed", report.Elapsed),
		zap.Bool("cancelled", report.Cancelled),
	)
	return report
}

// seed creates Unresolved records for new keys and returns the keys to work.
func (s *Scheduler) seed(keys []reconcile.Key, opts RunOptions, report *Report, log *zap.Logger) []reconcile.Key {
	pending := make([]reconcile.Key, 0, len(keys))
	for _, k := range keys {
		existing, err := s.store.Get(k.FeedID, k.ItemID)
		if err == nil && existing.State.Settled() && !opts.Force {
			report.Skipped++
			continue
		}
		if errors.Is(err, reconcile.ErrNotFound) {
			if _, err := s.store.Upsert(reconcile.NewUnresolved(k.FeedID, k.ItemID)); err != nil {
				log.Error("Failed to seed record", zap.String("key", k.String()), zap.Error(err))
				continue
			}
		}
		pending = append(pending, k)
	}
	return pending
}

// runBatch processes keys with the bounded worker pool and returns how many
// items were started. Workers hold off while the throttle pause is active.
// Once ctx is done no new item starts, but items already running finish on a
// detached context.
func (s *Scheduler) runBatch(ctx context.Context, keys []reconcile.Key, t *tally, log *zap.Logger) int {
	jobs := make(chan reconcile.Key, len(keys))
	for _, k := range keys {
		jobs <- k
	}
	close(jobs)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)
	workers := min(s.cfg.Concurrency, len(keys))
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for k := range jobs {
				// No item starts while the run is paused for throttling.
				if err := s.gate.wait(ctx, s.sleep); err != nil {
					continue
				}
				mu.Lock()
				started++
				mu.Unlock()
				s.process(ctx, k, t, log)
			}
		}()
	}
	wg.Wait()
	return started
}

// process resolves one key, retrying transient failures, and stores the
// outcome. It never panics.
func (s *Scheduler) process(runCtx context.Context, key reconcile.Key, t *tally, log *zap.Logger) {
	ctx := context.WithoutCancel(runCtx)
	log = log.With(zap.String("feed_id", key.FeedID), zap.String("item_id", key.ItemID))

	prior := 0
	if existing, err := s.store.Get(key.FeedID, key.ItemID); err == nil {
		prior = existing.AttemptCount
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered panic while resolving", zap.Any("panic", r), zap.Stack("stack"))
			s.save(failedTrack(key, prior+1, fmt.Sprintf("panic: %v", r), s.now()), t, log)
		}
	}()

	for attempt := 0; ; attempt++ {
		track, err := s.resolver.Resolve(ctx, key, prior)
		if err == nil {
			s.gate.reset()
			s.save(track, t, log)
			return
		}
		if !errors.Is(err, resolver.ErrTransient) || !track.Key().Valid() {
			log.Error("Unexpected resolution error", zap.Error(err))
			s.save(failedTrack(key, prior+1, err.Error(), s.now()), t, log)
			return
		}
		prior = track.AttemptCount

		throttled := resolver.IsThrottled(err)
		if throttled {
			var retryAfter time.Duration
			if te, ok := lookup.AsThrottled(err); ok {
				retryAfter = te.RetryAfter
			}
			if d, started := s.gate.throttle(retryAfter); started {
				t.throttled()
				log.Warn("Throttled, pausing run", zap.Duration("pause", d))
			}
		} else {
			s.gate.reset()
		}

		if attempt >= s.cfg.MaxRetries || runCtx.Err() != nil {
			log.Debug("Giving up", zap.Int("retries", attempt), zap.Error(err))
			s.save(track, t, log)
			return
		}
		t.retried()

		var waitErr error
		if throttled {
			waitErr = s.gate.wait(runCtx, s.sleep)
		} else {
			waitErr = s.sleep(runCtx, s.retryDelay(attempt))
		}
		if waitErr != nil {
			s.save(track, t, log)
			return
		}
	}
}

func (s *Scheduler) retryDelay(attempt int) time.Duration {
	d := s.cfg.RetryDelay
	for i := 0; i < attempt && d < s.cfg.MaxBackoff; i++ {
		d *= 2
	}
	return min(d, s.cfg.MaxBackoff)
}

// save upserts track and tallies the merged record.
func (s *Scheduler) save(track reconcile.ResolvedTrack, t *tally, log *zap.Logger) {
	merged, err := s.store.Upsert(track)
	if err != nil {
		log.Error("Failed to store record", zap.Error(err))
		merged = failedTrack(track.Key(), track.AttemptCount, err.Error(), s.now())
		if _, err := s.store.Upsert(merged); err != nil {
			log.Error("Failed to store failure record", zap.Error(err))
		}
	}
	log.Debug("Stored",
		zap.String("state", string(merged.State)),
		zap.String("strategy", string(merged.Strategy)),
		zap.Int("attempts", merged.AttemptCount),
	)
	t.record(merged)
}

func (s *Scheduler) checkpoint(ctx context.Context, log *zap.Logger) {
	if err := s.store.Checkpoint(ctx); err != nil {
		log.Error("Checkpoint failed", zap.Error(err))
	}
}

func failedTrack(key reconcile.Key, attempts int, reason string, now time.Time) reconcile.ResolvedTrack {
	return reconcile.ResolvedTrack{
		FeedID:          key.FeedID,
		ItemID:          key.ItemID,
		State:           reconcile.StateFailed,
		FailureReason:   reason,
		FailureClass:    reconcile.FailureInternal,
		AttemptCount:    attempts,
		LastAttemptedAt: now,
	}
}
