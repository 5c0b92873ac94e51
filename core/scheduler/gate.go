package scheduler

import (
	"context"
	"sync"
	"time"
)

// pauseGate is the run-wide throttle pause shared by all workers.
type pauseGate struct {
	mu     sync.Mutex
	until  time.Time
	streak int

	base time.Duration
	max  time.Duration
	now  func() time.Time
}

// throttle extends the pause. It reports the pause length and whether a
// new pause started; a throttle seen while already paused only extends it.
func (g *pauseGate) throttle(retryAfter time.Duration) (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	paused := now.Before(g.until)

	d := retryAfter
	if d <= 0 {
		d = g.base
		for i := 0; i < g.streak && d < g.max; i++ {
			d *= 2
		}
	}
	if d > g.max {
		d = g.max
	}

	if !paused {
		g.streak++
	}
	if until := now.Add(d); until.After(g.until) {
		g.until = until
	}
	return d, !paused
}

// reset clears the backoff streak after a call that was not throttled.
func (g *pauseGate) reset() {
	g.mu.Lock()
	g.streak = 0
	g.mu.Unlock()
}

func (g *pauseGate) remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.until.Sub(g.now())
}

// wait blocks until the pause is over or ctx is done.
func (g *pauseGate) wait(ctx context.Context, sleep func(context.Context, time.Duration) error) error {
	for {
		d := g.remaining()
		if d <= 0 {
			return ctx.Err()
		}
		if err := sleep(ctx, d); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
