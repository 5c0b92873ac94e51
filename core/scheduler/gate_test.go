package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPauseGate_Backoff(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := &pauseGate{base: 10 * time.Millisecond, max: 40 * time.Millisecond, now: func() time.Time { return now }}

	d, started := g.throttle(0)
	assert.Equal(t, 10*time.Millisecond, d)
	assert.True(t, started)

	_, started = g.throttle(0)
	assert.False(t, started, "already paused")

	now = now.Add(time.Second)
	d, _ = g.throttle(0)
	assert.Equal(t, 20*time.Millisecond, d)

	now = now.Add(time.Second)
	d, _ = g.throttle(0)
	assert.Equal(t, 40*time.Millisecond, d)

	now = now.Add(time.Second)
	d, _ = g.throttle(0)
	assert.Equal(t, 40*time.Millisecond, d, "capped")

	now = now.Add(time.Second)
	d, _ = g.throttle(5 * time.Second)
	assert.Equal(t, 40*time.Millisecond, d, "retry-after is capped too")

	g.reset()
	now = now.Add(time.Second)
	d, _ = g.throttle(0)
	assert.Equal(t, 10*time.Millisecond, d)
	assert.Equal(t, 10*time.Millisecond, g.remaining())
}

func TestPauseGate_RetryAfterWins(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := &pauseGate{base: 10 * time.Millisecond, max: time.Minute, now: func() time.Time { return now }}

	d, _ := g.throttle(3 * time.Second)
	assert.Equal(t, 3*time.Second, d)
}

func TestPauseGate_Wait(t *testing.T) {
	g := &pauseGate{base: 30 * time.Millisecond, max: time.Second, now: time.Now}
	g.throttle(0)

	start := time.Now()
	require.NoError(t, g.wait(context.Background(), sleepContext))
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	g.throttle(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.wait(ctx, sleepContext), context.Canceled)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{BatchSize: 3, Concurrency: 2, MaxRetries: 1, ThrottleBackoff: time.Second, MaxBackoff: time.Minute}
	assert.NoError(t, valid.Validate())

	broken := []func(*Config){
		func(c *Config) { c.BatchSize = 0 },
		func(c *Config) { c.Concurrency = 0 },
		func(c *Config) { c.MaxRetries = -1 },
		func(c *Config) { c.InterBatchDelay = -time.Second },
		func(c *Config) { c.ThrottleBackoff = 0 },
		func(c *Config) { c.MaxBackoff = time.Millisecond },
	}
	for i, mutate := range broken {
		c := valid
		mutate(&c)
		assert.Error(t, c.Validate(), "case %d", i)
	}
}

func TestNormalize(t *testing.T) {
	keys, err := normalize([]Ref{
		{FeedID: "F", ItemID: "I"},
		{FeedID: " F ", ItemID: "I"},
		{FeedID: "F", ItemID: "J"},
	})
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Equal(t, "J", keys[1].ItemID)

	_, err = normalize([]Ref{{FeedID: "", ItemID: "I"}})
	assert.ErrorIs(t, err, ErrInvalidReference)
}
