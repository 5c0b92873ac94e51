package scheduler

import (
	"errors"
	"time"
)

// Config holds the batch and retry policy.
type Config struct {
	// BatchSize is the number of items per batch.
	BatchSize int `mapstructure:"batch_size" default:"25"`
	// Concurrency bounds the workers inside a batch.
	Concurrency int `mapstructure:"concurrency" default:"4"`
	// InterBatchDelay is slept between batches.
	InterBatchDelay time.Duration `mapstructure:"inter_batch_delay" default:"1s"`
	// MaxRetries is the retry budget per item for transient failures.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// RetryDelay is the first delay between transient retries; it doubles.
	RetryDelay time.Duration `mapstructure:"retry_delay" default:"500ms"`
	// ThrottleBackoff is the first run-wide pause after throttling; it doubles
	// while throttling persists.
	ThrottleBackoff time.Duration `mapstructure:"throttle_backoff" default:"5s"`
	// MaxBackoff caps every pause, Retry-After hints included.
	MaxBackoff time.Duration `mapstructure:"max_backoff" default:"2m"`
	// CheckpointEvery saves the store after this many finished items.
	// Zero saves only at the end of the run.
	CheckpointEvery int `mapstructure:"checkpoint_every" default:"50"`
}

// Validate checks the bounds the scheduler relies on.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return errors.New("scheduler batch_size must be positive")
	}
	if c.Concurrency <= 0 {
		return errors.New("scheduler concurrency must be positive")
	}
	if c.MaxRetries < 0 || c.CheckpointEvery < 0 {
		return errors.New("scheduler max_retries and checkpoint_every must not be negative")
	}
	if c.InterBatchDelay < 0 || c.RetryDelay < 0 {
		return errors.New("scheduler delays must not be negative")
	}
	if c.ThrottleBackoff <= 0 || c.MaxBackoff < c.ThrottleBackoff {
		return errors.New("scheduler throttle_backoff must be positive and not above max_backoff")
	}
	return nil
}
