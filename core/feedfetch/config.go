package feedfetch

import (
	"fmt"
	"time"
)

// Config holds configuration for feed document retrieval.
type Config struct {
	// Timeout bounds a single document fetch.
	Timeout time.Duration `mapstructure:"timeout" default:"15s"`
	// UserAgent identifies this client to feed hosts.
	UserAgent string `mapstructure:"user_agent" default:"track-resolver/1.0"`
	// MaxBodyBytes caps the size of a document that will be parsed.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" default:"20971520"`
}

// Validate checks the configured bounds.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("fetcher timeout must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetcher max body bytes must be positive")
	}
	return nil
}
