package resolver

import "errors"

// Config holds resolver settings.
type Config struct {
	// PlaceholderDurationSeconds is the duration given to stand-in records.
	PlaceholderDurationSeconds int `mapstructure:"placeholder_duration_seconds" default:"180"`
	// FragmentSearch enables the trailing-segment strategy for URL item ids.
	FragmentSearch bool `mapstructure:"fragment_search" default:"true"`
	// PlaceholderPrefix starts every placeholder title.
	PlaceholderPrefix string `mapstructure:"placeholder_prefix" default:"[unresolved]"`
}

// Validate checks the placeholder settings.
func (c Config) Validate() error {
	if c.PlaceholderDurationSeconds <= 0 {
		return errors.New("resolver placeholder_duration_seconds must be positive")
	}
	if c.PlaceholderPrefix == "" {
		return errors.New("resolver placeholder_prefix is required")
	}
	return nil
}
