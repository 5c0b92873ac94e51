package lookup

import (
	"fmt"
	"time"
)

// Config holds configuration for the directory API client.
type Config struct {
	// BaseURL is the API root, without a trailing slash.
	BaseURL string `mapstructure:"base_url" default:"https://api.podcastindex.org/api/1.0"`
	// APIKey is the shared key sent in X-Auth-Key.
	APIKey string `mapstructure:"api_key" default:""`
	// APISecret is the shared secret folded into the signature.
	APISecret string `mapstructure:"api_secret" default:""`
	// UserAgent identifies this client to the API.
	UserAgent string `mapstructure:"user_agent" default:"track-resolver/1.0"`
	// Timeout bounds every request.
	Timeout time.Duration `mapstructure:"timeout" default:"10s"`
	// RequestsPerSecond paces outbound calls. Zero means unpaced.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" default:"5"`
}

// Validate checks that credentials and bounds are usable.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("lookup base url is required")
	}
	if c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("lookup api key and secret are required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("lookup timeout must be positive")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("lookup requests per second must not be negative")
	}
	return nil
}
