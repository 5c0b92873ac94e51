package config

import (
	"fmt"
	"reflect"
	"strings"

	"track-resolver/core/cache"
	"track-resolver/core/database"
	"track-resolver/core/feedfetch"
	"track-resolver/core/logger"
	"track-resolver/core/lookup"
	"track-resolver/core/reconcile"
	"track-resolver/core/resolver"
	"track-resolver/core/scheduler"
	"track-resolver/core/server"
	"track-resolver/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Each section is owned by the package that consumes it.
type Config struct {
	// Server holds configuration for the operator HTTP API.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds the connection used by the database snapshot backend.
	Database database.Config `mapstructure:"database"`
	// Storage holds the object storage used by the s3 snapshot backend.
	Storage storage.Config `mapstructure:"storage"`
	// Lookup holds the directory API credentials and pacing.
	Lookup lookup.Config `mapstructure:"lookup"`
	// Fetcher holds feed document retrieval settings.
	Fetcher feedfetch.Config `mapstructure:"fetcher"`
	// Resolver holds strategy and placeholder settings.
	Resolver resolver.Config `mapstructure:"resolver"`
	// Scheduler holds batch, retry and throttling policy.
	Scheduler scheduler.Config `mapstructure:"scheduler"`
	// Cache holds the resolution cache TTL.
	Cache cache.Config `mapstructure:"cache"`
	// Snapshot selects the persistence backend of the store.
	Snapshot reconcile.SnapshotConfig `mapstructure:"snapshot"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Missing .env is fine, the environment may carry everything.
	_ = godotenv.Overload(envPath)

	v := viper.New()
	bindValues(v, Config{}, "")

	// LOOKUP_API_KEY -> lookup.api_key
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate runs every section validator that does not depend on which
// command is running. Directory API credentials are checked by RequireLookup.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"log", c.Log.Validate},
		{"server", c.Server.Validate},
		{"fetcher", c.Fetcher.Validate},
		{"resolver", c.Resolver.Validate},
		{"scheduler", c.Scheduler.Validate},
		{"cache", c.Cache.Validate},
		{"snapshot", c.Snapshot.Validate},
	}
	for _, check := range checks {
		if err := check.fn(); err != nil {
			return fmt.Errorf("invalid %s config: %w", check.name, err)
		}
	}
	if c.Snapshot.Backend == reconcile.BackendObject {
		if err := c.Storage.Validate(); err != nil {
			return fmt.Errorf("invalid storage config: %w", err)
		}
	}
	return nil
}

// RequireLookup validates the directory API section. Commands that only
// read the store skip it.
func (c *Config) RequireLookup() error {
	if err := c.Lookup.Validate(); err != nil {
		return fmt.Errorf("invalid lookup config: %w", err)
	}
	return nil
}

// bindValues registers every tagged field with Viper, recursing into nested
// sections, so AutomaticEnv can resolve them and the default tag applies.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set, even when empty, to register the key for AutomaticEnv.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
