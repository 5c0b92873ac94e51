// Package config provides configuration management for track-resolver.
//
// It uses Viper over environment variables, with an optional .env file
// loaded first through godotenv. Defaults live on the section structs as
// `default` tags next to their `mapstructure` keys.
//
// # Configuration Structure
//
// Each section is declared by the package that consumes it:
//   - Server: operator API port and API key
//   - Log: level and format
//   - Database / Storage: connections for the database and s3 snapshot backends
//   - Lookup: directory API base URL, credentials, timeout and pacing
//   - Fetcher: feed document timeout and size limit
//   - Resolver: placeholder settings and fragment search
//   - Scheduler: batch size, concurrency, retries, throttle backoff, checkpoints
//   - Cache: resolution cache TTL
//   - Snapshot: persistence backend (file, s3, database)
//
// Environment keys are the upper-cased section and field joined by an
// underscore, e.g. SCHEDULER_BATCH_SIZE or LOOKUP_API_SECRET.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
