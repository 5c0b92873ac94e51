package storage

import "errors"

// Config holds configuration for the object storage snapshot backend.
type Config struct {
	// Endpoint is the host of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use TLS.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket holds the snapshot object.
	Bucket string `mapstructure:"bucket" default:"track-resolver"`
	// Object is the key of the snapshot inside Bucket.
	Object string `mapstructure:"object" default:"snapshots/tracks.json"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds bounds connection setup and the first response byte.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// Validate checks the fields NewClient and the snapshot backend rely on.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("storage endpoint is required")
	}
	if c.Bucket == "" || c.Object == "" {
		return errors.New("storage bucket and object are required")
	}
	return nil
}
