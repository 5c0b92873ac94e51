package reconcile

import "fmt"

// Snapshot backends accepted by SnapshotConfig.
const (
	BackendFile     = "file"
	BackendObject   = "s3"
	BackendDatabase = "database"
)

// SnapshotConfig selects where the store is persisted.
type SnapshotConfig struct {
	// Backend is one of file, s3 or database.
	Backend string `mapstructure:"backend" default:"file"`
	// Path is the JSON file used by the file backend.
	Path string `mapstructure:"path" default:"data/tracks.json"`
}

// Validate checks the backend name and its required settings.
func (c SnapshotConfig) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.Path == "" {
			return fmt.Errorf("snapshot path is required for the file backend")
		}
	case BackendObject, BackendDatabase:
	default:
		return fmt.Errorf("unknown snapshot backend %q", c.Backend)
	}
	return nil
}
