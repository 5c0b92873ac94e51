package integrity

import (
	"context"
	"errors"

	"track-resolver/core/reconcile"
	"track-resolver/core/storage"
	"track-resolver/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotConfigured is returned by checks whose backend has no connection.
var ErrNotConfigured = errors.New("backend not configured")

// Service runs health checks against the snapshot backends.
type Service struct {
	client   storage.Client
	storage  storage.Config
	db       *gorm.DB
	snapshot reconcile.SnapshotConfig
	logger   *zap.Logger
}

// NewService creates a new integrity service. client and db may be nil when
// the matching backend is not in use.
func NewService(client storage.Client, storageCfg storage.Config, db *gorm.DB, snapshot reconcile.SnapshotConfig, logger *zap.Logger) *Service {
	return &Service{
		client:   client,
		storage:  storageCfg,
		db:       db,
		snapshot: snapshot,
		logger:   logger,
	}
}

// Backend returns the active snapshot backend.
func (s *Service) Backend() string {
	return s.snapshot.Backend
}

// CheckStorage inspects the s3 bucket and snapshot object.
func (s *Service) CheckStorage(ctx context.Context) (*checks.StorageReport, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}
	return checks.CheckStorage(ctx, s.client, s.storage.Bucket, s.storage.Object)
}

// FixStorage creates the snapshot bucket.
func (s *Service) FixStorage(ctx context.Context) error {
	if s.client == nil {
		return ErrNotConfigured
	}
	return checks.FixStorage(ctx, s.client, s.storage.Bucket, s.storage.Region, s.logger)
}

// CheckDatabase compares the resolved_tracks table with its model.
func (s *Service) CheckDatabase() (*checks.SchemaReport, error) {
	if s.db == nil {
		return nil, ErrNotConfigured
	}
	return checks.CheckSchema(s.db, reconcile.TrackRow{})
}

// FixDatabase migrates the resolved_tracks table.
func (s *Service) FixDatabase(ctx context.Context) error {
	if s.db == nil {
		return ErrNotConfigured
	}
	return reconcile.NewDBSnapshot(s.db).Migrate(ctx)
}

// CheckFile inspects the local snapshot file.
func (s *Service) CheckFile(ctx context.Context) *checks.FileReport {
	return checks.CheckFile(ctx, s.snapshot.Path)
}
