package checks

import (
	"context"
	"fmt"
	"time"

	"track-resolver/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// StorageReport describes the s3 snapshot location.
type StorageReport struct {
	Bucket       string     `json:"bucket"`
	Object       string     `json:"object"`
	BucketExists bool       `json:"bucket_exists"`
	ObjectExists bool       `json:"object_exists"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"last_modified,omitempty"`
	Status       string     `json:"status"` // "ok", "empty", "missing"
}

// CheckStorage reports whether the bucket and the snapshot object exist.
// A bucket without a snapshot is "empty": no run has checkpointed yet.
func CheckStorage(ctx context.Context, client storage.Client, bucket, object string) (*StorageReport, error) {
	report := &StorageReport{Bucket: bucket, Object: object, Status: "missing"}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return report, nil
	}
	report.BucketExists = true

	info, err := client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		if storage.IsNotFound(err) {
			report.Status = "empty"
			return report, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", object, err)
	}

	report.ObjectExists = true
	report.Size = info.Size
	modified := info.LastModified
	report.LastModified = &modified
	report.Status = "ok"
	return report, nil
}

// FixStorage creates the bucket when it is missing.
func FixStorage(ctx context.Context, client storage.Client, bucket, region string, logger *zap.Logger) error {
	if err := storage.EnsureBucket(ctx, client, bucket, region); err != nil {
		logger.Error("Failed to create bucket", zap.String("bucket", bucket), zap.Error(err))
		return err
	}
	logger.Info("Snapshot bucket ready", zap.String("bucket", bucket))
	return nil
}
