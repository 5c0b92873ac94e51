// Package storage wraps the MinIO Go client behind a small Client interface.
//
// The resolver keeps its snapshot as a single JSON object, so only bucket
// checks and whole-object get/put/stat are exposed. The interface works with
// AWS S3 and self-hosted MinIO, and core/storage/mocks provides a testify
// mock for unit tests.
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
