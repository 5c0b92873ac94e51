package reconcile

import (
	"bytes"
	"context"
	"fmt"

	"track-resolver/core/storage"

	"github.com/minio/minio-go/v7"
)

// ObjectSnapshot keeps the snapshot as a single JSON object in a bucket.
type ObjectSnapshot struct {
	client storage.Client
	bucket string
	object string
}

// NewObjectSnapshot creates an object-storage snapshotter.
func NewObjectSnapshot(client storage.Client, bucket, object string) *ObjectSnapshot {
	return &ObjectSnapshot{client: client, bucket: bucket, object: object}
}

func (o *ObjectSnapshot) Name() string {
	return fmt.Sprintf("s3://%s/%s", o.bucket, o.object)
}

func (o *ObjectSnapshot) Load(ctx context.Context) ([]ResolvedTrack, error) {
	obj, err := o.client.GetObject(ctx, o.bucket, o.object, minio.GetObjectOptions{})
	if err != nil {
		if storage.IsNotFound(err) {
			return []ResolvedTrack{}, nil
		}
		return nil, fmt.Errorf("get snapshot object: %w", err)
	}
	defer obj.Close()

	tracks, err := DecodeSnapshot(obj)
	if err != nil {
		// minio reports a missing key on first read.
		if storage.IsNotFound(err) {
			return []ResolvedTrack{}, nil
		}
		return nil, err
	}
	return tracks, nil
}

func (o *ObjectSnapshot) Save(ctx context.Context, tracks []ResolvedTrack) error {
	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, tracks); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err := o.client.PutObject(ctx, o.bucket, o.object, bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put snapshot object: %w", err)
	}
	return nil
}
