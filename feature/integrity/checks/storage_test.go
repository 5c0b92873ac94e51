package checks

import (
	"context"
	"errors"
	"testing"
	"time"

	"track-resolver/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCheckStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("Bucket Missing", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "tracks").Return(false, nil)

		report, err := CheckStorage(ctx, client, "tracks", "snap.json")
		require.NoError(t, err)
		assert.Equal(t, "missing", report.Status)
		assert.False(t, report.BucketExists)
		client.AssertNotCalled(t, "StatObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Object Missing", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "tracks").Return(true, nil)
		client.On("StatObject", mock.Anything, "tracks", "snap.json", mock.Anything).
			Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"})

		report, err := CheckStorage(ctx, client, "tracks", "snap.json")
		require.NoError(t, err)
		assert.Equal(t, "empty", report.Status)
		assert.True(t, report.BucketExists)
		assert.False(t, report.ObjectExists)
	})

	t.Run("Present", func(t *testing.T) {
		modified := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "tracks").Return(true, nil)
		client.On("StatObject", mock.Anything, "tracks", "snap.json", mock.Anything).
			Return(minio.ObjectInfo{Size: 42, LastModified: modified}, nil)

		report, err := CheckStorage(ctx, client, "tracks", "snap.json")
		require.NoError(t, err)
		assert.Equal(t, "ok", report.Status)
		assert.Equal(t, int64(42), report.Size)
		require.NotNil(t, report.LastModified)
		assert.True(t, modified.Equal(*report.LastModified))
	})

	t.Run("Stat Error", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "tracks").Return(true, nil)
		client.On("StatObject", mock.Anything, "tracks", "snap.json", mock.Anything).
			Return(minio.ObjectInfo{}, errors.New("connection reset"))

		_, err := CheckStorage(ctx, client, "tracks", "snap.json")
		assert.ErrorContains(t, err, "connection reset")
	})

	t.Run("Bucket Error", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "tracks").Return(false, errors.New("denied"))

		_, err := CheckStorage(ctx, client, "tracks", "snap.json")
		assert.Error(t, err)
	})
}

func TestFixStorage(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "tracks").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "tracks", minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil)

	err := FixStorage(context.Background(), client, "tracks", "eu-west-1", zap.NewNop())
	assert.NoError(t, err)
	client.AssertExpectations(t)
}
