package integrity

import (
	"context"
	"path/filepath"
	"testing"

	"track-resolver/core/reconcile"
	"track-resolver/core/storage"
	"track-resolver/core/storage/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func testStorageConfig() storage.Config {
	return storage.Config{Bucket: "test-bucket", Object: "snapshots/tracks.json", Region: "us-east-1"}
}

func TestService_NotConfigured(t *testing.T) {
	svc := NewService(nil, testStorageConfig(), nil, reconcile.SnapshotConfig{Backend: "file"}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.CheckStorage(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, svc.FixStorage(ctx), ErrNotConfigured)

	_, err = svc.CheckDatabase()
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, svc.FixDatabase(ctx), ErrNotConfigured)
}

func TestService_Storage(t *testing.T) {
	mockClient := new(mocks.Client)
	svc := NewService(mockClient, testStorageConfig(), nil, reconcile.SnapshotConfig{Backend: "s3"}, zap.NewNop())

	t.Run("FixStorage", func(t *testing.T) {
		mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, nil).Once()
		mockClient.On("MakeBucket", mock.Anything, "test-bucket", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil).Once()
		assert.NoError(t, svc.FixStorage(context.Background()))
	})

	t.Run("CheckStorage", func(t *testing.T) {
		mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil).Once()
		mockClient.On("StatObject", mock.Anything, "test-bucket", "snapshots/tracks.json", mock.Anything).
			Return(minio.ObjectInfo{Size: 10}, nil).Once()

		report, err := svc.CheckStorage(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ok", report.Status)
	})

	mockClient.AssertExpectations(t)
}

func TestService_DatabaseFix(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	svc := NewService(nil, testStorageConfig(), db, reconcile.SnapshotConfig{Backend: "database"}, zap.NewNop())

	report, err := svc.CheckDatabase()
	require.NoError(t, err)
	assert.False(t, report.Matched)

	require.NoError(t, svc.FixDatabase(context.Background()))
	report, err = svc.CheckDatabase()
	require.NoError(t, err)
	assert.True(t, report.Matched)
}

func TestService_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracks.json")
	svc := NewService(nil, testStorageConfig(), nil, reconcile.SnapshotConfig{Backend: "file", Path: path}, zap.NewNop())

	assert.Equal(t, "empty", svc.CheckFile(context.Background()).Status)
	assert.Equal(t, "file", svc.Backend())
}
