package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniostorage "github.com/Kakar21/Videoflix-Backend/internal/infra/minio"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

// Exercises the object-store ingest path: an upload lands in the bucket
// and the worker pulls it down into scratch before running the pipeline.
func TestObjectStoreDownload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	minioContainer, err := tcminio.Run(ctx, "minio/minio:RELEASE.2024-01-16T16-07-38Z")
	require.NoError(t, err)
	defer minioContainer.Terminate(ctx)

	endpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     endpoint,
		AccessKey:    minioContainer.Username,
		SecretKey:    minioContainer.Password,
		UseSSL:       false,
		UploadBucket: "uploads",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBucket(ctx))

	// EnsureBucket is idempotent
	require.NoError(t, storage.EnsureBucket(ctx))

	// Seed an uploaded object the way the catalog service would
	client, err := miniogo.New(endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(minioContainer.Username, minioContainer.Password, ""),
		Secure: false,
	})
	require.NoError(t, err)

	body := "not really an mp4, but bytes travel the same"
	_, err = client.PutObject(ctx, "uploads", "videos/42/source.mp4",
		strings.NewReader(body), int64(len(body)),
		miniogo.PutObjectOptions{ContentType: "video/mp4"},
	)
	require.NoError(t, err)

	destPath := filepath.Join(t.TempDir(), "source.mp4")
	require.NoError(t, storage.DownloadObject(ctx, "videos/42/source.mp4", destPath))

	got, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))

	err = storage.DownloadObject(ctx, "videos/42/missing.mp4", filepath.Join(t.TempDir(), "missing.mp4"))
	assert.Error(t, err)
}
