package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hasbegun/argus/internal/domain/entity"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStore keeps blobs in an object-storage bucket. Analysis still runs
// over local files, so SourcePath fetches blobs into tempDir on demand.
type MinIOStore struct {
	client  *miniogo.Client
	bucket  string
	tempDir string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	TempDir   string
}

func NewMinIOStore(cfg MinIOConfig) (*MinIOStore, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOStore{client: client, bucket: cfg.Bucket, tempDir: cfg.TempDir}, nil
}

func (s *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

func (s *MinIOStore) Put(ctx context.Context, key string, srcPath string) error {
	if _, err := s.client.FPutObject(ctx, s.bucket, key, srcPath, miniogo.PutObjectOptions{}); err != nil {
		return &entity.StorageError{Op: "store blob " + key, Err: err}
	}
	if err := os.Remove(srcPath); err != nil {
		return &entity.StorageError{Op: "remove temp " + srcPath, Err: err}
	}
	return nil
}

func (s *MinIOStore) SourcePath(ctx context.Context, key string) (string, func(), error) {
	localPath := filepath.Join(s.tempDir, "fetch_"+uuid.NewString()+"_"+filepath.Base(key))
	if err := s.client.FGetObject(ctx, s.bucket, key, localPath, miniogo.GetObjectOptions{}); err != nil {
		return "", nil, &entity.StorageError{Op: "fetch blob " + key, Err: err}
	}
	cleanup := func() { os.Remove(localPath) }
	return localPath, cleanup, nil
}
