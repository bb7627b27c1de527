package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hasbegun/argus/internal/domain/entity"
)

// FilesystemStore keeps blobs as flat files under a base directory.
type FilesystemStore struct {
	baseDir string
}

func NewFilesystemStore(baseDir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FilesystemStore{baseDir: baseDir}, nil
}

func (s *FilesystemStore) Put(ctx context.Context, key string, srcPath string) error {
	dest, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Rename(srcPath, dest); err != nil {
		return &entity.StorageError{Op: "store blob " + key, Err: err}
	}
	return nil
}

func (s *FilesystemStore) SourcePath(ctx context.Context, key string) (string, func(), error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return "", nil, &entity.StorageError{Op: "locate blob " + key, Err: err}
	}
	return path, func() {}, nil
}

// resolve refuses keys that would escape the base directory.
func (s *FilesystemStore) resolve(key string) (string, error) {
	path := filepath.Join(s.baseDir, key)
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(s.baseDir)+string(filepath.Separator)) {
		return "", &entity.StorageError{
			Op:  "resolve blob " + key,
			Err: fmt.Errorf("key escapes storage dir"),
		}
	}
	return path, nil
}
