package port

import "context"

// BlobStore persists stored blobs under their content-addressed names.
type BlobStore interface {
	// Put moves the file at srcPath into the store under key. srcPath is
	// consumed: it no longer exists after a successful Put.
	Put(ctx context.Context, key string, srcPath string) error

	// SourcePath materializes the blob at key as a local file and returns
	// its path plus a cleanup func. For a filesystem store this is the
	// stored file itself and cleanup is a no-op.
	SourcePath(ctx context.Context, key string) (string, func(), error)
}
