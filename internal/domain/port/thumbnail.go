package port

import "context"

// Thumbnailer derives a preview image for a stored blob.
type Thumbnailer interface {
	Generate(ctx context.Context, srcPath string, destPath string) error
}
