package thumbs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Generator derives bounded JPEG previews for image uploads.
type Generator struct {
	maxSize int
}

func NewGenerator(maxSize int) *Generator {
	return &Generator{maxSize: maxSize}
}

func (g *Generator) Generate(ctx context.Context, srcPath string, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create thumbs dir: %w", err)
	}

	thumb := imaging.Fit(img, g.maxSize, g.maxSize, imaging.Lanczos)
	if err := imaging.Save(thumb, destPath, imaging.JPEGQuality(80)); err != nil {
		return fmt.Errorf("save thumbnail: %w", err)
	}
	return nil
}
