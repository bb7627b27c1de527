package port

import (
	"context"

	"gocv.io/x/gocv"
)

// FrameSource yields one decoded frame per integer second of playback, in
// increasing order. The source owns the returned Mat; callers must not
// retain it across calls to Next.
type FrameSource interface {
	// Next returns the next sampled frame. ok is false once the source is
	// exhausted or a frame fails to decode mid-stream.
	Next() (second int, frame gocv.Mat, ok bool)
	Close() error
}

// VideoOpener opens a video file for per-second sampling. A source that
// cannot be opened, or that reports a non-positive frame rate, fails with a
// StorageError.
type VideoOpener interface {
	Open(ctx context.Context, path string) (FrameSource, error)
}

// OrientationCorrector applies a rotation fix to a sampled frame. Correct
// always returns a newly allocated Mat owned by the caller; the input is
// left untouched.
type OrientationCorrector interface {
	Correct(frame gocv.Mat) gocv.Mat
}

// CorrectorFactory picks the orientation strategy for one video. Metadata
// strategies probe the container once per video.
type CorrectorFactory interface {
	ForVideo(ctx context.Context, path string) OrientationCorrector
}

// FramePreprocessor enhances a frame and persists it to destPath. An empty
// frame fails with entity.ErrEmptyFrame; the caller skips inference for it
// without aborting the task.
type FramePreprocessor interface {
	Enhance(frame gocv.Mat, destPath string) error
}
