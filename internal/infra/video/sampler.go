package video

import (
	"context"
	"fmt"
	"math"

	"github.com/hasbegun/argus/internal/domain/entity"
	"github.com/hasbegun/argus/internal/domain/port"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Opener opens video files for per-second frame sampling.
type Opener struct {
	logger *zap.Logger
}

func NewOpener(logger *zap.Logger) *Opener {
	return &Opener{logger: logger}
}

func (o *Opener) Open(ctx context.Context, path string) (port.FrameSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, &entity.StorageError{Op: "open video " + path, Err: err}
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	stride := SampleStride(fps)
	if stride <= 0 {
		capture.Close()
		return nil, &entity.StorageError{
			Op:  "open video " + path,
			Err: fmt.Errorf("unusable frame rate %.3f", fps),
		}
	}

	o.logger.Debug("video opened",
		zap.String("path", path),
		zap.Float64("fps", fps),
		zap.Int("stride", stride),
	)

	return &sampler{
		capture: capture,
		stride:  stride,
		buf:     gocv.NewMat(),
	}, nil
}

// SampleStride converts a reported frame rate into the decode stride: every
// Nth frame is one elapsed second. Non-positive, NaN or sub-0.5 rates have
// no usable stride and return 0.
func SampleStride(fps float64) int {
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		return 0
	}
	return int(math.Round(fps))
}

// SampledSecond maps a raw decoded frame index onto the elapsed second it
// samples, or -1 when the frame is skipped.
func SampledSecond(frameIndex, stride int) int {
	if frameIndex%stride != 0 {
		return -1
	}
	return frameIndex / stride
}

type sampler struct {
	capture  *gocv.VideoCapture
	stride   int
	frameIdx int
	buf      gocv.Mat
}

func (s *sampler) Next() (int, gocv.Mat, bool) {
	for {
		// A failed read mid-stream ends the sequence; no error surfaces.
		if ok := s.capture.Read(&s.buf); !ok || s.buf.Empty() {
			return 0, gocv.Mat{}, false
		}

		idx := s.frameIdx
		s.frameIdx++

		if second := SampledSecond(idx, s.stride); second >= 0 {
			return second, s.buf, true
		}
	}
}

func (s *sampler) Close() error {
	if err := s.buf.Close(); err != nil {
		return err
	}
	return s.capture.Close()
}
