package video

import (
	"errors"
	"image"

	"github.com/hasbegun/argus/internal/domain/entity"
	"gocv.io/x/gocv"
)

const (
	claheClipLimit = 2.0
	claheTileSize  = 8
	jpegQuality    = 100
)

// CLAHEPreprocessor normalizes frame contrast before inference: the frame is
// moved into Lab space, contrast-limited adaptive histogram equalization is
// applied to the luminance channel only, and the result is written to disk
// at near-lossless JPEG quality.
type CLAHEPreprocessor struct{}

func NewCLAHEPreprocessor() *CLAHEPreprocessor {
	return &CLAHEPreprocessor{}
}

func (p *CLAHEPreprocessor) Enhance(frame gocv.Mat, destPath string) error {
	if frame.Empty() {
		return entity.ErrEmptyFrame
	}

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(frame, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	clahe := gocv.NewCLAHEWithParams(claheClipLimit, image.Pt(claheTileSize, claheTileSize))
	defer clahe.Close()

	equalized := gocv.NewMat()
	defer equalized.Close()
	clahe.Apply(channels[0], &equalized)

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge([]gocv.Mat{equalized, channels[1], channels[2]}, &merged)

	enhanced := gocv.NewMat()
	defer enhanced.Close()
	gocv.CvtColor(merged, &enhanced, gocv.ColorLabToBGR)

	if ok := gocv.IMWriteWithParams(destPath, enhanced, []int{gocv.IMWriteJpegQuality, jpegQuality}); !ok {
		return &entity.StorageError{Op: "write frame " + destPath, Err: errEncodeFrame}
	}
	return nil
}

var errEncodeFrame = errors.New("frame could not be encoded")
