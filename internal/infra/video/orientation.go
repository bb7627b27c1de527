package video

import (
	"context"

	"github.com/hasbegun/argus/internal/domain/port"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Rotation is the fix applied to a frame before preprocessing.
type Rotation int

const (
	RotationNone Rotation = iota
	RotationUpsideDown
	RotationQuarterCW
)

// DecideRotation reproduces the historical single-corner-brightness check:
// landscape frames whose top-left first channel outshines the bottom-right
// are assumed upside down; portrait frames are assumed to be phone captures
// and always rotated a quarter turn clockwise. Best-effort only; it misfires
// on plenty of real content, which is why correctors are pluggable.
func DecideRotation(width, height int, topLeft, bottomRight uint8) Rotation {
	if width > height {
		if topLeft > bottomRight {
			return RotationUpsideDown
		}
		return RotationNone
	}
	return RotationQuarterCW
}

// NoopCorrector leaves frames as they are.
type NoopCorrector struct{}

func (NoopCorrector) Correct(frame gocv.Mat) gocv.Mat {
	return frame.Clone()
}

// HeuristicCorrector applies DecideRotation per frame.
type HeuristicCorrector struct{}

func (HeuristicCorrector) Correct(frame gocv.Mat) gocv.Mat {
	rows, cols := frame.Rows(), frame.Cols()
	if rows == 0 || cols == 0 {
		return frame.Clone()
	}

	topLeft := frame.GetVecbAt(0, 0)[0]
	bottomRight := frame.GetVecbAt(rows-1, cols-1)[0]

	switch DecideRotation(cols, rows, topLeft, bottomRight) {
	case RotationUpsideDown:
		return rotated(frame, gocv.Rotate180Clockwise)
	case RotationQuarterCW:
		return rotated(frame, gocv.Rotate90Clockwise)
	default:
		return frame.Clone()
	}
}

// FixedCorrector applies one rotation to every frame of a video. Used when
// the rotation is known up front from container metadata.
type FixedCorrector struct {
	code   gocv.RotateFlag
	rotate bool
}

func (c FixedCorrector) Correct(frame gocv.Mat) gocv.Mat {
	if !c.rotate {
		return frame.Clone()
	}
	return rotated(frame, c.code)
}

func rotated(src gocv.Mat, code gocv.RotateFlag) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Rotate(src, &dst, code)
	return dst
}

// CorrectorForVideo builds the corrector selected by mode. The metadata
// mode probes the container's rotation side data once and falls back to a
// no-op when the probe fails or reports no rotation.
func CorrectorForVideo(ctx context.Context, mode string, prober *Prober, path string, logger *zap.Logger) port.OrientationCorrector {
	switch mode {
	case "heuristic":
		return HeuristicCorrector{}
	case "metadata":
		degrees, err := prober.Rotation(ctx, path)
		if err != nil {
			logger.Warn("rotation probe failed, leaving frames unrotated",
				zap.String("path", path),
				zap.Error(err),
			)
			return NoopCorrector{}
		}
		return correctorForDegrees(degrees)
	default:
		return NoopCorrector{}
	}
}

func correctorForDegrees(degrees int) port.OrientationCorrector {
	degrees = ((degrees % 360) + 360) % 360
	switch degrees {
	case 90:
		return FixedCorrector{code: gocv.Rotate90Clockwise, rotate: true}
	case 180:
		return FixedCorrector{code: gocv.Rotate180Clockwise, rotate: true}
	case 270:
		return FixedCorrector{code: gocv.Rotate90CounterClockwise, rotate: true}
	default:
		return NoopCorrector{}
	}
}
