package video

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Prober reads container metadata with ffprobe.
type Prober struct {
	logger *zap.Logger
}

func NewProber(logger *zap.Logger) *Prober {
	return &Prober{logger: logger}
}

// Duration returns the container-reported duration in seconds.
func (p *Prober) Duration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}

// Rotation returns the degrees of clockwise rotation needed to display the
// first video stream upright, derived from the display-matrix side data.
// Zero with nil error means no rotation is recorded.
func (p *Prober) Rotation(ctx context.Context, videoPath string) (int, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream_side_data=rotation",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	rotationStr := strings.TrimSpace(string(output))
	if rotationStr == "" {
		return 0, nil
	}

	// The display matrix stores the recorded rotation; displaying upright
	// takes the opposite turn.
	recorded, err := strconv.Atoi(rotationStr)
	if err != nil {
		return 0, fmt.Errorf("parse rotation %q: %w", rotationStr, err)
	}

	display := ((-recorded % 360) + 360) % 360
	p.logger.Debug("probed rotation",
		zap.String("path", videoPath),
		zap.Int("recorded", recorded),
		zap.Int("display", display),
	)
	return display, nil
}
