package video

import (
	"context"

	"github.com/hasbegun/argus/internal/domain/port"
	"go.uber.org/zap"
)

// CorrectorFactory selects the configured orientation strategy per video.
type CorrectorFactory struct {
	mode   string
	prober *Prober
	logger *zap.Logger
}

func NewCorrectorFactory(mode string, prober *Prober, logger *zap.Logger) *CorrectorFactory {
	return &CorrectorFactory{mode: mode, prober: prober, logger: logger}
}

func (f *CorrectorFactory) ForVideo(ctx context.Context, path string) port.OrientationCorrector {
	return CorrectorForVideo(ctx, f.mode, f.prober, path, f.logger)
}
