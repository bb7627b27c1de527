package usecase

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/hasbegun/argus/internal/domain/entity"
	"github.com/hasbegun/argus/internal/domain/port"
	"github.com/hasbegun/argus/internal/infra/metrics"
	"github.com/hasbegun/argus/internal/verdict"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// framePublicRoot is where frame artifacts are served as static content.
const framePublicRoot = "/frames"

// AnalyzeVideoUseCase drives one video through sample, orientation fix,
// contrast enhancement, inference and parsing, emitting one event per
// completed frame in increasing second order.
type AnalyzeVideoUseCase struct {
	opener     port.VideoOpener
	correctors port.CorrectorFactory
	pre        port.FramePreprocessor
	vision     port.VisionClient
	pool       *InferencePool
	logger     *zap.Logger

	// pendingFrames bounds how many sampled frames may await inference at
	// once; the producer blocks beyond it.
	pendingFrames int
}

type AnalyzeVideoConfig struct {
	PendingFrames int
}

func NewAnalyzeVideoUseCase(
	opener port.VideoOpener,
	correctors port.CorrectorFactory,
	pre port.FramePreprocessor,
	vision port.VisionClient,
	pool *InferencePool,
	logger *zap.Logger,
	cfg AnalyzeVideoConfig,
) *AnalyzeVideoUseCase {
	pending := cfg.PendingFrames
	if pending < 1 {
		pending = 1
	}
	return &AnalyzeVideoUseCase{
		opener:        opener,
		correctors:    correctors,
		pre:           pre,
		vision:        vision,
		pool:          pool,
		logger:        logger,
		pendingFrames: pending,
	}
}

// Stream starts the analysis and returns its event channel. The channel is
// closed when the source is exhausted, after a terminal error event, or
// once cancellation has been honored. A fresh call re-decodes and re-infers
// from scratch; there is no checkpointing.
func (uc *AnalyzeVideoUseCase) Stream(ctx context.Context, task entity.VideoTask, objectDescription string) <-chan entity.StreamEvent {
	events := make(chan entity.StreamEvent)
	go uc.run(ctx, task, objectDescription, events)
	return events
}

type frameOutcome struct {
	result entity.FrameResult
	err    error
}

type pendingFrame struct {
	second int
	done   chan frameOutcome
}

func (uc *AnalyzeVideoUseCase) run(ctx context.Context, task entity.VideoTask, objectDescription string, events chan<- entity.StreamEvent) {
	defer close(events)

	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "AnalyzeVideoUseCase.Stream")
	defer span.End()
	span.SetAttributes(
		attribute.String("video.id", task.VideoID),
		attribute.String("analysis.object", objectDescription),
	)

	log := uc.logger.With(zap.String("video_id", task.VideoID))

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	if err := os.MkdirAll(task.FrameOutputDir, 0o755); err != nil {
		log.Error("frame directory creation failed", zap.Error(err))
		emit(ctx, events, entity.ErrorEvent("create frame directory: "+err.Error()))
		return
	}

	_, openSpan := tracer.Start(ctx, "open_video")
	source, err := uc.opener.Open(ctx, task.SourcePath)
	openSpan.End()
	if err != nil {
		log.Error("video open failed", zap.Error(err))
		emit(ctx, events, entity.ErrorEvent(err.Error()))
		return
	}
	defer source.Close()

	corrector := uc.correctors.ForVideo(ctx, task.SourcePath)

	pending := make(chan pendingFrame, uc.pendingFrames)
	emitterDone := make(chan struct{})
	go uc.emitInOrder(ctx, pending, events, log, emitterDone)

	uc.produce(ctx, task, objectDescription, source, corrector, pending, log)

	close(pending)
	<-emitterDone
	log.Info("analysis stream finished")
}

// produce is the sampling loop: decode, correct, enhance, then hand the
// frame's inference to the pool. Per-frame failures skip the frame only.
func (uc *AnalyzeVideoUseCase) produce(
	ctx context.Context,
	task entity.VideoTask,
	objectDescription string,
	source port.FrameSource,
	corrector port.OrientationCorrector,
	pending chan<- pendingFrame,
	log *zap.Logger,
) {
	for {
		// Consumer disconnects stop production at the next iteration
		// boundary; inference already in flight runs to completion.
		if ctx.Err() != nil {
			log.Info("stream cancelled", zap.Error(ctx.Err()))
			return
		}

		second, frame, ok := source.Next()
		if !ok {
			return
		}
		metrics.FramesSampledTotal.Inc()

		framePath := filepath.Join(task.FrameOutputDir, fmt.Sprintf("frame_%d.jpg", second))
		corrected := corrector.Correct(frame)
		err := uc.pre.Enhance(corrected, framePath)
		corrected.Close()
		if err != nil {
			log.Warn("preprocess failed, frame skipped",
				zap.Int("second", second),
				zap.Error(err),
			)
			metrics.FramesAnalyzedTotal.WithLabelValues("skipped").Inc()
			continue
		}

		done := make(chan frameOutcome, 1)
		select {
		case pending <- pendingFrame{second: second, done: done}:
		case <-ctx.Done():
			return
		}

		uc.submitInference(ctx, second, framePath, task.VideoID, objectDescription, done)
	}
}

func (uc *AnalyzeVideoUseCase) submitInference(ctx context.Context, second int, framePath, videoID, objectDescription string, done chan<- frameOutcome) {
	publicPath := path.Join(framePublicRoot, videoID, fmt.Sprintf("frame_%d.jpg", second))

	// The call itself is detached from stream cancellation: in-flight
	// requests run to completion, bounded by the client's own timeout.
	callCtx := context.WithoutCancel(ctx)

	uc.pool.Submit(func() {
		start := time.Now()
		raw, err := uc.vision.AnalyzeFrame(callCtx, framePath, objectDescription)
		metrics.InferenceDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			done <- frameOutcome{err: err}
			return
		}

		v := verdict.Parse(raw)
		done <- frameOutcome{result: entity.FrameResult{
			Second:      second,
			IsMatch:     v.IsMatch,
			Description: v.Description,
			Confidence:  v.Confidence,
			FramePath:   publicPath,
		}}
	})
}

// emitInOrder delivers results strictly by sampling order: each frame's own
// outcome is awaited before the next frame's result may go out, even though
// inference beneath is pipelined.
func (uc *AnalyzeVideoUseCase) emitInOrder(
	ctx context.Context,
	pending <-chan pendingFrame,
	events chan<- entity.StreamEvent,
	log *zap.Logger,
	doneCh chan<- struct{},
) {
	defer close(doneCh)

	delivering := true
	for p := range pending {
		outcome := <-p.done
		if outcome.err != nil {
			log.Warn("frame skipped after inference failure",
				zap.Int("second", p.second),
				zap.Error(outcome.err),
			)
			metrics.FramesAnalyzedTotal.WithLabelValues("skipped").Inc()
			continue
		}
		if !delivering {
			continue
		}
		if emit(ctx, events, entity.SuccessEvent(outcome.result)) {
			metrics.FramesAnalyzedTotal.WithLabelValues("emitted").Inc()
		} else {
			// Consumer is gone; keep draining so workers are not stuck.
			delivering = false
		}
	}
}

func emit(ctx context.Context, events chan<- entity.StreamEvent, ev entity.StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
