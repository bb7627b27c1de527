package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hasbegun/argus/internal/domain/entity"
	"github.com/hasbegun/argus/internal/domain/port"
	"github.com/hasbegun/argus/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ProcessJobUseCase runs one queued analysis job end to end: fetch the
// stored video, stream the analysis, publish each frame result, and record
// the terminal job status.
type ProcessJobUseCase struct {
	repo     port.JobRepository
	blobs    port.BlobStore
	analyzer *AnalyzeVideoUseCase
	results  port.ResultPublisher
	status   port.StatusPublisher
	dlq      port.DLQPublisher
	notifier port.FailureNotifier
	logger   *zap.Logger

	framesDir string
	maxRetry  int
}

type ProcessJobConfig struct {
	FramesDir  string
	MaxRetries int
}

func NewProcessJobUseCase(
	repo port.JobRepository,
	blobs port.BlobStore,
	analyzer *AnalyzeVideoUseCase,
	results port.ResultPublisher,
	status port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessJobConfig,
) *ProcessJobUseCase {
	return &ProcessJobUseCase{
		repo:      repo,
		blobs:     blobs,
		analyzer:  analyzer,
		results:   results,
		status:    status,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		framesDir: cfg.FramesDir,
		maxRetry:  cfg.MaxRetries,
	}
}

// Execute handles one raw queue message. A nil return acknowledges the
// message; an error return asks the consumer to redeliver it.
func (uc *ProcessJobUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessJobUseCase.Execute")
	defer span.End()

	var msg entity.AnalysisRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewAnalysisJob(msg.VideoKey, msg.Object, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	if err := uc.runAnalysis(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	return nil
}

func (uc *ProcessJobUseCase) runAnalysis(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")
	start := time.Now()

	fetchCtx, fetchSpan := tracer.Start(ctx, "fetch_video")
	sourcePath, cleanup, err := uc.blobs.SourcePath(fetchCtx, msg.VideoKey)
	fetchSpan.End()
	if err != nil {
		log.Error("failed to fetch video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "fetch_video: "+err.Error(), log)
	}
	defer cleanup()

	videoID := strings.TrimSuffix(msg.VideoKey, filepath.Ext(msg.VideoKey))
	task := entity.VideoTask{
		VideoID:        videoID,
		SourcePath:     sourcePath,
		FrameOutputDir: filepath.Join(uc.framesDir, videoID),
	}

	var frameCount, matchCount int
	var streamErr string
	for ev := range uc.analyzer.Stream(ctx, task, msg.Object) {
		uc.publishResult(ctx, job.ID, ev, log)
		if ev.Status == entity.StreamStatusError {
			streamErr = ev.Message
			continue
		}
		frameCount++
		if ev.Frame != nil && ev.Frame.IsMatch {
			matchCount++
		}
	}
	if streamErr != "" {
		log.Error("analysis stream failed", zap.String("reason", streamErr))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "analyze: "+streamErr, log)
	}

	job.MarkCompleted(frameCount, matchCount)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("frame_count", frameCount),
		zap.Int("match_count", matchCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (uc *ProcessJobUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ProcessJobUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *ProcessJobUseCase) publishResult(ctx context.Context, jobID uuid.UUID, ev entity.StreamEvent, log *zap.Logger) {
	resultMsg := entity.AnalysisResultMessage{
		JobID:   jobID,
		Status:  ev.Status,
		Frame:   ev.Frame,
		Message: ev.Message,
	}
	data, _ := json.Marshal(resultMsg)
	if err := uc.results.PublishResult(ctx, data); err != nil {
		log.Error("failed to publish frame result", zap.Error(err))
	}
}

func (uc *ProcessJobUseCase) publishStatus(ctx context.Context, job *entity.AnalysisJob, log *zap.Logger) {
	statusMsg := entity.AnalysisStatusMessage{
		JobID:        job.ID,
		VideoKey:     job.VideoKey,
		Status:       job.Status,
		FrameCount:   job.FrameCount,
		MatchCount:   job.MatchCount,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.status.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
