package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// AnalysisJob tracks one queue-driven analysis of a stored video.
type AnalysisJob struct {
	ID           uuid.UUID
	VideoKey     string
	Object       string
	Status       JobStatus
	FrameCount   int
	MatchCount   int
	Attempt      int
	MaxAttempts  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewAnalysisJob(videoKey, object string, maxAttempts int) *AnalysisJob {
	now := time.Now().UTC()
	return &AnalysisJob{
		ID:          uuid.New(),
		VideoKey:    videoKey,
		Object:      object,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *AnalysisJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *AnalysisJob) MarkCompleted(frameCount, matchCount int) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.FrameCount = frameCount
	j.MatchCount = matchCount
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *AnalysisJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *AnalysisJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
