package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hasbegun/argus/internal/domain/entity"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.AnalysisJob) error {
	query := `
		INSERT INTO analysis_jobs (
			id, video_key, object, status, frame_count, match_count,
			attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.VideoKey, job.Object, string(job.Status),
		job.FrameCount, job.MatchCount,
		job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.AnalysisJob) error {
	query := `
		UPDATE analysis_jobs SET
			status=$2, frame_count=$3, match_count=$4,
			attempt=$5, error_message=$6, updated_at=$7, completed_at=$8
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.FrameCount, job.MatchCount,
		job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.AnalysisJob, error) {
	query := `
		SELECT id, video_key, object, status, frame_count, match_count,
			attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		FROM analysis_jobs WHERE id=$1`

	job := &entity.AnalysisJob{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.VideoKey, &job.Object, &status,
		&job.FrameCount, &job.MatchCount,
		&job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
