package postgres

import (
	"context"
	"fmt"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.TranscodeJob) error {
	query := `
		INSERT INTO transcode_jobs (
			id, video_id, source_path, status, renditions_done,
			renditions_failed, source_duration, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.VideoID, job.SourcePath, string(job.Status),
		job.RenditionsDone, job.RenditionsFailed, job.SourceDuration,
		job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transcode job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.TranscodeJob) error {
	query := `
		UPDATE transcode_jobs SET
			status=$2, renditions_done=$3, renditions_failed=$4,
			source_duration=$5, attempt=$6, error_message=$7,
			updated_at=$8, completed_at=$9
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.RenditionsDone, job.RenditionsFailed,
		job.SourceDuration, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update transcode job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.TranscodeJob, error) {
	query := `
		SELECT id, video_id, source_path, status, renditions_done,
			renditions_failed, source_duration, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM transcode_jobs WHERE id=$1`

	job := &entity.TranscodeJob{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.VideoID, &job.SourcePath, &status,
		&job.RenditionsDone, &job.RenditionsFailed, &job.SourceDuration,
		&job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find transcode job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
