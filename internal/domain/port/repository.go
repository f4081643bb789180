package port

import (
	"context"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/entity"
	"github.com/google/uuid"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.TranscodeJob) error
	Update(ctx context.Context, job *entity.TranscodeJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.TranscodeJob, error)
}
