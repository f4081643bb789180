package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusThumbnail JobStatus = "THUMBNAIL"
	JobStatusPreview   JobStatus = "PREVIEW"
	JobStatusRendition JobStatus = "RENDITION"
	JobStatusRelocate  JobStatus = "RELOCATE"
	JobStatusDone      JobStatus = "DONE"
	JobStatusFailed    JobStatus = "FAILED"
)

// TranscodeJob is the bookkeeping record for one pipeline run over one
// uploaded video. The video row itself is owned by the catalog service;
// the job only references it by id.
type TranscodeJob struct {
	ID               uuid.UUID
	VideoID          int64
	SourcePath       string
	Status           JobStatus
	RenditionsDone   int
	RenditionsFailed int
	SourceDuration   float64
	Attempt          int
	MaxAttempts      int
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

func NewTranscodeJob(videoID int64, sourcePath string, maxAttempts int) *TranscodeJob {
	now := time.Now().UTC()
	return &TranscodeJob{
		ID:          uuid.New(),
		VideoID:     videoID,
		SourcePath:  sourcePath,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// BeginAttempt moves a pending or previously failed job back into the
// pipeline and counts the attempt.
func (j *TranscodeJob) BeginAttempt() {
	j.Status = JobStatusThumbnail
	j.Attempt++
	j.ErrorMessage = ""
	j.UpdatedAt = time.Now().UTC()
}

// EnterStage records progress through the pipeline. Only stage states are
// accepted; terminal transitions go through MarkDone/MarkFailed.
func (j *TranscodeJob) EnterStage(s JobStatus) {
	switch s {
	case JobStatusThumbnail, JobStatusPreview, JobStatusRendition, JobStatusRelocate:
		j.Status = s
		j.UpdatedAt = time.Now().UTC()
	}
}

func (j *TranscodeJob) MarkDone(done, failed int, duration float64) {
	now := time.Now().UTC()
	j.Status = JobStatusDone
	j.RenditionsDone = done
	j.RenditionsFailed = failed
	j.SourceDuration = duration
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *TranscodeJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *TranscodeJob) IsTerminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}

func (j *TranscodeJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
