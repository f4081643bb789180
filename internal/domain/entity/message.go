package entity

import "github.com/google/uuid"

// VideoCreatedMessage is the inbound event from the video.transcode queue,
// published by the catalog service when a new video row is created.
//
// SourcePath/ThumbnailPath point into the shared media volume. When the
// deployment ingests uploads through the object store instead, SourceKey
// and ThumbnailKey carry bucket keys and the path fields are empty.
type VideoCreatedMessage struct {
	JobID         uuid.UUID `json:"job_id"`
	VideoID       int64     `json:"video_id"`
	SourcePath    string    `json:"source_path,omitempty"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	SourceKey     string    `json:"source_key,omitempty"`
	ThumbnailKey  string    `json:"thumbnail_key,omitempty"`
	UserEmail     string    `json:"user_email,omitempty"`
}

// VideoDeletedMessage is the inbound event from the video.cleanup queue.
type VideoDeletedMessage struct {
	VideoID int64 `json:"video_id"`
}

// JobStatusMessage is published to the video.status queue on every terminal
// transition so the catalog service can track processing state.
type JobStatusMessage struct {
	JobID            uuid.UUID `json:"job_id"`
	VideoID          int64     `json:"video_id"`
	Status           JobStatus `json:"status"`
	RenditionsDone   int       `json:"renditions_done,omitempty"`
	RenditionsFailed int       `json:"renditions_failed,omitempty"`
	FailedLabels     []string  `json:"failed_labels,omitempty"`
	Duration         float64   `json:"duration_seconds,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	Attempt          int       `json:"attempt"`
	MaxAttempts      int       `json:"max_attempts"`
}
