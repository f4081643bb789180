package entity

import "github.com/google/uuid"

// StageResult is the structured outcome of one pipeline stage. Skipped is
// set when a re-run found the stage's committed artifact already in place.
type StageResult struct {
	Stage   JobStatus
	OK      bool
	Skipped bool
	Detail  string
}

// JobResult aggregates per-stage outcomes for one pipeline run. It is
// returned and logged, never persisted.
type JobResult struct {
	JobID      uuid.UUID
	VideoID    int64
	Status     JobStatus
	Stages     []StageResult
	Renditions []RenditionResult
}

func (r *JobResult) Record(stage JobStatus, ok, skipped bool, detail string) {
	r.Stages = append(r.Stages, StageResult{Stage: stage, OK: ok, Skipped: skipped, Detail: detail})
}
