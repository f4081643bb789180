package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranscodeJobLifecycle(t *testing.T) {
	job := NewTranscodeJob(42, "/uploads/clip.mp4", 3)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.True(t, job.CanRetry())

	job.BeginAttempt()
	assert.Equal(t, JobStatusThumbnail, job.Status)
	assert.Equal(t, 1, job.Attempt)

	job.EnterStage(JobStatusPreview)
	job.EnterStage(JobStatusRendition)
	job.EnterStage(JobStatusRelocate)
	assert.Equal(t, JobStatusRelocate, job.Status)
	assert.False(t, job.IsTerminal())

	job.MarkDone(3, 1, 12.5)
	assert.Equal(t, JobStatusDone, job.Status)
	assert.True(t, job.IsTerminal())
	assert.NotNil(t, job.CompletedAt)
	assert.Equal(t, 3, job.RenditionsDone)
	assert.Equal(t, 1, job.RenditionsFailed)
}

func TestEnterStageIgnoresTerminalStates(t *testing.T) {
	job := NewTranscodeJob(1, "", 3)
	job.BeginAttempt()
	job.EnterStage(JobStatusDone)
	assert.Equal(t, JobStatusThumbnail, job.Status, "terminal transitions must go through MarkDone/MarkFailed")
}

func TestCanRetryExhaustion(t *testing.T) {
	job := NewTranscodeJob(1, "", 2)
	job.BeginAttempt()
	assert.True(t, job.CanRetry())
	job.BeginAttempt()
	assert.False(t, job.CanRetry())
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(ErrSourceUnreadable))
	assert.True(t, IsPermanent(fmt.Errorf("rendition stage: %w", ErrAllRenditionsFailed)))
	assert.False(t, IsPermanent(errors.New("disk full")))
	assert.False(t, IsPermanent(nil))
}

func TestRenditionSpecBandwidth(t *testing.T) {
	spec := RenditionSpec{Label: "720p", Width: 1280, Height: 720, VideoKbps: 3000, AudioKbps: 160}
	assert.Equal(t, 3160000, spec.Bandwidth())
	assert.Equal(t, "1280x720", spec.Resolution())
}

func TestFailedLabels(t *testing.T) {
	catalog := DefaultCatalog()
	results := []RenditionResult{
		{Spec: catalog[0], OK: true},
		{Spec: catalog[1], OK: false},
		{Spec: catalog[2], OK: true},
		{Spec: catalog[3], OK: false},
	}
	assert.Equal(t, []string{"360p", "1080p"}, FailedLabels(results))
	assert.Equal(t, 2, SucceededCount(results))
}
