package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/entity"
	"github.com/Kakar21/Videoflix-Backend/internal/domain/port"
	"github.com/Kakar21/Videoflix-Backend/internal/infra/metrics"
	"github.com/Kakar21/Videoflix-Backend/internal/layout"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	scratchThumbnail = "thumbnail.jpeg"
	scratchPreview   = "preview.mp4"
	scratchMediaDir  = "media"
)

// TranscodeVideoUseCase drives one upload through the pipeline:
// THUMBNAIL → PREVIEW → RENDITION → RELOCATE. All stage outputs land in a
// per-job scratch directory; RELOCATE moves them into the canonical layout
// in one pass, so a crash mid-run never leaves a partially visible
// artifact set.
type TranscodeVideoUseCase struct {
	repo      port.JobRepository
	source    port.SourceStorage
	thumbs    port.ThumbnailProcessor
	preview   port.PreviewCutter
	encoder   port.RenditionEncoder
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	layout    layout.Layout
	catalog   []entity.RenditionSpec
	logger    *zap.Logger
	cfg       TranscodeConfig
}

type TranscodeConfig struct {
	ScratchDir     string
	PreviewSeconds float64
	// PackagingMode decides how a committed rendition set is detected on
	// re-runs: "hls" looks for the master playlist, "mp4" for a non-empty
	// media directory.
	PackagingMode string
	MaxRetries    int
}

func NewTranscodeVideoUseCase(
	repo port.JobRepository,
	source port.SourceStorage,
	thumbs port.ThumbnailProcessor,
	preview port.PreviewCutter,
	encoder port.RenditionEncoder,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	l layout.Layout,
	catalog []entity.RenditionSpec,
	logger *zap.Logger,
	cfg TranscodeConfig,
) *TranscodeVideoUseCase {
	return &TranscodeVideoUseCase{
		repo:      repo,
		source:    source,
		thumbs:    thumbs,
		preview:   preview,
		encoder:   encoder,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		layout:    l,
		catalog:   catalog,
		logger:    logger,
		cfg:       cfg,
	}
}

// OnVideoCreated is the queue handler for video-created events. The
// returned error signals the queue to requeue; permanent failures are
// dead-lettered here and return nil.
func (uc *TranscodeVideoUseCase) OnVideoCreated(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "TranscodeVideoUseCase.OnVideoCreated")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.VideoCreatedMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.Int64("job.video_id", msg.VideoID),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.Int64("video_id", msg.VideoID))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewTranscodeJob(msg.VideoID, msg.SourcePath, uc.cfg.MaxRetries)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if job.Status == entity.JobStatusDone {
		log.Info("job already completed, acking duplicate delivery")
		return nil
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
	}

	job.BeginAttempt()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to THUMBNAIL", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	result, err := uc.runPipeline(ctx, job, msg, log)
	if err != nil {
		if entity.IsPermanent(err) {
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, err.Error())
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, err.Error(), log)
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	log.Info("job completed",
		zap.Int("renditions_done", job.RenditionsDone),
		zap.Int("renditions_failed", job.RenditionsFailed),
		zap.Float64("duration_secs", job.SourceDuration),
		zap.Any("stages", result.Stages),
	)
	return nil
}

func (uc *TranscodeVideoUseCase) runPipeline(
	ctx context.Context,
	job *entity.TranscodeJob,
	msg entity.VideoCreatedMessage,
	log *zap.Logger,
) (*entity.JobResult, error) {
	tracer := otel.Tracer("usecase")

	result := &entity.JobResult{JobID: job.ID, VideoID: job.VideoID}

	workDir := filepath.Join(uc.cfg.ScratchDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return result, fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	srcPath, coverPath, err := uc.resolveSources(ctx, msg, workDir)
	if err != nil {
		return result, err
	}

	// THUMBNAIL
	stageTimer := time.Now()
	ctxTh, spanTh := tracer.Start(ctx, "stage_thumbnail")
	workThumb := ""
	if fileExists(uc.layout.ThumbnailPath(job.VideoID)) {
		result.Record(entity.JobStatusThumbnail, true, true, "committed thumbnail already present")
	} else {
		workThumb = filepath.Join(workDir, scratchThumbnail)
		if err := uc.thumbs.Process(ctxTh, coverPath, workThumb); err != nil {
			spanTh.End()
			result.Record(entity.JobStatusThumbnail, false, false, err.Error())
			return result, fmt.Errorf("thumbnail stage: %w", err)
		}
		result.Record(entity.JobStatusThumbnail, true, false, "")
	}
	spanTh.End()
	metrics.StageDuration.WithLabelValues("thumbnail").Observe(time.Since(stageTimer).Seconds())

	// PREVIEW
	job.EnterStage(entity.JobStatusPreview)
	_ = uc.repo.Update(ctx, job)

	stageTimer = time.Now()
	ctxPv, spanPv := tracer.Start(ctx, "stage_preview")
	workPreview := ""
	var sourceDuration float64
	if fileExists(uc.layout.PreviewPath(job.VideoID)) {
		result.Record(entity.JobStatusPreview, true, true, "committed preview already present")
	} else {
		workPreview = filepath.Join(workDir, scratchPreview)
		sourceDuration, err = uc.preview.Cut(ctxPv, srcPath, workPreview, uc.cfg.PreviewSeconds)
		if err != nil {
			spanPv.End()
			result.Record(entity.JobStatusPreview, false, false, err.Error())
			return result, fmt.Errorf("preview stage: %w", err)
		}
		result.Record(entity.JobStatusPreview, true, false, "")
	}
	spanPv.End()
	metrics.StageDuration.WithLabelValues("preview").Observe(time.Since(stageTimer).Seconds())

	// RENDITION
	job.EnterStage(entity.JobStatusRendition)
	_ = uc.repo.Update(ctx, job)

	stageTimer = time.Now()
	ctxRe, spanRe := tracer.Start(ctx, "stage_rendition")
	workMedia := ""
	if uc.renditionsCommitted(job.VideoID) {
		result.Record(entity.JobStatusRendition, true, true, "committed renditions already present")
	} else {
		workMedia = filepath.Join(workDir, scratchMediaDir)
		if err := os.MkdirAll(workMedia, 0o755); err != nil {
			spanRe.End()
			return result, fmt.Errorf("create scratch media dir: %w", err)
		}
		renditions, err := uc.encoder.EncodeAll(ctxRe, srcPath, workMedia, uc.catalog)
		result.Renditions = renditions
		for _, r := range renditions {
			outcome := "failed"
			if r.OK {
				outcome = "ok"
			}
			metrics.RenditionEncodesTotal.WithLabelValues(r.Spec.Label, outcome).Inc()
		}
		if err != nil {
			spanRe.End()
			result.Record(entity.JobStatusRendition, false, false, err.Error())
			return result, fmt.Errorf("rendition stage: %w", err)
		}
		result.Record(entity.JobStatusRendition, true, false, "")
	}
	spanRe.End()
	metrics.StageDuration.WithLabelValues("rendition").Observe(time.Since(stageTimer).Seconds())

	// RELOCATE — the commit point. Everything below moves scratch output
	// into the canonical layout; before this, nothing is visible.
	job.EnterStage(entity.JobStatusRelocate)
	_ = uc.repo.Update(ctx, job)

	stageTimer = time.Now()
	_, spanRl := tracer.Start(ctx, "stage_relocate")
	if err := uc.relocate(job.VideoID, workThumb, workPreview, workMedia); err != nil {
		spanRl.End()
		result.Record(entity.JobStatusRelocate, false, false, err.Error())
		return result, fmt.Errorf("relocate stage: %w", err)
	}
	result.Record(entity.JobStatusRelocate, true, false, "")
	spanRl.End()
	metrics.StageDuration.WithLabelValues("relocate").Observe(time.Since(stageTimer).Seconds())

	// The uploaded cover image is consumed once the canonical thumbnail
	// is committed, so no orphan remains next to the source.
	if msg.ThumbnailPath != "" && workThumb != "" {
		if err := os.Remove(msg.ThumbnailPath); err != nil && !os.IsNotExist(err) {
			log.Warn("could not remove original thumbnail", zap.String("path", msg.ThumbnailPath), zap.Error(err))
		}
	}

	// Skipped stages (empty work paths) produced nothing this run; the
	// job row already holds their outcome from the run that committed
	// the artifacts.
	done := entity.SucceededCount(result.Renditions)
	failed := len(result.Renditions) - done
	if workMedia == "" {
		done, failed = job.RenditionsDone, job.RenditionsFailed
	}
	if workPreview == "" {
		sourceDuration = job.SourceDuration
	}
	job.MarkDone(done, failed, sourceDuration)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to DONE", zap.Error(err))
		return result, fmt.Errorf("update job done: %w", err)
	}
	result.Status = entity.JobStatusDone

	uc.publishStatus(ctx, job, result, log)
	return result, nil
}

// resolveSources returns local paths for the source media and cover image,
// downloading them from the object store when the message carries keys.
func (uc *TranscodeVideoUseCase) resolveSources(ctx context.Context, msg entity.VideoCreatedMessage, workDir string) (string, string, error) {
	srcPath := msg.SourcePath
	coverPath := msg.ThumbnailPath

	if msg.SourceKey != "" {
		if uc.source == nil {
			return "", "", fmt.Errorf("%w: message carries object keys but no object store is configured", entity.ErrSourceUnreadable)
		}
		srcPath = filepath.Join(workDir, "source"+filepath.Ext(msg.SourceKey))
		if err := uc.source.DownloadObject(ctx, msg.SourceKey, srcPath); err != nil {
			return "", "", fmt.Errorf("download source %s: %w", msg.SourceKey, err)
		}
	}
	if msg.ThumbnailKey != "" {
		if uc.source == nil {
			return "", "", fmt.Errorf("%w: message carries object keys but no object store is configured", entity.ErrSourceUnreadable)
		}
		coverPath = filepath.Join(workDir, "cover"+filepath.Ext(msg.ThumbnailKey))
		if err := uc.source.DownloadObject(ctx, msg.ThumbnailKey, coverPath); err != nil {
			return "", "", fmt.Errorf("download cover %s: %w", msg.ThumbnailKey, err)
		}
	}
	return srcPath, coverPath, nil
}

func (uc *TranscodeVideoUseCase) renditionsCommitted(videoID int64) bool {
	if uc.cfg.PackagingMode == "mp4" {
		return dirNonEmpty(uc.layout.MediaDir(videoID))
	}
	return fileExists(uc.layout.MasterPlaylistPath(videoID))
}

// relocate moves scratch outputs into the canonical layout. Empty inputs
// mean the corresponding stage was skipped on a re-run.
func (uc *TranscodeVideoUseCase) relocate(videoID int64, workThumb, workPreview, workMedia string) error {
	if workThumb != "" {
		if err := moveFile(workThumb, uc.layout.ThumbnailPath(videoID)); err != nil {
			return fmt.Errorf("commit thumbnail: %w", err)
		}
	}
	if workPreview != "" {
		if err := moveFile(workPreview, uc.layout.PreviewPath(videoID)); err != nil {
			return fmt.Errorf("commit preview: %w", err)
		}
	}
	if workMedia != "" {
		if err := moveDirContents(workMedia, uc.layout.MediaDir(videoID)); err != nil {
			return fmt.Errorf("commit renditions: %w", err)
		}
	}
	return nil
}

func (uc *TranscodeVideoUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.TranscodeJob,
	msg entity.VideoCreatedMessage,
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
	uc.publishStatus(ctx, job, nil, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *TranscodeVideoUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.TranscodeJob,
	msg entity.VideoCreatedMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, nil, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" && uc.notifier != nil {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), job.VideoID, errMsg)
	}

	return nil
}

func (uc *TranscodeVideoUseCase) publishStatus(ctx context.Context, job *entity.TranscodeJob, result *entity.JobResult, log *zap.Logger) {
	statusMsg := entity.JobStatusMessage{
		JobID:            job.ID,
		VideoID:          job.VideoID,
		Status:           job.Status,
		RenditionsDone:   job.RenditionsDone,
		RenditionsFailed: job.RenditionsFailed,
		Duration:         job.SourceDuration,
		ErrorMessage:     job.ErrorMessage,
		Attempt:          job.Attempt,
		MaxAttempts:      job.MaxAttempts,
	}
	if result != nil {
		statusMsg.FailedLabels = entity.FailedLabels(result.Renditions)
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
