package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/entity"
	"github.com/Kakar21/Videoflix-Backend/internal/domain/port"
	"github.com/Kakar21/Videoflix-Backend/internal/infra/metrics"
	"github.com/Kakar21/Videoflix-Backend/internal/layout"
	"go.uber.org/zap"
)

// CleanupVideoUseCase removes every artifact of a deleted video. Deleting
// a path that never existed is a no-op, so cleanup is safe to run for ids
// whose pipeline never completed or already ran cleanup.
type CleanupVideoUseCase struct {
	layout layout.Layout
	dlq    port.DLQPublisher
	logger *zap.Logger
}

func NewCleanupVideoUseCase(l layout.Layout, dlq port.DLQPublisher, logger *zap.Logger) *CleanupVideoUseCase {
	return &CleanupVideoUseCase{layout: l, dlq: dlq, logger: logger}
}

// OnVideoDeleted is the queue handler for video-deleted events.
func (uc *CleanupVideoUseCase) OnVideoDeleted(ctx context.Context, rawMsg []byte) error {
	var msg entity.VideoDeletedMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal cleanup message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	log := uc.logger.With(zap.Int64("video_id", msg.VideoID))

	dirs := []string{
		uc.layout.ThumbnailDir(msg.VideoID),
		uc.layout.PreviewDir(msg.VideoID),
		uc.layout.MediaDir(msg.VideoID),
	}
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			log.Error("failed to remove artifact dir", zap.String("dir", dir), zap.Error(err))
			return fmt.Errorf("remove %s: %w", dir, err)
		}
	}

	metrics.CleanupsTotal.Inc()
	log.Info("artifacts removed")
	return nil
}
