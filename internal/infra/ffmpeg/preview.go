package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/entity"
	"github.com/Kakar21/Videoflix-Backend/internal/domain/port"
	"go.uber.org/zap"
)

// PreviewCutter extracts the quick-look clip from the start of a source.
type PreviewCutter struct {
	runner port.ProcessRunner
	prober port.MediaProber
	bin    string
	logger *zap.Logger
}

func NewPreviewCutter(runner port.ProcessRunner, prober port.MediaProber, bin string, logger *zap.Logger) *PreviewCutter {
	return &PreviewCutter{runner: runner, prober: prober, bin: bin, logger: logger}
}

// Cut writes a clip of up to maxSeconds to destPath and returns the source
// duration. Sources shorter than maxSeconds are truncated to what exists.
func (c *PreviewCutter) Cut(ctx context.Context, srcPath, destPath string, maxSeconds float64) (float64, error) {
	duration, err := c.prober.Duration(ctx, srcPath)
	if err != nil {
		return 0, fmt.Errorf("probe preview source: %w", err)
	}

	clip := maxSeconds
	if duration < clip {
		clip = duration
	}

	res, err := c.runner.Run(ctx, c.bin,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", srcPath,
		"-t", strconv.FormatFloat(clip, 'f', 3, 64),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-movflags", "+faststart",
		destPath,
	)
	if err != nil {
		return 0, fmt.Errorf("run ffmpeg preview: %w", err)
	}
	if res.ExitCode != 0 {
		return 0, fmt.Errorf("%w: preview encode exit %d: %s",
			entity.ErrSourceUnreadable, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}

	c.logger.Info("preview clip written",
		zap.String("dest", destPath),
		zap.Float64("clip_seconds", clip),
		zap.Float64("source_seconds", duration),
	)
	return duration, nil
}
