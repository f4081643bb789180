package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/entity"
	"github.com/Kakar21/Videoflix-Backend/internal/domain/port"
)

// Prober reads container metadata through ffprobe.
type Prober struct {
	runner port.ProcessRunner
	bin    string
}

func NewProber(runner port.ProcessRunner, bin string) *Prober {
	return &Prober{runner: runner, bin: bin}
}

// Duration returns the source duration in seconds. A probe failure means
// the encoder cannot read the file at all, so it is classified as a
// permanently unreadable source.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	res, err := p.runner.Run(ctx, p.bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	if res.ExitCode != 0 {
		return 0, fmt.Errorf("%w: ffprobe exit %d: %s",
			entity.ErrSourceUnreadable, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}

	durationStr := strings.TrimSpace(string(res.Stdout))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parse ffprobe duration %q: %v",
			entity.ErrSourceUnreadable, durationStr, err)
	}
	return duration, nil
}
