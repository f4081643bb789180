package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/entity"
	"github.com/Kakar21/Videoflix-Backend/internal/domain/port"
	"go.uber.org/zap"
)

const (
	PackagingHLS = "hls"
	PackagingMP4 = "mp4"

	masterPlaylistName = "master.m3u8"
	variantIndexName   = "index.m3u8"
)

// RenditionEncoder produces the catalog of resolution/bitrate variants for
// one source. In HLS mode each variant becomes a playlist plus 6-second
// segments under its own subdirectory, tied together by a master playlist;
// in MP4 mode each variant is a standalone `<base>_<label>.mp4`.
type RenditionEncoder struct {
	runner         port.ProcessRunner
	bin            string
	mode           string
	segmentSeconds int
	concurrency    int
	logger         *zap.Logger
}

func NewRenditionEncoder(runner port.ProcessRunner, bin, mode string, segmentSeconds, concurrency int, logger *zap.Logger) *RenditionEncoder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &RenditionEncoder{
		runner:         runner,
		bin:            bin,
		mode:           mode,
		segmentSeconds: segmentSeconds,
		concurrency:    concurrency,
		logger:         logger,
	}
}

// EncodeAll runs every catalog entry, bounded by the configured
// concurrency. Each encode writes to its own output path, so the workers
// share nothing but the semaphore. A failed encode is recorded and the
// rest continue; the master playlist lists only the variants that
// succeeded. Only a catalog with zero successes is an error.
func (e *RenditionEncoder) EncodeAll(ctx context.Context, srcPath, outDir string, catalog []entity.RenditionSpec) ([]entity.RenditionResult, error) {
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))

	results := make([]entity.RenditionResult, len(catalog))
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i, spec := range catalog {
		wg.Add(1)
		go func(i int, spec entity.RenditionSpec) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = e.encodeOne(ctx, srcPath, outDir, base, spec)
		}(i, spec)
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.OK {
			succeeded++
		} else {
			e.logger.Warn("rendition encode failed",
				zap.String("label", r.Spec.Label),
				zap.String("detail", r.Detail),
			)
		}
	}
	if succeeded == 0 {
		return results, fmt.Errorf("%w: source %s", entity.ErrAllRenditionsFailed, srcPath)
	}

	if e.mode == PackagingHLS {
		if err := writeMasterPlaylist(filepath.Join(outDir, masterPlaylistName), results); err != nil {
			return results, fmt.Errorf("write master playlist: %w", err)
		}
	}

	e.logger.Info("renditions encoded",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", len(results)-succeeded),
		zap.String("mode", e.mode),
	)
	return results, nil
}

func (e *RenditionEncoder) encodeOne(ctx context.Context, srcPath, outDir, base string, spec entity.RenditionSpec) entity.RenditionResult {
	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", srcPath,
		"-vf", fmt.Sprintf("scale=%d:%d", spec.Width, spec.Height),
		"-c:v", "h264",
		"-b:v", fmt.Sprintf("%dk", spec.VideoKbps),
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%dk", spec.AudioKbps),
	}

	var variantDir, outFile string
	if e.mode == PackagingHLS {
		variantDir = filepath.Join(outDir, spec.Label)
		if err := os.MkdirAll(variantDir, 0o755); err != nil {
			return entity.RenditionResult{Spec: spec, Detail: "create variant dir: " + err.Error()}
		}
		args = append(args,
			"-hls_time", fmt.Sprintf("%d", e.segmentSeconds),
			"-hls_playlist_type", "vod",
			"-hls_segment_filename", filepath.Join(variantDir, "segment_%03d.ts"),
			filepath.Join(variantDir, variantIndexName),
		)
	} else {
		outFile = filepath.Join(outDir, fmt.Sprintf("%s_%s.mp4", base, spec.Label))
		args = append(args, outFile)
	}

	// A failed encode must leave no trace under outDir: the whole scratch
	// media dir is relocated wholesale, so partial segments would end up
	// in the served artifact set.
	fail := func(detail string) entity.RenditionResult {
		if variantDir != "" {
			os.RemoveAll(variantDir)
		}
		if outFile != "" {
			os.Remove(outFile)
		}
		return entity.RenditionResult{Spec: spec, Detail: detail}
	}

	res, err := e.runner.Run(ctx, e.bin, args...)
	if err != nil {
		return fail("spawn ffmpeg: " + err.Error())
	}
	if res.ExitCode != 0 {
		return fail(fmt.Sprintf("ffmpeg exit %d: %s", res.ExitCode, stderrTail(res.Stderr)))
	}
	return entity.RenditionResult{Spec: spec, OK: true}
}

// writeMasterPlaylist emits the multi-bitrate manifest referencing each
// successful variant's playlist, with bandwidth and resolution taken from
// the encode parameters so the two stay consistent.
func writeMasterPlaylist(path string, results []entity.RenditionResult) error {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	for _, r := range results {
		if !r.OK {
			continue
		}
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s\n",
			r.Spec.Bandwidth(), r.Spec.Resolution())
		fmt.Fprintf(&b, "%s/%s\n", r.Spec.Label, variantIndexName)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func stderrTail(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	const max = 400
	if len(s) > max {
		s = "…" + s[len(s)-max:]
	}
	return s
}
