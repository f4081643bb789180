package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/entity"
	"github.com/Kakar21/Videoflix-Backend/internal/domain/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRunner scripts process outcomes per invocation. exitFor decides the
// exit code from the argument list; nil means always 0. onRun, when set,
// runs before the exit code is reported, standing in for whatever the
// process wrote before dying.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	exitFor func(args []string) int
	onRun   func(args []string)
	stderr  string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (port.RunResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	if f.onRun != nil {
		f.onRun(args)
	}
	code := 0
	if f.exitFor != nil {
		code = f.exitFor(args)
	}
	return port.RunResult{ExitCode: code, Stderr: []byte(f.stderr)}, nil
}

func argsContain(args []string, substr string) bool {
	for _, a := range args {
		if strings.Contains(a, substr) {
			return true
		}
	}
	return false
}

func TestEncodeAllHLSExcludesFailedVariantFromMaster(t *testing.T) {
	outDir := t.TempDir()
	runner := &fakeRunner{
		exitFor: func(args []string) int {
			if argsContain(args, "/720p/") {
				return 1
			}
			return 0
		},
		stderr: "Conversion failed!",
	}

	enc := NewRenditionEncoder(runner, "ffmpeg", PackagingHLS, 6, 2, zap.NewNop())
	results, err := enc.EncodeAll(context.Background(), "/src/clip.mp4", outDir, entity.DefaultCatalog())
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, 3, entity.SucceededCount(results))
	assert.Equal(t, []string{"720p"}, entity.FailedLabels(results))

	master, err := os.ReadFile(filepath.Join(outDir, "master.m3u8"))
	require.NoError(t, err)
	text := string(master)

	assert.Equal(t, 3, strings.Count(text, "#EXT-X-STREAM-INF:"))
	assert.NotContains(t, text, "720p/index.m3u8")
	assert.Contains(t, text, "120p/index.m3u8")
	assert.Contains(t, text, "360p/index.m3u8")
	assert.Contains(t, text, "1080p/index.m3u8")
}

func TestEncodeAllMasterBandwidthMatchesCatalog(t *testing.T) {
	outDir := t.TempDir()
	enc := NewRenditionEncoder(&fakeRunner{}, "ffmpeg", PackagingHLS, 6, 1, zap.NewNop())

	_, err := enc.EncodeAll(context.Background(), "/src/clip.mp4", outDir, entity.DefaultCatalog())
	require.NoError(t, err)

	master, err := os.ReadFile(filepath.Join(outDir, "master.m3u8"))
	require.NoError(t, err)
	text := string(master)

	assert.True(t, strings.HasPrefix(text, "#EXTM3U\n"))
	assert.Contains(t, text, "BANDWIDTH=464000,RESOLUTION=160x120")
	assert.Contains(t, text, "BANDWIDTH=1096000,RESOLUTION=640x360")
	assert.Contains(t, text, "BANDWIDTH=3160000,RESOLUTION=1280x720")
	assert.Contains(t, text, "BANDWIDTH=5256000,RESOLUTION=1920x1080")
}

func TestEncodeAllAllFailed(t *testing.T) {
	outDir := t.TempDir()
	runner := &fakeRunner{exitFor: func([]string) int { return 1 }}

	enc := NewRenditionEncoder(runner, "ffmpeg", PackagingHLS, 6, 4, zap.NewNop())
	results, err := enc.EncodeAll(context.Background(), "/src/clip.mp4", outDir, entity.DefaultCatalog())

	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrAllRenditionsFailed))
	assert.Equal(t, 0, entity.SucceededCount(results))

	_, statErr := os.Stat(filepath.Join(outDir, "master.m3u8"))
	assert.True(t, os.IsNotExist(statErr), "no master playlist may exist when every rendition failed")
}

func TestEncodeAllHLSRemovesPartialOutputOfFailedVariant(t *testing.T) {
	outDir := t.TempDir()
	runner := &fakeRunner{
		onRun: func(args []string) {
			// ffmpeg wrote some segments before giving up
			if argsContain(args, "/720p/") {
				_ = os.WriteFile(filepath.Join(outDir, "720p", "segment_000.ts"), []byte("partial"), 0o644)
			}
		},
		exitFor: func(args []string) int {
			if argsContain(args, "/720p/") {
				return 1
			}
			return 0
		},
		stderr: "Conversion failed!",
	}

	enc := NewRenditionEncoder(runner, "ffmpeg", PackagingHLS, 6, 1, zap.NewNop())
	results, err := enc.EncodeAll(context.Background(), "/src/clip.mp4", outDir, entity.DefaultCatalog())
	require.NoError(t, err)
	assert.Equal(t, []string{"720p"}, entity.FailedLabels(results))

	assert.NoDirExists(t, filepath.Join(outDir, "720p"),
		"a failed variant's dir and partial segments must not reach the output dir")
	assert.DirExists(t, filepath.Join(outDir, "1080p"))
}

func TestEncodeAllMP4RemovesPartialFileOfFailedVariant(t *testing.T) {
	outDir := t.TempDir()
	runner := &fakeRunner{
		onRun: func(args []string) {
			if argsContain(args, "_720p.mp4") {
				_ = os.WriteFile(filepath.Join(outDir, "clip_720p.mp4"), []byte("partial"), 0o644)
			}
		},
		exitFor: func(args []string) int {
			if argsContain(args, "_720p.mp4") {
				return 1
			}
			return 0
		},
	}

	enc := NewRenditionEncoder(runner, "ffmpeg", PackagingMP4, 6, 1, zap.NewNop())
	results, err := enc.EncodeAll(context.Background(), "/src/clip.mp4", outDir, entity.DefaultCatalog())
	require.NoError(t, err)
	assert.Equal(t, []string{"720p"}, entity.FailedLabels(results))

	_, statErr := os.Stat(filepath.Join(outDir, "clip_720p.mp4"))
	assert.True(t, os.IsNotExist(statErr), "a partial rendition file must not survive its failed encode")
}

func TestEncodeAllMP4NamesOutputsByBaseAndLabel(t *testing.T) {
	outDir := t.TempDir()
	runner := &fakeRunner{}

	enc := NewRenditionEncoder(runner, "ffmpeg", PackagingMP4, 6, 1, zap.NewNop())
	_, err := enc.EncodeAll(context.Background(), "/uploads/holiday.mov", outDir, entity.DefaultCatalog())
	require.NoError(t, err)

	require.Len(t, runner.calls, 4)
	var outputs []string
	for _, call := range runner.calls {
		outputs = append(outputs, call[len(call)-1])
	}
	assert.Contains(t, outputs, filepath.Join(outDir, "holiday_120p.mp4"))
	assert.Contains(t, outputs, filepath.Join(outDir, "holiday_1080p.mp4"))

	_, statErr := os.Stat(filepath.Join(outDir, "master.m3u8"))
	assert.True(t, os.IsNotExist(statErr), "mp4 mode writes no master playlist")
}

func TestEncodeOneUsesCatalogParameters(t *testing.T) {
	outDir := t.TempDir()
	runner := &fakeRunner{}

	enc := NewRenditionEncoder(runner, "ffmpeg", PackagingHLS, 6, 1, zap.NewNop())
	catalog := []entity.RenditionSpec{{Label: "480p", Width: 854, Height: 480, VideoKbps: 1500, AudioKbps: 128}}

	_, err := enc.EncodeAll(context.Background(), "/src/clip.mp4", outDir, catalog)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	args := runner.calls[0]
	assert.Contains(t, args, "scale=854:480")
	assert.Contains(t, args, "1500k")
	assert.Contains(t, args, "128k")
	assert.Contains(t, args, "-hls_time")
	assert.Contains(t, args, "6")
}
