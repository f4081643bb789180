package imaging

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestProcessProducesFixedSizeJPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cover.png")
	dest := filepath.Join(dir, "out", "thumbnail.jpeg")
	writeTestPNG(t, src, 640, 480)

	th := NewThumbnailer(120, 214, 85, zap.NewNop())
	require.NoError(t, th.Process(context.Background(), src, dest))

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()

	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 214, img.Bounds().Dy())

	_, err = os.Stat(dest + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not survive a successful commit")
}

func TestProcessMissingSource(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "thumbnail.jpeg")

	th := NewThumbnailer(120, 214, 85, zap.NewNop())
	err := th.Process(context.Background(), filepath.Join(dir, "nope.png"), dest)

	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrSourceUnreadable))
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "no file may exist at the destination after a failure")
}

func TestProcessUndecodableSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "garbage.png")
	dest := filepath.Join(dir, "thumbnail.jpeg")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))

	th := NewThumbnailer(120, 214, 85, zap.NewNop())
	err := th.Process(context.Background(), src, dest)

	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrSourceUnreadable))
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}
