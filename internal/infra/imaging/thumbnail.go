// Package imaging adapts uploaded cover images into canonical thumbnails.
package imaging

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/entity"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Thumbnailer resizes and re-encodes cover images to the fixed portrait
// format the frontend expects.
type Thumbnailer struct {
	width   int
	height  int
	quality int
	logger  *zap.Logger
}

func NewThumbnailer(width, height, quality int, logger *zap.Logger) *Thumbnailer {
	return &Thumbnailer{width: width, height: height, quality: quality, logger: logger}
}

// Process decodes srcPath, flattens it to an opaque 3-channel image,
// crops/resizes to the target aspect and writes a JPEG to destPath. The
// JPEG is written to a temp file first and renamed, so destPath never
// holds a partial file.
func (t *Thumbnailer) Process(ctx context.Context, srcPath, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(srcPath); err != nil {
		return fmt.Errorf("%w: thumbnail source %s: %v", entity.ErrSourceUnreadable, srcPath, err)
	}

	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: decode thumbnail %s: %v", entity.ErrSourceUnreadable, srcPath, err)
	}

	thumb := imaging.Fill(flatten(img), t.width, t.height, imaging.Center, imaging.Lanczos)

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create thumbnail temp file: %w", err)
	}
	if err := jpeg.Encode(f, thumb, &jpeg.Options{Quality: t.quality}); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close thumbnail temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("commit thumbnail: %w", err)
	}

	t.logger.Info("thumbnail written",
		zap.String("src", srcPath),
		zap.String("dest", destPath),
	)
	return nil
}

// flatten composites the image over white, dropping any alpha channel so
// the JPEG output is a plain 3-channel image.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	draw.Draw(out, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}
