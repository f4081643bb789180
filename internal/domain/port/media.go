package port

import (
	"context"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/entity"
)

// MediaProber inspects a media file without decoding it.
type MediaProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ThumbnailProcessor turns the uploaded cover image into the canonical
// thumbnail at destPath. The write must be atomic: either a complete file
// exists at destPath afterwards or none does.
type ThumbnailProcessor interface {
	Process(ctx context.Context, srcPath, destPath string) error
}

// PreviewCutter extracts a short, web-playable clip of up to maxSeconds
// from the start of the source. Sources shorter than maxSeconds yield a
// clip of the available length.
type PreviewCutter interface {
	Cut(ctx context.Context, srcPath, destPath string, maxSeconds float64) (float64, error)
}

// RenditionEncoder produces one output per catalog entry under outDir and,
// in segmented mode, a master playlist listing the successful variants.
// Individual encode failures are reported in the results, not as an error;
// the error is entity.ErrAllRenditionsFailed when nothing succeeded.
type RenditionEncoder interface {
	EncodeAll(ctx context.Context, srcPath, outDir string, catalog []entity.RenditionSpec) ([]entity.RenditionResult, error)
}
