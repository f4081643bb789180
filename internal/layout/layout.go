// Package layout maps a video id and asset kind to its canonical location
// on the media volume. All functions are pure: same id in, same path out,
// and two distinct ids never share a path. The serving layer exposes the
// same tree as static URLs, so these paths are the public contract.
package layout

import (
	"fmt"
	"path/filepath"
	"strconv"
)

const (
	thumbnailFile  = "thumbnail.jpeg"
	previewFile    = "preview.mp4"
	masterPlaylist = "master.m3u8"
	variantIndex   = "index.m3u8"
)

// Layout holds the three artifact roots. The zero value is not usable;
// construct with New.
type Layout struct {
	thumbnailsRoot string
	previewsRoot   string
	videosRoot     string
}

// New derives the standard layout under a single media root:
// <root>/thumbnails, <root>/previews, <root>/videos.
func New(mediaRoot string) Layout {
	return Layout{
		thumbnailsRoot: filepath.Join(mediaRoot, "thumbnails"),
		previewsRoot:   filepath.Join(mediaRoot, "previews"),
		videosRoot:     filepath.Join(mediaRoot, "videos"),
	}
}

func idDir(root string, videoID int64) string {
	return filepath.Join(root, strconv.FormatInt(videoID, 10))
}

func (l Layout) ThumbnailDir(videoID int64) string {
	return idDir(l.thumbnailsRoot, videoID)
}

func (l Layout) ThumbnailPath(videoID int64) string {
	return filepath.Join(l.ThumbnailDir(videoID), thumbnailFile)
}

func (l Layout) PreviewDir(videoID int64) string {
	return idDir(l.previewsRoot, videoID)
}

func (l Layout) PreviewPath(videoID int64) string {
	return filepath.Join(l.PreviewDir(videoID), previewFile)
}

// MediaDir is the final directory for all renditions of a video.
func (l Layout) MediaDir(videoID int64) string {
	return idDir(l.videosRoot, videoID)
}

// MasterPlaylistPath is the top-level adaptive-streaming manifest.
func (l Layout) MasterPlaylistPath(videoID int64) string {
	return filepath.Join(l.MediaDir(videoID), masterPlaylist)
}

func (l Layout) VariantDir(videoID int64, label string) string {
	return filepath.Join(l.MediaDir(videoID), label)
}

func (l Layout) VariantPlaylistPath(videoID int64, label string) string {
	return filepath.Join(l.VariantDir(videoID, label), variantIndex)
}

// SegmentGlob matches every media segment of one rendition.
func (l Layout) SegmentGlob(videoID int64, label string) string {
	return filepath.Join(l.VariantDir(videoID, label), "segment_*.ts")
}

// RenditionPath names a standalone (non-segmented) rendition file,
// `<base>_<label>.mp4`, preserving the upload's base name.
func (l Layout) RenditionPath(videoID int64, base, label string) string {
	return filepath.Join(l.MediaDir(videoID), fmt.Sprintf("%s_%s.mp4", base, label))
}
