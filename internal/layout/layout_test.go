package layout

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutIsDeterministic(t *testing.T) {
	l := New("/srv/media")

	assert.Equal(t, l.ThumbnailPath(42), l.ThumbnailPath(42))
	assert.Equal(t, l.PreviewPath(42), l.PreviewPath(42))
	assert.Equal(t, l.MasterPlaylistPath(42), l.MasterPlaylistPath(42))
	assert.Equal(t, l.VariantPlaylistPath(42, "720p"), l.VariantPlaylistPath(42, "720p"))
}

func TestLayoutPathsAreNamespacedByID(t *testing.T) {
	l := New("/srv/media")

	assert.Equal(t, filepath.FromSlash("/srv/media/thumbnails/42/thumbnail.jpeg"), l.ThumbnailPath(42))
	assert.Equal(t, filepath.FromSlash("/srv/media/previews/42/preview.mp4"), l.PreviewPath(42))
	assert.Equal(t, filepath.FromSlash("/srv/media/videos/42/master.m3u8"), l.MasterPlaylistPath(42))
	assert.Equal(t, filepath.FromSlash("/srv/media/videos/42/720p/index.m3u8"), l.VariantPlaylistPath(42, "720p"))
	assert.Equal(t, filepath.FromSlash("/srv/media/videos/42/720p/segment_*.ts"), l.SegmentGlob(42, "720p"))
	assert.Equal(t, filepath.FromSlash("/srv/media/videos/42/clip_480p.mp4"), l.RenditionPath(42, "clip", "480p"))
}

func TestLayoutNoCollisionsAcrossIDs(t *testing.T) {
	l := New("/srv/media")

	ids := []int64{1, 2, 4, 12, 21, 42, 421, 1000000007}
	seen := map[string]int64{}
	for _, id := range ids {
		for _, p := range []string{
			l.ThumbnailPath(id),
			l.PreviewPath(id),
			l.MasterPlaylistPath(id),
			l.VariantPlaylistPath(id, "120p"),
			l.RenditionPath(id, "movie", "720p"),
		} {
			if prev, dup := seen[p]; dup {
				t.Fatalf("path %q produced for both id %d and id %d", p, prev, id)
			}
			seen[p] = id
		}
	}
}

func TestVariantDirsAreSiblingsUnderMediaDir(t *testing.T) {
	l := New("/srv/media")

	assert.Equal(t, l.MediaDir(7), filepath.Dir(l.VariantDir(7, "360p")))
	assert.Equal(t, l.VariantDir(7, "360p"), filepath.Dir(l.VariantPlaylistPath(7, "360p")))
	assert.NotEqual(t, l.VariantDir(7, "360p"), l.VariantDir(7, "720p"))
}
