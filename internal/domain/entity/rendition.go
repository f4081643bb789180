package entity

import "fmt"

// RenditionSpec describes one target encoding of a source video.
type RenditionSpec struct {
	Label     string
	Width     int
	Height    int
	VideoKbps int
	AudioKbps int
}

// Bandwidth is the approximate total stream bandwidth in bits per second,
// as advertised in the master playlist.
func (s RenditionSpec) Bandwidth() int {
	return (s.VideoKbps + s.AudioKbps) * 1000
}

func (s RenditionSpec) Resolution() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// DefaultCatalog is the fixed set of renditions produced for every upload,
// ordered lowest effort first.
func DefaultCatalog() []RenditionSpec {
	return []RenditionSpec{
		{Label: "120p", Width: 160, Height: 120, VideoKbps: 400, AudioKbps: 64},
		{Label: "360p", Width: 640, Height: 360, VideoKbps: 1000, AudioKbps: 96},
		{Label: "720p", Width: 1280, Height: 720, VideoKbps: 3000, AudioKbps: 160},
		{Label: "1080p", Width: 1920, Height: 1080, VideoKbps: 5000, AudioKbps: 256},
	}
}

// RenditionResult records the outcome of a single rendition encode.
type RenditionResult struct {
	Spec   RenditionSpec
	OK     bool
	Detail string
}

func FailedLabels(results []RenditionResult) []string {
	var labels []string
	for _, r := range results {
		if !r.OK {
			labels = append(labels, r.Spec.Label)
		}
	}
	return labels
}

func SucceededCount(results []RenditionResult) int {
	n := 0
	for _, r := range results {
		if r.OK {
			n++
		}
	}
	return n
}
