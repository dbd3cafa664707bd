package renderer

import (
	"time"

	"github.com/df07/scenegraph-raytracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels      int           // Total number of pixels rendered
	HitPixels        int           // Pixels whose primary ray hit a node
	BackgroundPixels int           // Pixels that showed the background
	StarPixels       int           // Background pixels replaced by a star
	FallbackPixels   int           // Pixels that failed numerically and show background instead
	ShadowRays       int           // Shadow probes cast while shading
	TilesRendered    int           // Tiles completed
	Duration         time.Duration // Wall time of the whole render
}

// Add accumulates per-tile statistics
func (s *RenderStats) Add(other RenderStats) {
	s.TotalPixels += other.TotalPixels
	s.HitPixels += other.HitPixels
	s.BackgroundPixels += other.BackgroundPixels
	s.StarPixels += other.StarPixels
	s.FallbackPixels += other.FallbackPixels
	s.ShadowRays += other.ShadowRays
	s.TilesRendered += other.TilesRendered
}

// AverageLuminance returns the mean Rec. 709 luminance of an RGBA8 buffer, in [0,1]
func AverageLuminance(pix []byte) float64 {
	pixels := len(pix) / 4
	if pixels == 0 {
		return 0
	}

	total := 0.0
	for i := 0; i < pixels; i++ {
		c := core.NewVec3(float64(pix[4*i]), float64(pix[4*i+1]), float64(pix[4*i+2])).Multiply(1.0 / 255)
		total += c.Luminance()
	}
	return total / float64(pixels)
}
