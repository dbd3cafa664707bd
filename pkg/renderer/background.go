package renderer

import (
	"math/rand"

	"github.com/df07/scenegraph-raytracer/pkg/core"
)

// skyColor is the gradient color at full height rate
var skyColor = core.NewVec3(67.0/255, 133.0/255, 1)

const (
	horizonOffset  = 0.2   // Rows above this fraction of the image are black
	starBandTop    = 0.35  // Stars appear while the height rate is at most this
	starTaperStart = 0.05  // Below this height rate the star chance is flat
	starFloor      = 0.005 // Flat star chance near the top of the band
	starScale      = 0.003 // Peak of the tapering star chance
	starMinGray    = 55    // Dimmest star, out of 255
	starGrayRange  = 200   // Brightness spread of stars
)

// Background returns the color of a pixel in row y that hit nothing, and whether a star
// was drawn. The gradient depends only on the row. Stars are drawn from random; a nil
// random disables them.
func Background(y, height int, random *rand.Rand) (core.Vec3, bool) {
	heightRate := max(0, float64(y)/float64(height)-horizonOffset)

	if random != nil && heightRate <= starBandTop {
		chance := starFloor
		if heightRate >= starTaperStart {
			chance = (0.4 - heightRate) / starBandTop * starScale
		}

		if random.Float64() <= chance {
			gray := float64(starMinGray+int(random.Float64()*starGrayRange)) / 255
			return core.NewVec3(gray, gray, gray), true
		}
	}

	return skyColor.Multiply(heightRate), false
}
