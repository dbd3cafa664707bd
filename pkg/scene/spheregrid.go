package scene

import (
	"fmt"
	"math"

	"github.com/df07/scenegraph-raytracer/pkg/core"
	"github.com/df07/scenegraph-raytracer/pkg/geometry"
	"github.com/df07/scenegraph-raytracer/pkg/lights"
	"github.com/df07/scenegraph-raytracer/pkg/material"
)

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return core.NewVec3(r, g, blue).Clamp(0, 1)
}

// sphereGridSize is the number of spheres along each side of the grid
const sphereGridSize = 8

// NewSphereGridScene creates a grid of rainbow-colored spheres. Each row is a group node
// so the grid exercises a two-level hierarchy.
func NewSphereGridScene() *Scene {
	s := NewScene()
	s.Camera = core.CameraConfig{
		Eye:    core.NewVec3(0, 9, 8),
		LookAt: core.NewVec3(0, 0, -4),
		Up:     core.NewVec3(0, 1, 0),
		FovY:   45,
	}
	s.Width = 400
	s.Height = 300

	s.AddLight(lights.NewAreaLight(
		core.NewVec3(-6, 14, 4),
		core.NewVec3(1, 0.95, 0.9),
		[3]float64{1, 0.01, 0},
		3,
		3,
	))

	root := s.RootRef()
	spacing := 1.5
	offset := spacing * float64(sphereGridSize-1) / 2

	// OKLCH parameters for color variation
	baseLightness := 0.65
	minChroma := 0.05
	maxChroma := 0.25

	for i := 0; i < sphereGridSize; i++ {
		row := s.CreateNode(fmt.Sprintf("row-%d", i))
		row.SetPrimitive(geometry.PrimitiveNone)
		row.SetMaterial(material.None())
		mustApply(row.Translate(0, 0, float64(i)*spacing-offset-4))
		mustApply(root.AddChild(row))

		for j := 0; j < sphereGridSize; j++ {
			// Hue across x, chroma across z
			hue := float64(j) / float64(sphereGridSize-1) * 360.0
			chroma := minChroma + float64(i)/float64(sphereGridSize-1)*(maxChroma-minChroma)
			lightness := baseLightness + 0.1*math.Sin(float64(i+j)*0.5)
			color := oklchToRGB(lightness, chroma, hue)

			ball := s.CreateNode(fmt.Sprintf("sphere-%d-%d", i, j))
			ball.SetMaterial(material.NewPhong(color, core.NewVec3(0.6, 0.6, 0.6), 12))
			mustApply(ball.Scale(0.5, 0.5, 0.5))
			mustApply(ball.Translate(float64(j)*spacing-offset, 0, 0))
			mustApply(row.AddChild(ball))
		}
	}

	return s
}
