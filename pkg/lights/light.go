package lights

import "github.com/df07/scenegraph-raytracer/pkg/core"

// LightType names the shape of a light; it is the "type" key of a JSON light
type LightType string

const (
	// LightTypePoint is a light sampled once at its position
	LightTypePoint LightType = "point"
	// LightTypeArea is a square light sampled on a regular grid
	LightTypeArea LightType = "area"
)

// Light is a world-space light with a precomputed set of visibility sample points.
// The fraction of unoccluded samples scales the light's contribution.
type Light struct {
	Type     LightType
	Position core.Vec3   // World-space center
	Color    core.Vec3   // RGB intensity
	Falloff  [3]float64  // Constant, linear and quadratic attenuation coefficients
	Size     float64     // Edge length of an area light (0 for point lights)
	Samples  []core.Vec3 // Points shadow rays are cast towards
}

// NewPointLight creates a light with a single sample at its position
func NewPointLight(position, color core.Vec3, falloff [3]float64) Light {
	return Light{
		Type:     LightTypePoint,
		Position: position,
		Color:    color,
		Falloff:  falloff,
		Samples:  []core.Vec3{position},
	}
}

// NewAreaLight creates a square light of edge length size lying in the XZ plane around center,
// sampled on an n×n grid of cell centers. n <= 0 yields a light with no samples, which never
// contributes.
func NewAreaLight(center, color core.Vec3, falloff [3]float64, size float64, n int) Light {
	light := Light{
		Type:     LightTypeArea,
		Position: center,
		Color:    color,
		Falloff:  falloff,
		Size:     size,
	}
	if n <= 0 {
		return light
	}

	step := size / float64(n)
	corner := center.Subtract(core.NewVec3(size/2, 0, size/2))
	light.Samples = make([]core.Vec3, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			offset := core.NewVec3((float64(i)+0.5)*step, 0, (float64(j)+0.5)*step)
			light.Samples = append(light.Samples, corner.Add(offset))
		}
	}
	return light
}

// NumSamples is the denominator of the visibility fraction
func (l Light) NumSamples() int {
	return len(l.Samples)
}

// Attenuation evaluates c0 + c1*d + c2*d² at distance d.
// A non-positive result is treated as 1 so a misconfigured light cannot divide by zero.
func (l Light) Attenuation(distance float64) float64 {
	a := l.Falloff[0] + l.Falloff[1]*distance + l.Falloff[2]*distance*distance
	if a <= 0 {
		return 1
	}
	return a
}

// SideGrid reports n for an area light built with NewAreaLight, i.e. sqrt(NumSamples)
func (l Light) SideGrid() int {
	n := 0
	for n*n < len(l.Samples) {
		n++
	}
	return n
}
