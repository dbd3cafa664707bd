package material

import (
	"math"

	"github.com/df07/scenegraph-raytracer/pkg/core"
	"github.com/df07/scenegraph-raytracer/pkg/geometry"
	"github.com/df07/scenegraph-raytracer/pkg/lights"
)

// ShadowBias offsets shadow probes along the surface normal so a surface does not shadow itself
const ShadowBias = 1e-4

// Occluder answers shadow probes; a scene graph is the usual implementation
type Occluder interface {
	Intersects(ray core.Ray) (geometry.Intersection, bool)
}

// ShadingContext is the read-only state shading needs beyond the hit itself
type ShadingContext struct {
	Eye      core.Vec3      // World-space camera position
	Ambient  core.Vec3      // Ambient light color
	Lights   []lights.Light // Direct lights
	Occluder Occluder       // Scene used for shadow probes (nil disables shadows)
}

// Visibility returns the fraction of the light's samples that can be seen from point,
// together with the number of shadow rays cast. A light without samples is invisible.
func Visibility(point, normal core.Vec3, light lights.Light, occluder Occluder) (float64, int) {
	total := light.NumSamples()
	if total == 0 {
		return 0, 0
	}
	if occluder == nil {
		return 1, 0
	}

	origin := point.Add(normal.Multiply(ShadowBias))
	visible := 0
	for _, sample := range light.Samples {
		// Any hit at all occludes the sample
		if _, hit := occluder.Intersects(core.NewRayFromPoints(origin, sample)); !hit {
			visible++
		}
	}
	return float64(visible) / float64(total), total
}

// phong evaluates ambient*kd + Σ visibility * (diffuse + specular) / attenuation
func phong(m Material, hit geometry.Intersection, ctx ShadingContext) (core.Vec3, int) {
	point := hit.Point
	n := hit.Normal.Normalize()
	v := ctx.Eye.Subtract(point).Normalize()

	color := m.Kd.MultiplyVec(ctx.Ambient)
	shadowRays := 0

	for _, light := range ctx.Lights {
		visibility, cast := Visibility(point, n, light, ctx.Occluder)
		shadowRays += cast
		if visibility == 0 {
			continue
		}

		toLight := light.Position.Subtract(point)
		distance := toLight.Length()
		l := toLight.Normalize()

		lDotN := clamp01(l.Dot(n))
		r := n.Multiply(2 * lDotN).Subtract(l).Normalize()
		rDotV := clamp01(r.Dot(v))

		diffuse := m.Kd.Multiply(lDotN).MultiplyVec(light.Color)
		specular := m.Ks.Multiply(math.Pow(rDotV, m.Shininess)).MultiplyVec(light.Color)

		contribution := diffuse.Add(specular).Multiply(visibility / light.Attenuation(distance))
		color = color.Add(contribution)
	}

	return color, shadowRays
}

func clamp01(x float64) float64 {
	return max(0, min(1, x))
}
