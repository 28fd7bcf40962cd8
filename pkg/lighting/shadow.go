package lighting

import (
	gomath "math"

	"github.com/Faultbox/stl2png/pkg/math"
)

// ShadowCamera is the orthographic frustum a directional light renders its shadow map with.
type ShadowCamera struct {
	Left, Right float64
	Bottom, Top float64
	Near, Far   float64
	Bias        float64
}

// DefaultShadowCamera returns the small fixed shadow frustum directional lights carry.
func DefaultShadowCamera() ShadowCamera {
	return ShadowCamera{
		Left:   -1,
		Right:  1,
		Bottom: -1,
		Top:    1,
		Near:   1,
		Far:    4,
		Bias:   -0.002,
	}
}

// ShadowMatrix returns the light's view-projection for shadow lookups.
func (d *Directional) ShadowMatrix() math.Mat4 {
	dir := d.Direction()

	// Choose an up vector that is not parallel with the light direction
	up := math.Vec3{Y: 1}
	if gomath.Abs(dir.Y) > 0.99 {
		up = math.Vec3{Z: 1}
	}

	view := math.LookAt(d.Position, d.Target, up)
	s := d.Shadow
	proj := math.Ortho(s.Left, s.Right, s.Bottom, s.Top, s.Near, s.Far)
	return proj.Mul(view)
}
