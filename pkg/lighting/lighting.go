// Package lighting provides the ambient and directional lights of a scene.
package lighting

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/rgb"
)

// Light errors.
var (
	ErrNonFinite  = errors.New("light parameter is not finite")
	ErrOutOfRange = errors.New("light parameter out of range")
)

// DefaultIntensity is used when a light is built without an explicit intensity.
const DefaultIntensity = 1.0

// Kind names a light variant.
type Kind int

const (
	KindAmbient Kind = iota
	KindDirectional
)

func (k Kind) String() string {
	switch k {
	case KindAmbient:
		return "ambient"
	case KindDirectional:
		return "directional"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Light is an ambient or directional light.
type Light interface {
	Kind() Kind
	Validate() error
}

// Ambient lights every surface equally.
type Ambient struct {
	Color     rgb.Color
	Intensity float64
}

func (*Ambient) Kind() Kind { return KindAmbient }

// Radiance returns color scaled by intensity.
func (a *Ambient) Radiance() rgb.Color {
	return a.Color.Scale(a.Intensity)
}

func (a *Ambient) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: nil ambient light", ErrOutOfRange)
	}
	if err := checkFinite(a.Color, a.Intensity); err != nil {
		return err
	}
	return checkRange(a.Color, a.Intensity)
}

// Directional is a light infinitely far away shining from Position toward Target.
type Directional struct {
	Color      rgb.Color
	Intensity  float64
	Position   math.Vec3
	Target     math.Vec3
	CastShadow bool
	Shadow     ShadowCamera
}

func (*Directional) Kind() Kind { return KindDirectional }

// Radiance returns color scaled by intensity.
func (d *Directional) Radiance() rgb.Color {
	return d.Color.Scale(d.Intensity)
}

// Direction returns the unit vector pointing toward the light.
func (d *Directional) Direction() math.Vec3 {
	return d.Position.Sub(d.Target).Normalize()
}

func (d *Directional) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil directional light", ErrOutOfRange)
	}
	if err := checkFinite(d.Color, d.Intensity); err != nil {
		return err
	}
	if !d.Position.IsFinite() || !d.Target.IsFinite() {
		return fmt.Errorf("%w: position %v target %v", ErrNonFinite, d.Position, d.Target)
	}
	if d.Position.Sub(d.Target).IsZero() {
		return fmt.Errorf("%w: position equals target", ErrOutOfRange)
	}
	return checkRange(d.Color, d.Intensity)
}

// NewAmbient creates an ambient light.
func NewAmbient(color rgb.Color, intensity float64) (*Ambient, error) {
	if err := checkFinite(color, intensity); err != nil {
		return nil, err
	}
	return &Ambient{Color: color, Intensity: intensity}, nil
}

// NewDirectional creates a directional light at (x, y, z) aimed at the origin.
// Shadow casting is enabled with the fixed shadow camera.
func NewDirectional(x, y, z float64, color rgb.Color, intensity float64) (*Directional, error) {
	pos := math.Vec3{X: x, Y: y, Z: z}
	if !pos.IsFinite() {
		return nil, fmt.Errorf("%w: position %v", ErrNonFinite, pos)
	}
	if err := checkFinite(color, intensity); err != nil {
		return nil, err
	}
	return &Directional{
		Color:      color,
		Intensity:  intensity,
		Position:   pos,
		CastShadow: true,
		Shadow:     DefaultShadowCamera(),
	}, nil
}

// Must panics if err is non-nil. It is meant for constant arguments.
func Must[T Light](l T, err error) T {
	if err != nil {
		panic(err)
	}
	return l
}

func checkFinite(c rgb.Color, intensity float64) error {
	if !c.IsFinite() {
		return fmt.Errorf("%w: color %v", ErrNonFinite, c)
	}
	if gomath.IsNaN(intensity) || gomath.IsInf(intensity, 0) {
		return fmt.Errorf("%w: intensity %v", ErrNonFinite, intensity)
	}
	return nil
}

func checkRange(c rgb.Color, intensity float64) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}
	if intensity < 0 {
		return fmt.Errorf("%w: intensity %v", ErrOutOfRange, intensity)
	}
	return nil
}
