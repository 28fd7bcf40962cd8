package render

import (
	"fmt"
	"slices"

	"github.com/Faultbox/stl2png/pkg/camera"
	"github.com/Faultbox/stl2png/pkg/lighting"
	"github.com/Faultbox/stl2png/pkg/material"
	"github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/rgb"
)

// MaxDimension bounds the output width and height.
const MaxDimension = 16384

// Options is a partial render configuration. A nil field takes its default;
// a non-nil field overrides it, so an empty non-nil slice means "none".
type Options struct {
	Width           *int
	Height          *int
	BackgroundColor *rgb.Color
	BackgroundAlpha *float64
	CameraPosition  *math.Vec3
	Framing         *camera.FramingMode

	Lights        []lighting.Light
	Materials     []material.Material
	EdgeMaterials []material.Material
}

// Ptr returns a pointer to v, for filling Options fields.
func Ptr[T any](v T) *T {
	return &v
}

// Configuration is a fully resolved render configuration.
type Configuration struct {
	Width           int
	Height          int
	BackgroundColor rgb.Color
	BackgroundAlpha float64
	CameraPosition  math.Vec3
	Framing         camera.FramingMode

	Lights        []lighting.Light
	Materials     []material.Material
	EdgeMaterials []material.Material
}

// Defaults returns a freshly built default configuration. Nothing in it is
// shared with other calls.
func Defaults() Configuration {
	return Configuration{
		Width:           768,
		Height:          512,
		BackgroundColor: rgb.White,
		BackgroundAlpha: 0,
		CameraPosition:  math.Vec3{X: 0, Y: -25, Z: 20},
		Framing:         camera.FramingDirection,
		Lights: []lighting.Light{
			lighting.Must(lighting.NewDirectional(0, -25, 100, rgb.White, 1.5)),
			lighting.Must(lighting.NewAmbient(rgb.Hex(0x666666), lighting.DefaultIntensity)),
		},
		Materials: []material.Material{
			material.Must(material.NewStandard(1, rgb.Hex(0xb8cad8))),
		},
		EdgeMaterials: []material.Material{},
	}
}

// Resolve merges opts over Defaults field by field and validates the result.
// A nil opts resolves to the defaults.
func Resolve(opts *Options) (Configuration, error) {
	cfg := Defaults()
	if opts != nil {
		if opts.Width != nil {
			cfg.Width = *opts.Width
		}
		if opts.Height != nil {
			cfg.Height = *opts.Height
		}
		if opts.BackgroundColor != nil {
			cfg.BackgroundColor = *opts.BackgroundColor
		}
		if opts.BackgroundAlpha != nil {
			cfg.BackgroundAlpha = *opts.BackgroundAlpha
		}
		if opts.CameraPosition != nil {
			cfg.CameraPosition = *opts.CameraPosition
		}
		if opts.Framing != nil {
			cfg.Framing = *opts.Framing
		}
		if opts.Lights != nil {
			cfg.Lights = slices.Clone(opts.Lights)
		}
		if opts.Materials != nil {
			cfg.Materials = slices.Clone(opts.Materials)
		}
		if opts.EdgeMaterials != nil {
			cfg.EdgeMaterials = slices.Clone(opts.EdgeMaterials)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Configuration{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return cfg, nil
}

// Validate checks ranges and kinds of every field.
func (c *Configuration) Validate() error {
	if c.Width < 1 || c.Width > MaxDimension {
		return fmt.Errorf("width %d not in 1..%d", c.Width, MaxDimension)
	}
	if c.Height < 1 || c.Height > MaxDimension {
		return fmt.Errorf("height %d not in 1..%d", c.Height, MaxDimension)
	}
	if err := c.BackgroundColor.Validate(); err != nil {
		return fmt.Errorf("background color: %w", err)
	}
	if !math.IsFinite(c.BackgroundAlpha) || c.BackgroundAlpha < 0 || c.BackgroundAlpha > 1 {
		return fmt.Errorf("background alpha %v not in [0, 1]", c.BackgroundAlpha)
	}

	switch c.Framing {
	case camera.FramingDirection:
		if c.CameraPosition.IsZero() {
			return fmt.Errorf("camera position is zero")
		}
	case camera.FramingEye:
	default:
		return fmt.Errorf("%w: %v", camera.ErrUnknownFraming, c.Framing)
	}
	if !c.CameraPosition.IsFinite() {
		return fmt.Errorf("camera position %v is not finite", c.CameraPosition)
	}

	for i, l := range c.Lights {
		if l == nil {
			return fmt.Errorf("lights[%d] is nil", i)
		}
		if err := l.Validate(); err != nil {
			return fmt.Errorf("lights[%d]: %w", i, err)
		}
	}
	for i, m := range c.Materials {
		if m == nil || !material.IsFill(m) {
			return fmt.Errorf("materials[%d] is not a fill material", i)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("materials[%d]: %w", i, err)
		}
	}
	for i, m := range c.EdgeMaterials {
		if e, ok := m.(*material.Edge); !ok || e == nil {
			return fmt.Errorf("edge_materials[%d] is not an edge material", i)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("edge_materials[%d]: %w", i, err)
		}
	}
	return nil
}
