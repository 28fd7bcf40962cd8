package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/stl2png/pkg/lighting"
	"github.com/Faultbox/stl2png/pkg/material"
	"github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/render"
	"github.com/Faultbox/stl2png/pkg/rgb"
)

// ErrUnknownType is returned for light or material entries with an unrecognized type.
var ErrUnknownType = errors.New("unknown type")

// LightSpec describes one light in a style file.
type LightSpec struct {
	Type      string     `yaml:"type" toml:"type"`
	Color     *rgb.Color `yaml:"color,omitempty" toml:"color,omitempty"`
	Intensity *float64   `yaml:"intensity,omitempty" toml:"intensity,omitempty"`
	// Position is only read for directional lights.
	Position   [3]float64 `yaml:"position,omitempty" toml:"position,omitempty"`
	CastShadow *bool      `yaml:"cast_shadow,omitempty" toml:"cast_shadow,omitempty"`
}

// MaterialSpec describes one fill or edge material in a style file.
// Unset fields take the material factory's defaults.
type MaterialSpec struct {
	Type    string     `yaml:"type" toml:"type"`
	Opacity *float64   `yaml:"opacity,omitempty" toml:"opacity,omitempty"`
	Color   *rgb.Color `yaml:"color,omitempty" toml:"color,omitempty"`
	// OverDraw is in pixels and only read for fill materials.
	OverDraw *float64 `yaml:"over_draw,omitempty" toml:"over_draw,omitempty"`

	// lambert
	Texture      string   `yaml:"texture,omitempty" toml:"texture,omitempty"`
	Mapping      string   `yaml:"mapping,omitempty" toml:"mapping,omitempty"`
	Reflectivity *float64 `yaml:"reflectivity,omitempty" toml:"reflectivity,omitempty"`

	// standard
	Roughness *float64 `yaml:"roughness,omitempty" toml:"roughness,omitempty"`
	Metalness *float64 `yaml:"metalness,omitempty" toml:"metalness,omitempty"`

	// edge
	Width float64 `yaml:"width,omitempty" toml:"width,omitempty"`
}

// LightList is a list of lights that tells nil apart from empty when saved.
type LightList []LightSpec

// IsZero reports whether the list is unset.
func (l LightList) IsZero() bool { return l == nil }

// MaterialList is a list of materials that tells nil apart from empty when saved.
type MaterialList []MaterialSpec

// IsZero reports whether the list is unset.
func (l MaterialList) IsZero() bool { return l == nil }

// Options converts the config into render options. Texture files are read
// relative to the directory of the loaded config file.
func (c *Config) Options() (*render.Options, error) {
	opts := &render.Options{
		Width:           render.Ptr(c.Output.Width),
		Height:          render.Ptr(c.Output.Height),
		BackgroundColor: render.Ptr(c.Output.BackgroundColor),
		BackgroundAlpha: render.Ptr(c.Output.BackgroundAlpha),
		CameraPosition:  &math.Vec3{X: c.Camera.Position[0], Y: c.Camera.Position[1], Z: c.Camera.Position[2]},
		Framing:         render.Ptr(c.Camera.Framing),
	}

	if c.Lights != nil {
		opts.Lights = make([]lighting.Light, 0, len(c.Lights))
		for i, spec := range c.Lights {
			l, err := spec.build()
			if err != nil {
				return nil, fmt.Errorf("lights[%d]: %w", i, err)
			}
			opts.Lights = append(opts.Lights, l)
		}
	}

	if c.Materials != nil {
		opts.Materials = make([]material.Material, 0, len(c.Materials))
		for i, spec := range c.Materials {
			m, err := spec.build(c.dir)
			if err != nil {
				return nil, fmt.Errorf("materials[%d]: %w", i, err)
			}
			opts.Materials = append(opts.Materials, m)
		}
	}

	if c.EdgeMaterials != nil {
		opts.EdgeMaterials = make([]material.Material, 0, len(c.EdgeMaterials))
		for i, spec := range c.EdgeMaterials {
			m, err := spec.build(c.dir)
			if err != nil {
				return nil, fmt.Errorf("edge_materials[%d]: %w", i, err)
			}
			opts.EdgeMaterials = append(opts.EdgeMaterials, m)
		}
	}

	return opts, nil
}

func (s LightSpec) build() (lighting.Light, error) {
	color := rgb.White
	if s.Color != nil {
		color = *s.Color
	}
	intensity := lighting.DefaultIntensity
	if s.Intensity != nil {
		intensity = *s.Intensity
	}

	switch strings.ToLower(s.Type) {
	case "ambient":
		return lighting.NewAmbient(color, intensity)
	case "directional":
		d, err := lighting.NewDirectional(s.Position[0], s.Position[1], s.Position[2], color, intensity)
		if err != nil {
			return nil, err
		}
		if s.CastShadow != nil {
			d.CastShadow = *s.CastShadow
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: light %q", ErrUnknownType, s.Type)
	}
}

func (s MaterialSpec) build(dir string) (material.Material, error) {
	opacity := 1.0
	if s.Opacity != nil {
		opacity = *s.Opacity
	}

	var (
		m   material.Material
		err error
	)
	switch strings.ToLower(s.Type) {
	case "basic":
		m, err = material.NewBasic(opacity, s.colorOr(rgb.White))
	case "lambert":
		m, err = s.lambert(opacity, dir)
	case "standard":
		var st *material.Standard
		st, err = material.NewStandard(opacity, s.colorOr(rgb.White))
		if err == nil {
			if s.Roughness != nil {
				st.Roughness = *s.Roughness
			}
			if s.Metalness != nil {
				st.Metalness = *s.Metalness
			}
			m = st
		}
	case "normal":
		m, err = material.NewNormal(opacity)
	case "edge":
		m, err = material.NewEdge(s.Width, s.colorOr(rgb.Black))
	default:
		return nil, fmt.Errorf("%w: material %q", ErrUnknownType, s.Type)
	}
	if err != nil {
		return nil, err
	}

	if s.OverDraw != nil {
		if surface := surfaceOf(m); surface != nil {
			surface.OverDraw = *s.OverDraw
			if err := m.Validate(); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (s MaterialSpec) lambert(opacity float64, dir string) (*material.Lambert, error) {
	var env *material.EnvironmentTexture
	if s.Texture != "" {
		mapping := material.MappingEquirectangularReflection
		if s.Mapping != "" {
			var err error
			if mapping, err = material.ParseMapping(s.Mapping); err != nil {
				return nil, err
			}
		}

		path := s.Texture
		if !filepath.IsAbs(path) && dir != "" {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading texture: %w", err)
		}
		if env, err = material.NewTexture(data, mapping); err != nil {
			return nil, fmt.Errorf("texture %s: %w", s.Texture, err)
		}
	}

	l, err := material.NewLambert(opacity, env)
	if err != nil {
		return nil, err
	}
	if s.Color != nil {
		l.Color = *s.Color
	}
	if s.Reflectivity != nil {
		l.Reflectivity = *s.Reflectivity
	}
	return l, nil
}

func (s MaterialSpec) colorOr(fallback rgb.Color) rgb.Color {
	if s.Color != nil {
		return *s.Color
	}
	return fallback
}

func surfaceOf(m material.Material) *material.Surface {
	switch m := m.(type) {
	case *material.Basic:
		return &m.Surface
	case *material.Lambert:
		return &m.Surface
	case *material.Standard:
		return &m.Surface
	case *material.Normal:
		return &m.Surface
	}
	return nil
}
