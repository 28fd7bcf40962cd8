// Package material defines the surface and edge shading variants handed to the rasterizer.
//
// Fill variants (Basic, Lambert, Standard, Normal) embed a Surface carrying opacity,
// the double-sided flag and the over-draw hint. Edge is used only for line overlays.
package material

import (
	"errors"
	"fmt"

	"github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/rgb"
)

// Material errors.
var (
	ErrNonFinite  = errors.New("material parameter is not finite")
	ErrOutOfRange = errors.New("material parameter out of range")
)

// Default over-draw per fill variant, in pixels.
const (
	BasicOverDraw    = 0.1
	LambertOverDraw  = 0.5
	StandardOverDraw = 0.55
	NormalOverDraw   = 0.2
)

// Kind names a material variant.
type Kind int

const (
	KindBasic Kind = iota
	KindLambert
	KindStandard
	KindNormal
	KindEdge
)

func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindLambert:
		return "lambert"
	case KindStandard:
		return "standard"
	case KindNormal:
		return "normal"
	case KindEdge:
		return "edge"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Material is any shading variant.
type Material interface {
	Kind() Kind
	// Validate checks that parameters are finite and within range.
	Validate() error
}

// LineStyle is the stroke cap or join of an edge line.
type LineStyle string

// LineRound is the only cap and join style edges use.
const LineRound LineStyle = "round"

// Surface holds the parameters shared by every fill variant.
type Surface struct {
	Opacity     float64
	DoubleSided bool
	// OverDraw expands projected triangles by this many pixels to hide seams.
	OverDraw float64
}

func newSurface(opacity, overDraw float64) Surface {
	return Surface{Opacity: opacity, DoubleSided: true, OverDraw: overDraw}
}

func (s Surface) checkFinite() error {
	if !math.IsFinite(s.Opacity) {
		return fmt.Errorf("%w: opacity %v", ErrNonFinite, s.Opacity)
	}
	if !math.IsFinite(s.OverDraw) {
		return fmt.Errorf("%w: overdraw %v", ErrNonFinite, s.OverDraw)
	}
	return nil
}

func (s Surface) validate() error {
	if err := s.checkFinite(); err != nil {
		return err
	}
	if s.Opacity < 0 || s.Opacity > 1 {
		return fmt.Errorf("%w: opacity %v", ErrOutOfRange, s.Opacity)
	}
	if s.OverDraw < 0 {
		return fmt.Errorf("%w: overdraw %v", ErrOutOfRange, s.OverDraw)
	}
	return nil
}

// SurfaceOf returns the fill parameters of m, or false for edge materials and nil.
func SurfaceOf(m Material) (Surface, bool) {
	switch v := m.(type) {
	case *Basic:
		if v != nil {
			return v.Surface, true
		}
	case *Lambert:
		if v != nil {
			return v.Surface, true
		}
	case *Standard:
		if v != nil {
			return v.Surface, true
		}
	case *Normal:
		if v != nil {
			return v.Surface, true
		}
	}
	return Surface{}, false
}

// IsFill reports whether m shades triangle surfaces.
func IsFill(m Material) bool {
	_, ok := SurfaceOf(m)
	return ok
}

// Basic is unlit flat color.
type Basic struct {
	Surface
	Color rgb.Color
}

func (*Basic) Kind() Kind { return KindBasic }

func (m *Basic) Validate() error {
	if err := m.Surface.validate(); err != nil {
		return err
	}
	return checkColor(m.Color)
}

// Lambert is diffuse shading with an optional environment texture.
type Lambert struct {
	Surface
	Color        rgb.Color
	EnvMap       *EnvironmentTexture
	Reflectivity float64
}

func (*Lambert) Kind() Kind { return KindLambert }

func (m *Lambert) Validate() error {
	if err := m.Surface.validate(); err != nil {
		return err
	}
	if err := checkUnit("reflectivity", m.Reflectivity); err != nil {
		return err
	}
	return checkColor(m.Color)
}

// Standard is diffuse shading with a roughness-controlled specular term.
type Standard struct {
	Surface
	Color     rgb.Color
	Roughness float64
	Metalness float64
}

func (*Standard) Kind() Kind { return KindStandard }

func (m *Standard) Validate() error {
	if err := m.Surface.validate(); err != nil {
		return err
	}
	if err := checkUnit("roughness", m.Roughness); err != nil {
		return err
	}
	if err := checkUnit("metalness", m.Metalness); err != nil {
		return err
	}
	return checkColor(m.Color)
}

// Normal colors each face by its view-space normal.
type Normal struct {
	Surface
}

func (*Normal) Kind() Kind { return KindNormal }

func (m *Normal) Validate() error {
	return m.Surface.validate()
}

// Edge strokes feature-edge segments.
type Edge struct {
	// Width in pixels.
	Width float64
	Color rgb.Color
	Cap   LineStyle
	Join  LineStyle
}

func (*Edge) Kind() Kind { return KindEdge }

func (m *Edge) Validate() error {
	if !math.IsFinite(m.Width) {
		return fmt.Errorf("%w: width %v", ErrNonFinite, m.Width)
	}
	if m.Width < 0 {
		return fmt.Errorf("%w: width %v", ErrOutOfRange, m.Width)
	}
	return checkColor(m.Color)
}

// NewBasic creates an unlit material.
func NewBasic(opacity float64, color rgb.Color) (*Basic, error) {
	m := &Basic{Surface: newSurface(opacity, BasicOverDraw), Color: color}
	if err := finite(m.Surface, color); err != nil {
		return nil, err
	}
	return m, nil
}

// NewLambert creates a white diffuse material. envMap may be nil.
func NewLambert(opacity float64, envMap *EnvironmentTexture) (*Lambert, error) {
	m := &Lambert{
		Surface:      newSurface(opacity, LambertOverDraw),
		Color:        rgb.White,
		EnvMap:       envMap,
		Reflectivity: 1,
	}
	if err := finite(m.Surface, m.Color); err != nil {
		return nil, err
	}
	return m, nil
}

// NewStandard creates a fully rough, non-metallic material.
func NewStandard(opacity float64, color rgb.Color) (*Standard, error) {
	m := &Standard{
		Surface:   newSurface(opacity, StandardOverDraw),
		Color:     color,
		Roughness: 1,
		Metalness: 0,
	}
	if err := finite(m.Surface, color); err != nil {
		return nil, err
	}
	return m, nil
}

// NewNormal creates a normal-visualizing material.
func NewNormal(opacity float64) (*Normal, error) {
	m := &Normal{Surface: newSurface(opacity, NormalOverDraw)}
	if err := m.Surface.checkFinite(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewEdge creates an edge line material with round caps and joins.
func NewEdge(width float64, color rgb.Color) (*Edge, error) {
	if !math.IsFinite(width) {
		return nil, fmt.Errorf("%w: width %v", ErrNonFinite, width)
	}
	if !color.IsFinite() {
		return nil, fmt.Errorf("%w: color %v", ErrNonFinite, color)
	}
	return &Edge{Width: width, Color: color, Cap: LineRound, Join: LineRound}, nil
}

// Must panics if err is non-nil. It is meant for constant arguments.
func Must[T Material](m T, err error) T {
	if err != nil {
		panic(err)
	}
	return m
}

func finite(s Surface, c rgb.Color) error {
	if err := s.checkFinite(); err != nil {
		return err
	}
	if !c.IsFinite() {
		return fmt.Errorf("%w: color %v", ErrNonFinite, c)
	}
	return nil
}

func checkUnit(name string, v float64) error {
	if !math.IsFinite(v) {
		return fmt.Errorf("%w: %s %v", ErrNonFinite, name, v)
	}
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %s %v", ErrOutOfRange, name, v)
	}
	return nil
}

func checkColor(c rgb.Color) error {
	if !c.IsFinite() {
		return fmt.Errorf("%w: color %v", ErrNonFinite, c)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}
	return nil
}
