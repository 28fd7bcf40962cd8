// Package rgb provides the linear RGB color type shared by materials, lights and backgrounds.
package rgb

import (
	"errors"
	"fmt"
	"image/color"
	gomath "math"
	"strconv"
	"strings"
)

// Color parsing and range errors.
var (
	ErrInvalidColor = errors.New("invalid color")
	ErrOutOfRange   = errors.New("color component out of range")
)

// Color is an RGB color with float components (0.0 to 1.0).
type Color struct {
	R, G, B float64
}

// Predefined colors.
var (
	White = Color{1, 1, 1}
	Black = Color{0, 0, 0}
)

// Hex creates a color from a 0xRRGGBB value.
func Hex(v uint32) Color {
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v))
}

// RGB creates a color from 8-bit components.
func RGB(r, g, b uint8) Color {
	return Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
}

// Parse reads "#rrggbb", "0xrrggbb" or "rrggbb".
func Parse(s string) (Color, error) {
	h := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(h, "#"):
		h = h[1:]
	case strings.HasPrefix(h, "0x"), strings.HasPrefix(h, "0X"):
		h = h[2:]
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Hex(uint32(v)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for config decoding.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// String returns the color as "#rrggbb".
func (c Color) String() string {
	r, g, b := c.bytes()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// Validate reports non-finite or out-of-range components.
func (c Color) Validate() error {
	for _, v := range [3]float64{c.R, c.G, c.B} {
		if gomath.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %v", ErrOutOfRange, c)
		}
	}
	return nil
}

// IsFinite reports whether every component is finite.
func (c Color) IsFinite() bool {
	for _, v := range [3]float64{c.R, c.G, c.B} {
		if gomath.IsNaN(v) || gomath.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Add returns c + o.
func (c Color) Add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B}
}

// Mul returns the component-wise product.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B}
}

// Scale returns c * s.
func (c Color) Scale(s float64) Color {
	return Color{c.R * s, c.G * s, c.B * s}
}

// Lerp interpolates between c and o by t.
func (c Color) Lerp(o Color, t float64) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
	}
}

// Clamp limits every component to [0, 1].
func (c Color) Clamp() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

// RGBA returns the color premultiplied by alpha as an 8-bit color.
func (c Color) RGBA(alpha float64) color.RGBA {
	a := clamp01(alpha)
	p := c.Clamp().Scale(a)
	return color.RGBA{
		R: uint8(gomath.Round(p.R * 255)),
		G: uint8(gomath.Round(p.G * 255)),
		B: uint8(gomath.Round(p.B * 255)),
		A: uint8(gomath.Round(a * 255)),
	}
}

// FromColor converts any image color to a Color and its straight alpha.
func FromColor(c color.Color) (Color, float64) {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return Color{
		R: float64(n.R) / 0xffff,
		G: float64(n.G) / 0xffff,
		B: float64(n.B) / 0xffff,
	}, float64(n.A) / 0xffff
}

func (c Color) bytes() (uint8, uint8, uint8) {
	p := c.Clamp()
	return uint8(gomath.Round(p.R * 255)), uint8(gomath.Round(p.G * 255)), uint8(gomath.Round(p.B * 255))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
