package material

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	gomath "math"
	"strings"

	_ "golang.org/x/image/bmp" // register BMP decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/rgb"
)

// Texture errors.
var (
	ErrUnsupportedImage = errors.New("unsupported texture image")
	ErrUnknownMapping   = errors.New("unknown texture mapping")
	ErrTextureTooLarge  = errors.New("texture image too large")
)

// MaxTextureSize bounds the longer side of a decoded texture; larger images are downscaled.
const MaxTextureSize = 2048

// Source images are rejected before decoding when a side exceeds
// MaxSourceTextureSize or the pixel count exceeds MaxSourceTexturePixels.
const (
	MaxSourceTextureSize   = 16384
	MaxSourceTexturePixels = 64 << 20
)

// RefractionRatio is the index ratio used by the refraction mappings.
const RefractionRatio = 0.98

// Mapping selects how an environment texture is projected onto a surface.
type Mapping int

const (
	MappingUV Mapping = iota
	MappingCubeReflection
	MappingCubeRefraction
	MappingEquirectangularReflection
	MappingEquirectangularRefraction
	MappingCubeUVReflection
)

var mappingNames = [...]string{
	MappingUV:                        "uv",
	MappingCubeReflection:            "cube_reflection",
	MappingCubeRefraction:            "cube_refraction",
	MappingEquirectangularReflection: "equirectangular_reflection",
	MappingEquirectangularRefraction: "equirectangular_refraction",
	MappingCubeUVReflection:          "cube_uv_reflection",
}

func (m Mapping) String() string {
	if m >= 0 && int(m) < len(mappingNames) {
		return mappingNames[m]
	}
	return fmt.Sprintf("Mapping(%d)", int(m))
}

// ParseMapping accepts the snake_case mapping names, case-insensitively.
func ParseMapping(s string) (Mapping, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range mappingNames {
		if n == name {
			return Mapping(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMapping, s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mapping) UnmarshalText(text []byte) error {
	parsed, err := ParseMapping(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mapping) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Refracts reports whether the mapping bends the view ray through the surface.
func (m Mapping) Refracts() bool {
	return m == MappingCubeRefraction || m == MappingEquirectangularRefraction
}

// EnvironmentTexture is a decoded image used as a reflection or refraction source.
type EnvironmentTexture struct {
	Image   *image.NRGBA
	Mapping Mapping
	// HasAlpha is true when the decoded image carries any non-opaque pixel.
	HasAlpha bool
}

// NewTexture decodes PNG, JPEG, GIF, BMP, TIFF or WebP data.
func NewTexture(data []byte, mapping Mapping) (*EnvironmentTexture, error) {
	if mapping < 0 || int(mapping) >= len(mappingNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMapping, int(mapping))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}
	if cfg.Width > MaxSourceTextureSize || cfg.Height > MaxSourceTextureSize ||
		cfg.Width*cfg.Height > MaxSourceTexturePixels {
		return nil, fmt.Errorf("%w: %s image is %dx%d", ErrTextureTooLarge, format, cfg.Width, cfg.Height)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}

	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty %s image", ErrUnsupportedImage, format)
	}

	w, h := fitSize(b.Dx(), b.Dy(), MaxTextureSize)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	}

	return &EnvironmentTexture{
		Image:    dst,
		Mapping:  mapping,
		HasAlpha: !dst.Opaque(),
	}, nil
}

func fitSize(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// Lookup samples the texture for a surface with normal n seen along viewDir.
// Both vectors share one space. Without UV coordinates the UV mapping samples by normal.
// Cube mappings are projected equirectangularly from the same direction.
func (t *EnvironmentTexture) Lookup(viewDir, n math.Vec3) (rgb.Color, float64) {
	var dir math.Vec3
	switch {
	case t.Mapping == MappingUV:
		dir = n
	case t.Mapping.Refracts():
		dir = viewDir.Normalize().Refract(n, RefractionRatio)
		if dir.IsZero() {
			dir = viewDir.Normalize().Reflect(n)
		}
	default:
		dir = viewDir.Normalize().Reflect(n)
	}
	return t.SampleDirection(dir)
}

// SampleDirection maps a direction to equirectangular coordinates and samples there.
func (t *EnvironmentTexture) SampleDirection(dir math.Vec3) (rgb.Color, float64) {
	d := dir.Normalize()
	u := gomath.Atan2(d.Z, d.X)/(2*gomath.Pi) + 0.5
	v := gomath.Asin(math.Clamp(d.Y, -1, 1))/gomath.Pi + 0.5
	return t.Sample(u, v)
}

// Sample returns the bilinearly filtered color and alpha at (u, v).
// u wraps around; v is clamped. v = 1 is the top row.
func (t *EnvironmentTexture) Sample(u, v float64) (rgb.Color, float64) {
	b := t.Image.Bounds()
	w, h := b.Dx(), b.Dy()

	u -= gomath.Floor(u)
	v = math.Clamp(v, 0, 1)

	x := u*float64(w) - 0.5
	y := (1-v)*float64(h) - 0.5
	x0 := int(gomath.Floor(x))
	y0 := int(gomath.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	c00, a00 := t.texel(x0, y0)
	c10, a10 := t.texel(x0+1, y0)
	c01, a01 := t.texel(x0, y0+1)
	c11, a11 := t.texel(x0+1, y0+1)

	top := c00.Lerp(c10, fx)
	bottom := c01.Lerp(c11, fx)
	alpha := lerp(lerp(a00, a10, fx), lerp(a01, a11, fx), fy)
	return top.Lerp(bottom, fy), alpha
}

func (t *EnvironmentTexture) texel(x, y int) (rgb.Color, float64) {
	b := t.Image.Bounds()
	w, h := b.Dx(), b.Dy()
	x = ((x % w) + w) % w
	y = min(max(y, 0), h-1)
	c := t.Image.NRGBAAt(b.Min.X+x, b.Min.Y+y)
	return rgb.RGB(c.R, c.G, c.B), float64(c.A) / 255
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
