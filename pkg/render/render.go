// Package render turns STL bytes into a PNG image.
//
// A call resolves its options against fresh defaults, parses the mesh,
// frames the camera on the mesh's bounding sphere, composes the scene and
// hands it to the rasterizer and encoder. Calls share no mutable state.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/stl2png/pkg/camera"
	"github.com/Faultbox/stl2png/pkg/mesh"
	"github.com/Faultbox/stl2png/pkg/raster"
	"github.com/Faultbox/stl2png/pkg/scene"
)

// Rasterizer draws a composed scene.
type Rasterizer interface {
	Rasterize(s *scene.Scene, cam *camera.Camera, width, height int) (*image.RGBA, error)
}

// Encoder serializes an image. *png.Encoder implements it.
type Encoder interface {
	Encode(w io.Writer, m image.Image) error
}

// Renderer runs the pipeline with its collaborators.
type Renderer struct {
	parser     Parser
	rasterizer Rasterizer
	encoder    Encoder
	logger     *zap.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithParser replaces the STL parser.
func WithParser(p Parser) Option {
	return func(r *Renderer) {
		r.parser = p
	}
}

// WithRasterizer replaces the software rasterizer.
func WithRasterizer(rz Rasterizer) Option {
	return func(r *Renderer) {
		r.rasterizer = rz
	}
}

// WithEncoder replaces the PNG encoder.
func WithEncoder(e Encoder) Option {
	return func(r *Renderer) {
		r.encoder = e
	}
}

// WithLogger sets the logger. Renderers log nothing by default.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

// New creates a renderer using STL parsing, the software rasterizer and PNG encoding.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		parser:     STLParser{},
		rasterizer: raster.New(),
		encoder:    &png.Encoder{CompressionLevel: png.DefaultCompression},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render renders STL data with a default renderer.
func Render(data []byte, opts *Options) ([]byte, error) {
	return New().Render(data, opts)
}

// Render returns the encoded image of data under opts.
func (r *Renderer) Render(data []byte, opts *Options) ([]byte, error) {
	id := uuid.New().String()
	log := r.logger.With(zap.String("render_id", id))

	img, err := r.renderImage(data, opts, log)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.encoder.Encode(&buf, img); err != nil {
		log.Debug("encode failed", zap.Error(err))
		return nil, fmt.Errorf("%w: encode: %w", ErrRenderBackend, err)
	}
	log.Debug("image encoded", zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// RenderImage returns the rasterized image of data under opts without encoding it.
func (r *Renderer) RenderImage(data []byte, opts *Options) (image.Image, error) {
	id := uuid.New().String()
	return r.renderImage(data, opts, r.logger.With(zap.String("render_id", id)))
}

func (r *Renderer) renderImage(data []byte, opts *Options, log *zap.Logger) (*image.RGBA, error) {
	start := time.Now()

	// Configuration is checked before any geometry work.
	cfg, err := Resolve(opts)
	if err != nil {
		log.Debug("configuration rejected", zap.Error(err))
		return nil, err
	}
	log.Debug("configuration resolved",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Stringer("framing", cfg.Framing),
		zap.Int("lights", len(cfg.Lights)),
		zap.Int("materials", len(cfg.Materials)),
		zap.Int("edge_materials", len(cfg.EdgeMaterials)))

	m, err := r.parser.Parse(data)
	if err != nil {
		log.Debug("parse failed", zap.Int("bytes", len(data)), zap.Error(err))
		return nil, classifyParseError(err)
	}
	log.Debug("mesh parsed",
		zap.String("name", m.Name),
		zap.Int("triangles", m.TriangleCount()),
		zap.Float64("radius", m.BoundingSphere.Radius))

	cam := camera.New(float64(cfg.Width) / float64(cfg.Height))
	position := cfg.CameraPosition
	if cfg.Framing == camera.FramingEye {
		// Eye positions are given in the file's coordinates.
		position = m.ToLocal(position)
	}
	if err := camera.Autoframe(cam, m.BoundingSphere, position, cfg.Framing); err != nil {
		log.Debug("autoframe failed", zap.Error(err))
		if errors.Is(err, camera.ErrInvalidGeometry) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidGeometry, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	log.Debug("camera framed",
		zap.Float64("near", cam.Near),
		zap.Float64("far", cam.Far),
		zap.Float64("distance", cam.Position.Distance(cam.Target)))

	s, err := scene.Compose(m, m, cfg.Lights, cfg.Materials, cfg.EdgeMaterials, scene.Background{
		Color: cfg.BackgroundColor,
		Alpha: cfg.BackgroundAlpha,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	log.Debug("scene composed", zap.Int("draws", len(s.Draws)))

	img, err := r.rasterizer.Rasterize(s, cam, cfg.Width, cfg.Height)
	if err != nil {
		log.Debug("rasterize failed", zap.Error(err))
		return nil, fmt.Errorf("%w: rasterize: %w", ErrRenderBackend, err)
	}
	if img == nil || img.Bounds().Dx() != cfg.Width || img.Bounds().Dy() != cfg.Height {
		return nil, fmt.Errorf("%w: rasterizer returned wrong image size", ErrRenderBackend)
	}
	log.Debug("frame rasterized", zap.Duration("elapsed", time.Since(start)))
	return img, nil
}

// classifyParseError reports mesh-shape failures as geometry errors and
// everything else, such as stl.ErrMalformed, as malformed input.
func classifyParseError(err error) error {
	if errors.Is(err, mesh.ErrEmpty) || errors.Is(err, mesh.ErrIncompleteTriangle) {
		return fmt.Errorf("%w: %w", ErrInvalidGeometry, err)
	}
	return fmt.Errorf("%w: %w", ErrMalformedInput, err)
}
