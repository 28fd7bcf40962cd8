// Package raster is a headless software rasterizer for composed scenes.
//
// Fill faces are painter-sorted far to near and drawn with anti-aliased
// coverage from golang.org/x/image/vector. Edge overlays are stroked last and
// depth-tested against the opaque fills so hidden lines of solid models drop out.
package raster

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"golang.org/x/image/vector"

	"github.com/Faultbox/stl2png/pkg/camera"
	"github.com/Faultbox/stl2png/pkg/material"
	"github.com/Faultbox/stl2png/pkg/scene"
)

// Rasterizer errors.
var (
	ErrBadTarget = errors.New("invalid target dimensions")
	ErrNoCamera  = errors.New("no camera")
	ErrNoScene   = errors.New("no scene")
)

// DefaultEdgeBias is the fraction of the camera depth range an edge may lie
// behind the nearest opaque surface and still be drawn.
const DefaultEdgeBias = 0.02

// Rasterizer draws scenes into RGBA images. It holds no per-frame state and is
// safe for concurrent use.
type Rasterizer struct {
	// EdgeBias is the edge depth tolerance as a fraction of far - near.
	EdgeBias float64
}

// New creates a rasterizer with default settings.
func New() *Rasterizer {
	return &Rasterizer{EdgeBias: DefaultEdgeBias}
}

// frame is the state of one Rasterize call.
type frame struct {
	img    *image.RGBA
	cam    *camera.Camera
	width  int
	height int
	vec    *vector.Rasterizer
	depth  *depthBuffer
	lights lightSet
}

// Rasterize renders s as seen by cam into a new width x height image.
func (r *Rasterizer) Rasterize(s *scene.Scene, cam *camera.Camera, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadTarget, width, height)
	}
	if cam == nil {
		return nil, ErrNoCamera
	}
	if s == nil {
		return nil, ErrNoScene
	}

	f := &frame{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		cam:    cam,
		width:  width,
		height: height,
		vec:    vector.NewRasterizer(1, 1),
		lights: collectLights(s.Lights),
	}

	f.clear(s.Background)

	faces := f.collectFaces(s.Fills())
	// Far to near; the stable sort keeps layer order, then mesh order, on ties.
	slices.SortStableFunc(faces, func(a, b face) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		default:
			return 0
		}
	})
	for i := range faces {
		f.fillFace(&faces[i])
	}

	edges := s.EdgeDraws()
	if len(edges) == 0 {
		return f.img, nil
	}

	f.depth = newDepthBuffer(width, height)
	for i := range faces {
		if faces[i].opaque {
			f.depth.plot(&faces[i])
		}
	}
	bias := r.EdgeBias * (cam.Far - cam.Near)
	for _, d := range edges {
		mat, ok := d.Material.(*material.Edge)
		if !ok || d.Edges == nil {
			continue
		}
		f.strokeEdges(d.Edges.Segments, mat, bias)
	}

	return f.img, nil
}

func (f *frame) clear(bg scene.Background) {
	c := bg.Color.RGBA(bg.Alpha)
	pix := f.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
}
