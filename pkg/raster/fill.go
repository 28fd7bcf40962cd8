package raster

import (
	"image"
	"image/color"
	"image/draw"
	gomath "math"

	"github.com/Faultbox/stl2png/pkg/material"
	pmath "github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/scene"
)

// screenVertex is a vertex in pixel space with its view depth.
type screenVertex struct {
	X, Y float64
	W    float64 // view depth, for perspective-correct interpolation
}

// face is one projected, shaded polygon ready for painting.
type face struct {
	poly     [4]screenVertex // a triangle, or a quad after near-plane clipping
	n        int
	depth    float64
	color    color.RGBA // premultiplied
	overDraw float64
	opaque   bool
}

func (fc *face) vertices() []screenVertex {
	return fc.poly[:fc.n]
}

// clipVertex is a vertex in homogeneous clip space.
type clipVertex struct {
	X, Y, Z, W float64
}

func (f *frame) collectFaces(fills []scene.Draw) []face {
	viewProj := f.cam.ViewProjection()

	var faces []face
	for _, d := range fills {
		surf, ok := material.SurfaceOf(d.Material)
		if !ok || d.Mesh == nil || surf.Opacity <= 0 {
			continue
		}

		m := d.Mesh
		for i := 0; i < m.TriangleCount(); i++ {
			tri := m.Triangle(i)

			var clip [3]clipVertex
			for k, p := range tri {
				v := viewProj.MulVec4(pmath.Vec4{p.X, p.Y, p.Z, 1})
				clip[k] = clipVertex{v[0], v[1], v[2], v[3]}
			}

			fc := face{overDraw: surf.OverDraw, opaque: surf.Opacity >= 1}
			if !f.project(clip[:], &fc) {
				continue
			}
			if !surf.DoubleSided && signedArea(fc.vertices()) > 0 {
				// Front faces have negative area once y points down.
				continue
			}

			fc.depth = (clip[0].W + clip[1].W + clip[2].W) / 3
			fc.color = f.shade(d.Material, m.FaceNormal(i), centroid(tri)).RGBA(surf.Opacity)
			faces = append(faces, fc)
		}
	}
	return faces
}

// project clips the polygon against the near plane and maps it to pixels.
func (f *frame) project(clip []clipVertex, fc *face) bool {
	poly := clipNear(clip)
	if len(poly) < 3 {
		return false
	}

	fc.n = len(poly)
	for k, v := range poly {
		sv := f.toScreen(v)
		if !pmath.IsFinite(sv.X) || !pmath.IsFinite(sv.Y) {
			return false
		}
		fc.poly[k] = sv
	}
	return true
}

func (f *frame) toScreen(v clipVertex) screenVertex {
	x := v.X / v.W
	y := v.Y / v.W
	return screenVertex{
		X: (x + 1) * 0.5 * float64(f.width),
		Y: (1 - y) * 0.5 * float64(f.height), // Y flipped
		W: v.W,
	}
}

// clipNear keeps the part of a triangle in front of the near plane (z >= -w).
// The result has at most four vertices.
func clipNear(in []clipVertex) []clipVertex {
	out := make([]clipVertex, 0, 4)
	for i := range in {
		a := in[i]
		b := in[(i+1)%len(in)]
		da := a.Z + a.W
		db := b.Z + b.W

		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			out = append(out, clipVertex{
				X: a.X + (b.X-a.X)*t,
				Y: a.Y + (b.Y-a.Y)*t,
				Z: a.Z + (b.Z-a.Z)*t,
				W: a.W + (b.W-a.W)*t,
			})
		}
	}
	return out
}

// expand pushes v1 and v2 apart along their edge by pixels.
func expand(v1, v2 *screenVertex, pixels float64) {
	x := v2.X - v1.X
	y := v2.Y - v1.Y
	det := x*x + y*y
	if det == 0 {
		return
	}
	idet := pixels / gomath.Sqrt(det)
	x *= idet
	y *= idet
	v2.X += x
	v2.Y += y
	v1.X -= x
	v1.Y -= y
}

// fillFace paints fc with anti-aliased coverage, grown by its over-draw.
func (f *frame) fillFace(fc *face) {
	if fc.color.A == 0 {
		return
	}

	pts := fc.poly
	n := fc.n
	if fc.overDraw > 0 {
		for k := 0; k < n; k++ {
			expand(&pts[k], &pts[(k+1)%n], fc.overDraw)
		}
	}

	minX, minY := gomath.Inf(1), gomath.Inf(1)
	maxX, maxY := gomath.Inf(-1), gomath.Inf(-1)
	for _, p := range pts[:n] {
		minX = gomath.Min(minX, p.X)
		minY = gomath.Min(minY, p.Y)
		maxX = gomath.Max(maxX, p.X)
		maxY = gomath.Max(maxY, p.Y)
	}

	bounds := f.clipRect(minX, minY, maxX, maxY)
	if bounds.Empty() {
		return
	}

	ox, oy := float64(bounds.Min.X), float64(bounds.Min.Y)
	f.vec.Reset(bounds.Dx(), bounds.Dy())
	f.vec.DrawOp = draw.Over
	f.vec.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:n] {
		f.vec.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	f.vec.ClosePath()
	f.vec.Draw(f.img, bounds, image.NewUniform(fc.color), image.Point{})
}

// clipRect returns the pixel rectangle covering the given extent, clipped to the image.
func (f *frame) clipRect(minX, minY, maxX, maxY float64) image.Rectangle {
	r := image.Rect(
		int(gomath.Floor(gomath.Max(minX, -1))),
		int(gomath.Floor(gomath.Max(minY, -1))),
		int(gomath.Ceil(gomath.Min(maxX, float64(f.width+1)))),
		int(gomath.Ceil(gomath.Min(maxY, float64(f.height+1)))),
	)
	return r.Intersect(f.img.Bounds())
}

func signedArea(poly []screenVertex) float64 {
	var a float64
	for i := range poly {
		p := poly[i]
		q := poly[(i+1)%len(poly)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

func centroid(tri [3]pmath.Vec3) pmath.Vec3 {
	return tri[0].Add(tri[1]).Add(tri[2]).Scale(1.0 / 3)
}
