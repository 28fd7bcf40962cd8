package raster

import (
	"image"
	"image/color"
	"image/draw"
	gomath "math"

	"github.com/Faultbox/stl2png/pkg/material"
	pmath "github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/mesh"
)

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

// strokeEdges draws each segment as a round-capped line. A pixel is skipped
// when the segment lies more than bias behind the nearest opaque fill there.
func (f *frame) strokeEdges(segments []mesh.Segment, m *material.Edge, bias float64) {
	if m.Width <= 0 {
		return
	}
	c := m.Color.RGBA(1)
	hw := m.Width / 2
	viewProj := f.cam.ViewProjection()

	for _, seg := range segments {
		var clip [2]clipVertex
		for k, p := range seg {
			v := viewProj.MulVec4(pmath.Vec4{p.X, p.Y, p.Z, 1})
			clip[k] = clipVertex{v[0], v[1], v[2], v[3]}
		}
		a, b, ok := clipSegmentNear(clip[0], clip[1])
		if !ok {
			continue
		}
		sa, sb := f.toScreen(a), f.toScreen(b)
		if !pmath.IsFinite(sa.X) || !pmath.IsFinite(sa.Y) || !pmath.IsFinite(sb.X) || !pmath.IsFinite(sb.Y) {
			continue
		}
		f.strokeSegment(sa, sb, hw, c, bias)
	}
}

// clipSegmentNear trims a segment to the front of the near plane.
func clipSegmentNear(a, b clipVertex) (clipVertex, clipVertex, bool) {
	da := a.Z + a.W
	db := b.Z + b.W
	switch {
	case da < 0 && db < 0:
		return a, b, false
	case da >= 0 && db >= 0:
		return a, b, true
	}
	t := da / (da - db)
	mid := clipVertex{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
		W: a.W + (b.W-a.W)*t,
	}
	if da < 0 {
		return mid, b, true
	}
	return a, mid, true
}

func (f *frame) strokeSegment(a, b screenVertex, hw float64, c color.RGBA, bias float64) {
	bounds := f.clipRect(
		gomath.Min(a.X, b.X)-hw, gomath.Min(a.Y, b.Y)-hw,
		gomath.Max(a.X, b.X)+hw, gomath.Max(a.Y, b.Y)+hw,
	)
	if bounds.Empty() {
		return
	}

	ox, oy := float64(bounds.Min.X), float64(bounds.Min.Y)
	pa := pmath.Vec2{X: a.X - ox, Y: a.Y - oy}
	pb := pmath.Vec2{X: b.X - ox, Y: b.Y - oy}

	mask := image.NewAlpha(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	f.vec.Reset(bounds.Dx(), bounds.Dy())
	f.vec.DrawOp = draw.Src
	capsule(f.vec, pa, pb, hw)
	f.vec.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	ab := pb.Sub(pa)
	abLenSq := ab.Dot(ab)

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			cov := mask.AlphaAt(x, y).A
			if cov == 0 {
				continue
			}

			px, py := bounds.Min.X+x, bounds.Min.Y+y
			if f.depth != nil {
				t := 0.0
				if abLenSq > 0 {
					p := pmath.Vec2{X: float64(x) + 0.5, Y: float64(y) + 0.5}
					t = pmath.Clamp(p.Sub(pa).Dot(ab)/abLenSq, 0, 1)
				}
				z := 1 / ((1-t)/a.W + t/b.W)
				if z > f.depth.at(px, py)+bias {
					continue
				}
			}
			blendOver(f.img, px, py, c, float64(cov)/255)
		}
	}
}

// pathBuilder is the subset of *vector.Rasterizer used to trace outlines.
type pathBuilder interface {
	MoveTo(ax, ay float32)
	LineTo(bx, by float32)
	CubeTo(bx, by, cx, cy, dx, dy float32)
	ClosePath()
}

// capsule traces a line from a to b with half-width r and round caps.
func capsule(p pathBuilder, a, b pmath.Vec2, r float64) {
	u := b.Sub(a).Normalize()
	if u == (pmath.Vec2{}) {
		u = pmath.Vec2{X: 1}
	}
	n := u.Perp()

	moveTo(p, a.Add(n.Scale(r)))
	lineTo(p, b.Add(n.Scale(r)))
	quarter(p, b, n, u, r)
	quarter(p, b, u, n.Scale(-1), r)
	lineTo(p, a.Sub(n.Scale(r)))
	quarter(p, a, n.Scale(-1), u.Scale(-1), r)
	quarter(p, a, u.Scale(-1), n, r)
	p.ClosePath()
}

// quarter draws a 90 degree arc around c from c+r*e1 to c+r*e2.
func quarter(p pathBuilder, c, e1, e2 pmath.Vec2, r float64) {
	c1 := c.Add(e1.Scale(r)).Add(e2.Scale(kappa * r))
	c2 := c.Add(e2.Scale(r)).Add(e1.Scale(kappa * r))
	end := c.Add(e2.Scale(r))
	p.CubeTo(float32(c1.X), float32(c1.Y), float32(c2.X), float32(c2.Y), float32(end.X), float32(end.Y))
}

func moveTo(p pathBuilder, v pmath.Vec2) {
	p.MoveTo(float32(v.X), float32(v.Y))
}

func lineTo(p pathBuilder, v pmath.Vec2) {
	p.LineTo(float32(v.X), float32(v.Y))
}

// blendOver composites premultiplied c with coverage cov onto dst at (x, y).
func blendOver(dst *image.RGBA, x, y int, c color.RGBA, cov float64) {
	i := dst.PixOffset(x, y)
	pix := dst.Pix[i : i+4 : i+4]
	inv := 1 - float64(c.A)/255*cov
	src := [4]uint8{c.R, c.G, c.B, c.A}
	for k := range pix {
		v := float64(src[k])*cov + float64(pix[k])*inv
		pix[k] = uint8(gomath.Min(255, gomath.Round(v)))
	}
}
