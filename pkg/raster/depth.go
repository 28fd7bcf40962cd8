package raster

import (
	gomath "math"
)

// insideEpsilon lets pixel centers on a shared edge count for both triangles.
const insideEpsilon = 1e-9

// depthBuffer holds the nearest view depth of opaque fills per pixel.
type depthBuffer struct {
	width, height int
	z             []float64
}

func newDepthBuffer(width, height int) *depthBuffer {
	z := make([]float64, width*height)
	for i := range z {
		z[i] = gomath.Inf(1)
	}
	return &depthBuffer{width: width, height: height, z: z}
}

func (d *depthBuffer) at(x, y int) float64 {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return gomath.Inf(1)
	}
	return d.z[y*d.width+x]
}

// plot records the face's depth at every pixel center it covers.
func (d *depthBuffer) plot(fc *face) {
	v := fc.vertices()
	for k := 1; k+1 < len(v); k++ {
		d.plotTriangle(v[0], v[k], v[k+1])
	}
}

func (d *depthBuffer) plotTriangle(a, b, c screenVertex) {
	minX := int(gomath.Max(0, gomath.Floor(min(a.X, b.X, c.X))))
	maxX := int(gomath.Min(float64(d.width-1), gomath.Ceil(max(a.X, b.X, c.X))))
	minY := int(gomath.Max(0, gomath.Floor(min(a.Y, b.Y, c.Y))))
	maxY := int(gomath.Min(float64(d.height-1), gomath.Ceil(max(a.Y, b.Y, c.Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5

			b0, b1, b2, ok := barycentric(a.X, a.Y, b.X, b.Y, c.X, c.Y, px, py)
			if !ok || b0 < -insideEpsilon || b1 < -insideEpsilon || b2 < -insideEpsilon {
				continue
			}

			// 1/w is linear in screen space.
			z := 1 / (b0/a.W + b1/b.W + b2/c.W)
			i := y*d.width + x
			if z < d.z[i] {
				d.z[i] = z
			}
		}
	}
}

// barycentric returns the weights of (px, py) relative to the triangle.
// ok is false for a degenerate triangle.
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) (b0, b1, b2 float64, ok bool) {
	v0x, v0y := x2-x0, y2-y0
	v1x, v1y := x1-x0, y1-y0
	v2x, v2y := px-x0, py-y0

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		return 0, 0, 0, false
	}
	invDenom := 1.0 / denom
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return 1 - u - v, v, u, true
}
