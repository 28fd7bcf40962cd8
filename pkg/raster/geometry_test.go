package raster

import (
	"image"
	"image/color"
	gomath "math"
	"testing"

	pmath "github.com/Faultbox/stl2png/pkg/math"
)

func TestBarycentric(t *testing.T) {
	tests := []struct {
		name       string
		px, py     float64
		b0, b1, b2 float64
	}{
		{"vertex 0", 0, 0, 1, 0, 0},
		{"vertex 1", 1, 0, 0, 1, 0},
		{"vertex 2", 0, 1, 0, 0, 1},
		{"centroid", 1.0 / 3, 1.0 / 3, 1.0 / 3, 1.0 / 3, 1.0 / 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b0, b1, b2, ok := barycentric(0, 0, 1, 0, 0, 1, tc.px, tc.py)
			if !ok {
				t.Fatal("unexpected degenerate triangle")
			}
			if gomath.Abs(b0-tc.b0) > 0.001 || gomath.Abs(b1-tc.b1) > 0.001 || gomath.Abs(b2-tc.b2) > 0.001 {
				t.Errorf("barycentric = (%v, %v, %v), want (%v, %v, %v)", b0, b1, b2, tc.b0, tc.b1, tc.b2)
			}
		})
	}

	if _, _, _, ok := barycentric(0, 0, 1, 1, 2, 2, 0.5, 0.5); ok {
		t.Error("expected collinear triangle to be degenerate")
	}
}

func TestClipNear(t *testing.T) {
	front := clipVertex{Z: 0, W: 1}
	behind := clipVertex{Z: -3, W: 1}

	if got := clipNear([]clipVertex{front, front, front}); len(got) != 3 {
		t.Errorf("fully visible: %d vertices, want 3", len(got))
	}
	if got := clipNear([]clipVertex{behind, behind, behind}); len(got) != 0 {
		t.Errorf("fully clipped: %d vertices, want 0", len(got))
	}

	quad := clipNear([]clipVertex{front, {X: 1, W: 1}, behind})
	if len(quad) != 4 {
		t.Fatalf("one vertex behind: %d vertices, want 4", len(quad))
	}
	for _, v := range quad {
		if v.Z+v.W < -1e-12 {
			t.Errorf("vertex %v is behind the near plane", v)
		}
	}

	tri := clipNear([]clipVertex{front, behind, behind})
	if len(tri) != 3 {
		t.Errorf("two vertices behind: %d vertices, want 3", len(tri))
	}
}

func TestClipSegmentNear(t *testing.T) {
	a := clipVertex{Z: 0, W: 1}
	b := clipVertex{Z: -3, W: 1}

	ca, cb, ok := clipSegmentNear(a, b)
	if !ok {
		t.Fatal("expected partially visible segment")
	}
	if ca != a {
		t.Errorf("front endpoint moved: %v", ca)
	}
	if gomath.Abs(cb.Z+cb.W) > 1e-12 {
		t.Errorf("clipped endpoint %v not on the near plane", cb)
	}

	if _, _, ok := clipSegmentNear(b, b); ok {
		t.Error("expected segment behind the camera to be dropped")
	}
}

func TestExpand(t *testing.T) {
	v1 := screenVertex{X: 0, Y: 0}
	v2 := screenVertex{X: 10, Y: 0}
	expand(&v1, &v2, 0.5)
	if v1.X != -0.5 || v2.X != 10.5 || v1.Y != 0 || v2.Y != 0 {
		t.Errorf("expand = %v, %v", v1, v2)
	}

	same := screenVertex{X: 3, Y: 3}
	other := same
	expand(&same, &other, 1)
	if same != other || same.X != 3 {
		t.Error("coincident vertices should not move")
	}
}

type pathRecorder struct {
	moves, lines, cubes, closes int
	pts                         []pmath.Vec2
}

func (p *pathRecorder) MoveTo(ax, ay float32) {
	p.moves++
	p.pts = append(p.pts, pmath.Vec2{X: float64(ax), Y: float64(ay)})
}

func (p *pathRecorder) LineTo(bx, by float32) {
	p.lines++
	p.pts = append(p.pts, pmath.Vec2{X: float64(bx), Y: float64(by)})
}

func (p *pathRecorder) CubeTo(_, _, _, _, dx, dy float32) {
	p.cubes++
	p.pts = append(p.pts, pmath.Vec2{X: float64(dx), Y: float64(dy)})
}

func (p *pathRecorder) ClosePath() { p.closes++ }

func TestCapsule(t *testing.T) {
	var rec pathRecorder
	a := pmath.Vec2{X: 10, Y: 10}
	b := pmath.Vec2{X: 20, Y: 10}
	capsule(&rec, a, b, 2)

	if rec.moves != 1 || rec.lines != 2 || rec.cubes != 4 || rec.closes != 1 {
		t.Fatalf("path ops = %+v", rec)
	}
	// Every outline point is exactly r away from the segment.
	for _, p := range rec.pts {
		d := distanceToSegment(p, a, b)
		if gomath.Abs(d-2) > 1e-4 {
			t.Errorf("point %v at distance %v, want 2", p, d)
		}
	}
	last := rec.pts[len(rec.pts)-1]
	if last.Distance(rec.pts[0]) > 1e-4 {
		t.Errorf("outline not closed: %v vs %v", last, rec.pts[0])
	}

	// A zero-length segment becomes a dot.
	var dot pathRecorder
	capsule(&dot, a, a, 1)
	if dot.cubes != 4 {
		t.Errorf("dot cubes = %d, want 4", dot.cubes)
	}
}

func distanceToSegment(p, a, b pmath.Vec2) float64 {
	ab := b.Sub(a)
	t := pmath.Clamp(p.Sub(a).Dot(ab)/ab.Dot(ab), 0, 1)
	return p.Distance(a.Add(ab.Scale(t)))
}

func TestBlendOver(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{255, 255, 255, 255})

	blendOver(img, 0, 0, color.RGBA{0, 0, 0, 255}, 1)
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("full coverage = %v, want black", got)
	}

	img.SetRGBA(0, 0, color.RGBA{255, 255, 255, 255})
	blendOver(img, 0, 0, color.RGBA{0, 0, 0, 255}, 0.5)
	if got := img.RGBAAt(0, 0); got.R != 128 || got.A != 255 {
		t.Errorf("half coverage = %v, want mid gray", got)
	}

	empty := image.NewRGBA(image.Rect(0, 0, 1, 1))
	blendOver(empty, 0, 0, color.RGBA{255, 0, 0, 255}, 1)
	if got := empty.RGBAAt(0, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("over transparent = %v, want red", got)
	}
}

func TestSignedArea(t *testing.T) {
	// Counter-clockwise in NDC has negative area once y points down.
	cw := []screenVertex{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}}
	if a := signedArea(cw); a >= 0 {
		t.Errorf("signedArea = %v, want negative", a)
	}
}
