package raster

import (
	gomath "math"

	"github.com/Faultbox/stl2png/pkg/lighting"
	"github.com/Faultbox/stl2png/pkg/material"
	pmath "github.com/Faultbox/stl2png/pkg/math"
	"github.com/Faultbox/stl2png/pkg/rgb"
)

// dielectricSpecular is the base reflectance of non-metals.
const dielectricSpecular = 0.04

type directionalLight struct {
	dir      pmath.Vec3 // unit vector toward the light
	radiance rgb.Color
}

type lightSet struct {
	ambient     rgb.Color
	directional []directionalLight
}

func collectLights(lights []lighting.Light) lightSet {
	var ls lightSet
	for _, l := range lights {
		switch v := l.(type) {
		case *lighting.Ambient:
			ls.ambient = ls.ambient.Add(v.Radiance())
		case *lighting.Directional:
			dir := v.Direction()
			if dir.IsZero() {
				continue
			}
			ls.directional = append(ls.directional, directionalLight{dir: dir, radiance: v.Radiance()})
		}
	}
	return ls
}

// diffuse returns the light arriving at a surface with unit normal n.
func (ls *lightSet) diffuse(n pmath.Vec3) rgb.Color {
	total := ls.ambient
	for _, d := range ls.directional {
		if k := n.Dot(d.dir); k > 0 {
			total = total.Add(d.radiance.Scale(k))
		}
	}
	return total
}

// shade returns the flat color of a face with world normal n at point p.
func (f *frame) shade(m material.Material, n, p pmath.Vec3) rgb.Color {
	toEye := f.cam.Position.Sub(p).Normalize()
	if n.Dot(toEye) < 0 {
		// Double-sided faces are lit from the side facing the viewer.
		n = n.Negate()
	}

	switch v := m.(type) {
	case *material.Basic:
		return v.Color.Clamp()

	case *material.Lambert:
		c := v.Color.Mul(f.lights.diffuse(n))
		if v.EnvMap != nil {
			env, alpha := v.EnvMap.Lookup(toEye.Negate(), n)
			c = c.Lerp(c.Mul(env), v.Reflectivity*alpha)
		}
		return c.Clamp()

	case *material.Standard:
		return f.shadeStandard(v, n, toEye).Clamp()

	case *material.Normal:
		vn := f.cam.View.TransformDirection(n).Normalize()
		return rgb.Color{R: vn.X*0.5 + 0.5, G: vn.Y*0.5 + 0.5, B: vn.Z*0.5 + 0.5}

	default:
		return rgb.Black
	}
}

// shadeStandard mixes a diffuse term with a Blinn-Phong highlight whose
// sharpness falls off with roughness.
func (f *frame) shadeStandard(m *material.Standard, n, toEye pmath.Vec3) rgb.Color {
	gloss := 1 - pmath.Clamp(m.Roughness, 0, 1)
	metal := pmath.Clamp(m.Metalness, 0, 1)
	shininess := 2 + 254*gloss*gloss
	specColor := rgb.Color{R: dielectricSpecular, G: dielectricSpecular, B: dielectricSpecular}.Lerp(m.Color, metal)

	c := m.Color.Mul(f.lights.ambient)
	for _, d := range f.lights.directional {
		k := n.Dot(d.dir)
		if k <= 0 {
			continue
		}
		c = c.Add(m.Color.Scale(1 - metal).Mul(d.radiance).Scale(k))

		if gloss > 0 {
			h := d.dir.Add(toEye).Normalize()
			if nh := n.Dot(h); nh > 0 {
				c = c.Add(specColor.Mul(d.radiance).Scale(gloss * gomath.Pow(nh, shininess)))
			}
		}
	}
	return c
}
