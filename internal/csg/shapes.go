// Package csg implements signed-distance-field shapes and the CSG drawing
// operation (ADD/SUBTRACT/PAINT/FILL) applied to a chunk's voxels.
package csg

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Shape evaluates a signed distance field in shape-local space: negative
// inside, positive outside.
type Shape interface {
	SDF(local mgl32.Vec3) float32
}

// Cube is an axis-aligned (in local space) box with half-extents Size.
type Cube struct{ Size mgl32.Vec3 }

func (c Cube) SDF(p mgl32.Vec3) float32 {
	return maxf(absf(p.X())-c.Size.X(), maxf(absf(p.Y())-c.Size.Y(), absf(p.Z())-c.Size.Z()))
}

// Sphere is an (optionally non-uniformly scaled) ellipsoid with radii Size.
type Sphere struct{ Size mgl32.Vec3 }

func (s Sphere) SDF(p mgl32.Vec3) float32 {
	scaled := mgl32.Vec3{p.X() / nz(s.Size.X()), p.Y() / nz(s.Size.Y()), p.Z() / nz(s.Size.Z())}
	return scaled.Len() - 1
}

// Cylinder has its axis along local Y; Size.X is radius, Size.Y is
// half-height.
type Cylinder struct{ Size mgl32.Vec3 }

func (c Cylinder) SDF(p mgl32.Vec3) float32 {
	radial := float32(math.Sqrt(float64(p.X()*p.X() + p.Z()*p.Z())))
	dRadial := radial - c.Size.X()
	dHeight := absf(p.Y()) - c.Size.Y()
	return maxf(dRadial, dHeight)
}

// Prism is a convex hull of an equilateral-triangle cross-section
// extruded along local Y; Size.X is the triangle's circumradius, Size.Y
// is the half-height.
type Prism struct{ Size mgl32.Vec3 }

func (pr Prism) SDF(p mgl32.Vec3) float32 {
	// Three half-plane distances for an equilateral triangle centered at
	// the origin with circumradius Size.X, combined by max (convex hull).
	r := pr.Size.X()
	const sqrt3over2 = 0.8660254
	d0 := p.Z() - r
	d1 := -0.5*p.Z() - sqrt3over2*p.X() - r*0.5
	d2 := -0.5*p.Z() + sqrt3over2*p.X() - r*0.5
	radial := maxf(d0, maxf(d1, d2))
	dHeight := absf(p.Y()) - pr.Size.Y()
	return maxf(radial, dHeight)
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func nz(v float32) float32 {
	if v == 0 {
		return 1e-6
	}
	return v
}

// SDFToWeight maps a signed distance to a voxel weight delta in
// [-0.5, +0.5] with a one-voxel transition band around the zero-crossing.
func SDFToWeight(d float32) float32 {
	return clamp(-d, -0.5, 0.5)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
