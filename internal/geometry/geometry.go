// Package geometry provides the vector, matrix, and bounding-box math used
// by the scene pipeline. Vectors are gonum spatial/r3 values; rotations use
// the XYZ Euler convention in radians.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box is an axis-aligned bounding box in world space.
type Box struct {
	Min r3.Vec
	Max r3.Vec
}

// EmptyBox returns a box that unions as the identity element.
func EmptyBox() Box {
	return Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
}

// ZeroBox returns a degenerate box at the origin, used for empty scenes.
func ZeroBox() Box {
	return Box{}
}

// IsEmpty reports whether the box has never been extended.
func (b Box) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend grows the box to include point p.
func (b Box) Extend(p r3.Vec) Box {
	return Box{
		Min: r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest box containing both operands.
func (b Box) Union(o Box) Box {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Size returns the per-axis extent of the box.
func (b Box) Size() r3.Vec {
	if b.IsEmpty() {
		return r3.Vec{}
	}
	return r3.Sub(b.Max, b.Min)
}

// Center returns the geometric center of the box.
func (b Box) Center() r3.Vec {
	if b.IsEmpty() {
		return r3.Vec{}
	}
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Corners returns the eight corners of the box.
func (b Box) Corners() [8]r3.Vec {
	return [8]r3.Vec{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

// Mat3 is a row-major 3x3 linear map.
type Mat3 [3][3]float64

// Identity3 returns the identity matrix.
func Identity3() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// MulVec applies the linear map to v.
func (m Mat3) MulVec(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Mul composes two linear maps (m then applied after o: result = m * o).
func (m Mat3) Mul(o Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return r
}

// RotationXYZ builds a rotation matrix from XYZ Euler angles in radians,
// applied in X, then Y, then Z order (Blender's default convention).
func RotationXYZ(angles r3.Vec) Mat3 {
	cx, sx := math.Cos(angles.X), math.Sin(angles.X)
	cy, sy := math.Cos(angles.Y), math.Sin(angles.Y)
	cz, sz := math.Cos(angles.Z), math.Sin(angles.Z)

	rx := Mat3{{1, 0, 0}, {0, cx, -sx}, {0, sx, cx}}
	ry := Mat3{{cy, 0, sy}, {0, 1, 0}, {-sy, 0, cy}}
	rz := Mat3{{cz, -sz, 0}, {sz, cz, 0}, {0, 0, 1}}

	return rz.Mul(ry).Mul(rx)
}

// ScaleDiag builds a diagonal scale matrix from per-axis factors.
func ScaleDiag(s r3.Vec) Mat3 {
	return Mat3{{s.X, 0, 0}, {0, s.Y, 0}, {0, 0, s.Z}}
}

// Affine is a linear map followed by a translation.
type Affine struct {
	Linear      Mat3
	Translation r3.Vec
}

// IdentityAffine returns the identity transform.
func IdentityAffine() Affine {
	return Affine{Linear: Identity3()}
}

// Apply maps a point through the transform.
func (a Affine) Apply(p r3.Vec) r3.Vec {
	return r3.Add(a.Linear.MulVec(p), a.Translation)
}

// Compose returns the transform equivalent to applying o first, then a.
func (a Affine) Compose(o Affine) Affine {
	return Affine{
		Linear:      a.Linear.Mul(o.Linear),
		Translation: a.Apply(o.Translation),
	}
}

// TRS builds the local transform translation * rotation * scale.
func TRS(translation, rotationXYZ, scale r3.Vec) Affine {
	return Affine{
		Linear:      RotationXYZ(rotationXYZ).Mul(ScaleDiag(scale)),
		Translation: translation,
	}
}

// TransformBox maps a local-space box through an affine transform and returns
// the tight axis-aligned envelope of the result.
func TransformBox(a Affine, local Box) Box {
	out := EmptyBox()
	for _, c := range local.Corners() {
		out = out.Extend(a.Apply(c))
	}
	return out
}

// Finite reports whether every component of v is a finite number.
func Finite(v r3.Vec) bool {
	for _, f := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
