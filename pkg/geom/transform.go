package geom

import (
	"fmt"
	"math"

	"github.com/gogpu/gg"
)

// Point is a position in layout coordinates.
type Point = gg.Point

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return gg.Pt(x, y) }

// Epsilon is the tolerance used by approximate comparisons in this package.
const Epsilon = 1e-9

// Transform is a 2D affine transformation.
//
// The zero value is NOT the identity; use [Identity].
type Transform struct {
	m gg.Matrix
}

// Identity returns the transform that leaves every point in place.
func Identity() Transform { return Transform{m: gg.Identity()} }

// Translate returns a translation by (x, y).
func Translate(x, y float64) Transform { return Transform{m: gg.Translate(x, y)} }

// Scale returns a scale about the origin.
func Scale(sx, sy float64) Transform { return Transform{m: gg.Scale(sx, sy)} }

// RotateDegrees returns a counter-clockwise rotation about the origin.
func RotateDegrees(deg float64) Transform {
	// Exact values for the quarter turns that dominate real layouts.
	switch math.Mod(math.Mod(deg, 360)+360, 360) {
	case 0:
		return Identity()
	case 90:
		return Transform{m: gg.Matrix{A: 0, B: -1, D: 1, E: 0}}
	case 180:
		return Transform{m: gg.Matrix{A: -1, B: 0, D: 0, E: -1}}
	case 270:
		return Transform{m: gg.Matrix{A: 0, B: 1, D: -1, E: 0}}
	}
	return Transform{m: gg.Rotate(deg * math.Pi / 180)}
}

// ReflectX mirrors about the x axis, mapping (x, y) to (x, -y).
func ReflectX() Transform { return Scale(1, -1) }

// FromMatrix wraps a gg matrix.
func FromMatrix(m gg.Matrix) Transform { return Transform{m: m} }

// Matrix returns the underlying gg matrix.
func (t Transform) Matrix() gg.Matrix { return t.m }

// Then returns the transform that applies t first and next second.
func (t Transform) Then(next Transform) Transform {
	return Transform{m: next.m.Multiply(t.m)}
}

// Apply maps p through the transform.
func (t Transform) Apply(p Point) Point { return t.m.TransformPoint(p) }

// Determinant returns the determinant of the linear part.
func (t Transform) Determinant() float64 { return t.m.A*t.m.E - t.m.B*t.m.D }

// Inverse returns the inverse transform. ok is false when t is singular.
func (t Transform) Inverse() (inv Transform, ok bool) {
	if math.Abs(t.Determinant()) < Epsilon {
		return Identity(), false
	}
	return Transform{m: t.m.Invert()}, true
}

// IsIdentity reports whether t is exactly the identity.
func (t Transform) IsIdentity() bool { return t.m.IsIdentity() }

// ApproxEqual reports whether every coefficient of t and o differs by at most eps.
func (t Transform) ApproxEqual(o Transform, eps float64) bool {
	a, b := t.m, o.m
	return math.Abs(a.A-b.A) <= eps && math.Abs(a.B-b.B) <= eps && math.Abs(a.C-b.C) <= eps &&
		math.Abs(a.D-b.D) <= eps && math.Abs(a.E-b.E) <= eps && math.Abs(a.F-b.F) <= eps
}

// String formats the matrix as "[a b c; d e f]".
func (t Transform) String() string {
	m := t.m
	return fmt.Sprintf("[%g %g %g; %g %g %g]", m.A, m.B, m.C, m.D, m.E, m.F)
}
