package geom

import (
	"fmt"
	"math"

	"github.com/gogpu/gg"
)

// AABB is an axis-aligned bounding box. The zero value is empty and acts
// as the identity for [AABB.Encompass].
type AABB struct {
	Min, Max Point
	valid    bool
}

// NewAABB returns the box spanned by two corners in any order.
func NewAABB(a, b Point) AABB {
	r := gg.NewRect(a, b)
	return AABB{Min: r.Min, Max: r.Max, valid: true}
}

// Empty returns a box containing nothing.
func Empty() AABB { return AABB{} }

// IsEmpty reports whether the box contains no points.
func (b AABB) IsEmpty() bool { return !b.valid }

// Encompass returns the smallest box containing both b and o.
func (b AABB) Encompass(o AABB) AABB {
	switch {
	case !o.valid:
		return b
	case !b.valid:
		return o
	}
	r := b.Rect().Union(o.Rect())
	return AABB{Min: r.Min, Max: r.Max, valid: true}
}

// EncompassPoint grows b to include p.
func (b AABB) EncompassPoint(p Point) AABB {
	return b.Encompass(AABB{Min: p, Max: p, valid: true})
}

// Contains reports whether p lies inside or on the boundary of b.
func (b AABB) Contains(p Point) bool {
	return b.valid && p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Intersects reports whether the two boxes overlap, touching included.
func (b AABB) Intersects(o AABB) bool {
	return b.valid && o.valid &&
		b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y
}

// Width returns the horizontal extent, 0 for an empty box.
func (b AABB) Width() float64 {
	if !b.valid {
		return 0
	}
	return b.Max.X - b.Min.X
}

// Height returns the vertical extent, 0 for an empty box.
func (b AABB) Height() float64 {
	if !b.valid {
		return 0
	}
	return b.Max.Y - b.Min.Y
}

// Center returns the midpoint of the box.
func (b AABB) Center() Point {
	return Pt((b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2)
}

// Rect converts b to a gg rectangle.
func (b AABB) Rect() gg.Rect { return gg.Rect{Min: b.Min, Max: b.Max} }

// ApproxEqual compares two boxes coordinate-wise within eps.
func (b AABB) ApproxEqual(o AABB, eps float64) bool {
	if b.valid != o.valid {
		return false
	}
	if !b.valid {
		return true
	}
	return math.Abs(b.Min.X-o.Min.X) <= eps && math.Abs(b.Min.Y-o.Min.Y) <= eps &&
		math.Abs(b.Max.X-o.Max.X) <= eps && math.Abs(b.Max.Y-o.Max.Y) <= eps
}

// String formats the box as "[minx,miny]-[maxx,maxy]".
func (b AABB) String() string {
	if !b.valid {
		return "[empty]"
	}
	return fmt.Sprintf("[%g,%g]-[%g,%g]", b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
}
