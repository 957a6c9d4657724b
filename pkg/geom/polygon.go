package geom

import (
	"math"

	"github.com/gogpu/gg"
)

// Polygon is a simple closed ring. The closing edge is implicit; a
// trailing point equal to the first is dropped by [NewPolygon].
type Polygon struct {
	Points []Point
}

// NewPolygon builds a polygon from a ring, removing the closing duplicate
// and consecutive repeated points.
func NewPolygon(ring []Point) Polygon {
	pts := make([]Point, 0, len(ring))
	for _, p := range ring {
		if n := len(pts); n > 0 && pts[n-1] == p {
			continue
		}
		pts = append(pts, p)
	}
	if n := len(pts); n > 1 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	return Polygon{Points: pts}
}

// IsEmpty reports whether the polygon has no vertices.
func (p Polygon) IsEmpty() bool { return len(p.Points) == 0 }

// Transform returns a copy of p mapped through t.
func (p Polygon) Transform(t Transform) Polygon {
	if p.Points == nil {
		return Polygon{}
	}
	out := make([]Point, len(p.Points))
	for i, pt := range p.Points {
		out[i] = t.Apply(pt)
	}
	return Polygon{Points: out}
}

// Bounds returns the axis-aligned envelope of the vertices.
func (p Polygon) Bounds() AABB {
	b := Empty()
	for _, pt := range p.Points {
		b = b.EncompassPoint(pt)
	}
	return b
}

// SignedArea is positive for counter-clockwise rings.
func (p Polygon) SignedArea() float64 {
	var sum float64
	n := len(p.Points)
	for i := range n {
		a, b := p.Points[i], p.Points[(i+1)%n]
		sum += a.Cross(b)
	}
	return sum / 2
}

// Area returns the enclosed area regardless of orientation.
func (p Polygon) Area() float64 { return math.Abs(p.SignedArea()) }

// Path returns the ring as a closed gg path.
func (p Polygon) Path() *gg.Path {
	path := gg.NewPath()
	for i, pt := range p.Points {
		if i == 0 {
			path.MoveTo(pt.X, pt.Y)
		} else {
			path.LineTo(pt.X, pt.Y)
		}
	}
	if len(p.Points) > 0 {
		path.Close()
	}
	return path
}

// Contains reports whether pt is inside p under the non-zero winding rule.
// Points on the boundary are counted as inside.
func (p Polygon) Contains(pt Point) bool {
	if len(p.Points) < 3 || !p.Bounds().Contains(pt) {
		return false
	}
	if p.onBoundary(pt) {
		return true
	}
	return p.Path().Contains(pt)
}

func (p Polygon) onBoundary(pt Point) bool {
	n := len(p.Points)
	for i := range n {
		a, b := p.Points[i], p.Points[(i+1)%n]
		ab, ap := b.Sub(a), pt.Sub(a)
		if math.Abs(ab.Cross(ap)) > Epsilon*math.Max(1, ab.Length()) {
			continue
		}
		if d := ab.Dot(ap); d >= 0 && d <= ab.LengthSquared() {
			return true
		}
	}
	return false
}
