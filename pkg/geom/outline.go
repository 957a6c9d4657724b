package geom

import (
	"math"

	clipper "github.com/ctessum/go.clipper"
	"github.com/gogpu/gg"
)

// Cap is the end style of a stroked path.
type Cap = gg.LineCap

// Cap styles.
const (
	CapButt   = gg.LineCapButt
	CapRound  = gg.LineCapRound
	CapSquare = gg.LineCapSquare
)

// CapFromPathType maps a GDSII PATHTYPE value onto a cap style:
// 0 flush, 1 round, 2 extended by half the width. Custom extensions (4)
// and unknown values fall back to flush ends.
func CapFromPathType(pathType int16) Cap {
	switch pathType {
	case 1:
		return CapRound
	case 2:
		return CapSquare
	default:
		return CapButt
	}
}

const (
	// clipperScale maps layout units onto the offsetter's integer grid.
	clipperScale = 1024

	// miterLimit bounds the miter length as a multiple of the half-width.
	// Right-angle corners (ratio sqrt 2) stay mitered; sharper ones are
	// squared off.
	miterLimit = 2.0

	// arcTolerance is the maximum distance between a flattened round cap
	// and the true arc, as a fraction of the half-width.
	arcTolerance = 0.001
)

var endTypes = map[Cap]clipper.EndType{
	CapButt:   clipper.EtOpenButt,
	CapRound:  clipper.EtOpenRound,
	CapSquare: clipper.EtOpenSquare,
}

// PathOutline returns the polygon covered by a stroke of the given
// half-width along spine. Joins are mitered up to a fixed limit and
// squared off beyond it. A negative half-width is treated as its
// magnitude; zero yields a degenerate outline along the spine. Spines
// with fewer than two distinct points yield an empty polygon.
//
// When the stroke overlaps itself the outer boundary is returned.
func PathOutline(spine []Point, halfWidth float64, cap Cap) Polygon {
	path := make(clipper.Path, 0, len(spine))
	for _, p := range spine {
		ip := &clipper.IntPoint{X: toClipper(p.X), Y: toClipper(p.Y)}
		if n := len(path); n > 0 && *path[n-1] == *ip {
			continue
		}
		path = append(path, ip)
	}
	if len(path) < 2 {
		return Polygon{}
	}
	hw := math.Abs(halfWidth)
	if hw <= Epsilon {
		return spineOutline(spine)
	}

	end, ok := endTypes[cap]
	if !ok {
		end = clipper.EtOpenButt
	}
	co := clipper.NewClipperOffset()
	co.MiterLimit = miterLimit
	co.ArcTolerance = arcTolerance * hw * clipperScale
	co.AddPath(path, clipper.JtMiter, end)

	var outer clipper.Path
	var outerArea float64
	for _, ring := range co.Execute(hw * clipperScale) {
		if a := math.Abs(ringArea(ring)); a > outerArea {
			outer, outerArea = ring, a
		}
	}
	if outer == nil {
		return Polygon{}
	}

	pts := make([]Point, len(outer))
	for i, ip := range outer {
		pts[i] = Pt(fromClipper(ip.X), fromClipper(ip.Y))
	}
	return NewPolygon(pts)
}

// spineOutline runs along spine and back, enclosing no area.
func spineOutline(spine []Point) Polygon {
	ring := make([]Point, 0, 2*len(spine))
	ring = append(ring, spine...)
	for i := len(spine) - 2; i > 0; i-- {
		ring = append(ring, spine[i])
	}
	return NewPolygon(ring)
}

func toClipper(v float64) clipper.CInt {
	return clipper.CInt(math.Round(v * clipperScale))
}

func fromClipper(v clipper.CInt) float64 {
	return float64(v) / clipperScale
}

func ringArea(ring clipper.Path) float64 {
	var sum float64
	n := len(ring)
	for i := range n {
		a, b := ring[i], ring[(i+1)%n]
		sum += float64(a.X)*float64(b.Y) - float64(b.X)*float64(a.Y)
	}
	return sum / 2
}
