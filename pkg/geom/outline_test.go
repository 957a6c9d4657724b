package geom

import (
	"math"
	"testing"
)

func TestPathOutline_Caps(t *testing.T) {
	spine := []Point{Pt(0, 0), Pt(10, 0)}

	tests := []struct {
		name   string
		cap    Cap
		bounds AABB
		area   float64
		tol    float64
	}{
		{"butt", CapButt, NewAABB(Pt(0, -1), Pt(10, 1)), 20, 1e-9},
		{"square", CapSquare, NewAABB(Pt(-1, -1), Pt(11, 1)), 24, 1e-9},
		{"round", CapRound, NewAABB(Pt(-1, -1), Pt(11, 1)), 20 + math.Pi, 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := PathOutline(spine, 1, tt.cap)
			if !out.Bounds().ApproxEqual(tt.bounds, 0.01) {
				t.Errorf("Bounds() = %v, want %v", out.Bounds(), tt.bounds)
			}
			if got := out.Area(); math.Abs(got-tt.area) > tt.tol {
				t.Errorf("Area() = %g, want %g", got, tt.area)
			}
			if !out.Contains(Pt(5, 0)) {
				t.Error("outline does not contain spine midpoint")
			}
		})
	}
}

func TestPathOutline_RightAngleMiter(t *testing.T) {
	out := PathOutline([]Point{Pt(0, 0), Pt(10, 0), Pt(10, 10)}, 1, CapButt)

	if got := out.Area(); math.Abs(got-40) > 1e-9 {
		t.Errorf("Area() = %g, want 40", got)
	}
	if !out.Bounds().ApproxEqual(NewAABB(Pt(0, -1), Pt(11, 10)), 1e-9) {
		t.Errorf("Bounds() = %v", out.Bounds())
	}
	if out.Contains(Pt(5, 5)) {
		t.Error("outline covers the inside of the corner")
	}
	if !out.Contains(Pt(10.5, -0.5)) {
		t.Error("outline misses the mitered corner")
	}
}

func TestPathOutline_NegativeWidth(t *testing.T) {
	a := PathOutline([]Point{Pt(0, 0), Pt(10, 0)}, -2, CapButt)
	b := PathOutline([]Point{Pt(0, 0), Pt(10, 0)}, 2, CapButt)
	if a.Area() != b.Area() {
		t.Errorf("areas differ: %g vs %g", a.Area(), b.Area())
	}
}

func TestPathOutline_Degenerate(t *testing.T) {
	if out := PathOutline([]Point{Pt(1, 1)}, 1, CapButt); !out.IsEmpty() {
		t.Errorf("single point outline = %v, want empty", out.Points)
	}
	if out := PathOutline([]Point{Pt(1, 1), Pt(1, 1)}, 1, CapButt); !out.IsEmpty() {
		t.Errorf("repeated point outline = %v, want empty", out.Points)
	}

	zero := PathOutline([]Point{Pt(0, 0), Pt(10, 0)}, 0, CapButt)
	if zero.Area() != 0 {
		t.Errorf("zero-width Area() = %g, want 0", zero.Area())
	}
	if tri := Triangulate(zero); tri.TriangleCount() != 0 {
		t.Errorf("zero-width triangles = %d, want 0", tri.TriangleCount())
	}
}

func TestCapFromPathType(t *testing.T) {
	tests := []struct {
		pathType int16
		want     Cap
	}{
		{0, CapButt},
		{1, CapRound},
		{2, CapSquare},
		{4, CapButt},
		{-1, CapButt},
	}

	for _, tt := range tests {
		if got := CapFromPathType(tt.pathType); got != tt.want {
			t.Errorf("CapFromPathType(%d) = %v, want %v", tt.pathType, got, tt.want)
		}
	}
}
