package geom

import (
	"math"
	"testing"
)

func triangleArea(tri Triangulation) (total float64, allCCW bool) {
	allCCW = true
	for i := 0; i+2 < len(tri.Indices); i += 3 {
		a, b, c := tri.Vertices[tri.Indices[i]], tri.Vertices[tri.Indices[i+1]], tri.Vertices[tri.Indices[i+2]]
		cross := b.Sub(a).Cross(c.Sub(a))
		if cross < 0 {
			allCCW = false
		}
		total += math.Abs(cross) / 2
	}
	return total, allCCW
}

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name      string
		poly      Polygon
		triangles int
	}{
		{"square", square(0, 0, 10), 2},
		{"clockwise square", NewPolygon([]Point{Pt(0, 0), Pt(0, 1), Pt(1, 1), Pt(1, 0)}), 2},
		{"L shape", NewPolygon([]Point{Pt(0, 0), Pt(10, 0), Pt(10, 5), Pt(5, 5), Pt(5, 10), Pt(0, 10)}), 4},
		{"U shape", NewPolygon([]Point{Pt(0, 0), Pt(9, 0), Pt(9, 9), Pt(6, 9), Pt(6, 3), Pt(3, 3), Pt(3, 9), Pt(0, 9)}), 6},
		{"comb", comb(), 10},
		{"degenerate line", NewPolygon([]Point{Pt(0, 0), Pt(5, 0), Pt(10, 0)}), 0},
		{"two points", NewPolygon([]Point{Pt(0, 0), Pt(5, 0)}), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tri := Triangulate(tt.poly)
			if got := tri.TriangleCount(); got != tt.triangles {
				t.Fatalf("TriangleCount() = %d, want %d", got, tt.triangles)
			}
			area, ccw := triangleArea(tri)
			if math.Abs(area-tt.poly.Area()) > 1e-9 {
				t.Errorf("triangle area = %g, want %g", area, tt.poly.Area())
			}
			if !ccw {
				t.Error("triangles are not all counter-clockwise")
			}
		})
	}
}

// comb is a base strip with three upward teeth.
func comb() Polygon {
	return NewPolygon([]Point{
		Pt(0, 0), Pt(5, 0), Pt(5, 5), Pt(4, 5), Pt(4, 1), Pt(3, 1),
		Pt(3, 5), Pt(2, 5), Pt(2, 1), Pt(1, 1), Pt(1, 5), Pt(0, 5),
	})
}

// keyhole is a 10x10 square with a 4x4 hole, joined to the exterior by a
// doubled bridge edge from (0,5) to (3,5).
func keyhole() Polygon {
	return NewPolygon([]Point{
		Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10), Pt(0, 5),
		Pt(3, 5), Pt(3, 7), Pt(7, 7), Pt(7, 3), Pt(3, 3), Pt(3, 5),
		Pt(0, 5),
	})
}

func TestTriangulate_Keyhole(t *testing.T) {
	poly := keyhole()
	if got := poly.Area(); math.Abs(got-84) > 1e-9 {
		t.Fatalf("Area() = %g, want 84", got)
	}

	tri := Triangulate(poly)
	area, ccw := triangleArea(tri)
	if math.Abs(area-84) > 1e-6 {
		t.Errorf("triangle area = %g, want 84", area)
	}
	if !ccw {
		t.Error("triangles are not all counter-clockwise")
	}

	hole := Pt(5, 4.5)
	if poly.Contains(hole) {
		t.Error("polygon contains a point inside the hole")
	}
	if !poly.Contains(Pt(1, 1)) || !poly.Contains(Pt(8.5, 4.5)) {
		t.Error("polygon misses points on the ring")
	}
	for i := 0; i+2 < len(tri.Indices); i += 3 {
		a, b, c := tri.Vertices[tri.Indices[i]], tri.Vertices[tri.Indices[i+1]], tri.Vertices[tri.Indices[i+2]]
		if strictlyInside(a, b, c, hole) {
			t.Errorf("triangle %v %v %v covers the hole", a, b, c)
		}
	}
}

func TestTriangulate_CollinearVertices(t *testing.T) {
	poly := NewPolygon([]Point{Pt(0, 0), Pt(5, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10)})
	tri := Triangulate(poly)

	if n := tri.TriangleCount(); n < 2 || n > 3 {
		t.Fatalf("TriangleCount() = %d, want 2 or 3", n)
	}
	if area, _ := triangleArea(tri); math.Abs(area-100) > 1e-9 {
		t.Errorf("triangle area = %g, want 100", area)
	}
}

func strictlyInside(a, b, c, p Point) bool {
	d1 := b.Sub(a).Cross(p.Sub(a))
	d2 := c.Sub(b).Cross(p.Sub(b))
	d3 := a.Sub(c).Cross(p.Sub(c))
	return (d1 > 0 && d2 > 0 && d3 > 0) || (d1 < 0 && d2 < 0 && d3 < 0)
}

func TestTriangulation_TransformKeepsWinding(t *testing.T) {
	tri := Triangulate(square(0, 0, 10))
	mirrored := tri.Transform(ReflectX().Then(Translate(0, 5)))

	area, ccw := triangleArea(mirrored)
	if area != 100 {
		t.Errorf("area = %g, want 100", area)
	}
	if !ccw {
		t.Error("reflection flipped triangle winding")
	}
	if mirrored.Vertices[2] != Pt(10, -5) {
		t.Errorf("vertex 2 = %v, want (10,-5)", mirrored.Vertices[2])
	}
}

func TestTriangulation_AppendToOffsetsIndices(t *testing.T) {
	var buf GeometryBuffer
	first := Triangulate(square(0, 0, 10))
	second := Triangulate(square(20, 0, 10))

	first.AppendTo(&buf)
	before := append([]uint32(nil), buf.Indices...)
	second.AppendTo(&buf)

	if got := buf.VertexCount(); got != 8 {
		t.Errorf("VertexCount() = %d, want 8", got)
	}
	if got := buf.TriangleCount(); got != 4 {
		t.Errorf("TriangleCount() = %d, want 4", got)
	}
	for i, idx := range before {
		if buf.Indices[i] != idx {
			t.Errorf("existing index %d changed: %d -> %d", i, idx, buf.Indices[i])
		}
	}
	for i, idx := range second.Indices {
		if got := buf.Indices[len(before)+i]; got != idx+4 {
			t.Errorf("appended index %d = %d, want %d", i, got, idx+4)
		}
	}
	if buf.Positions[2] != 0 || buf.Positions[12] != 20 {
		t.Errorf("positions = %v", buf.Positions)
	}
}
