package geom

import earcut "github.com/rclancey/go-earcut"

// Triangulation is an indexed triangle list. Every three entries of
// Indices name one triangle in Vertices.
type Triangulation struct {
	Vertices []Point
	Indices  []uint32
}

// TriangleCount returns len(Indices)/3.
func (t Triangulation) TriangleCount() int { return len(t.Indices) / 3 }

// Triangulate splits a polygon into counter-clockwise triangles with
// earcut.
//
// Rings with fewer than three vertices or no area yield an empty
// triangulation. Keyhole rings, where a hole is joined to the exterior
// by a doubled bridge edge, are triangulated around the hole.
// Collinear vertices may be dropped, so the triangle count can be lower
// than len(p.Points)-2.
func Triangulate(p Polygon) Triangulation {
	n := len(p.Points)
	if n < 3 || p.Area() <= Epsilon {
		return Triangulation{}
	}

	verts := make([]Point, n)
	copy(verts, p.Points)
	flat := make([]float64, 0, 2*n)
	for _, v := range verts {
		flat = append(flat, v.X, v.Y)
	}

	tris, err := earcut.Earcut(flat, nil, 2)
	if err != nil || len(tris) < 3 {
		return Triangulation{}
	}

	indices := make([]uint32, 0, len(tris))
	for i := 0; i+2 < len(tris); i += 3 {
		a, b, c := tris[i], tris[i+1], tris[i+2]
		cross := verts[b].Sub(verts[a]).Cross(verts[c].Sub(verts[a]))
		switch {
		case cross > Epsilon:
			indices = append(indices, uint32(a), uint32(b), uint32(c))
		case cross < -Epsilon:
			indices = append(indices, uint32(a), uint32(c), uint32(b))
		}
	}
	if len(indices) == 0 {
		return Triangulation{}
	}
	return Triangulation{Vertices: verts, Indices: indices}
}

// Transform returns a copy with every vertex mapped through t. Indices
// are shared with the receiver.
func (t Triangulation) Transform(tr Transform) Triangulation {
	if len(t.Vertices) == 0 {
		return Triangulation{}
	}
	out := make([]Point, len(t.Vertices))
	for i, v := range t.Vertices {
		out[i] = tr.Apply(v)
	}
	// Orientation-reversing transforms flip winding; restore it so that
	// every buffered triangle stays counter-clockwise.
	if tr.Determinant() >= 0 {
		return Triangulation{Vertices: out, Indices: t.Indices}
	}
	idx := make([]uint32, len(t.Indices))
	for i := 0; i+2 < len(t.Indices); i += 3 {
		idx[i], idx[i+1], idx[i+2] = t.Indices[i], t.Indices[i+2], t.Indices[i+1]
	}
	return Triangulation{Vertices: out, Indices: idx}
}

// AppendTo appends the triangles to buf. Vertices are stored as (x, y, 0)
// float32 triples and indices are offset by the vertex count buf already
// holds, so earlier contents are never disturbed.
func (t Triangulation) AppendTo(buf *GeometryBuffer) {
	base := uint32(buf.VertexCount())
	for _, v := range t.Vertices {
		buf.Positions = append(buf.Positions, float32(v.X), float32(v.Y), 0)
	}
	for _, i := range t.Indices {
		buf.Indices = append(buf.Indices, base+i)
	}
}

// GeometryBuffer is an append-only vertex/index store shared by all
// shapes on one layer.
type GeometryBuffer struct {
	Positions []float32
	Indices   []uint32
}

// VertexCount returns the number of (x, y, z) triples in the buffer.
func (b *GeometryBuffer) VertexCount() int { return len(b.Positions) / 3 }

// TriangleCount returns the number of indexed triangles in the buffer.
func (b *GeometryBuffer) TriangleCount() int { return len(b.Indices) / 3 }
