package layout

import (
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/matzehuels/gdsview/pkg/geom"
)

const (
	// R-tree node fan-out.
	minChildren = 25
	maxChildren = 50

	// pointTolerance is the half-size of the query box around a point;
	// candidates are re-checked exactly afterwards.
	pointTolerance = 1e-6

	// flatPad gives zero-extent envelopes (horizontal or vertical slivers)
	// a nonzero size, which the R-tree requires.
	flatPad = 1e-9
)

type indexEntry struct {
	id     ShapeInstanceID
	bounds geom.AABB
	rect   rtreego.Rect
}

func (e *indexEntry) Bounds() rtreego.Rect { return e.rect }

// SpatialIndex is an immutable R-tree over the shape instances of a store.
// It is built once after instantiation; a new load builds a new index.
type SpatialIndex struct {
	store *Store
	tree  *rtreego.Rtree
	size  int
}

// NewSpatialIndex bulk-loads every shape instance of s, keyed by the
// envelope of its world polygon. Shapes without extent are left out.
func NewSpatialIndex(s *Store) (*SpatialIndex, error) {
	objs := make([]rtreego.Spatial, 0, len(s.shapes))
	for i := range s.shapes {
		b := s.shapes[i].Polygon.Bounds()
		if b.IsEmpty() {
			continue
		}
		maxX, maxY := b.Max.X, b.Max.Y
		if maxX == b.Min.X {
			maxX += flatPad
		}
		if maxY == b.Min.Y {
			maxY += flatPad
		}
		rect, err := rtreego.NewRectFromPoints(rtreego.Point{b.Min.X, b.Min.Y}, rtreego.Point{maxX, maxY})
		if err != nil {
			return nil, fmt.Errorf("index shape %d: %w", i+1, err)
		}
		objs = append(objs, &indexEntry{id: ShapeInstanceID(i + 1), bounds: b, rect: rect})
	}
	return &SpatialIndex{
		store: s,
		tree:  rtreego.NewTree(2, minChildren, maxChildren, objs...),
		size:  len(objs),
	}, nil
}

// Len returns the number of indexed shapes.
func (ix *SpatialIndex) Len() int { return ix.size }

// Query returns every visible shape whose polygon contains p, topmost
// first: descending layer index, then most recently instantiated.
func (ix *SpatialIndex) Query(p geom.Point) []ShapeInstanceID {
	candidates := ix.tree.SearchIntersect(rtreego.Point{p.X, p.Y}.ToRect(pointTolerance))

	var hits []ShapeInstanceID
	for _, c := range candidates {
		e := c.(*indexEntry)
		if !e.bounds.Contains(p) {
			continue
		}
		shape := &ix.store.shapes[e.id-1]
		if !ix.store.layers[shape.Layer-1].Visible {
			continue
		}
		if !shape.Polygon.Contains(p) {
			continue
		}
		hits = append(hits, e.id)
	}

	sort.Slice(hits, func(i, j int) bool {
		a, b := &ix.store.shapes[hits[i]-1], &ix.store.shapes[hits[j]-1]
		if a.LayerIndex != b.LayerIndex {
			return a.LayerIndex > b.LayerIndex
		}
		return hits[i] > hits[j]
	})
	return hits
}

// Pick returns the shape under p on the highest visible layer.
func (ix *SpatialIndex) Pick(p geom.Point) (ShapeInstanceID, bool) {
	var (
		best      ShapeInstanceID
		bestIndex int16
	)
	for _, c := range ix.tree.SearchIntersect(rtreego.Point{p.X, p.Y}.ToRect(pointTolerance)) {
		e := c.(*indexEntry)
		shape := &ix.store.shapes[e.id-1]
		if best.Valid() && (shape.LayerIndex < bestIndex || shape.LayerIndex == bestIndex && e.id < best) {
			continue
		}
		if !e.bounds.Contains(p) || !ix.store.layers[shape.Layer-1].Visible || !shape.Polygon.Contains(p) {
			continue
		}
		best, bestIndex = e.id, shape.LayerIndex
	}
	return best, best.Valid()
}
