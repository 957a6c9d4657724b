// Package layout resolves a decoded GDSII library into a flattened,
// world-space model and answers point queries over it.
//
// # Overview
//
// Loading a layout runs four stages over one [Store]:
//
//  1. [Builder] turns decoded structures into cell definitions, shape
//     definitions and layers. It works in bounded chunks and hands a
//     [Progress] snapshot back to the caller after each one, so a host UI
//     can repaint between steps.
//  2. [FindRoots] lists the definitions no other definition references.
//  3. [Instancer.SelectRoot] flattens one root into cell and shape
//     instances, composing reference transforms on the way down and
//     appending each shape's triangles to its layer's geometry buffer.
//  4. [NewSpatialIndex] bulk-loads an R-tree over the shape instances;
//     [SpatialIndex.Pick] returns the topmost visible shape under a point.
//
// # Handles
//
// Everything in a [Store] is addressed by typed integer handles
// ([CellDefID], [ShapeDefID], [LayerID], [CellInstanceID],
// [ShapeInstanceID]). Relationships between entities are handles too, so
// a definition shared by many parents is stored once and instantiated
// once per placement.
//
// # Transforms
//
// A reference places its target with a local transform built as
// reflect, then rotate, then translate. A child instance's world
// transform is its local transform followed by the parent's world
// transform; the root instance uses the identity.
//
// # Picking
//
// When several shapes cover a point, the one on the numerically highest
// layer wins, matching paint order. Shapes on hidden layers are ignored
// and candidates are checked against their exact polygon, not only their
// bounding box.
//
// # Concurrency
//
// A Store is not safe for concurrent mutation. Once instantiation has
// finished, concurrent reads and picks are safe as long as no goroutine
// changes layer visibility or color at the same time.
package layout
