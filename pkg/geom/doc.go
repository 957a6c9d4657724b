// Package geom provides the planar geometry used to flatten a layout:
// affine transforms, polygons, axis-aligned bounds, triangulation and
// path outlining.
//
// Points, matrices and containment tests are built on
// [github.com/gogpu/gg], so coordinates produced here can be handed to a
// gg drawing context unchanged.
//
// # Transforms
//
// A [Transform] is a 2x3 affine matrix. Composition reads left to right:
//
//	local := geom.ReflectX().Then(geom.RotateDegrees(90)).Then(geom.Translate(20, 0))
//	world := local.Then(parentWorld)
//
// applies the reflection first and the parent's world transform last.
//
// # Shapes
//
// [Polygon] holds a single exterior ring; holes arrive as keyhole cuts.
// [Triangulate] splits it into triangles with
// [github.com/rclancey/go-earcut] and [Triangulation.AppendTo] streams
// the result into a shared [GeometryBuffer] with offset indices.
// [PathOutline] turns a path spine into the polygon it covers using the
// offsetter from [github.com/ctessum/go.clipper].
package geom
