// Package pkg provides the core libraries of gdsview, a GDSII layout viewer.
//
// # Overview
//
// gdsview decodes a GDSII stream, turns its structures into reusable cell
// definitions, flattens one root structure into world-space shapes and
// indexes them for picking. The pkg directory is organized as:
//
//  1. [gds] - GDSII stream decoding and encoding
//  2. [geom] - transforms, polygons, bounds, triangulation, path outlines
//  3. [layout] - the store, incremental builder, root finder, instancer and spatial index
//  4. [pipeline] - orchestration (decode → build → roots → instantiate → index)
//  5. [cache], [io], [source] - decoded-library cache, text layout documents, input sources
//  6. [render] - world SVG and hierarchy diagrams
//
// # Architecture
//
//	GDSII bytes (local file or s3://)
//	         ↓
//	    [gds] package (records → library)
//	         ↓
//	    [layout] Builder (chunked, one Step at a time)
//	         ↓
//	    [layout] FindRoots + Instancer (flatten the chosen root)
//	         ↓
//	    [layout] SpatialIndex (pick the topmost visible shape)
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Load(ctx, data, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	if id, ok := res.Index.Pick(geom.Pt(5, 5)); ok {
//	    shape, _ := res.Store.ShapeInstance(id)
//	    fmt.Println(id, "on layer", shape.LayerIndex)
//	}
//
// [gds]: https://pkg.go.dev/github.com/matzehuels/gdsview/pkg/gds
// [geom]: https://pkg.go.dev/github.com/matzehuels/gdsview/pkg/geom
// [layout]: https://pkg.go.dev/github.com/matzehuels/gdsview/pkg/layout
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/gdsview/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/gdsview/pkg/cache
// [io]: https://pkg.go.dev/github.com/matzehuels/gdsview/pkg/io
// [source]: https://pkg.go.dev/github.com/matzehuels/gdsview/pkg/source
// [render]: https://pkg.go.dev/github.com/matzehuels/gdsview/pkg/render
package pkg
