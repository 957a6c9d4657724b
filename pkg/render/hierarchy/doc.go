// Package hierarchy renders the cell-reference graph of a layout.
//
// Every cell definition becomes a node; every distinct (parent, child)
// pair of references becomes one edge labelled with the number of
// placements when there is more than one. Root definitions are drawn
// with a bold outline and the selected root, if any, is filled.
//
//	dot := hierarchy.ToDOT(store, hierarchy.Options{Detailed: true})
//	svg, err := hierarchy.RenderSVG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is required.
package hierarchy
