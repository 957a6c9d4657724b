// Package render groups the output renderers of gdsview.
//
//   - [svg] draws the flattened world of a loaded layout, one group per
//     layer in paint order, as a standalone SVG document.
//   - [hierarchy] draws the cell-reference graph of a layout as a
//     Graphviz diagram (DOT or SVG).
//
// Both consume a [layout.Store]; neither mutates it.
//
// [svg]: github.com/matzehuels/gdsview/pkg/render/svg
// [hierarchy]: github.com/matzehuels/gdsview/pkg/render/hierarchy
// [layout.Store]: github.com/matzehuels/gdsview/pkg/layout.Store
package render
