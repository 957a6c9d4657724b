// Package io converts GDSII libraries to and from text documents.
//
// # Overview
//
// A layout document is a JSON or TOML rendition of a [gds.Library]. The
// format is used for:
//
//   - Test fixtures that are easier to read and diff than binary streams
//   - The decoded-library payloads stored by [pkg/cache] backends
//   - Hand-written layouts that are fed to the viewer like any GDSII file
//
// # Format
//
//	{
//	  "name": "DEMO",
//	  "structures": [
//	    {"name": "INV", "elements": [
//	      {"kind": "boundary", "layer": 1, "xy": [[0,0],[10,0],[10,10],[0,10],[0,0]]}
//	    ]},
//	    {"name": "TOP", "elements": [
//	      {"kind": "sref", "ref": "INV", "xy": [[0,0]]},
//	      {"kind": "sref", "ref": "INV", "xy": [[20,0]], "angle": 90}
//	    ]}
//	  ]
//	}
//
// The same fields are used in TOML, with structures as [[structures]]
// tables and elements as [[structures.elements]] tables.
//
// Element kinds are "boundary", "path", "sref", "aref", "text", "node" and
// "box". Coordinates are integer database units given as [x, y] pairs.
// Optional fields are omitted when they hold their zero value.
//
// # Reading and Writing
//
// [ReadJSON] and [ReadTOML] decode from any io.Reader; [WriteJSON] and
// [WriteTOML] encode. [ReadFile] picks the decoder from the file extension
// and also accepts binary GDSII streams. Decoding validates element kinds
// and point counts; errors name the structure and element index.
//
// [pkg/cache]: github.com/matzehuels/gdsview/pkg/cache
package io
