// Package gds reads and writes GDSII stream files.
//
// A GDSII stream is a flat sequence of binary records. Each record starts
// with a 2-byte big-endian length (header included), a record type and a
// data type, followed by the payload. [Decode] turns such a stream into a
// [Library] of named [Structure] values, each holding an ordered list of
// typed [Element] values; [Encode] writes one back.
//
// # Elements
//
// The decoder understands every element kind of the format:
//
//   - [Boundary]: a filled polygon on a layer
//   - [Path]: a stroked polyline with a width and end style
//   - [StructRef]: a single placement of another structure
//   - [ArrayRef]: a rows x columns lattice of placements
//   - [Text], [Node], [Box]: annotation and connectivity elements
//
// Records the package has no use for (ELFLAGS, PLEX, font and mask tables)
// are skipped. Structural violations such as a truncated record, an element
// outside a structure or a missing ENDLIB are reported as [ErrMalformed]
// together with the byte offset of the offending record.
//
// # Reals
//
// GDSII stores reals as excess-64 base-16 floating point numbers rather
// than IEEE 754. The conversion is exact for every float64 with at most
// 53 significant bits, so decoding an encoded library reproduces its
// units bit for bit.
package gds
