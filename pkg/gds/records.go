package gds

import (
	"encoding/binary"
	"fmt"
	"math"
)

type recordType byte

const (
	recHeader       recordType = 0x00
	recBgnLib       recordType = 0x01
	recLibName      recordType = 0x02
	recUnits        recordType = 0x03
	recEndLib       recordType = 0x04
	recBgnStr       recordType = 0x05
	recStrName      recordType = 0x06
	recEndStr       recordType = 0x07
	recBoundary     recordType = 0x08
	recPath         recordType = 0x09
	recSRef         recordType = 0x0A
	recARef         recordType = 0x0B
	recText         recordType = 0x0C
	recLayer        recordType = 0x0D
	recDatatype     recordType = 0x0E
	recWidth        recordType = 0x0F
	recXY           recordType = 0x10
	recEndEl        recordType = 0x11
	recSName        recordType = 0x12
	recColRow       recordType = 0x13
	recTextNode     recordType = 0x14
	recNode         recordType = 0x15
	recTextType     recordType = 0x16
	recPresentation recordType = 0x17
	recString       recordType = 0x19
	recStrans       recordType = 0x1A
	recMag          recordType = 0x1B
	recAngle        recordType = 0x1C
	recPathType     recordType = 0x21
	recElFlags      recordType = 0x26
	recNodeType     recordType = 0x2A
	recPropAttr     recordType = 0x2B
	recPropValue    recordType = 0x2C
	recBox          recordType = 0x2D
	recBoxType      recordType = 0x2E
	recPlex         recordType = 0x2F
	recBgnExtn      recordType = 0x30
	recEndExtn      recordType = 0x31
)

var recordNames = map[recordType]string{
	recHeader: "HEADER", recBgnLib: "BGNLIB", recLibName: "LIBNAME", recUnits: "UNITS",
	recEndLib: "ENDLIB", recBgnStr: "BGNSTR", recStrName: "STRNAME", recEndStr: "ENDSTR",
	recBoundary: "BOUNDARY", recPath: "PATH", recSRef: "SREF", recARef: "AREF",
	recText: "TEXT", recLayer: "LAYER", recDatatype: "DATATYPE", recWidth: "WIDTH",
	recXY: "XY", recEndEl: "ENDEL", recSName: "SNAME", recColRow: "COLROW",
	recTextNode: "TEXTNODE", recNode: "NODE", recTextType: "TEXTTYPE",
	recPresentation: "PRESENTATION", recString: "STRING", recStrans: "STRANS",
	recMag: "MAG", recAngle: "ANGLE", recPathType: "PATHTYPE", recElFlags: "ELFLAGS",
	recNodeType: "NODETYPE", recPropAttr: "PROPATTR", recPropValue: "PROPVALUE",
	recBox: "BOX", recBoxType: "BOXTYPE", recPlex: "PLEX", recBgnExtn: "BGNEXTN",
	recEndExtn: "ENDEXTN",
}

func (t recordType) String() string {
	if s, ok := recordNames[t]; ok {
		return s
	}
	return fmt.Sprintf("record 0x%02X", byte(t))
}

func (t recordType) startsElement() bool {
	switch t {
	case recBoundary, recPath, recSRef, recARef, recText, recNode, recBox, recTextNode:
		return true
	}
	return false
}

type dataType byte

const (
	dtNone     dataType = 0
	dtBitArray dataType = 1
	dtInt2     dataType = 2
	dtInt4     dataType = 3
	dtReal4    dataType = 4
	dtReal8    dataType = 5
	dtASCII    dataType = 6
)

// Strans flag bits.
const (
	stransReflect  = 0x8000
	stransAbsMag   = 0x0004
	stransAbsAngle = 0x0002
)

// maxRecordLen is the largest even length that fits the 16-bit header.
const maxRecordLen = 0xFFFE

type record struct {
	typ  recordType
	dt   dataType
	data []byte
	off  int64
}

func (r record) int2s() []int16 {
	out := make([]int16, len(r.data)/2)
	for i := range out {
		out[i] = int16(binary.BigEndian.Uint16(r.data[2*i:]))
	}
	return out
}

func (r record) int4s() []int32 {
	out := make([]int32, len(r.data)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(r.data[4*i:]))
	}
	return out
}

func (r record) real8s() []float64 {
	out := make([]float64, len(r.data)/8)
	for i := range out {
		out[i] = decodeReal8(binary.BigEndian.Uint64(r.data[8*i:]))
	}
	return out
}

func (r record) ascii() string {
	end := len(r.data)
	for end > 0 && r.data[end-1] == 0 {
		end--
	}
	return string(r.data[:end])
}

func (r record) points() []Point {
	v := r.int4s()
	out := make([]Point, len(v)/2)
	for i := range out {
		out[i] = Point{X: v[2*i], Y: v[2*i+1]}
	}
	return out
}

// elementSize is the payload width of one value of each data type.
func (d dataType) elementSize() int {
	switch d {
	case dtBitArray, dtInt2:
		return 2
	case dtInt4, dtReal4:
		return 4
	case dtReal8:
		return 8
	case dtASCII:
		return 1
	default:
		return 0
	}
}

// decodeReal8 converts an excess-64 base-16 real: one sign bit, a
// seven-bit exponent and a 56-bit mantissa with value mant/2^56 * 16^(exp-64).
func decodeReal8(u uint64) float64 {
	mant := u & (1<<56 - 1)
	if mant == 0 {
		return 0
	}
	exp := int((u>>56)&0x7F) - 64
	v := math.Ldexp(float64(mant), 4*exp-56)
	if u>>63 == 1 {
		v = -v
	}
	return v
}

// encodeReal8 is the inverse of decodeReal8. Values too small for the
// format become zero; values too large saturate.
func encodeReal8(v float64) uint64 {
	if v == 0 || math.IsNaN(v) {
		return 0
	}
	var sign uint64
	if v < 0 {
		sign = 1 << 63
		v = -v
	}
	if math.IsInf(v, 0) {
		return sign | 0x7F<<56 | (1<<56 - 1)
	}
	exp := 0
	for v >= 1 {
		v /= 16
		exp++
	}
	for v < 1.0/16 {
		v *= 16
		exp--
	}
	mant := uint64(math.Round(math.Ldexp(v, 56)))
	if mant >= 1<<56 {
		mant >>= 4
		exp++
	}
	switch {
	case exp < -64:
		return 0
	case exp > 63:
		return sign | 0x7F<<56 | (1<<56 - 1)
	}
	return sign | uint64(exp+64)<<56 | mant
}
