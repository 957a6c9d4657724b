package gds

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Encode writes lib to w as a GDSII stream.
func Encode(w io.Writer, lib *Library) error {
	e := &encoder{w: bufio.NewWriter(w)}

	version := lib.Version
	if version == 0 {
		version = 600
	}
	stamp := dateBlock(lib.Modified)
	user, meter := lib.UserUnits, lib.MeterUnits
	if user == 0 {
		user = 1e-3
	}
	if meter == 0 {
		meter = 1e-9
	}

	e.int2(recHeader, version)
	e.int2(recBgnLib, stamp...)
	e.ascii(recLibName, lib.Name)
	e.real8(recUnits, user, meter)
	for _, s := range lib.Structures {
		e.int2(recBgnStr, stamp...)
		e.ascii(recStrName, s.Name)
		for _, el := range s.Elements {
			e.element(el)
		}
		e.none(recEndStr)
	}
	e.none(recEndLib)

	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) record(typ recordType, dt dataType, data []byte) {
	if e.err != nil {
		return
	}
	if len(data)+4 > maxRecordLen {
		e.err = fmt.Errorf("gds: %s record of %d bytes exceeds the format limit", typ, len(data)+4)
		return
	}
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[:2], uint16(len(data)+4))
	hdr[2], hdr[3] = byte(typ), byte(dt)
	if _, err := e.w.Write(hdr[:]); err != nil {
		e.err = err
		return
	}
	if _, err := e.w.Write(data); err != nil {
		e.err = err
	}
}

func (e *encoder) none(typ recordType) { e.record(typ, dtNone, nil) }

func (e *encoder) int2(typ recordType, vals ...int16) {
	buf := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint16(buf[2*i:], uint16(v))
	}
	e.record(typ, dtInt2, buf)
}

func (e *encoder) int4(typ recordType, vals ...int32) {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint32(buf[4*i:], uint32(v))
	}
	e.record(typ, dtInt4, buf)
}

func (e *encoder) real8(typ recordType, vals ...float64) {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint64(buf[8*i:], encodeReal8(v))
	}
	e.record(typ, dtReal8, buf)
}

func (e *encoder) ascii(typ recordType, s string) {
	buf := []byte(s)
	if len(buf)%2 != 0 {
		buf = append(buf, 0)
	}
	e.record(typ, dtASCII, buf)
}

func (e *encoder) xy(pts ...Point) {
	vals := make([]int32, 0, 2*len(pts))
	for _, p := range pts {
		vals = append(vals, p.X, p.Y)
	}
	e.int4(recXY, vals...)
}

func (e *encoder) strans(s Strans) {
	if s.IsZero() {
		return
	}
	var flags uint16
	if s.Reflected {
		flags |= stransReflect
	}
	if s.AbsMag {
		flags |= stransAbsMag
	}
	if s.AbsAngle {
		flags |= stransAbsAngle
	}
	e.record(recStrans, dtBitArray, []byte{byte(flags >> 8), byte(flags)})
	if s.Mag != nil {
		e.real8(recMag, *s.Mag)
	}
	if s.Angle != nil {
		e.real8(recAngle, *s.Angle)
	}
}

func (e *encoder) props(props []Property) {
	for _, p := range props {
		e.int2(recPropAttr, p.Attr)
		e.ascii(recPropValue, p.Value)
	}
}

func (e *encoder) element(el Element) {
	switch el := el.(type) {
	case *Boundary:
		e.none(recBoundary)
		e.int2(recLayer, el.Layer)
		e.int2(recDatatype, el.Datatype)
		e.xy(el.XY...)
		e.props(el.Properties)
	case *Path:
		e.none(recPath)
		e.int2(recLayer, el.Layer)
		e.int2(recDatatype, el.Datatype)
		if el.PathType != 0 {
			e.int2(recPathType, el.PathType)
		}
		e.int4(recWidth, el.Width)
		if el.PathType == 4 {
			e.int4(recBgnExtn, el.BeginExtn)
			e.int4(recEndExtn, el.EndExtn)
		}
		e.xy(el.XY...)
		e.props(el.Properties)
	case *StructRef:
		e.none(recSRef)
		e.ascii(recSName, el.Name)
		e.strans(el.Strans)
		e.xy(el.XY)
		e.props(el.Properties)
	case *ArrayRef:
		e.none(recARef)
		e.ascii(recSName, el.Name)
		e.strans(el.Strans)
		e.int2(recColRow, el.Cols, el.Rows)
		e.xy(el.XY[:]...)
		e.props(el.Properties)
	case *Text:
		e.none(recText)
		e.int2(recLayer, el.Layer)
		e.int2(recTextType, el.TextType)
		if el.Presentation != 0 {
			e.record(recPresentation, dtBitArray, []byte{byte(uint16(el.Presentation) >> 8), byte(el.Presentation)})
		}
		if el.PathType != 0 {
			e.int2(recPathType, el.PathType)
		}
		if el.Width != 0 {
			e.int4(recWidth, el.Width)
		}
		e.strans(el.Strans)
		e.xy(el.XY)
		e.ascii(recString, el.String)
		e.props(el.Properties)
	case *Node:
		e.none(recNode)
		e.int2(recLayer, el.Layer)
		e.int2(recNodeType, el.NodeType)
		e.xy(el.XY...)
		e.props(el.Properties)
	case *Box:
		e.none(recBox)
		e.int2(recLayer, el.Layer)
		e.int2(recBoxType, el.BoxType)
		e.xy(el.XY...)
		e.props(el.Properties)
	default:
		if e.err == nil {
			e.err = fmt.Errorf("gds: cannot encode element %T", el)
		}
		return
	}
	e.none(recEndEl)
}

// dateBlock renders t twice (modification, access) as BGNLIB/BGNSTR expect.
func dateBlock(t time.Time) []int16 {
	if t.IsZero() {
		return make([]int16, 12)
	}
	one := []int16{
		int16(t.Year()), int16(t.Month()), int16(t.Day()),
		int16(t.Hour()), int16(t.Minute()), int16(t.Second()),
	}
	return append(one, one...)
}
