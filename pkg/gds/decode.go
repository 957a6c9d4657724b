package gds

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrMalformed is returned (wrapped, with the byte offset) for any stream
// that violates the record grammar.
var ErrMalformed = errors.New("malformed GDSII stream")

// Decode reads a complete library from r.
func Decode(r io.Reader) (*Library, error) {
	d := &decoder{r: bufio.NewReader(r)}
	return d.library()
}

// DecodeBytes decodes a library held in memory.
func DecodeBytes(data []byte) (*Library, error) {
	return Decode(bytes.NewReader(data))
}

type decoder struct {
	r   *bufio.Reader
	off int64
}

func (d *decoder) malformed(off int64, format string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", ErrMalformed, off, fmt.Sprintf(format, args...))
}

// next reads one record. It returns io.EOF only at a clean record boundary.
func (d *decoder) next() (record, error) {
	off := d.off
	var hdr [4]byte
	n, err := io.ReadFull(d.r, hdr[:])
	if err != nil {
		if err == io.EOF {
			return record{}, io.EOF
		}
		if n > 0 || err == io.ErrUnexpectedEOF {
			return record{}, d.malformed(off, "truncated record header")
		}
		return record{}, err
	}
	length := int(binary.BigEndian.Uint16(hdr[:2]))
	rec := record{typ: recordType(hdr[2]), dt: dataType(hdr[3]), off: off}
	if length == 0 {
		// Some writers pad the tail of a stream with zero bytes.
		return record{}, io.EOF
	}
	if length < 4 || length%2 != 0 {
		return record{}, d.malformed(off, "invalid record length %d", length)
	}
	rec.data = make([]byte, length-4)
	if _, err := io.ReadFull(d.r, rec.data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return record{}, d.malformed(off, "truncated %s record", rec.typ)
		}
		return record{}, err
	}
	d.off += int64(length)
	if size := rec.dt.elementSize(); size > 1 && len(rec.data)%size != 0 {
		return record{}, d.malformed(off, "%s payload of %d bytes is not a multiple of %d", rec.typ, len(rec.data), size)
	}
	return rec, nil
}

// nextIn is next with EOF treated as a grammar violation.
func (d *decoder) nextIn(context string) (record, error) {
	rec, err := d.next()
	if err == io.EOF {
		return record{}, d.malformed(d.off, "unexpected end of stream inside %s", context)
	}
	return rec, err
}

func (d *decoder) library() (*Library, error) {
	rec, err := d.nextIn("library")
	if err != nil {
		return nil, err
	}
	if rec.typ != recHeader {
		return nil, d.malformed(rec.off, "stream starts with %s, want HEADER", rec.typ)
	}
	lib := &Library{UserUnits: 1e-3, MeterUnits: 1e-9}
	if v := rec.int2s(); len(v) > 0 {
		lib.Version = v[0]
	}

	rec, err = d.nextIn("library")
	if err != nil {
		return nil, err
	}
	if rec.typ != recBgnLib {
		return nil, d.malformed(rec.off, "got %s after HEADER, want BGNLIB", rec.typ)
	}
	lib.Modified = timestamp(rec.int2s())

	for {
		rec, err := d.nextIn("library")
		if err != nil {
			return nil, err
		}
		switch {
		case rec.typ == recLibName:
			lib.Name = rec.ascii()
		case rec.typ == recUnits:
			if u := rec.real8s(); len(u) == 2 {
				lib.UserUnits, lib.MeterUnits = u[0], u[1]
			} else {
				return nil, d.malformed(rec.off, "UNITS carries %d values, want 2", len(u))
			}
		case rec.typ == recBgnStr:
			s, err := d.structure()
			if err != nil {
				return nil, err
			}
			lib.Structures = append(lib.Structures, s)
		case rec.typ == recEndLib:
			return lib, nil
		case rec.typ == recEndStr, rec.typ == recEndEl, rec.typ == recStrName, rec.typ.startsElement():
			return nil, d.malformed(rec.off, "%s outside a structure", rec.typ)
		default:
			// REFLIBS, FONTS, GENERATIONS, FORMAT and friends.
		}
	}
}

func (d *decoder) structure() (*Structure, error) {
	s := &Structure{}
	for {
		rec, err := d.nextIn("structure")
		if err != nil {
			return nil, err
		}
		switch {
		case rec.typ == recStrName:
			s.Name = rec.ascii()
		case rec.typ.startsElement():
			if s.Name == "" {
				return nil, d.malformed(rec.off, "%s before STRNAME", rec.typ)
			}
			el, err := d.element(rec)
			if err != nil {
				return nil, err
			}
			if el != nil {
				s.Elements = append(s.Elements, el)
			}
		case rec.typ == recEndStr:
			if s.Name == "" {
				return nil, d.malformed(rec.off, "structure without STRNAME")
			}
			return s, nil
		case rec.typ == recBgnStr, rec.typ == recEndLib, rec.typ == recEndEl:
			return nil, d.malformed(rec.off, "%s inside structure %q", rec.typ, s.Name)
		default:
			// STRCLASS and other structure-level records.
		}
	}
}

// elementFields accumulates the body records of one element.
type elementFields struct {
	layer, datatype, pathType, textType, presentation int16
	nodeType, boxType                                 int16
	width, bgnExtn, endExtn                           int32
	cols, rows                                        int16
	hasColRow                                         bool
	name, text                                        string
	strans                                            Strans
	xy                                                []Point
	hasXY                                             bool
	props                                             []Property
}

func (d *decoder) element(start record) (Element, error) {
	var f elementFields
	for {
		rec, err := d.nextIn(start.typ.String())
		if err != nil {
			return nil, err
		}
		switch rec.typ {
		case recEndEl:
			return f.build(d, start)
		case recLayer:
			f.layer = first16(rec)
		case recDatatype:
			f.datatype = first16(rec)
		case recPathType:
			f.pathType = first16(rec)
		case recTextType:
			f.textType = first16(rec)
		case recPresentation:
			f.presentation = first16(rec)
		case recNodeType:
			f.nodeType = first16(rec)
		case recBoxType:
			f.boxType = first16(rec)
		case recWidth:
			f.width = first32(rec)
		case recBgnExtn:
			f.bgnExtn = first32(rec)
		case recEndExtn:
			f.endExtn = first32(rec)
		case recColRow:
			if v := rec.int2s(); len(v) >= 2 {
				f.cols, f.rows, f.hasColRow = v[0], v[1], true
			}
		case recSName:
			f.name = rec.ascii()
		case recString:
			f.text = rec.ascii()
		case recStrans:
			flags := uint16(first16(rec))
			f.strans.Reflected = flags&stransReflect != 0
			f.strans.AbsMag = flags&stransAbsMag != 0
			f.strans.AbsAngle = flags&stransAbsAngle != 0
		case recMag:
			if v := rec.real8s(); len(v) > 0 {
				f.strans.Mag = &v[0]
			}
		case recAngle:
			if v := rec.real8s(); len(v) > 0 {
				f.strans.Angle = &v[0]
			}
		case recXY:
			f.xy, f.hasXY = rec.points(), true
		case recPropAttr:
			f.props = append(f.props, Property{Attr: first16(rec)})
		case recPropValue:
			if len(f.props) == 0 {
				return nil, d.malformed(rec.off, "PROPVALUE without PROPATTR")
			}
			f.props[len(f.props)-1].Value = rec.ascii()
		case recElFlags, recPlex:
		default:
			if rec.typ.startsElement() || rec.typ == recEndStr || rec.typ == recBgnStr || rec.typ == recEndLib {
				return nil, d.malformed(rec.off, "%s inside %s element", rec.typ, start.typ)
			}
		}
	}
}

func (f *elementFields) build(d *decoder, start record) (Element, error) {
	if !f.hasXY {
		return nil, d.malformed(start.off, "%s element without XY", start.typ)
	}
	switch start.typ {
	case recBoundary:
		return &Boundary{Layer: f.layer, Datatype: f.datatype, XY: f.xy, Properties: f.props}, nil
	case recPath:
		return &Path{
			Layer: f.layer, Datatype: f.datatype, PathType: f.pathType, Width: f.width,
			BeginExtn: f.bgnExtn, EndExtn: f.endExtn, XY: f.xy, Properties: f.props,
		}, nil
	case recSRef:
		if f.name == "" || len(f.xy) != 1 {
			return nil, d.malformed(start.off, "SREF needs SNAME and one XY point")
		}
		return &StructRef{Name: f.name, Strans: f.strans, XY: f.xy[0], Properties: f.props}, nil
	case recARef:
		if f.name == "" || len(f.xy) != 3 || !f.hasColRow {
			return nil, d.malformed(start.off, "AREF needs SNAME, COLROW and three XY points")
		}
		return &ArrayRef{
			Name: f.name, Strans: f.strans, Cols: f.cols, Rows: f.rows,
			XY: [3]Point{f.xy[0], f.xy[1], f.xy[2]}, Properties: f.props,
		}, nil
	case recText:
		if len(f.xy) != 1 {
			return nil, d.malformed(start.off, "TEXT needs one XY point")
		}
		return &Text{
			Layer: f.layer, TextType: f.textType, Presentation: f.presentation,
			PathType: f.pathType, Width: f.width, Strans: f.strans, XY: f.xy[0],
			String: f.text, Properties: f.props,
		}, nil
	case recNode:
		return &Node{Layer: f.layer, NodeType: f.nodeType, XY: f.xy, Properties: f.props}, nil
	case recBox:
		return &Box{Layer: f.layer, BoxType: f.boxType, XY: f.xy, Properties: f.props}, nil
	default:
		// TEXTNODE is obsolete and carries nothing we keep.
		return nil, nil
	}
}

func first16(r record) int16 {
	if v := r.int2s(); len(v) > 0 {
		return v[0]
	}
	return 0
}

func first32(r record) int32 {
	if v := r.int4s(); len(v) > 0 {
		return v[0]
	}
	return 0
}

// timestamp reads the modification half of a BGNLIB/BGNSTR date block.
func timestamp(v []int16) time.Time {
	if len(v) < 6 || v[1] == 0 {
		return time.Time{}
	}
	year := int(v[0])
	if year < 1900 {
		// Old writers store years since 1900.
		year += 1900
	}
	return time.Date(year, time.Month(v[1]), int(v[2]), int(v[3]), int(v[4]), int(v[5]), 0, time.UTC)
}
