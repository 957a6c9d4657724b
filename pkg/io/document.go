package io

import (
	"errors"
	"fmt"

	"github.com/matzehuels/gdsview/pkg/gds"
)

// ErrInvalidDocument is wrapped by every validation failure of a document.
var ErrInvalidDocument = errors.New("invalid layout document")

type document struct {
	Name       string      `json:"name" toml:"name"`
	Version    int16       `json:"version,omitempty" toml:"version,omitempty"`
	UserUnits  float64     `json:"user_units,omitempty" toml:"user_units,omitempty"`
	MeterUnits float64     `json:"meter_units,omitempty" toml:"meter_units,omitempty"`
	Structures []structure `json:"structures" toml:"structures"`
}

type structure struct {
	Name     string    `json:"name" toml:"name"`
	Elements []element `json:"elements" toml:"elements"`
}

type element struct {
	Kind     string    `json:"kind" toml:"kind"`
	Layer    int16     `json:"layer,omitempty" toml:"layer,omitempty"`
	Datatype int16     `json:"datatype,omitempty" toml:"datatype,omitempty"`
	Type     int16     `json:"type,omitempty" toml:"type,omitempty"` // texttype, nodetype or boxtype
	PathType int16     `json:"path_type,omitempty" toml:"path_type,omitempty"`
	Width    int32     `json:"width,omitempty" toml:"width,omitempty"`
	Ref      string    `json:"ref,omitempty" toml:"ref,omitempty"`
	Cols     int16     `json:"cols,omitempty" toml:"cols,omitempty"`
	Rows     int16     `json:"rows,omitempty" toml:"rows,omitempty"`
	Text     string    `json:"text,omitempty" toml:"text,omitempty"`
	XY       [][]int32 `json:"xy" toml:"xy"`

	Reflected bool     `json:"reflected,omitempty" toml:"reflected,omitempty"`
	AbsMag    bool     `json:"abs_mag,omitempty" toml:"abs_mag,omitempty"`
	AbsAngle  bool     `json:"abs_angle,omitempty" toml:"abs_angle,omitempty"`
	Mag       *float64 `json:"mag,omitempty" toml:"mag,omitempty"`
	Angle     *float64 `json:"angle,omitempty" toml:"angle,omitempty"`

	Presentation int16 `json:"presentation,omitempty" toml:"presentation,omitempty"` // text
	BeginExtn    int32 `json:"begin_extn,omitempty" toml:"begin_extn,omitempty"`     // path type 4
	EndExtn      int32 `json:"end_extn,omitempty" toml:"end_extn,omitempty"`         // path type 4

	Properties []property `json:"properties,omitempty" toml:"properties,omitempty"`
}

type property struct {
	Attr  int16  `json:"attr" toml:"attr"`
	Value string `json:"value" toml:"value"`
}

// =============================================================================
// Library -> document
// =============================================================================

func fromLibrary(lib *gds.Library) document {
	doc := document{
		Name:       lib.Name,
		Version:    lib.Version,
		UserUnits:  lib.UserUnits,
		MeterUnits: lib.MeterUnits,
		Structures: make([]structure, len(lib.Structures)),
	}
	for i, s := range lib.Structures {
		st := structure{Name: s.Name, Elements: make([]element, 0, len(s.Elements))}
		for _, el := range s.Elements {
			st.Elements = append(st.Elements, fromElement(el))
		}
		doc.Structures[i] = st
	}
	return doc
}

func fromElement(el gds.Element) element {
	e := element{Kind: el.Kind().String()}
	switch el := el.(type) {
	case *gds.Boundary:
		e.Layer, e.Datatype, e.XY = el.Layer, el.Datatype, fromPoints(el.XY)
		e.Properties = fromProperties(el.Properties)
	case *gds.Path:
		e.Layer, e.Datatype, e.XY = el.Layer, el.Datatype, fromPoints(el.XY)
		e.PathType, e.Width = el.PathType, el.Width
		e.BeginExtn, e.EndExtn = el.BeginExtn, el.EndExtn
		e.Properties = fromProperties(el.Properties)
	case *gds.StructRef:
		e.Ref, e.XY = el.Name, fromPoints([]gds.Point{el.XY})
		setStrans(&e, el.Strans)
		e.Properties = fromProperties(el.Properties)
	case *gds.ArrayRef:
		e.Ref, e.Cols, e.Rows, e.XY = el.Name, el.Cols, el.Rows, fromPoints(el.XY[:])
		setStrans(&e, el.Strans)
		e.Properties = fromProperties(el.Properties)
	case *gds.Text:
		e.Layer, e.Type, e.Text, e.XY = el.Layer, el.TextType, el.String, fromPoints([]gds.Point{el.XY})
		e.Presentation, e.PathType, e.Width = el.Presentation, el.PathType, el.Width
		setStrans(&e, el.Strans)
		e.Properties = fromProperties(el.Properties)
	case *gds.Node:
		e.Layer, e.Type, e.XY = el.Layer, el.NodeType, fromPoints(el.XY)
		e.Properties = fromProperties(el.Properties)
	case *gds.Box:
		e.Layer, e.Type, e.XY = el.Layer, el.BoxType, fromPoints(el.XY)
		e.Properties = fromProperties(el.Properties)
	}
	return e
}

func fromPoints(pts []gds.Point) [][]int32 {
	out := make([][]int32, len(pts))
	for i, p := range pts {
		out[i] = []int32{p.X, p.Y}
	}
	return out
}

func fromProperties(props []gds.Property) []property {
	if len(props) == 0 {
		return nil
	}
	out := make([]property, len(props))
	for i, p := range props {
		out[i] = property{Attr: p.Attr, Value: p.Value}
	}
	return out
}

func setStrans(e *element, st gds.Strans) {
	e.Reflected, e.AbsMag, e.AbsAngle = st.Reflected, st.AbsMag, st.AbsAngle
	e.Mag, e.Angle = st.Mag, st.Angle
}

// =============================================================================
// document -> Library
// =============================================================================

func (doc document) library() (*gds.Library, error) {
	lib := &gds.Library{
		Name:       doc.Name,
		Version:    doc.Version,
		UserUnits:  doc.UserUnits,
		MeterUnits: doc.MeterUnits,
		Structures: make([]*gds.Structure, len(doc.Structures)),
	}
	for i, st := range doc.Structures {
		if st.Name == "" {
			return nil, fmt.Errorf("%w: structure %d has no name", ErrInvalidDocument, i)
		}
		s := &gds.Structure{Name: st.Name, Elements: make([]gds.Element, 0, len(st.Elements))}
		for j, e := range st.Elements {
			el, err := e.element()
			if err != nil {
				return nil, fmt.Errorf("%w: structure %q element %d: %v", ErrInvalidDocument, st.Name, j, err)
			}
			s.Elements = append(s.Elements, el)
		}
		lib.Structures[i] = s
	}
	return lib, nil
}

func (e element) element() (gds.Element, error) {
	pts, err := toPoints(e.XY)
	if err != nil {
		return nil, err
	}
	props := toProperties(e.Properties)

	switch e.Kind {
	case "boundary":
		if len(pts) < 3 {
			return nil, fmt.Errorf("boundary needs at least 3 points, got %d", len(pts))
		}
		return &gds.Boundary{Layer: e.Layer, Datatype: e.Datatype, XY: pts, Properties: props}, nil
	case "path":
		return &gds.Path{
			Layer: e.Layer, Datatype: e.Datatype, PathType: e.PathType, Width: e.Width,
			BeginExtn: e.BeginExtn, EndExtn: e.EndExtn, XY: pts, Properties: props,
		}, nil
	case "sref":
		if err := needRef(e, pts, 1); err != nil {
			return nil, err
		}
		return &gds.StructRef{Name: e.Ref, Strans: e.strans(), XY: pts[0], Properties: props}, nil
	case "aref":
		if err := needRef(e, pts, 3); err != nil {
			return nil, err
		}
		return &gds.ArrayRef{
			Name: e.Ref, Strans: e.strans(), Cols: e.Cols, Rows: e.Rows,
			XY: [3]gds.Point{pts[0], pts[1], pts[2]}, Properties: props,
		}, nil
	case "text":
		if len(pts) != 1 {
			return nil, fmt.Errorf("text needs 1 point, got %d", len(pts))
		}
		return &gds.Text{
			Layer: e.Layer, TextType: e.Type, Presentation: e.Presentation, PathType: e.PathType,
			Width: e.Width, Strans: e.strans(), XY: pts[0], String: e.Text, Properties: props,
		}, nil
	case "node":
		return &gds.Node{Layer: e.Layer, NodeType: e.Type, XY: pts, Properties: props}, nil
	case "box":
		return &gds.Box{Layer: e.Layer, BoxType: e.Type, XY: pts, Properties: props}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", e.Kind)
	}
}

func needRef(e element, pts []gds.Point, n int) error {
	if e.Ref == "" {
		return fmt.Errorf("%s needs a ref", e.Kind)
	}
	if len(pts) != n {
		return fmt.Errorf("%s needs %d point(s), got %d", e.Kind, n, len(pts))
	}
	return nil
}

func (e element) strans() gds.Strans {
	return gds.Strans{Reflected: e.Reflected, AbsMag: e.AbsMag, AbsAngle: e.AbsAngle, Mag: e.Mag, Angle: e.Angle}
}

func toPoints(xy [][]int32) ([]gds.Point, error) {
	out := make([]gds.Point, len(xy))
	for i, p := range xy {
		if len(p) != 2 {
			return nil, fmt.Errorf("point %d has %d coordinates, want 2", i, len(p))
		}
		out[i] = gds.Point{X: p[0], Y: p[1]}
	}
	return out, nil
}

func toProperties(props []property) []gds.Property {
	if len(props) == 0 {
		return nil
	}
	out := make([]gds.Property, len(props))
	for i, p := range props {
		out[i] = gds.Property{Attr: p.Attr, Value: p.Value}
	}
	return out
}
