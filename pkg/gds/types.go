package gds

import "time"

// Library is a decoded GDSII library.
type Library struct {
	Name    string
	Version int16

	// UserUnits is the size of one database unit in user units (often 1e-3).
	UserUnits float64
	// MeterUnits is the size of one database unit in meters (often 1e-9).
	MeterUnits float64

	Modified time.Time

	Structures []*Structure
}

// Structure returns the structure with the given name, or nil.
func (l *Library) Structure(name string) *Structure {
	for _, s := range l.Structures {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// ElementCount returns the total number of elements over all structures.
func (l *Library) ElementCount() int {
	n := 0
	for _, s := range l.Structures {
		n += len(s.Elements)
	}
	return n
}

// Structure is a named cell: an ordered list of elements.
type Structure struct {
	Name     string
	Elements []Element
}

// Point is a coordinate in database units.
type Point struct {
	X, Y int32
}

// Kind identifies the concrete type of an [Element].
type Kind int

// Element kinds.
const (
	KindBoundary Kind = iota
	KindPath
	KindStructRef
	KindArrayRef
	KindText
	KindNode
	KindBox
)

var kindNames = [...]string{"boundary", "path", "sref", "aref", "text", "node", "box"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Element is one of [Boundary], [Path], [StructRef], [ArrayRef], [Text],
// [Node] or [Box] (always as a pointer).
type Element interface {
	Kind() Kind
}

// Property is a PROPATTR/PROPVALUE pair attached to an element.
type Property struct {
	Attr  int16
	Value string
}

// Strans holds the optional transformation of a reference or text.
// Mag and Angle are nil when the stream carries no MAG or ANGLE record.
type Strans struct {
	Reflected bool // mirror about the x axis before rotating
	AbsMag    bool
	AbsAngle  bool
	Mag       *float64
	Angle     *float64 // degrees, counter-clockwise
}

// IsZero reports whether no STRANS record needs to be written.
func (s Strans) IsZero() bool {
	return !s.Reflected && !s.AbsMag && !s.AbsAngle && s.Mag == nil && s.Angle == nil
}

// Magnification returns Mag or 1.
func (s Strans) Magnification() float64 {
	if s.Mag == nil {
		return 1
	}
	return *s.Mag
}

// Rotation returns Angle or 0.
func (s Strans) Rotation() float64 {
	if s.Angle == nil {
		return 0
	}
	return *s.Angle
}

// Boundary is a filled polygon. XY is closed: the last point repeats the first.
type Boundary struct {
	Layer      int16
	Datatype   int16
	XY         []Point
	Properties []Property
}

// Path is a polyline stroked to Width. A negative width is absolute,
// i.e. not scaled by enclosing references.
type Path struct {
	Layer      int16
	Datatype   int16
	PathType   int16 // 0 flush, 1 round, 2 half-width extension, 4 custom
	Width      int32
	BeginExtn  int32 // PathType 4 only
	EndExtn    int32 // PathType 4 only
	XY         []Point
	Properties []Property
}

// StructRef places the named structure at XY.
type StructRef struct {
	Name       string
	Strans     Strans
	XY         Point
	Properties []Property
}

// ArrayRef places the named structure on a Cols x Rows lattice. XY holds
// the origin, the point displaced by Cols column pitches and the point
// displaced by Rows row pitches.
type ArrayRef struct {
	Name       string
	Strans     Strans
	Cols, Rows int16
	XY         [3]Point
	Properties []Property
}

// Text is an annotation string anchored at XY.
type Text struct {
	Layer        int16
	TextType     int16
	Presentation int16
	PathType     int16
	Width        int32
	Strans       Strans
	XY           Point
	String       string
	Properties   []Property
}

// Node is an electrical net marker.
type Node struct {
	Layer      int16
	NodeType   int16
	XY         []Point
	Properties []Property
}

// Box is a rectangle given as a closed five-point ring.
type Box struct {
	Layer      int16
	BoxType    int16
	XY         []Point
	Properties []Property
}

func (*Boundary) Kind() Kind  { return KindBoundary }
func (*Path) Kind() Kind      { return KindPath }
func (*StructRef) Kind() Kind { return KindStructRef }
func (*ArrayRef) Kind() Kind  { return KindArrayRef }
func (*Text) Kind() Kind      { return KindText }
func (*Node) Kind() Kind      { return KindNode }
func (*Box) Kind() Kind       { return KindBox }
