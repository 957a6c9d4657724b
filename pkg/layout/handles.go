package layout

import "strconv"

// Handles are 1-based indices into a Store's arenas. The zero value of
// every handle type is invalid.
type (
	CellDefID       uint32
	ShapeDefID      uint32
	LayerID         uint32
	CellInstanceID  uint32
	ShapeInstanceID uint32
)

// Valid reports whether id refers to a definition.
func (id CellDefID) Valid() bool { return id != 0 }

// Valid reports whether id refers to a shape definition.
func (id ShapeDefID) Valid() bool { return id != 0 }

// Valid reports whether id refers to a layer.
func (id LayerID) Valid() bool { return id != 0 }

// Valid reports whether id refers to a cell instance.
func (id CellInstanceID) Valid() bool { return id != 0 }

// Valid reports whether id refers to a shape instance.
func (id ShapeInstanceID) Valid() bool { return id != 0 }

// String formats id as "def#N".
func (id CellDefID) String() string { return "def#" + strconv.Itoa(int(id)) }

// String formats id as "layer#N".
func (id LayerID) String() string { return "layer#" + strconv.Itoa(int(id)) }

// String formats id as "cell#N".
func (id CellInstanceID) String() string { return "cell#" + strconv.Itoa(int(id)) }

// String formats id as "shape#N".
func (id ShapeInstanceID) String() string { return "shape#" + strconv.Itoa(int(id)) }

// slot converts a handle to an arena index, reporting whether it is in range.
func slot[ID ~uint32](id ID, n int) (int, bool) {
	i := int(id) - 1
	return i, id != 0 && i < n
}
