package layout

import (
	"errors"
	"fmt"

	"github.com/matzehuels/gdsview/pkg/geom"
)

var (
	// ErrUnknownDefinition is returned when a handle or name does not
	// denote a cell definition of the store.
	ErrUnknownDefinition = errors.New("unknown cell definition")

	// ErrUnknownLayer is returned when a handle or index does not denote
	// a layer of the store.
	ErrUnknownLayer = errors.New("unknown layer")
)

// CellDefinition is a named template of shapes and references.
type CellDefinition struct {
	Name      string
	ShapeDefs []ShapeDefID
	CellRefs  []CellReference
}

// CellReference places Target inside its owning definition.
type CellReference struct {
	Target CellDefID
	Local  geom.Transform
}

// ShapeDefinition is a shape in its definition's local frame.
type ShapeDefinition struct {
	Layer         LayerID
	Polygon       geom.Polygon
	Triangulation geom.Triangulation
}

// Layer groups the shapes sharing one GDSII layer number.
type Layer struct {
	Index          int16
	Color          Color
	Visible        bool
	Geometry       *geom.GeometryBuffer
	Bounds         geom.AABB
	ShapeInstances []ShapeInstanceID
}

// IsEmpty reports whether no shape instance lies on the layer.
func (l Layer) IsEmpty() bool { return len(l.ShapeInstances) == 0 }

// CellInstance is one flattened placement of a definition.
type CellInstance struct {
	Definition     CellDefID
	ShapeInstances []ShapeInstanceID
	Children       []CellInstanceID
	World          geom.Transform
}

// ShapeInstance is a shape definition realized in world space.
// LayerIndex is the layer's numeric index at instantiation time.
type ShapeInstance struct {
	Owner      CellInstanceID
	Polygon    geom.Polygon
	Layer      LayerID
	LayerIndex int16
}

// BlendMode selects how layer colors are composited.
type BlendMode int

const (
	BlendSourceOver BlendMode = iota
	BlendAdditive
)

func (m BlendMode) String() string {
	if m == BlendAdditive {
		return "additive"
	}
	return "source-over"
}

// Material is the render state shared by every layer.
type Material struct {
	Blend BlendMode
}

// Store is the arena holding every definition, layer and instance of
// one loaded layout.
type Store struct {
	defs      []CellDefinition
	shapeDefs []ShapeDefinition
	layers    []Layer
	cells     []CellInstance
	shapes    []ShapeInstance

	byName   map[string]CellDefID
	root     CellInstanceID
	material *Material
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byName: make(map[string]CellDefID)}
}

// =============================================================================
// Ingestion
// =============================================================================

// CreateDefinition adds an empty definition. If the name is already taken,
// name lookups resolve to the newest definition.
func (s *Store) CreateDefinition(name string) CellDefID {
	s.defs = append(s.defs, CellDefinition{Name: name})
	id := CellDefID(len(s.defs))
	s.byName[name] = id
	return id
}

// AppendShapeDef stores sd and lists it under def.
func (s *Store) AppendShapeDef(def CellDefID, sd ShapeDefinition) (ShapeDefID, error) {
	i, ok := slot(def, len(s.defs))
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownDefinition, def)
	}
	if _, ok := slot(sd.Layer, len(s.layers)); !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownLayer, sd.Layer)
	}
	s.shapeDefs = append(s.shapeDefs, sd)
	id := ShapeDefID(len(s.shapeDefs))
	s.defs[i].ShapeDefs = append(s.defs[i].ShapeDefs, id)
	return id, nil
}

// AppendCellRef adds a placement of target to def.
func (s *Store) AppendCellRef(def, target CellDefID, local geom.Transform) error {
	i, ok := slot(def, len(s.defs))
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownDefinition, def)
	}
	if _, ok := slot(target, len(s.defs)); !ok {
		return fmt.Errorf("%w: %v", ErrUnknownDefinition, target)
	}
	s.defs[i].CellRefs = append(s.defs[i].CellRefs, CellReference{Target: target, Local: local})
	return nil
}

// GetOrCreateLayer returns the layer with the given numeric index,
// creating it (black, visible, with an empty geometry buffer) on first
// sight. The shared material is created together with the first layer.
func (s *Store) GetOrCreateLayer(index int16) LayerID {
	// Layer counts are in the tens; a scan beats a map here.
	for i := range s.layers {
		if s.layers[i].Index == index {
			return LayerID(i + 1)
		}
	}
	if s.material == nil {
		s.material = &Material{Blend: BlendSourceOver}
	}
	s.layers = append(s.layers, Layer{
		Index:    index,
		Color:    Black,
		Visible:  true,
		Geometry: &geom.GeometryBuffer{},
	})
	return LayerID(len(s.layers))
}

// =============================================================================
// Read access
// =============================================================================

// Definitions returns every definition handle in creation order.
func (s *Store) Definitions() []CellDefID {
	out := make([]CellDefID, len(s.defs))
	for i := range out {
		out[i] = CellDefID(i + 1)
	}
	return out
}

// Definition returns the definition for id.
func (s *Store) Definition(id CellDefID) (CellDefinition, bool) {
	i, ok := slot(id, len(s.defs))
	if !ok {
		return CellDefinition{}, false
	}
	return s.defs[i], true
}

// DefinitionByName looks a definition up by structure name.
func (s *Store) DefinitionByName(name string) (CellDefID, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// DefinitionName returns the name of id, or "" for an invalid handle.
func (s *Store) DefinitionName(id CellDefID) string {
	if i, ok := slot(id, len(s.defs)); ok {
		return s.defs[i].Name
	}
	return ""
}

// ShapeDefinition returns the shape definition for id.
func (s *Store) ShapeDefinition(id ShapeDefID) (ShapeDefinition, bool) {
	i, ok := slot(id, len(s.shapeDefs))
	if !ok {
		return ShapeDefinition{}, false
	}
	return s.shapeDefs[i], true
}

// Layers returns every layer handle in discovery order.
func (s *Store) Layers() []LayerID {
	out := make([]LayerID, len(s.layers))
	for i := range out {
		out[i] = LayerID(i + 1)
	}
	return out
}

// Layer returns the layer for id.
func (s *Store) Layer(id LayerID) (Layer, bool) {
	i, ok := slot(id, len(s.layers))
	if !ok {
		return Layer{}, false
	}
	return s.layers[i], true
}

// LayerByIndex finds a layer by its numeric GDSII index.
func (s *Store) LayerByIndex(index int16) (LayerID, bool) {
	for i := range s.layers {
		if s.layers[i].Index == index {
			return LayerID(i + 1), true
		}
	}
	return 0, false
}

// ShapeInstances returns every shape instance handle in creation order.
func (s *Store) ShapeInstances() []ShapeInstanceID {
	out := make([]ShapeInstanceID, len(s.shapes))
	for i := range out {
		out[i] = ShapeInstanceID(i + 1)
	}
	return out
}

// ShapeInstance returns the shape instance for id.
func (s *Store) ShapeInstance(id ShapeInstanceID) (ShapeInstance, bool) {
	i, ok := slot(id, len(s.shapes))
	if !ok {
		return ShapeInstance{}, false
	}
	return s.shapes[i], true
}

// CellInstance returns the cell instance for id.
func (s *Store) CellInstance(id CellInstanceID) (CellInstance, bool) {
	i, ok := slot(id, len(s.cells))
	if !ok {
		return CellInstance{}, false
	}
	return s.cells[i], true
}

// Root returns the root cell instance, if one has been selected.
func (s *Store) Root() (CellInstanceID, bool) {
	return s.root, s.root.Valid()
}

// Material returns the shared layer material, or nil before any layer exists.
func (s *Store) Material() *Material { return s.material }

// =============================================================================
// Post-load mutation
// =============================================================================

// SetLayerVisible shows or hides a layer.
func (s *Store) SetLayerVisible(id LayerID, visible bool) error {
	i, ok := slot(id, len(s.layers))
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownLayer, id)
	}
	s.layers[i].Visible = visible
	return nil
}

// SetLayerColor recolors a layer.
func (s *Store) SetLayerColor(id LayerID, c Color) error {
	i, ok := slot(id, len(s.layers))
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownLayer, id)
	}
	s.layers[i].Color = c
	return nil
}

// Stats summarizes the size of a store.
type Stats struct {
	Definitions      int
	ShapeDefinitions int
	References       int
	Layers           int
	CellInstances    int
	ShapeInstances   int
	Triangles        int
}

// Stats counts the entities in the store.
func (s *Store) Stats() Stats {
	st := Stats{
		Definitions:      len(s.defs),
		ShapeDefinitions: len(s.shapeDefs),
		Layers:           len(s.layers),
		CellInstances:    len(s.cells),
		ShapeInstances:   len(s.shapes),
	}
	for i := range s.defs {
		st.References += len(s.defs[i].CellRefs)
	}
	for i := range s.layers {
		st.Triangles += s.layers[i].Geometry.TriangleCount()
	}
	return st
}

// WorldBounds is the union of every layer's bounds.
func WorldBounds(s *Store) geom.AABB {
	b := geom.Empty()
	for i := range s.layers {
		b = b.Encompass(s.layers[i].Bounds)
	}
	return b
}
