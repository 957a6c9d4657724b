package layout

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gdsview/pkg/geom"
)

var (
	// ErrRootAlreadySelected is returned by [Instancer.SelectRoot] when the
	// store already holds an instance tree.
	ErrRootAlreadySelected = errors.New("root already selected")

	// ErrCyclicReference is returned by [Instancer.SelectRoot] when the
	// chosen root can reach itself through references.
	ErrCyclicReference = errors.New("cyclic structure reference")
)

// Instancer flattens a root definition into cell and shape instances.
type Instancer struct {
	store  *Store
	logger *log.Logger
}

// NewInstancer returns an instancer writing into s. A nil logger discards.
func NewInstancer(s *Store, logger *log.Logger) *Instancer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Instancer{store: s, logger: logger}
}

// SelectRoot instantiates def as the single root of the store.
//
// It fails without touching the store if a root exists already, if def is
// not a definition of the store, or if def reaches a reference cycle.
func (in *Instancer) SelectRoot(def CellDefID) (CellInstanceID, error) {
	s := in.store
	if s.root.Valid() {
		return 0, ErrRootAlreadySelected
	}
	d, ok := s.Definition(def)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrUnknownDefinition, def)
	}
	if cycle := FindCycle(s, def); cycle != nil {
		names := make([]string, len(cycle))
		for i, id := range cycle {
			names[i] = s.DefinitionName(id)
		}
		return 0, fmt.Errorf("%w: %s", ErrCyclicReference, strings.Join(names, " -> "))
	}

	in.logger.Info("selecting root", "definition", d.Name)
	s.root = in.instantiate(def, geom.Identity())
	return s.root, nil
}

type shapePrototype struct {
	layer     LayerID
	polygon   geom.Polygon
	triangles geom.Triangulation
}

func (in *Instancer) instantiate(def CellDefID, world geom.Transform) CellInstanceID {
	s := in.store
	d := s.defs[def-1]

	// Read phase: place every shape without touching the store.
	protos := make([]shapePrototype, len(d.ShapeDefs))
	for i, sid := range d.ShapeDefs {
		sd := s.shapeDefs[sid-1]
		protos[i] = shapePrototype{
			layer:     sd.Layer,
			polygon:   sd.Polygon.Transform(world),
			triangles: sd.Triangulation.Transform(world),
		}
	}

	// Write phase.
	s.cells = append(s.cells, CellInstance{})
	id := CellInstanceID(len(s.cells))

	shapes := make([]ShapeInstanceID, len(protos))
	for i, p := range protos {
		layer := &s.layers[p.layer-1]
		s.shapes = append(s.shapes, ShapeInstance{
			Owner:      id,
			Polygon:    p.polygon,
			Layer:      p.layer,
			LayerIndex: layer.Index,
		})
		sid := ShapeInstanceID(len(s.shapes))
		shapes[i] = sid
		layer.ShapeInstances = append(layer.ShapeInstances, sid)
		layer.Bounds = layer.Bounds.Encompass(p.polygon.Bounds())
		p.triangles.AppendTo(layer.Geometry)
	}

	children := make([]CellInstanceID, len(d.CellRefs))
	for i, ref := range d.CellRefs {
		children[i] = in.instantiate(ref.Target, ref.Local.Then(world))
	}

	s.cells[id-1] = CellInstance{
		Definition:     def,
		ShapeInstances: shapes,
		Children:       children,
		World:          world,
	}
	return id
}
