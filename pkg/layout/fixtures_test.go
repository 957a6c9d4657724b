package layout

import (
	"testing"

	"github.com/matzehuels/gdsview/pkg/gds"
)

func rect(layer int16, x0, y0, x1, y1 int32) *gds.Boundary {
	return &gds.Boundary{Layer: layer, XY: []gds.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}}
}

func sref(name string, x, y int32) *gds.StructRef {
	return &gds.StructRef{Name: name, XY: gds.Point{X: x, Y: y}}
}

func structure(name string, els ...gds.Element) *gds.Structure {
	return &gds.Structure{Name: name, Elements: els}
}

func library(structs ...*gds.Structure) *gds.Library {
	return &gds.Library{Name: "TEST", Structures: structs}
}

// invTop is the two-placement library used throughout the tests:
// INV is a 10x10 square on layer 1, TOP places it at x=0 and x=20.
func invTop() *gds.Library {
	return library(
		structure("INV", rect(1, 0, 0, 10, 10)),
		structure("TOP", sref("INV", 0, 0), sref("INV", 20, 0)),
	)
}

// build runs a builder over lib to completion.
func build(t *testing.T, lib *gds.Library, opts BuilderOptions) *Store {
	t.Helper()
	var store *Store
	for p, err := range NewBuilderFromLibrary(lib, opts).All() {
		if err != nil {
			t.Fatalf("builder: %v", err)
		}
		store = p.Store
	}
	if store == nil {
		t.Fatal("builder finished without a store")
	}
	return store
}

// flatten builds lib, instantiates the named root and indexes the result.
func flatten(t *testing.T, lib *gds.Library, root string) (*Store, *SpatialIndex) {
	t.Helper()
	store := build(t, lib, BuilderOptions{})
	def, ok := store.DefinitionByName(root)
	if !ok {
		t.Fatalf("no definition %q", root)
	}
	if _, err := NewInstancer(store, nil).SelectRoot(def); err != nil {
		t.Fatalf("SelectRoot(%s): %v", root, err)
	}
	ix, err := NewSpatialIndex(store)
	if err != nil {
		t.Fatalf("NewSpatialIndex: %v", err)
	}
	return store, ix
}
