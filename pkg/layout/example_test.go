package layout_test

import (
	"fmt"

	"github.com/matzehuels/gdsview/pkg/gds"
	"github.com/matzehuels/gdsview/pkg/geom"
	"github.com/matzehuels/gdsview/pkg/layout"
)

func Example() {
	square := &gds.Boundary{Layer: 1, XY: []gds.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}}
	lib := &gds.Library{Structures: []*gds.Structure{
		{Name: "INV", Elements: []gds.Element{square}},
		{Name: "TOP", Elements: []gds.Element{
			&gds.StructRef{Name: "INV"},
			&gds.StructRef{Name: "INV", XY: gds.Point{X: 20}},
		}},
	}}

	var store *layout.Store
	for p, err := range layout.NewBuilderFromLibrary(lib, layout.BuilderOptions{}).All() {
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s %.0f%%\n", p.Phase, p.Percent)
		store = p.Store
	}

	roots := layout.FindRoots(store)
	if _, err := layout.NewInstancer(store, nil).SelectRoot(roots[0]); err != nil {
		panic(err)
	}
	index, err := layout.NewSpatialIndex(store)
	if err != nil {
		panic(err)
	}

	for _, p := range []geom.Point{geom.Pt(5, 5), geom.Pt(25, 5), geom.Pt(15, 5)} {
		if id, ok := index.Pick(p); ok {
			shape, _ := store.ShapeInstance(id)
			fmt.Println(p, "->", id, shape.Polygon.Bounds())
		} else {
			fmt.Println(p, "-> nothing")
		}
	}
	// Output:
	// Gathering definitions 0%
	// Creating definitions for 'TOP' 100%
	// {5 5} -> shape#1 [0,0]-[10,10]
	// {25 5} -> shape#2 [20,0]-[30,10]
	// {15 5} -> nothing
}
