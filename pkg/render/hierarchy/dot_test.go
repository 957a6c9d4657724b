package hierarchy

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/gdsview/pkg/gds"
	"github.com/matzehuels/gdsview/pkg/layout"
)

func fixture(t *testing.T, selectRoot bool) *layout.Store {
	t.Helper()
	square := &gds.Boundary{Layer: 1, XY: []gds.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}}
	lib := &gds.Library{Structures: []*gds.Structure{
		{Name: "INV", Elements: []gds.Element{square}},
		{Name: "TOP", Elements: []gds.Element{
			&gds.StructRef{Name: "INV"},
			&gds.StructRef{Name: "INV", XY: gds.Point{X: 20}},
			&gds.StructRef{Name: "INV", XY: gds.Point{X: 40}},
		}},
		{Name: "SPARE"},
	}}
	var store *layout.Store
	for p, err := range layout.NewBuilderFromLibrary(lib, layout.BuilderOptions{}).All() {
		if err != nil {
			t.Fatal(err)
		}
		store = p.Store
	}
	if selectRoot {
		top, _ := store.DefinitionByName("TOP")
		if _, err := layout.NewInstancer(store, nil).SelectRoot(top); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(fixture(t, true), Options{})

	for _, want := range []string{
		`"d1" [label="INV"];`,
		`"d2" [label="TOP", penwidth=2.5, fillcolor="#ffe9a8"];`,
		`"d3" [label="SPARE", penwidth=2.5];`,
		`"d2" -> "d1" [label="×3"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT is missing %s:\n%s", want, dot)
		}
	}
	if strings.Count(dot, "->") != 1 {
		t.Errorf("repeated references should merge into one edge:\n%s", dot)
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(fixture(t, false), Options{Detailed: true})
	if !strings.Contains(dot, `label="TOP\nshapes: 0\nrefs: 3"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
	if strings.Contains(dot, "fillcolor=\"#ffe9a8\"") {
		t.Error("no root selected, nothing should be highlighted")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(fixture(t, true), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	out := string(svg)
	if !strings.Contains(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("root element not normalized:\n%.300s", out)
	}
	if !strings.Contains(out, "TOP") || !strings.Contains(out, "INV") {
		t.Error("SVG lacks node labels")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox = %s", got)
	}
	if string(normalizeViewBox([]byte("<svg/>"))) != "<svg/>" {
		t.Error("input without viewBox should pass through")
	}
}
