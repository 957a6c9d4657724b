package hierarchy

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gdsview/pkg/layout"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds shape and reference counts to node labels.
	Detailed bool
}

// ToDOT converts the definitions and references of s to Graphviz DOT.
func ToDOT(s *layout.Store, opts Options) string {
	roots := make(map[layout.CellDefID]bool)
	for _, id := range layout.FindRoots(s) {
		roots[id] = true
	}
	var selected layout.CellDefID
	if rid, ok := s.Root(); ok {
		ci, _ := s.CellInstance(rid)
		selected = ci.Definition
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=11];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, id := range s.Definitions() {
		d, _ := s.Definition(id)
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(d, opts.Detailed))}
		if roots[id] {
			attrs = append(attrs, "penwidth=2.5")
		}
		if id == selected {
			attrs = append(attrs, "fillcolor=\"#ffe9a8\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(id), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, id := range s.Definitions() {
		d, _ := s.Definition(id)
		for _, e := range countEdges(d) {
			if e.count > 1 {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", nodeID(id), nodeID(e.target), "×"+strconv.Itoa(e.count))
			} else {
				fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(id), nodeID(e.target))
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// nodeID keys nodes by handle; names may repeat across duplicate
// structures.
func nodeID(id layout.CellDefID) string { return "d" + strconv.Itoa(int(id)) }

func fmtLabel(d layout.CellDefinition, detailed bool) string {
	if !detailed {
		return d.Name
	}
	return fmt.Sprintf("%s\nshapes: %d\nrefs: %d", d.Name, len(d.ShapeDefs), len(d.CellRefs))
}

type edge struct {
	target layout.CellDefID
	count  int
}

// countEdges merges repeated references in first-seen order.
func countEdges(d layout.CellDefinition) []edge {
	var out []edge
	at := make(map[layout.CellDefID]int)
	for _, ref := range d.CellRefs {
		if i, ok := at[ref.Target]; ok {
			out[i].count++
			continue
		}
		at[ref.Target] = len(out)
		out = append(out, edge{target: ref.Target, count: 1})
	}
	return out
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized root element with one
// whose width and height match the view box, so the diagram scales.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
