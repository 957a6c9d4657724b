// Package svg draws the flattened world of a layout as an SVG document.
//
// Layers are painted in ascending layer index, so higher layers cover
// lower ones as they do when picking. Each layer is one <g> element
// carrying its color and opacity; hidden and empty layers are left out.
// The y axis is flipped so that the drawing matches layout coordinates.
package svg

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/matzehuels/gdsview/pkg/geom"
	"github.com/matzehuels/gdsview/pkg/layout"
)

// Option configures [Render].
type Option func(*renderer)

type renderer struct {
	background string
	padding    float64
	width      float64
}

// WithBackground fills the canvas with a CSS color.
func WithBackground(color string) Option { return func(r *renderer) { r.background = color } }

// WithPadding sets the margin around the world bounds as a fraction of
// the larger extent. The default is 0.02.
func WithPadding(frac float64) Option { return func(r *renderer) { r.padding = frac } }

// WithWidth sets the width attribute in pixels; the height follows the
// aspect ratio. The default is 1024.
func WithWidth(px float64) Option { return func(r *renderer) { r.width = px } }

// BackgroundFor returns the canvas color that goes with a theme.
func BackgroundFor(theme layout.Theme) string {
	if theme == layout.ThemeLight {
		return "#ffffff"
	}
	return "#000000"
}

// Render draws every visible shape instance of s.
func Render(s *layout.Store, opts ...Option) []byte {
	r := renderer{padding: 0.02, width: 1024}
	for _, opt := range opts {
		opt(&r)
	}

	bounds := layout.WorldBounds(s)
	if bounds.IsEmpty() {
		bounds = geom.NewAABB(geom.Pt(0, 0), geom.Pt(1, 1))
	}
	pad := r.padding * max(bounds.Width(), bounds.Height())
	minX, minY := bounds.Min.X-pad, bounds.Min.Y-pad
	w, h := bounds.Width()+2*pad, bounds.Height()+2*pad
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		num(minX), num(-(minY + h)), num(w), num(h), r.width, r.width*h/w)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
			num(minX), num(-(minY + h)), num(w), num(h), r.background)
	}

	blend := ""
	if m := s.Material(); m != nil && m.Blend == layout.BlendAdditive {
		blend = ` style="mix-blend-mode:plus-lighter"`
	}

	buf.WriteString(`  <g transform="scale(1,-1)">` + "\n")
	for _, l := range paintOrder(s) {
		fmt.Fprintf(&buf, `    <g id="layer-%d" fill="%s" fill-opacity="%s" fill-rule="nonzero"%s>`+"\n",
			l.Index, l.Color.Hex(), num(float64(l.Color.A)), blend)
		for _, id := range l.ShapeInstances {
			si, _ := s.ShapeInstance(id)
			if len(si.Polygon.Points) < 3 {
				continue
			}
			fmt.Fprintf(&buf, `      <path d="%s"/>`+"\n", pathData(si.Polygon))
		}
		buf.WriteString("    </g>\n")
	}
	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

// paintOrder returns the visible, non-empty layers by ascending index.
func paintOrder(s *layout.Store) []layout.Layer {
	var out []layout.Layer
	for _, id := range s.Layers() {
		l, _ := s.Layer(id)
		if l.Visible && !l.IsEmpty() {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b layout.Layer) int { return cmp.Compare(a.Index, b.Index) })
	return out
}

func pathData(p geom.Polygon) string {
	var b bytes.Buffer
	for i, pt := range p.Points {
		if i == 0 {
			b.WriteByte('M')
		} else {
			b.WriteByte('L')
		}
		b.WriteString(num(pt.X))
		b.WriteByte(' ')
		b.WriteString(num(pt.Y))
	}
	b.WriteByte('Z')
	return b.String()
}

func num(v float64) string {
	if v == 0 {
		return "0" // avoid "-0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
