package cli

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gdsview/pkg/errors"
	"github.com/matzehuels/gdsview/pkg/geom"
	"github.com/matzehuels/gdsview/pkg/layout"
)

// pickCommand creates the pick command.
func (c *CLI) pickCommand() *cobra.Command {
	var (
		flags loadFlags
		hide  []int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "pick <file|s3://bucket/key> <x> <y>",
		Short: "Report the shape under a world coordinate",
		Long: `Pick reports the shape on the highest visible layer whose polygon
contains the point (x, y), given in database units. Hidden layers are
never picked; use --hide to hide layers first.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(args[1], args[2])
			if err != nil {
				return err
			}
			hidden, err := layerIndices(hide)
			if err != nil {
				return err
			}
			l, err := c.load(cmd.Context(), args[0], flags, false)
			if err != nil {
				return err
			}
			defer l.Close()

			s := l.res.Store
			for _, idx := range hidden {
				id, ok := s.LayerByIndex(idx)
				if !ok {
					printWarning("layout has no layer %d", idx)
					continue
				}
				if err := s.SetLayerVisible(id, false); err != nil {
					return err
				}
			}

			if all {
				hits := l.res.Index.Query(p)
				if len(hits) == 0 {
					printInfo("nothing at %s", fmtPoint(p))
				}
				for _, id := range hits {
					printHit(s, id)
				}
				return nil
			}
			id, ok := l.res.Index.Pick(p)
			if !ok {
				printInfo("nothing at %s", fmtPoint(p))
				return nil
			}
			printHit(s, id)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().IntSliceVar(&hide, "hide", nil, "layer numbers to hide before picking (e.g. 5,7)")
	cmd.Flags().BoolVar(&all, "all", false, "list every visible shape under the point, topmost first")
	return cmd
}

func parsePoint(xs, ys string) (geom.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return geom.Point{}, errors.New(errors.ErrCodeInvalidInput, "invalid x coordinate %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return geom.Point{}, errors.New(errors.ErrCodeInvalidInput, "invalid y coordinate %q", ys)
	}
	return geom.Pt(x, y), nil
}

// layerIndices converts --hide values to GDSII layer numbers, rejecting
// anything outside int16.
func layerIndices(values []int) ([]int16, error) {
	out := make([]int16, 0, len(values))
	for _, v := range values {
		if v < math.MinInt16 || v > math.MaxInt16 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "invalid layer index %d", v)
		}
		out = append(out, int16(v))
	}
	return out, nil
}

func fmtPoint(p geom.Point) string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// hitInfo describes a picked shape.
type hitInfo struct {
	Shape      string `json:"shape"`
	Layer      int16  `json:"layer"`
	Definition string `json:"definition"`
	Bounds     string `json:"bounds"`
}

func describeHit(s *layout.Store, id layout.ShapeInstanceID) hitInfo {
	shape, _ := s.ShapeInstance(id)
	cell, _ := s.CellInstance(shape.Owner)
	return hitInfo{
		Shape:      id.String(),
		Layer:      shape.LayerIndex,
		Definition: s.DefinitionName(cell.Definition),
		Bounds:     shape.Polygon.Bounds().String(),
	}
}

func printHit(s *layout.Store, id layout.ShapeInstanceID) {
	h := describeHit(s, id)
	printSuccess("%s on layer %s in %s", h.Shape, StyleNumber.Render(strconv.Itoa(int(h.Layer))), StyleValue.Render(h.Definition))
	printDetail("bounds %s", h.Bounds)
}
