package cli

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gdsview/pkg/geom"
	"github.com/matzehuels/gdsview/pkg/layout"
	"github.com/matzehuels/gdsview/pkg/pipeline"
)

// layersCommand creates the layers command.
func (c *CLI) layersCommand() *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:   "layers <file|s3://bucket/key>",
		Short: "List the layers of the instantiated layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.load(cmd.Context(), args[0], flags, false)
			if err != nil {
				return err
			}
			defer l.Close()

			s := l.res.Store
			ids := s.Layers()
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				layer, _ := s.Layer(id)
				visible := "yes"
				if !layer.Visible {
					visible = "no"
				}
				bounds := "-"
				if !layer.IsEmpty() {
					bounds = layer.Bounds.String()
				}
				rows = append(rows, []string{
					strconv.Itoa(int(layer.Index)),
					strconv.Itoa(len(layer.ShapeInstances)),
					strconv.Itoa(layer.Geometry.TriangleCount()),
					bounds,
					layer.Color.Hex(),
					strconv.FormatFloat(float64(layer.Color.A), 'f', 2, 32),
					visible,
				})
			}
			printTable([]string{"Layer", "Shapes", "Triangles", "Bounds", "Color", "Alpha", "Visible"}, rows, func(row, col int) lipgloss.Style {
				layer, _ := s.Layer(ids[row])
				if layer.IsEmpty() || !layer.Visible {
					return lipgloss.NewStyle().Foreground(colorDim)
				}
				return lipgloss.NewStyle()
			})
			printDetail("blend mode %s", s.Material().Blend)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func worldBounds(res *pipeline.Result) geom.AABB {
	return layout.WorldBounds(res.Store)
}
