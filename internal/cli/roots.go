package cli

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gdsview/pkg/layout"
)

// rootsCommand creates the roots command.
func (c *CLI) rootsCommand() *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:   "roots <file|s3://bucket/key>",
		Short: "List the structures no other structure references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.load(cmd.Context(), args[0], flags, false)
			if err != nil {
				return err
			}
			defer l.Close()

			s, res := l.res.Store, l.res
			rows := make([][]string, 0, len(res.Roots))
			for _, id := range res.Roots {
				def, _ := s.Definition(id)
				rows = append(rows, []string{
					def.Name,
					strconv.Itoa(len(def.ShapeDefs)),
					strconv.Itoa(len(def.CellRefs)),
					strconv.Itoa(reachable(s, id)),
				})
			}
			printTable([]string{"Root", "Shapes", "Refs", "Cells"}, rows, func(row, col int) lipgloss.Style {
				if res.Roots[row] == res.Root {
					return lipgloss.NewStyle().Foreground(colorGreen)
				}
				return lipgloss.NewStyle()
			})
			printDetail("%d of %d definitions are roots; %s is instantiated", len(res.Roots), res.Stats.Definitions, res.RootName())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// reachable counts the distinct definitions reachable from id, itself
// included.
func reachable(s *layout.Store, id layout.CellDefID) int {
	seen := map[layout.CellDefID]bool{}
	stack := []layout.CellDefID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		def, _ := s.Definition(cur)
		for _, ref := range def.CellRefs {
			stack = append(stack, ref.Target)
		}
	}
	return len(seen)
}
