package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gdsview/pkg/errors"
	"github.com/matzehuels/gdsview/pkg/pipeline"
)

// hierarchyCommand creates the hierarchy command.
func (c *CLI) hierarchyCommand() *cobra.Command {
	var (
		flags    loadFlags
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "hierarchy <file|s3://bucket/key>",
		Short: "Draw the structure reference graph",
		Long: `Hierarchy draws one node per structure and one edge per referenced
structure, labelled with the number of placements. Roots are outlined and
the instantiated root is highlighted. Without --output the DOT source is
printed to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := pipeline.FormatDOT
			switch ext := strings.ToLower(filepath.Ext(output)); {
			case output == "", ext == ".dot", ext == ".gv":
			case ext == ".svg":
				format = pipeline.FormatSVG
			default:
				return errors.New(errors.ErrCodeUnsupported, "unsupported output %q (want .svg or .dot)", output)
			}

			ctx := cmd.Context()
			l, err := c.load(ctx, args[0], flags, false)
			if err != nil {
				return err
			}
			defer l.Close()

			var spin *Spinner
			if format == pipeline.FormatSVG && interactive() {
				spin = newSpinner(ctx, "Rendering hierarchy")
				spin.Start()
			}
			prog := newProgress(c.Logger)
			data, hit, err := l.runner.Render(ctx, l.res, pipeline.RenderOptions{
				Kind:     pipeline.KindHierarchy,
				Format:   format,
				Detailed: detailed,
			})
			if spin != nil {
				spin.Stop()
			}
			if err != nil {
				return err
			}
			if !hit && format == pipeline.FormatSVG {
				prog.done("Rendered hierarchy")
			}

			if output == "" {
				_, err := stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Wrote hierarchy of %d definitions", l.res.Stats.Definitions)
			printFile(output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.svg or .dot)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add shape and reference counts to nodes")
	return cmd
}
