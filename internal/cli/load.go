package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gdsview/pkg/errors"
	"github.com/matzehuels/gdsview/pkg/pipeline"
)

// loadFlags are the flags shared by every command that loads a layout.
type loadFlags struct {
	root    string
	theme   string
	noCache bool
	refresh bool
}

func (f *loadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.root, "root", "", "structure to instantiate (default: first root)")
	cmd.Flags().StringVar(&f.theme, "theme", "", "color theme: dark or light (default from config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the decoded-library cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "decode again even if the library is cached")
}

// loaded is a layout ready for inspection.
type loaded struct {
	name   string
	runner *pipeline.Runner
	res    *pipeline.Result
}

func (l *loaded) Close() error { return l.runner.Close() }

// load runs the pipeline on uri. With tui set, progress is shown in a
// bubbletea view; otherwise it is logged.
func (c *CLI) load(ctx context.Context, uri string, f loadFlags, tui bool) (*loaded, error) {
	in, err := c.openLayout(ctx, uri)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return nil, err
	}

	theme := f.theme
	if theme == "" {
		theme = c.config.Theme
	}
	opts := pipeline.Options{
		ChunkSize: c.config.ChunkSize,
		RootName:  f.root,
		Theme:     theme,
		Refresh:   f.refresh,
		Logger:    c.Logger,
	}

	res, err := c.runLoad(ctx, runner, in.Name, in.Data, opts, tui)
	if err != nil {
		runner.Close()
		return nil, err
	}
	if n, err := c.config.applyLayers(res.Store); err != nil {
		runner.Close()
		return nil, err
	} else if n > 0 {
		c.Logger.Debug("applied layer settings from config", "layers", n)
	}
	return &loaded{name: in.Name, runner: runner, res: res}, nil
}

func (c *CLI) runLoad(ctx context.Context, runner *pipeline.Runner, name string, data []byte, opts pipeline.Options, tui bool) (*pipeline.Result, error) {
	if !tui {
		opts.OnProgress = progressLogger(c.Logger, 25)
		return runner.Load(ctx, data, opts)
	}
	loader, err := runner.Begin(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	if err := runLoadTUI(ctx, loader, name); err != nil {
		return nil, err
	}
	return loader.Finish(ctx)
}

// interactive reports whether stderr is a terminal.
func interactive() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// =============================================================================
// load command
// =============================================================================

type loadOpts struct {
	loadFlags
	output     string
	noTUI      bool
	background bool
	width      float64
}

// loadCommand creates the load command.
func (c *CLI) loadCommand() *cobra.Command {
	var opts loadOpts

	cmd := &cobra.Command{
		Use:   "load <file|s3://bucket/key>",
		Short: "Load a layout and report its statistics",
		Long: `Load decodes a GDSII stream (or a .json/.toml layout document), builds
its cell definitions, instantiates the root structure and indexes the
resulting shapes. Use --output to write the flattened layout as SVG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLoadCmd(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the flattened layout to this .svg file")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "log progress instead of showing a progress bar")
	cmd.Flags().BoolVar(&opts.background, "background", true, "paint the theme background in the SVG")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "SVG width in pixels (default 1024)")

	return cmd
}

func (c *CLI) runLoadCmd(ctx context.Context, uri string, opts loadOpts) error {
	if opts.output != "" && !strings.EqualFold(filepath.Ext(opts.output), ".svg") {
		return errors.New(errors.ErrCodeUnsupported, "output must be an .svg file, got %q", opts.output)
	}

	l, err := c.load(ctx, uri, opts.loadFlags, !opts.noTUI && interactive())
	if err != nil {
		return err
	}
	defer l.Close()

	res := l.res
	printSuccess("Loaded %s", StyleValue.Render(l.name))
	printStats(res.Stats, res.CacheInfo.LibraryHit)
	printKeyValue("root", res.RootName())
	printKeyValue("roots", fmt.Sprintf("%d", len(res.Roots)))
	printKeyValue("bounds", worldBounds(res).String())
	printKeyValue("load id", res.LoadID.String())

	if opts.output == "" {
		return nil
	}
	data, hit, err := l.runner.Render(ctx, res, pipeline.RenderOptions{
		Kind:       pipeline.KindWorld,
		Background: opts.background,
		Width:      opts.width,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	c.Logger.Debug("wrote svg", "bytes", len(data), "cached", hit)
	printFile(opts.output)
	return nil
}
