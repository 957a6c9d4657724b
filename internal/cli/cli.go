// Package cli implements the gdsview command-line interface.
//
// The commands load a GDSII layout (from a local path or an s3:// URI),
// flatten it and report on the result:
//   - load: run the load pipeline with a progress view, optionally writing an SVG
//   - roots: list the root structures
//   - layers: list the layers with their shapes, bounds and colors
//   - pick: report the shape under a world coordinate
//   - hierarchy: draw the cell-reference graph as DOT or SVG
//   - serve: expose a loaded layout over HTTP
//   - cache: manage the decoded-library cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is shared with the pipeline, so builder warnings about unsupported
// elements appear on stderr next to the command's own output.
//
// # Configuration
//
// Settings are read from $XDG_CONFIG_HOME/gdsview/config.toml (or --config)
// and overridden by GDSVIEW_* environment variables.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gdsview/pkg/buildinfo"
	"github.com/matzehuels/gdsview/pkg/cache"
	gdsio "github.com/matzehuels/gdsview/pkg/io"
	"github.com/matzehuels/gdsview/pkg/pipeline"
	"github.com/matzehuels/gdsview/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "gdsview"

	// keyPrefix scopes cache keys on backends shared with other tools.
	keyPrefix = "gdsview:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	out        io.Writer
	configPath string
	config     *Config
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    os.Stdout,
		config: defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "gdsview loads and inspects GDSII layouts",
		Long:         `gdsview decodes GDSII layout files, flattens their structure hierarchy into world-space shapes and lets you inspect, pick and render the result.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/gdsview/config.toml)")

	root.AddCommand(c.loadCommand())
	root.AddCommand(c.rootsCommand())
	root.AddCommand(c.layersCommand())
	root.AddCommand(c.pickCommand())
	root.AddCommand(c.hierarchyCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if b := cache.Backend(c.config.Cache.Backend); b == cache.BackendRedis || b == cache.BackendMongo {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), keyPrefix)
	}
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	r.TTL = c.config.Cache.TTL
	return r, nil
}

func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.config.Cache
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.Open(ctx, cache.Options{
		Backend:   cache.Backend(cfg.Backend),
		Dir:       dir,
		RedisAddr: cfg.RedisAddr,
		MongoURI:  cfg.MongoURI,
	})
}

// openLayout reads uri and converts text layout documents to a GDSII
// stream, so the pipeline always sees stream bytes.
func (c *CLI) openLayout(ctx context.Context, uri string) (*source.Input, error) {
	in, err := source.Open(ctx, uri, source.Options{S3: c.config.S3.options()})
	if err != nil {
		return nil, err
	}
	if in.Format != gdsio.FormatGDS {
		c.Logger.Debug("converting text layout", "name", in.Name, "format", in.Format)
		if in.Data, err = gdsio.ToStream(in.Data, in.Format); err != nil {
			return nil, err
		}
		in.Format = gdsio.FormatGDS
	}
	return in, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/gdsview/).
func cacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// configDir returns the config directory (~/.config/gdsview/).
func configDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}
