package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/matzehuels/gdsview/pkg/cache"
	"github.com/matzehuels/gdsview/pkg/errors"
	"github.com/matzehuels/gdsview/pkg/layout"
	"github.com/matzehuels/gdsview/pkg/pipeline"
	"github.com/matzehuels/gdsview/pkg/source"
)

// envPrefix prefixes every environment override, e.g. GDSVIEW_CACHE_BACKEND.
const envPrefix = "GDSVIEW"

// Config is the user configuration. Values come from the TOML file first
// and from the environment second; fields without either keep the
// defaults of [defaultConfig].
type Config struct {
	ChunkSize int    `toml:"chunk_size" envconfig:"CHUNK_SIZE"`
	Theme     string `toml:"theme" envconfig:"THEME"`

	Cache CacheConfig `toml:"cache" envconfig:"CACHE"`
	Serve ServeConfig `toml:"serve" envconfig:"SERVE"`
	S3    S3Config    `toml:"s3" envconfig:"S3"`

	// Layers overrides colors and visibility by GDSII layer number.
	Layers map[string]LayerConfig `toml:"layers" ignored:"true"`
}

type CacheConfig struct {
	Backend   string        `toml:"backend" envconfig:"BACKEND"`
	Dir       string        `toml:"dir" envconfig:"DIR"`
	RedisAddr string        `toml:"redis_addr" envconfig:"REDIS_ADDR"`
	MongoURI  string        `toml:"mongo_uri" envconfig:"MONGO_URI"`
	TTL       time.Duration `toml:"ttl" envconfig:"TTL"`
}

type ServeConfig struct {
	Addr string `toml:"addr" envconfig:"ADDR"`
}

type S3Config struct {
	Region    string `toml:"region" envconfig:"REGION"`
	Endpoint  string `toml:"endpoint" envconfig:"ENDPOINT"`
	PathStyle bool   `toml:"path_style" envconfig:"PATH_STYLE"`
}

// LayerConfig is the persisted state of one layer. Unset fields keep the
// themed defaults.
type LayerConfig struct {
	Color   string `toml:"color"`
	Visible *bool  `toml:"visible"`
}

func defaultConfig() *Config {
	return &Config{
		ChunkSize: pipeline.DefaultChunkSize,
		Theme:     string(pipeline.DefaultTheme),
		Cache:     CacheConfig{Backend: string(cache.BackendFile)},
		Serve:     ServeConfig{Addr: "127.0.0.1:8080"},
	}
}

// loadConfig reads the config file at path, or the default location when
// path is empty, and applies environment overrides. A missing default file
// is not an error.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err == nil {
			path = filepath.Join(dir, "config.toml")
		}
	}
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		switch {
		case err == nil:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return nil, errors.New(errors.ErrCodeInvalidInput, "%s: unknown key %q", path, undecoded[0].String())
			}
		case os.IsNotExist(err) && !explicit:
		case os.IsNotExist(err):
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		default:
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "environment overrides")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ChunkSize <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "chunk_size must be positive, got %d", c.ChunkSize)
	}
	if err := errors.ValidateTheme(c.Theme); err != nil {
		return err
	}
	backends := []cache.Backend{cache.BackendFile, cache.BackendNone, cache.BackendRedis, cache.BackendMongo}
	if !slices.Contains(backends, cache.Backend(c.Cache.Backend)) {
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	for key, l := range c.Layers {
		if _, err := strconv.ParseInt(key, 10, 16); err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "layers: %q is not a layer number", key)
		}
		if l.Color != "" {
			if err := errors.ValidateHexColor(l.Color); err != nil {
				return fmt.Errorf("layers.%s: %w", key, err)
			}
		}
	}
	return nil
}

func (s S3Config) options() source.S3Options {
	return source.S3Options{Region: s.Region, Endpoint: s.Endpoint, PathStyle: s.PathStyle}
}

// applyLayers merges the configured layer overrides into the store.
// Layers the layout does not contain are ignored.
func (c *Config) applyLayers(s *layout.Store) (int, error) {
	if len(c.Layers) == 0 {
		return 0, nil
	}
	settings := layout.ExportLayers(s)
	applied := 0
	for i := range settings {
		lc, ok := c.Layers[strconv.Itoa(int(settings[i].Index))]
		if !ok {
			continue
		}
		if lc.Color != "" {
			col, err := layout.ParseHexColor(lc.Color)
			if err != nil {
				return 0, err
			}
			settings[i].Color = col.Hex()
			if len(lc.Color) == 9 {
				settings[i].Opacity = col.A
			}
		}
		if lc.Visible != nil {
			settings[i].Visible = *lc.Visible
		}
		applied++
	}
	return applied, layout.ApplyLayerSettings(s, settings)
}
