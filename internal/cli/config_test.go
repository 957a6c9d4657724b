package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/gdsview/pkg/errors"
	"github.com/matzehuels/gdsview/pkg/layout"
	"github.com/matzehuels/gdsview/pkg/pipeline"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ChunkSize != pipeline.DefaultChunkSize || cfg.Theme != "dark" || cfg.Cache.Backend != "file" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Serve.Addr != "127.0.0.1:8080" {
		t.Errorf("serve addr = %q", cfg.Serve.Addr)
	}
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
chunk_size = 250
theme = "light"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "2h"

[s3]
region = "eu-central-1"
path_style = true

[layers."5"]
color = "#ff0000"
visible = false
`)
	t.Setenv("GDSVIEW_CHUNK_SIZE", "50")
	t.Setenv("GDSVIEW_CACHE_REDIS_ADDR", "redis:6380")
	t.Setenv("GDSVIEW_S3_ENDPOINT", "http://minio:9000")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ChunkSize != 50 {
		t.Errorf("chunk_size = %d, want env override 50", cfg.ChunkSize)
	}
	if cfg.Theme != "light" || cfg.Cache.Backend != "redis" || cfg.Cache.TTL != 2*time.Hour {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Cache.RedisAddr != "redis:6380" {
		t.Errorf("redis_addr = %q", cfg.Cache.RedisAddr)
	}
	if cfg.S3.Region != "eu-central-1" || !cfg.S3.PathStyle || cfg.S3.Endpoint != "http://minio:9000" {
		t.Errorf("s3 = %+v", cfg.S3)
	}
	if l := cfg.Layers["5"]; l.Color != "#ff0000" || l.Visible == nil || *l.Visible {
		t.Errorf("layers = %+v", cfg.Layers)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"unknown key", `colour = "red"`, errors.ErrCodeInvalidInput},
		{"bad theme", `theme = "blue"`, errors.ErrCodeInvalidTheme},
		{"bad backend", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidInput},
		{"bad chunk", `chunk_size = -4`, errors.ErrCodeInvalidInput},
		{"bad layer key", "[layers.metal1]\ncolor = \"#ffffff\"", errors.ErrCodeInvalidInput},
		{"bad layer color", "[layers.\"3\"]\ncolor = \"red\"", errors.ErrCodeInvalidInput},
		{"syntax", `theme = `, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body))
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file error = %v", err)
	}
}

func TestConfig_ApplyLayers(t *testing.T) {
	s := layout.NewStore()
	l1 := s.GetOrCreateLayer(1)
	s.GetOrCreateLayer(2)

	hidden := false
	cfg := defaultConfig()
	cfg.Layers = map[string]LayerConfig{
		"1":  {Color: "#ff000080", Visible: &hidden},
		"99": {Color: "#00ff00"},
	}
	n, err := cfg.applyLayers(s)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("applied %d layers, want 1", n)
	}
	layer, _ := s.Layer(l1)
	if layer.Visible || layer.Color.Hex() != "#ff0000" {
		t.Errorf("layer 1 = visible %v color %s", layer.Visible, layer.Color.Hex())
	}
	if a := layer.Color.A; a < 0.5 || a > 0.51 {
		t.Errorf("alpha = %v, want 128/255", a)
	}
}
