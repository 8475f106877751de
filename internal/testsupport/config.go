package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"classicphotos/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a fresh temp directory. Logging is
// quiet and the viewport is small so command tests settle quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Catalog.Path = filepath.Join(base, "catalog.json")
	cfgVal.Viewport.Rows = 2
	cfgVal.Viewport.ScrollStep = 1
	cfgVal.Viewport.SettleTimeout = 10
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCatalogPath points the config at a catalog file or URL.
func WithCatalogPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Path = path
	}
}

// WithViewport overrides the visible window geometry.
func WithViewport(rows, step int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Viewport.Rows = rows
		b.cfg.Viewport.ScrollStep = step
	}
}

// WithWorkers sets the fetch and transform stage concurrency.
func WithWorkers(fetch, transform int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.FetchConcurrency = fetch
		b.cfg.Pipeline.TransformConcurrency = transform
	}
}

// WriteConfig encodes cfg as TOML next to its log directory and returns the
// file path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
