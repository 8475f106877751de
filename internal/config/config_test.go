package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"classicphotos/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "classicphotos", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	wantCatalog := filepath.Join(tempHome, ".config", "classicphotos", "catalog.json")
	if cfg.Catalog.Path != wantCatalog {
		t.Fatalf("unexpected catalog path: got %q want %q", cfg.Catalog.Path, wantCatalog)
	}
	if cfg.Pipeline.FetchConcurrency != 1 || cfg.Pipeline.TransformConcurrency != 1 {
		t.Fatalf("expected serial stages by default, got %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.SepiaIntensity != 0.8 {
		t.Fatalf("unexpected sepia intensity: %v", cfg.Pipeline.SepiaIntensity)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if got := cfg.LockPath(); got != filepath.Join(wantLogDir, "classicphotos.lock") {
		t.Fatalf("unexpected lock path: %q", got)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
log_dir = "~/logs"

[catalog]
path = "https://example.com/photos.json"

[pipeline]
fetch_concurrency = 4
transform_concurrency = 2
fetch_timeout = 5
sepia_intensity = 0.5
user_agent = "  tester  "

[viewport]
rows = 10
scroll_step = 5

[logging]
format = "JSON"
level = "DEBUG"

[logging.stage_overrides]
Transform = "WARN"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Catalog.Path != "https://example.com/photos.json" {
		t.Fatalf("remote catalog path should be left alone, got %q", cfg.Catalog.Path)
	}
	if cfg.Pipeline.FetchConcurrency != 4 || cfg.Pipeline.TransformConcurrency != 2 {
		t.Fatalf("unexpected concurrency: %+v", cfg.Pipeline)
	}
	if cfg.FetchTimeoutDuration().Seconds() != 5 {
		t.Fatalf("unexpected fetch timeout: %v", cfg.FetchTimeoutDuration())
	}
	if cfg.Pipeline.UserAgent != "tester" {
		t.Fatalf("expected trimmed user agent, got %q", cfg.Pipeline.UserAgent)
	}
	if cfg.Viewport.Rows != 10 || cfg.Viewport.ScrollStep != 5 {
		t.Fatalf("unexpected viewport: %+v", cfg.Viewport)
	}
	if cfg.Viewport.SettleTimeout != 120 {
		t.Fatalf("expected default settle timeout, got %d", cfg.Viewport.SettleTimeout)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
	if cfg.Logging.StageOverrides["transform"] != "warn" {
		t.Fatalf("expected normalized stage override, got %v", cfg.Logging.StageOverrides)
	}
}

func TestLoadCatalogFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	catalogPath := filepath.Join(t.TempDir(), "photos.plist")
	t.Setenv("CLASSICPHOTOS_CATALOG", catalogPath)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Catalog.Path != catalogPath {
		t.Fatalf("expected env catalog path, got %q", cfg.Catalog.Path)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero fetch workers", func(c *config.Config) { c.Pipeline.FetchConcurrency = 0 }, "pipeline.fetch_concurrency"},
		{"negative transform workers", func(c *config.Config) { c.Pipeline.TransformConcurrency = -1 }, "pipeline.transform_concurrency"},
		{"payload", func(c *config.Config) { c.Pipeline.MaxPayloadBytes = 0 }, "pipeline.max_payload_bytes"},
		{"intensity", func(c *config.Config) { c.Pipeline.SepiaIntensity = 1.5 }, "pipeline.sepia_intensity"},
		{"rows", func(c *config.Config) { c.Viewport.Rows = 0 }, "viewport.rows"},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"override", func(c *config.Config) { c.Logging.StageOverrides = map[string]string{"fetch": "nope"} }, "logging.stage_overrides.fetch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[pipeline\nfetch_concurrency = 1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if decoded.Pipeline.SepiaIntensity != config.Default().Pipeline.SepiaIntensity {
		t.Fatalf("sample intensity drifted from defaults: %v", decoded.Pipeline.SepiaIntensity)
	}

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Viewport.Rows != config.Default().Viewport.Rows {
		t.Fatalf("unexpected rows from sample: %d", cfg.Viewport.Rows)
	}
}

func TestEnsureDirectoriesCreatesLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "a", "b")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.LogDir); err != nil || !info.IsDir() {
		t.Fatalf("expected log dir to exist: %v", err)
	}
}
