package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir string `toml:"log_dir"`
}

// Catalog locates the name -> source mapping the gallery is built from.
type Catalog struct {
	Path string `toml:"path"`
}

// Pipeline contains configuration for the fetch and transform stages.
type Pipeline struct {
	FetchConcurrency     int     `toml:"fetch_concurrency"`
	TransformConcurrency int     `toml:"transform_concurrency"`
	FetchTimeout         int     `toml:"fetch_timeout"`
	MaxPayloadBytes      int64   `toml:"max_payload_bytes"`
	SepiaIntensity       float64 `toml:"sepia_intensity"`
	UserAgent            string  `toml:"user_agent"`
}

// Viewport describes the simulated visible window the run command scrolls.
type Viewport struct {
	Rows          int `toml:"rows"`
	ScrollStep    int `toml:"scroll_step"`
	SettleTimeout int `toml:"settle_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Config encapsulates all configuration values for classicphotos.
//
// Configuration sections by subsystem:
//   - Paths: log directory
//   - Catalog: where the photo catalog is read from
//   - Pipeline: stage concurrency, fetch limits, filter intensity
//   - Viewport: visible window geometry for the run command
//   - Logging: log format, level, and per-stage overrides
type Config struct {
	Paths    Paths    `toml:"paths"`
	Catalog  Catalog  `toml:"catalog"`
	Pipeline Pipeline `toml:"pipeline"`
	Viewport Viewport `toml:"viewport"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/classicphotos/config.toml")
}

// Load reads the config at path, or the first file found by searchPaths when
// path is empty, over Default(). A missing file is not an error: the defaults
// are normalized and validated as-is. It returns the config, the path it
// resolved to, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("parse config %s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// searchPaths is where Load looks without an explicit path: the user config
// directory first, then classicphotos.toml in the working directory.
func searchPaths() ([]string, error) {
	user, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	local, err := filepath.Abs("classicphotos.toml")
	if err != nil {
		return nil, err
	}
	return []string{user, local}, nil
}

func locate(explicit string) (string, bool, error) {
	if explicit != "" {
		path, err := expandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(path)
		return path, exists, err
	}
	candidates, err := searchPaths()
	if err != nil {
		return "", false, err
	}
	for _, candidate := range candidates {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return candidates[0], false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return !info.IsDir(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat config: %w", err)
	}
}

// EnsureDirectories creates the log directory.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// FetchTimeoutDuration returns the per-request fetch timeout.
func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.Pipeline.FetchTimeout) * time.Second
}

// SettleTimeoutDuration bounds how long the run command waits for a viewport to settle.
func (c *Config) SettleTimeoutDuration() time.Duration {
	return time.Duration(c.Viewport.SettleTimeout) * time.Second
}

// LockPath returns the single-instance lock file used by the run command.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "classicphotos.lock")
}

// expandPath resolves a leading "~" or "~/" against the home directory and
// makes the result absolute.
func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimPrefix(value, "~"))
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// ExpandPath applies the same rules Load uses for path settings.
func ExpandPath(value string) (string, error) {
	return expandPath(value)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := atomic.WriteFile(path, strings.NewReader(sampleConfig)); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
