package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateViewport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if err := ensurePositiveMap(map[string]int{
		"pipeline.fetch_concurrency":     c.Pipeline.FetchConcurrency,
		"pipeline.transform_concurrency": c.Pipeline.TransformConcurrency,
		"pipeline.fetch_timeout":         c.Pipeline.FetchTimeout,
	}); err != nil {
		return err
	}
	if c.Pipeline.MaxPayloadBytes <= 0 {
		return errors.New("pipeline.max_payload_bytes must be positive")
	}
	if c.Pipeline.SepiaIntensity < 0 || c.Pipeline.SepiaIntensity > 1 {
		return errors.New("pipeline.sepia_intensity must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateViewport() error {
	if err := ensurePositiveMap(map[string]int{
		"viewport.rows":           c.Viewport.Rows,
		"viewport.scroll_step":    c.Viewport.ScrollStep,
		"viewport.settle_timeout": c.Viewport.SettleTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if !validLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	for stage, level := range c.Logging.StageOverrides {
		if !validLevel(level) {
			return fmt.Errorf("logging.stage_overrides.%s has invalid level %q", stage, level)
		}
	}
	return nil
}

func validLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
