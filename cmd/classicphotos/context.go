package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"classicphotos/internal/config"
	"classicphotos/internal/logging"
)

// skipConfigAnnotation marks commands that must run without a loadable config.
const skipConfigAnnotation = "skipConfigLoad"

// loadedConfig is the result of resolving --config once per process.
type loadedConfig struct {
	cfg    *config.Config
	path   string
	exists bool
}

// commandContext shares the lazily loaded config between subcommands.
type commandContext struct {
	load func() (loadedConfig, error)
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{load: sync.OnceValues(func() (loadedConfig, error) {
		cfg, path, exists, err := config.Load(strings.TrimSpace(*configFlag))
		if err != nil {
			return loadedConfig{}, err
		}
		if err := cfg.EnsureDirectories(); err != nil {
			return loadedConfig{}, err
		}
		return loadedConfig{cfg: cfg, path: path, exists: exists}, nil
	})}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	loaded, err := c.load()
	return loaded.cfg, err
}

// newLogger returns the configured logger and the func that closes its log file.
func (c *commandContext) newLogger() (*slog.Logger, func() error, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	return logging.NewFromConfig(cfg)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}
