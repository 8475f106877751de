// Package config loads, normalizes, and validates classicphotos configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the CLASSICPHOTOS_CATALOG
// environment fallback. The Config type centralizes every knob the pipeline and
// CLI need so stage concurrency, fetch limits, and viewport geometry are
// discovered in one pass.
package config
