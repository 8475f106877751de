// Package services defines shared utilities consumed by the pipeline stages and
// the caller-facing gallery.
//
// Key responsibilities:
//   - Context helpers that stamp item keys, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     fetch, decode, transform, cancellation, or catalog problems.
//
// Use these helpers when wiring new stage logic so failure handling and
// observability stay uniform across the pipeline.
package services
