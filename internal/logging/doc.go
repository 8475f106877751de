// Package logging builds the slog loggers used across classicphotos.
//
// Console output is one line per record with the component as a prefix and
// the stage and photo name bracketed; JSON output keeps every field. Stage
// overrides from config adjust the level for fetch or transform tasks only.
package logging
