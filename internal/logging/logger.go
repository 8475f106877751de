package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"classicphotos/internal/config"
)

// LogFileName is the file NewFromConfig appends to inside the log directory.
const LogFileName = "classicphotos.log"

// Options describes logger construction parameters.
type Options struct {
	// Level is the minimum level name (debug, info, warn, error).
	Level string
	// Format is "console" (default) or "json".
	Format string
	// Writer receives output. Nil means stderr.
	Writer io.Writer
	// Source adds file:line to every line. Debug level implies it.
	Source bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	handler, err := newHandler(opts, ParseLevel(opts.Level))
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// NewFromConfig logs to stderr and to LogFileName under the configured log
// directory. When a stage override is more verbose than logging.level the
// handler is opened at that level and the root logger is capped at
// logging.level, so ForStage can raise one stage without raising the rest.
// The returned close func releases the log file and is safe to call when no
// file was opened.
func NewFromConfig(cfg *config.Config) (*slog.Logger, func() error, error) {
	noClose := func() error { return nil }
	if cfg == nil {
		logger, err := New(Options{})
		return logger, noClose, err
	}

	out := io.Writer(os.Stderr)
	closeFile := noClose
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("ensure log directory: %w", err)
		}
		file, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, file)
		closeFile = file.Close
	}

	root := ParseLevel(cfg.Logging.Level)
	floor := root
	for _, value := range cfg.Logging.StageOverrides {
		floor = min(floor, ParseLevel(value))
	}
	handler, err := newHandler(Options{Format: cfg.Logging.Format, Writer: out}, floor)
	if err != nil {
		_ = closeFile()
		return nil, nil, err
	}
	logger := slog.New(handler)
	if floor < root {
		logger = WithLevelOverride(logger, root)
	}
	return logger, closeFile, nil
}

// ParseLevel maps a configured level name onto slog; unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newHandler(opts Options, level slog.Level) (slog.Handler, error) {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	source := opts.Source || level <= slog.LevelDebug
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		return newConsoleHandler(out, level, source), nil
	case "json":
		return newJSONHandler(out, level, source), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// newJSONHandler emits one object per line with ts, level, msg, and
// source as short stable keys.
func newJSONHandler(w io.Writer, level slog.Level, source bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: source,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339))
			case slog.LevelKey:
				return slog.String("level", strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					return slog.String("source", fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	})
}
