package logging

import (
	"context"
	"log/slog"
	"strings"
)

// minLevelHandler drops records below floor before they reach next. The
// wrapped handler keeps the global level, so a stage can be made quieter but
// never louder than the root logger.
type minLevelHandler struct {
	next  slog.Handler
	floor slog.Level
}

func (h *minLevelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.floor && h.next.Enabled(ctx, level)
}

func (h *minLevelHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level < h.floor {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *minLevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &minLevelHandler{next: h.next.WithAttrs(attrs), floor: h.floor}
}

func (h *minLevelHandler) WithGroup(name string) slog.Handler {
	return &minLevelHandler{next: h.next.WithGroup(name), floor: h.floor}
}

// WithLevelOverride returns logger with a new minimum level. Applying it
// twice replaces the earlier floor rather than stacking.
func WithLevelOverride(logger *slog.Logger, level slog.Level) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	next := logger.Handler()
	if wrapped, ok := next.(*minLevelHandler); ok {
		next = wrapped.next
	}
	return slog.New(&minLevelHandler{next: next, floor: level})
}

// ForStage applies the logging.stage_overrides entry for stage, if any.
func ForStage(logger *slog.Logger, overrides map[string]string, stage string) *slog.Logger {
	level, ok := overrides[strings.ToLower(strings.TrimSpace(stage))]
	if !ok || strings.TrimSpace(level) == "" {
		return logger
	}
	return WithLevelOverride(logger, ParseLevel(level))
}
