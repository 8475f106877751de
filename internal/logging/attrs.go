package logging

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"classicphotos/internal/services"
)

// Attr is the attribute type every helper here returns.
type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key, value string) Attr { return slog.String(key, value) }

// ItemKey formats a scheduler key of any comparable type.
func ItemKey(key any) Attr { return slog.String(FieldItemKey, fmt.Sprint(key)) }

// Stage tags a line with the pipeline stage it belongs to.
func Stage(name string) Attr { return slog.String(FieldStage, name) }

// Error records err under "error". Errors carrying a services marker also
// get their kind.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	if kind := services.KindOf(err); kind != services.KindUnknown {
		return slog.Group("", slog.Any("error", err), slog.String(FieldErrorKind, string(kind)))
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component name. A nil logger yields a no-op.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning that always carries event_type and error_hint.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	has := func(key string) bool {
		return slices.ContainsFunc(attrs, func(a Attr) bool { return a.Key == key })
	}
	if !has(FieldEventType) {
		attrs = append(attrs, String(FieldEventType, eventType))
	}
	if !has(FieldErrorHint) {
		attrs = append(attrs, String(FieldErrorHint, "check logs for details"))
	}
	logger.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}
