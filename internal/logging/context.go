package logging

import (
	"context"
	"log/slog"

	"classicphotos/internal/services"
)

// Field keys shared by every component so console and JSON output line up.
const (
	FieldComponent     = "component"
	FieldItemKey       = "item_key"
	FieldItemName      = "item_name"
	FieldStage         = "stage"
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a line for filtering, e.g. "fetch_failed".
	FieldEventType = "event_type"
	// FieldErrorHint is the operator-facing next step for a failure.
	FieldErrorHint = "error_hint"
	FieldErrorKind = "error_kind"
)

// ContextFields returns the item key, stage, and correlation id stored on ctx
// by the services helpers.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	var fields []Attr
	if key, ok := services.ItemKeyFromContext(ctx); ok {
		fields = append(fields, String(FieldItemKey, key))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, Stage(stage))
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, String(FieldCorrelationID, id))
	}
	return fields
}

// WithContext returns logger annotated with ContextFields(ctx).
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return slog.New(logger.Handler().WithAttrs(fields))
}
