package services

import "context"

// annotation keys are unexported so only this package can set them.
type annotation int

const (
	itemKeyAnnotation annotation = iota
	stageAnnotation
	requestIDAnnotation
)

func annotate(ctx context.Context, key annotation, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func lookup(ctx context.Context, key annotation) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	return value, ok && value != ""
}

// WithItemKey records the scheduler key of the photo being worked on.
func WithItemKey(ctx context.Context, key string) context.Context {
	return annotate(ctx, itemKeyAnnotation, key)
}

func ItemKeyFromContext(ctx context.Context) (string, bool) { return lookup(ctx, itemKeyAnnotation) }

// WithStage records the pipeline stage ("fetch" or "transform").
func WithStage(ctx context.Context, stage string) context.Context {
	return annotate(ctx, stageAnnotation, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return lookup(ctx, stageAnnotation) }

// WithRequestID records the correlation id of the task doing the work.
func WithRequestID(ctx context.Context, id string) context.Context {
	return annotate(ctx, requestIDAnnotation, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, requestIDAnnotation) }
