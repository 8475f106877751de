package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// shortIDLen is how much of a task correlation id the console shows.
const shortIDLen = 8

// consoleHandler renders one human-readable line per record:
//
//	2026-01-02 15:04:05 INFO task: [fetch Tulips] photo downloaded correlation_id=1b9d6bcd item_key=3
//
// The component becomes a prefix and the stage and item name become a
// bracketed subject; every other attribute follows as key=value.
type consoleHandler struct {
	out      *lockedWriter
	level    slog.Level
	source   bool
	prefix   []slog.Attr
	groupKey string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsoleHandler(w io.Writer, level slog.Level, source bool) slog.Handler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: level, source: source}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.prefix = append(h.prefix[:len(h.prefix):len(h.prefix)], qualify(h.groupKey, attrs)...)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groupKey = joinKey(h.groupKey, name)
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.prefix)+record.NumAttrs())
	attrs = append(attrs, h.prefix...)
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, qualify(h.groupKey, []slog.Attr{a})...)
		return true
	})

	var component, stage, item string
	var tail strings.Builder
	for _, a := range attrs {
		value := renderValue(a.Value)
		switch a.Key {
		case FieldComponent:
			if component == "" {
				component = value
			}
			continue
		case FieldStage:
			stage = value
			continue
		case FieldItemName:
			item = value
			continue
		case FieldCorrelationID:
			if len(value) > shortIDLen {
				value = value[:shortIDLen]
			}
		}
		fmt.Fprintf(&tail, " %s=%s", a.Key, quoteIfNeeded(value))
	}

	when := record.Time
	if when.IsZero() {
		when = time.Now()
	}
	var line strings.Builder
	line.WriteString(when.Format(time.DateTime))
	line.WriteString(" " + record.Level.String() + " ")
	if component != "" {
		line.WriteString(component + ": ")
	}
	if subject := strings.TrimSpace(stage + " " + item); subject != "" {
		line.WriteString("[" + subject + "] ")
	}
	line.WriteString(record.Message)
	if src := record.Source(); h.source && src != nil {
		fmt.Fprintf(&line, " (%s:%d)", filepath.Base(src.File), src.Line)
	}
	line.WriteString(tail.String())
	line.WriteByte('\n')

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := io.WriteString(h.out.w, line.String())
	return err
}

// qualify flattens groups into dotted keys under prefix and drops empty attrs.
func qualify(prefix string, attrs []slog.Attr) []slog.Attr {
	var out []slog.Attr
	for _, a := range attrs {
		a.Value = a.Value.Resolve()
		switch {
		case a.Equal(slog.Attr{}):
		case a.Value.Kind() == slog.KindGroup:
			out = append(out, qualify(joinKey(prefix, a.Key), a.Value.Group())...)
		default:
			a.Key = joinKey(prefix, a.Key)
			out = append(out, a)
		}
	}
	return out
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.String()
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\r\n=\"") {
		return strconv.Quote(s)
	}
	return s
}
