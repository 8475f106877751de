package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"classicphotos/internal/photos"
)

// tone picks the tag and colour of a status line.
type tone int

const (
	toneInfo tone = iota
	toneGood
	toneWarn
	toneBad
)

var toneStyles = map[tone]struct {
	tag    string
	colors text.Colors
}{
	toneInfo: {"INFO", text.Colors{text.FgBlue}},
	toneGood: {"OK", text.Colors{text.FgGreen}},
	toneWarn: {"WARN", text.Colors{text.FgYellow}},
	toneBad:  {"ERROR", text.Colors{text.FgRed}},
}

const statusLabelWidth = 20

// renderStatusLine formats "  Label:   [TAG] message", coloured when colorize is set.
func renderStatusLine(label string, t tone, message string, colorize bool) string {
	style := toneStyles[t]
	line := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", style.tag)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return style.colors.Sprint(line)
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	lines := []string{heading, strings.Repeat("-", len(heading))}
	if colorize {
		for i := range lines {
			lines[i] = toneStyles[toneInfo].colors.Sprint(lines[i])
		}
	}
	return lines
}

// shouldColorize reports whether w is a terminal.
func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// stateLabel title-cases a record state for display. A caser is built per
// call since casers carry state.
func stateLabel(state photos.State) string {
	if state == "" {
		return "-"
	}
	return cases.Title(language.English).String(string(state))
}

func stateTone(state photos.State) tone {
	switch state {
	case photos.StateFiltered:
		return toneGood
	case photos.StateDownloaded:
		return toneWarn
	case photos.StateFailed:
		return toneBad
	default:
		return toneInfo
	}
}
