package main

import (
	"io"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"

	"classicphotos/internal/photos"
)

func TestRenderStatusLinePlain(t *testing.T) {
	got := renderStatusLine("Catalog", toneBad, "There was an error fetching photo details", false)
	want := "  Catalog:" + strings.Repeat(" ", statusLabelWidth-len("Catalog:")) + " [ERROR] There was an error fetching photo details"
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
	if got := renderStatusLine("Elapsed", toneInfo, "", false); strings.HasSuffix(got, " ") {
		t.Fatalf("expected no trailing space without message, got %q", got)
	}
}

func TestRenderStatusLineColorizes(t *testing.T) {
	plain := renderStatusLine("Filtered", toneGood, "3", false)
	got := renderStatusLine("Filtered", toneGood, "3", true)
	if want := (text.Colors{text.FgGreen}).Sprint(plain); got != want {
		t.Fatalf("expected green line %q, got %q", want, got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestStateLabelsAndTones(t *testing.T) {
	tests := []struct {
		state photos.State
		label string
		tone  tone
	}{
		{photos.StateNew, "New", toneInfo},
		{photos.StateDownloaded, "Downloaded", toneWarn},
		{photos.StateFiltered, "Filtered", toneGood},
		{photos.StateFailed, "Failed", toneBad},
		{"", "-", toneInfo},
	}
	for _, tt := range tests {
		if got := stateLabel(tt.state); got != tt.label {
			t.Fatalf("stateLabel(%q) = %q, want %q", tt.state, got, tt.label)
		}
		if got := stateTone(tt.state); got != tt.tone {
			t.Fatalf("stateTone(%q) = %d, want %d", tt.state, got, tt.tone)
		}
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{{title: "#", numeric: true}, {title: "Name"}}, [][]string{{"0", "Alpha"}, {"10"}})
	if !strings.Contains(out, "Alpha") || !strings.Contains(out, "10") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty output without columns")
	}
}
