package testsupport

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// SolidImage returns a size x size RGBA image filled with c.
func SolidImage(size int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// EncodePNG returns img as PNG bytes.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// WritePNG writes a small solid PNG to path and returns its file:// URL.
func WritePNG(t testing.TB, path string) string {
	t.Helper()

	data := EncodePNG(t, SolidImage(4, color.RGBA{R: 40, G: 90, B: 200, A: 255}))
	writeFile(t, path, data)
	return "file://" + filepath.ToSlash(path)
}

// WriteCatalog writes entries as a JSON catalog at path. A nil map leaves
// the path untouched so callers can exercise a missing catalog.
func WriteCatalog(t testing.TB, path string, entries map[string]string) {
	t.Helper()

	if entries == nil {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	writeFile(t, path, data)
}

func writeFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
