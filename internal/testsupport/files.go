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

// Shade returns a distinct opaque color per index so generated images never
// share a checksum by accident.
func Shade(i int) color.NRGBA {
	return color.NRGBA{R: uint8(40 + 20*i), G: uint8(200 - 15*i), B: uint8(90 + 7*i), A: 255}
}

// PNGBytes encodes a solid w x h image.
func PNGBytes(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// WritePNG writes a solid w x h PNG to path, creating parent directories.
func WritePNG(t testing.TB, path string, w, h int, c color.Color) {
	t.Helper()
	WriteBytes(t, path, PNGBytes(t, w, h, c))
}

// WriteJSON marshals v to path.
func WriteJSON(t testing.TB, path string, v any) {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	WriteBytes(t, path, data)
}

// WriteBytes writes data to path, creating parent directories.
func WriteBytes(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
