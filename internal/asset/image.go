package asset

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// Image is an immutable PNG-encoded image addressed by Checksum. Callers must
// not modify the slice returned by Bytes.
type Image struct {
	Path     string
	Name     string
	Width    int
	Height   int
	Checksum string

	data    []byte
	decoded image.Image
}

// Bytes returns the PNG encoding the checksum was computed over.
func (i *Image) Bytes() []byte {
	return i.data
}

// Extension is the stored file extension; every asset is re-encoded as PNG.
func (i *Image) Extension() string {
	return "png"
}

func (i *Image) String() string {
	return fmt.Sprintf("Image<%s,%s>", i.Name, i.Checksum)
}

// Decode reads any registered image format and re-encodes it as PNG. The
// checksum is taken over the re-encoding, so the same pixels read from
// different source formats share a checksum.
func Decode(path string, data []byte) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return fromImage(path, stem(path), src)
}

func fromImage(path, name string, src image.Image) (*Image, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	sum := md5.Sum(buf.Bytes())
	b := src.Bounds()
	return &Image{
		Path:     path,
		Name:     name,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Checksum: hex.EncodeToString(sum[:]),
		data:     buf.Bytes(),
		decoded:  src,
	}, nil
}

// Thumbnail returns a new Image scaled to fit within maxW x maxH while keeping
// the aspect ratio. Images already inside the bounds are never enlarged. The
// receiver is left untouched.
func (i *Image) Thumbnail(maxW, maxH int) (*Image, error) {
	if maxW <= 0 || maxH <= 0 {
		return nil, fmt.Errorf("thumbnail %s: invalid bounds %dx%d", i.Name, maxW, maxH)
	}
	w, h := fitWithin(i.Width, i.Height, maxW, maxH)
	if w == i.Width && h == i.Height {
		return i, nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), i.decoded, i.decoded.Bounds(), draw.Over, nil)
	return fromImage(i.Path, i.Name, dst)
}

// fitWithin scales w x h down to fit the bounds, rounding and never returning
// a zero dimension.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	if w*maxH > h*maxW {
		return maxW, max(1, (h*maxW+w/2)/w)
	}
	return max(1, (w*maxH+h/2)/h), maxH
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultPortrait draws the built-in fallback portrait: a brown disc on a
// transparent square. The result is deterministic, so its checksum is stable.
func DefaultPortrait() *Image {
	const size = 256
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	fill := color.NRGBA{R: 0x7a, G: 0x52, B: 0x30, A: 0xff}
	rim := color.NRGBA{R: 0x3b, G: 0x27, B: 0x17, A: 0xff}
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			d := dx*dx + dy*dy
			switch {
			case d <= 118*118:
				img.SetNRGBA(x, y, fill)
			case d <= 126*126:
				img.SetNRGBA(x, y, rim)
			}
		}
	}
	out, err := fromImage("", "default", img)
	if err != nil {
		panic(err)
	}
	return out
}
