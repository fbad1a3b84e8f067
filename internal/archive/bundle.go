package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"

	"tokensmith/internal/asset"
	"tokensmith/internal/fileutil"
	"tokensmith/internal/services"
)

// Extension is the token container file extension.
const Extension = ".rptok"

// Asset pairs an image with its rendered metadata document.
type Asset struct {
	Image *asset.Image
	Meta  string
}

// Bundle is the complete content of one token container.
type Bundle struct {
	Content        string
	Properties     string
	Assets         []Asset
	Thumbnail      *asset.Image
	ThumbnailLarge *asset.Image
}

// Entries lists the entry names Write produces for b, in write order.
func (b Bundle) Entries() []string {
	names := []string{"content.xml", "properties.xml"}
	for _, a := range b.unique() {
		names = append(names, path.Join("assets", a.Image.Checksum), path.Join("assets", a.Image.Checksum+"."+a.Image.Extension()))
	}
	if b.Thumbnail != nil {
		names = append(names, "thumbnail")
	}
	if b.ThumbnailLarge != nil {
		names = append(names, "thumbnail_large")
	}
	return names
}

// unique drops assets whose checksum was already seen, keeping first occurrence.
func (b Bundle) unique() []Asset {
	seen := make(map[string]bool, len(b.Assets))
	out := make([]Asset, 0, len(b.Assets))
	for _, a := range b.Assets {
		if a.Image == nil || seen[a.Image.Checksum] {
			continue
		}
		seen[a.Image.Checksum] = true
		out = append(out, a)
	}
	return out
}

// Write streams b as a zip container to w.
func Write(w io.Writer, b Bundle) error {
	zw := zip.NewWriter(w)
	add := func(name string, data []byte) error {
		fw, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("write entry %s: %w", name, err)
		}
		return nil
	}

	if err := add("content.xml", []byte(b.Content)); err != nil {
		return err
	}
	if err := add("properties.xml", []byte(b.Properties)); err != nil {
		return err
	}
	for _, a := range b.unique() {
		base := path.Join("assets", a.Image.Checksum)
		if err := add(base, []byte(a.Meta)); err != nil {
			return err
		}
		if err := add(base+"."+a.Image.Extension(), a.Image.Bytes()); err != nil {
			return err
		}
	}
	if b.Thumbnail != nil {
		if err := add("thumbnail", b.Thumbnail.Bytes()); err != nil {
			return err
		}
	}
	if b.ThumbnailLarge != nil {
		if err := add("thumbnail_large", b.ThumbnailLarge.Bytes()); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

// WriteFile writes b to path atomically. Failures are tagged ErrArchiveWrite
// and leave any previous file at path intact.
func WriteFile(filePath string, b Bundle) error {
	err := fileutil.WriteAtomic(filePath, 0o644, func(w io.Writer) error {
		return Write(w, b)
	})
	if err != nil {
		return services.Wrap(services.ErrArchiveWrite, "archive", "write", filePath, err)
	}
	return nil
}

// ReadEntries returns every entry of the zip container at path keyed by name.
func ReadEntries(filePath string) (map[string][]byte, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer zr.Close()

	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}
		out[f.Name] = data
	}
	return out, nil
}

func fileSize(filePath string) int64 {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0
	}
	return info.Size()
}
