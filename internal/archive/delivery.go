package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"tokensmith/internal/fileutil"
	"tokensmith/internal/services"
)

// DeliveryExtension is the aggregate archive extension.
const DeliveryExtension = ".zip"

// Delivery entry prefixes.
const (
	TokensDir  = "tokens"
	LibraryDir = "library"
)

// BuildDelivery writes an aggregate archive at target holding every container
// in members under tokens/ and the library container under library/. The
// member files are copied byte for byte and never re-rendered. Duplicate
// member names are rejected.
func BuildDelivery(target string, members []string, library string) error {
	seen := make(map[string]bool, len(members)+1)
	type entry struct{ name, source string }
	entries := make([]entry, 0, len(members)+1)
	for _, m := range members {
		name := path.Join(TokensDir, filepath.Base(m))
		if seen[name] {
			return services.Wrap(services.ErrArchiveWrite, "delivery", "collect", "duplicate member "+name, nil)
		}
		seen[name] = true
		entries = append(entries, entry{name, m})
	}
	if library != "" {
		entries = append(entries, entry{path.Join(LibraryDir, filepath.Base(library)), library})
	}

	err := fileutil.WriteAtomic(target, 0o644, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, e := range entries {
			if err := copyStored(zw, e.name, e.source); err != nil {
				return err
			}
		}
		return zw.Close()
	})
	if err != nil {
		return services.Wrap(services.ErrArchiveWrite, "delivery", "write", target, err)
	}
	return nil
}

// copyStored adds source to zw uncompressed; containers are already deflated.
func copyStored(zw *zip.Writer, name, source string) error {
	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open member: %w", err)
	}
	defer f.Close()

	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return nil
}
