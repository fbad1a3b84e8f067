package pipeline

import (
	"fmt"
	"strings"

	"tokensmith/internal/textutil"
)

// fileNames hands out container base names that are unique within one run.
// Names compare case-insensitively so case-folding file systems keep every
// container. A repeated name gets a " (2)", " (3)", ... suffix.
type fileNames map[string]bool

func (n fileNames) claim(name string) string {
	base := textutil.SanitizeFileName(name)
	candidate := base
	for i := 2; n[strings.ToLower(candidate)]; i++ {
		candidate = fmt.Sprintf("%s (%d)", base, i)
	}
	n[strings.ToLower(candidate)] = true
	return candidate
}
