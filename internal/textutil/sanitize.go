package textutil

import "strings"

// fileNameReplacer substitutes filesystem-unsafe characters with underscores.
var fileNameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"\x00", "_",
)

// SanitizeFileName substitutes filesystem-unsafe characters in a filename so a
// display name such as "Succubus/Incubus" can name a file. The result is
// trimmed of leading/trailing whitespace; an empty name becomes "unnamed".
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	if name == "" || name == "." || name == ".." {
		return "unnamed"
	}
	return name
}
