// Package source loads creature source mappings from JSON lists and RST
// documents.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tokensmith/internal/creature"
	"tokensmith/internal/rst"
	"tokensmith/internal/services"
)

// Item is one creature source. Err is set when the source could not be
// extracted; the item still carries its name so the failure can be reported.
type Item struct {
	Name   string
	Origin string
	Raw    map[string]any
	Err    error
}

// Kind identifies a source format by path.
type Kind int

const (
	KindUnknown Kind = iota
	KindJSON
	KindRST
)

// Detect classifies path: ".json" files are creature lists, ".rst" files and
// directories are RST documents.
func Detect(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return KindJSON
	case ".rst":
		return KindRST
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return KindRST
	}
	return KindUnknown
}

// Load reads every path in order. Unreadable or unknown paths abort the load;
// per-creature extraction failures are returned as items with Err set.
func Load(paths ...string) ([]Item, error) {
	var out []Item
	for _, path := range paths {
		var (
			items []Item
			err   error
		)
		switch Detect(path) {
		case KindJSON:
			items, err = LoadJSON(path)
		case KindRST:
			items, err = LoadRST(path)
		default:
			err = fmt.Errorf("unsupported source %q: expected .json, .rst or a directory", path)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

// LoadJSON reads a JSON creature list, optionally wrapped as {"results": [...]}.
func LoadJSON(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read creature list: %w", err)
	}
	list, err := creature.DecodeList(data)
	if err != nil {
		return nil, fmt.Errorf("parse creature list %s: %w", path, err)
	}
	items := make([]Item, 0, len(list))
	for i, raw := range list {
		name, _ := raw["name"].(string)
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("%s[%d]", filepath.Base(path), i)
		}
		items = append(items, Item{Name: name, Origin: path, Raw: raw})
	}
	return items, nil
}

// LoadRST reads a single RST file or every *.rst file in a directory, in
// name order. Each file may hold several creatures.
func LoadRST(path string) ([]Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat rst source: %w", err)
	}
	files := []string{path}
	if info.IsDir() {
		files, err = rstFiles(path)
		if err != nil {
			return nil, err
		}
	}

	var out []Item
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read rst document: %w", err)
		}
		entries := rst.ParseAll(string(data))
		if len(entries) == 0 {
			out = append(out, Item{
				Name:   strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)),
				Origin: file,
				Err:    noCreatures(file),
			})
			continue
		}
		for _, entry := range entries {
			out = append(out, Item{Name: entry.Name, Origin: file, Raw: entry.Source, Err: entry.Err})
		}
	}
	return out, nil
}

func rstFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list rst directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".rst") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ErrNoCreatures reports an RST document without any stat block.
var ErrNoCreatures = fmt.Errorf("%w: no creature stat block", services.ErrMissingField)

func noCreatures(file string) error {
	return fmt.Errorf("%s: %w", filepath.Base(file), ErrNoCreatures)
}
