package asset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// imageExtensions are the library file types considered as portrait candidates.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Cache memoizes decoded images by source path and the library file listing
// for the lifetime of one run. Nothing is ever invalidated.
type Cache struct {
	mu        sync.Mutex
	images    map[string]*Image
	listings  map[string][]string
	portraits map[string]portrait
	readFile  func(string) ([]byte, error)
}

type portrait struct {
	image *Image
	match Match
}

// NewCache returns an empty cache reading from the local filesystem.
func NewCache() *Cache {
	return &Cache{
		images:    make(map[string]*Image),
		listings:  make(map[string][]string),
		portraits: make(map[string]portrait),
		readFile:  os.ReadFile,
	}
}

// Load returns the image at path, reading and re-encoding it only on the
// first call for that path.
func (c *Cache) Load(path string) (*Image, error) {
	key := filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	if img, ok := c.images[key]; ok {
		return img, nil
	}
	data, err := c.readFile(key)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	img, err := Decode(key, data)
	if err != nil {
		return nil, err
	}
	c.images[key] = img
	return img, nil
}

// Files lists the image files directly inside dir, sorted by name. A missing
// directory lists as empty. The listing is computed once per directory.
func (c *Cache) Files(dir string) ([]string, error) {
	key := filepath.Clean(dir)

	c.mu.Lock()
	defer c.mu.Unlock()

	if files, ok := c.listings[key]; ok {
		return files, nil
	}
	entries, err := os.ReadDir(key)
	if err != nil {
		if os.IsNotExist(err) {
			c.listings[key] = nil
			return nil, nil
		}
		return nil, fmt.Errorf("list image library %s: %w", key, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(key, entry.Name()))
		}
	}
	sort.Strings(files)
	c.listings[key] = files
	return files, nil
}

// Len reports how many images are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

func (c *Cache) portrait(name string) (portrait, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.portraits[name]
	return p, ok
}

func (c *Cache) storePortrait(name string, p portrait) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.portraits[name] = p
}
