package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBuild()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.BuildDir) == "" {
		c.Paths.BuildDir = defaultBuildDir
	}
	if c.Paths.BuildDir, err = expandPath(c.Paths.BuildDir); err != nil {
		return fmt.Errorf("paths.build_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if value, ok := os.LookupEnv("TOKENSMITH_IMAGE_DIRS"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ImageDirs = filepath.SplitList(value)
	}
	dirs := make([]string, 0, len(c.Paths.ImageDirs))
	seen := make(map[string]struct{}, len(c.Paths.ImageDirs))
	for _, dir := range c.Paths.ImageDirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("paths.image_dirs: %w", err)
		}
		if _, exists := seen[expanded]; exists {
			continue
		}
		seen[expanded] = struct{}{}
		dirs = append(dirs, expanded)
	}
	c.Paths.ImageDirs = dirs
	if c.Paths.DefaultPortrait, err = expandPath(strings.TrimSpace(c.Paths.DefaultPortrait)); err != nil {
		return fmt.Errorf("paths.default_portrait: %w", err)
	}
	if c.Paths.SpellCatalog, err = expandPath(strings.TrimSpace(c.Paths.SpellCatalog)); err != nil {
		return fmt.Errorf("paths.spell_catalog: %w", err)
	}
	if c.Paths.OverridesFile, err = expandPath(strings.TrimSpace(c.Paths.OverridesFile)); err != nil {
		return fmt.Errorf("paths.overrides_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = filepath.Join(c.Paths.BuildDir, "ledger.db")
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeBuild() {
	if c.Build.MaxItems < 0 {
		c.Build.MaxItems = 0
	}
	if c.Build.MatchThreshold == 0 {
		c.Build.MatchThreshold = defaultMatchThreshold
	}
	if c.Build.ThumbnailSmall == 0 {
		c.Build.ThumbnailSmall = defaultThumbnailSmall
	}
	if c.Build.ThumbnailLarge == 0 {
		c.Build.ThumbnailLarge = defaultThumbnailLarge
	}
	c.Build.LibraryName = strings.TrimSpace(c.Build.LibraryName)
	if c.Build.LibraryName == "" {
		c.Build.LibraryName = defaultLibraryName
	}
	c.Build.DeliveryName = strings.TrimSpace(c.Build.DeliveryName)
	if c.Build.DeliveryName == "" {
		c.Build.DeliveryName = defaultDeliveryName
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("TOKENSMITH_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
