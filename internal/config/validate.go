package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBuild(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBuild() error {
	if c.Build.MatchThreshold <= 0 || c.Build.MatchThreshold > 1 {
		return errors.New("build.match_threshold must be greater than 0 and at most 1")
	}
	if c.Build.ThumbnailSmall <= 0 || c.Build.ThumbnailLarge <= 0 {
		return errors.New("build.thumbnail_small and build.thumbnail_large must be positive")
	}
	if c.Build.ThumbnailSmall > c.Build.ThumbnailLarge {
		return fmt.Errorf("build.thumbnail_small (%d) must not exceed build.thumbnail_large (%d)",
			c.Build.ThumbnailSmall, c.Build.ThumbnailLarge)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
