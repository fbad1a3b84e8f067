// Package config loads, normalizes, and validates tokensmith configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment fallbacks such as TOKENSMITH_IMAGE_DIRS. The Config type
// centralizes every knob the build needs: where archives go, which image
// libraries feed portrait matching, and how thumbnails are sized.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
