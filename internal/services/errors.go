package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingField marks a record that lacks a field with no documented default.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidField marks a present field whose value cannot be decoded.
	ErrInvalidField = errors.New("invalid field")
	// ErrMalformedCapability marks an ability entry unusable for macro generation.
	ErrMalformedCapability = errors.New("malformed capability")
	// ErrAssetMiss marks an image lookup that fell back to the default portrait.
	ErrAssetMiss = errors.New("asset resolution miss")
	// ErrArchiveWrite marks a filesystem failure while writing a container.
	ErrArchiveWrite = errors.New("archive write failure")
	// ErrConfiguration marks invalid runtime configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrInvalidField
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to the short taxonomy label persisted in the build
// ledger and shown in summaries.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrInvalidField):
		return "invalid_field"
	case errors.Is(err, ErrMalformedCapability):
		return "malformed_capability"
	case errors.Is(err, ErrAssetMiss):
		return "asset_miss"
	case errors.Is(err, ErrArchiveWrite):
		return "archive_write"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "build failure"
	}
	return strings.Join(parts, ": ")
}
