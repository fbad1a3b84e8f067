// Package logging builds the slog loggers used across tokensmith.
//
// The console format puts the creature and build stage in front of every
// message so a batch log reads creature by creature. The JSON format keeps
// them as plain fields for filtering.
package logging
