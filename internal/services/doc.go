// Package services defines shared utilities consumed by the build pipeline and
// the packages it drives.
//
// Key responsibilities:
//   - Context helpers that stamp creature names, stage names, and run
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the pipeline's error taxonomy (missing field, malformed capability,
//     asset miss, archive write).
//
// Use these helpers when wiring new build steps so error reporting and
// observability stay uniform across creatures.
package services
