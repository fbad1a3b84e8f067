// Package pipeline runs batch token builds.
//
// A Runner takes creature source items through record decoding, portrait
// resolution, macro generation and packaging, one creature at a time. A
// failing creature is recorded and logged and the batch moves on. Each
// outcome is appended to the build ledger, and the shared library container
// is written once per run. Delivery runs also assemble the aggregate archive.
package pipeline
