// Package ledger persists the outcome of every token build in SQLite.
//
// Each build appends one row: the creature, the archive it produced, the
// portrait checksum, a status and the error class of failures. The delivery
// command reads the latest successful row per creature to assemble its
// aggregate without rebuilding anything.
package ledger
