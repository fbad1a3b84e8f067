// Package creature normalizes raw monster source data into a typed Record.
//
// Every field access goes through a fixed table of rules: a field is either
// required (absent means ErrMissingField) or optional with a documented
// default. Combat statistics the source omits are derived from the ability
// scores and from free-text descriptions, never guessed silently.
package creature
