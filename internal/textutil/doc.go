// Package textutil provides text helpers shared by the build: name similarity
// for portrait matching and filename sanitization for archive naming.
//
// Similarity uses the same matching-block algorithm as Python's
// difflib.SequenceMatcher, computed over runes, so ratios line up with the
// threshold values documented for portrait matching.
package textutil
