// Package rst extracts creature source mappings from reStructuredText rulebook
// pages. The output has the same keys as the JSON sources, so the creature
// package never sees where a record came from.
//
// Only AC and HP are mandatory here; a page missing either fails with
// ErrMissingField. Every other field degrades to empty, and fields the
// creature model requires are left out so the record constructor reports them.
package rst
