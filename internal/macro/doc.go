// Package macro derives the ordered set of macro buttons for a creature.
//
// Each Variant is tagged with a Kind. Group, color and font color come from a
// per-kind presentation table, fall back to a group-keyed color map, and
// yield to an explicit per-instance Override.
package macro
