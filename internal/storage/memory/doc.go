// Package memory holds the live student collection in memory.
//
// The Store is the source the snapshot manager reads on every tick:
// List returns the collection ordered by id, so two snapshots of the same
// collection are byte-identical.
package memory
