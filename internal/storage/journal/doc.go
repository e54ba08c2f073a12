// Package journal persists the snapshot scheduler's event history.
//
// Entries are stored in Badger under "evt/<ulid>" keys. ULIDs sort by
// creation time, so a reverse prefix scan yields the newest entries first.
package journal
