// Package cmap provides a sharded concurrent map.
//
// Keys are routed to shards with a murmur3 hash, each shard guarded by
// its own RWMutex:
//
//	m := cmap.New[int64, *domain.Student](cmap.Int64Hash)
//	m.Set(42, s)
//	s, ok := m.Get(42)
//
// Iteration takes shard locks one at a time, so it is not a consistent
// point-in-time view of the whole map.
package cmap
