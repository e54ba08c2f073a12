// Package snapshot provides periodic snapshots of the student collection.
//
// The package is split in three parts that only share the on-disk
// contract:
//
//   - naming.go, codec.go: file names and JSON array bodies
//   - manager.go: the scheduler that writes one snapshot per tick and
//     escalates when a single write spans too many ticks
//   - report.go: the aggregator that summarizes whatever snapshot files
//     exist when it runs
//
// Snapshot files are published atomically and never rewritten, so the
// Reporter can read the directory while the Manager is writing to it.
package snapshot
