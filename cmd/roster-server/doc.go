// Package main provides the entry point for roster-server.
//
// The server keeps the student collection in memory and provides:
//
//   - A periodic snapshot scheduler writing the collection to the backup directory
//   - An admin HTTP API to drive the scheduler and read snapshot reports
//   - Prometheus metrics on /metrics
//   - A persistent journal of scheduler events
//
// Usage:
//
//	roster-server [flags]
//	roster-server -config /etc/roster/config.yaml
//
// Every configuration key can be overridden with ROSTER_<SECTION>__<KEY>
// environment variables, e.g. ROSTER_BACKUP__INTERVAL=5m.
package main
