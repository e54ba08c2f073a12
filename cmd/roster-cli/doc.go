// Package main provides the entry point for roster-cli.
//
// roster-cli drives the snapshot scheduler of a running roster-server
// through its admin API and inspects backup directories locally:
//
//	roster-cli backup status
//	roster-cli backup start --interval 5m
//	roster-cli backup trigger --wait
//	roster-cli backup report --dir /var/lib/roster/backups
//	roster-cli -o json backup list
//	roster-cli config set token <admin-token>
package main
