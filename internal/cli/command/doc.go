// Package command defines the roster-cli commands using urfave/cli/v2.
//
//   - root.go: application, global flags, settings resolution
//   - backup.go: snapshot scheduler control and reports
//   - config.go: the local CLI configuration file
//   - system.go: health and version
//
// Backup commands talk to the admin API unless --dir is given, in which
// case list, report and prune work directly on a backup directory.
package command
