// Package config defines the roster-cli configuration file.
//
// The file lives at ~/.roster/cli.yaml by default. Values are layered
// defaults, then the file, then ROSTER_CLI_* environment variables;
// command-line flags override all of them.
package config
