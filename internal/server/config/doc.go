// Package config provides the roster-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation
//   - sanitize.go: masking of secrets for logging
//
// Configuration is loaded through internal/infra/confloader from a YAML
// file and ROSTER_ environment variables on top of Default().
package config
