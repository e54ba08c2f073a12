// Package tlsroots loads TLS material for roster.
//
//   - roots.go: trust pools for clients (system roots plus a custom CA)
//   - keypair.go: server certificate with hot reload via fsnotify
package tlsroots
