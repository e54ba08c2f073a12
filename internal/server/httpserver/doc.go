// Package httpserver provides the roster admin HTTP server.
//
// Routing uses chi. Every request gets a ULID request ID, panic recovery,
// and an access log line. Routes under /admin/v1 also pass a per-client
// rate limiter and bearer token authentication.
package httpserver
