// Package handler implements the admin HTTP endpoints for the snapshot
// scheduler and report.
//
// Every JSON response uses the Response envelope. Domain errors are
// mapped to HTTP status codes from the numeric part of their code.
package handler
