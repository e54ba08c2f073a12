// Package connection is the roster-cli client for the admin HTTP API.
//
// Requests carry the admin bearer token; responses are unwrapped from the
// standard {code, message, request_id, data} envelope.
package connection
