// Package domain defines the core domain models for roster.
//
// Domain models are plain value types without IO dependencies:
//
//   - Student: one record of the student collection
//   - Errors: structured error codes shared by the admin API and CLI
package domain
