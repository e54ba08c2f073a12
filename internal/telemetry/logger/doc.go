// Package logger configures structured logging for roster.
//
// It builds a log/slog logger with:
//
//   - JSON or text output
//   - a process-wide level that can be changed at runtime (SetLevel)
//   - redaction of credentials by attribute key and by value shape
//   - request ID propagation from context.Context
//
// Components take a *slog.Logger and tag it with a "component" attribute.
package logger
