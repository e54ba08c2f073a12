// Package output renders roster-cli results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables with wide mode and humanized cells
//   - json.go, yaml.go: machine-readable output
//   - spinner.go: progress animation while waiting on the server
//
// Colors follow fatih/color, which disables them when stdout is not a
// terminal or NO_COLOR is set.
package output
