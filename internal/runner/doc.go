// Package runner wraps external tool invocation: subprocess execution
// with context cancellation, combined output capture and typed errors
// carrying the tool's diagnostic output.
package runner
