// Package builder is the build orchestrator: it resolves the effective
// configuration, opens a ledger session, runs the executable-builder and
// installer stages and commits or rolls the session back depending on
// the outcome.
package builder
