// Package session defines the domain model of the rollback ledger:
// sessions, their lifecycle state machine and the reversible filesystem
// operations they record.
package session
