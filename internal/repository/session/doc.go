// Package session implements durable storage for build sessions:
// one directory per session holding a YAML header, an append-only JSONL
// operation log and prior-content snapshots used for rollback.
package session
