// Package ledger implements the build rollback system. Every
// filesystem-mutating step of a build is recorded into a durable session
// before its real effect proceeds; a failed build can then be undone by
// replaying the inverse of each operation in strict reverse order.
package ledger
