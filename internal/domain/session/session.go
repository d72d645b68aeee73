package session

import "time"

// Status is the lifecycle state of a build session.
type Status string

const (
	// StatusOpen marks a session whose build is still in progress.
	StatusOpen Status = "open"
	// StatusCommitted marks a session whose build succeeded;
	// its operations are retained for audit and manual rollback.
	StatusCommitted Status = "committed"
	// StatusRolledBack marks a session whose operations were all inverted.
	StatusRolledBack Status = "rolled-back"
	// StatusPartiallyRolledBack marks a session where some inverse
	// operations failed; the remainder stays listed for inspection.
	StatusPartiallyRolledBack Status = "partially-rolled-back"
	// StatusAbandoned marks a session left open by a crashed process,
	// detected on a later startup scan.
	StatusAbandoned Status = "abandoned"
)

// CanTransition reports whether moving from s to next is a legal
// lifecycle transition.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusOpen:
		return next == StatusCommitted ||
			next == StatusRolledBack ||
			next == StatusPartiallyRolledBack ||
			next == StatusAbandoned
	case StatusCommitted, StatusAbandoned, StatusPartiallyRolledBack:
		// Manual rollback (or a retry of a partial one) is still allowed.
		return next == StatusRolledBack || next == StatusPartiallyRolledBack
	case StatusRolledBack:
		return false
	default:
		return false
	}
}

// Session is the full record of filesystem-mutating operations performed
// by one build invocation.
type Session struct {
	// ID is the unique, time-ordered session identifier (UUIDv7).
	ID string `yaml:"id" json:"id"`
	// Status is the current lifecycle state.
	Status Status `yaml:"status" json:"status"`
	// CreatedAt is when the session was opened.
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	// Operations are the recorded filesystem actions, in execution order.
	Operations []Operation `yaml:"-" json:"-"`
}

// Summary is a lightweight session listing entry.
type Summary struct {
	// ID is the session identifier.
	ID string
	// Status is the session's current lifecycle state.
	Status Status
	// CreatedAt is when the session was opened.
	CreatedAt time.Time
	// OperationCount is the number of recorded operations.
	OperationCount int
}
