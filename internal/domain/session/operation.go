package session

import "time"

// Kind identifies a reversible filesystem action.
type Kind string

const (
	// KindCreateFile records a file created by the build.
	KindCreateFile Kind = "create-file"
	// KindCreateDir records a directory created by the build.
	KindCreateDir Kind = "create-dir"
	// KindModifyFile records an overwrite of an existing file;
	// the prior content is snapshotted to Backup.
	KindModifyFile Kind = "modify-file"
	// KindMove records a rename from Path to Dest.
	KindMove Kind = "move"
	// KindDelete records a removal; the prior content is snapshotted
	// to Backup (a file copy or a directory tree copy).
	KindDelete Kind = "delete"
)

// Operation is one reversible filesystem action recorded into a session.
// Operations are appended in execution order and inverted in strict
// reverse order.
type Operation struct {
	// Seq is the 1-based position of the operation within its session.
	Seq int `json:"seq"`
	// Kind is the recorded action.
	Kind Kind `json:"kind"`
	// Path is the primary target of the action.
	Path string `json:"path"`
	// Dest is the destination path for move operations.
	Dest string `json:"dest,omitempty"`
	// Backup is the snapshot location holding prior content
	// for modify and delete operations.
	Backup string `json:"backup,omitempty"`
	// RecordedAt is when the operation was persisted.
	RecordedAt time.Time `json:"recorded_at"`
}
