package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/oshokin/unipack/internal/domain/session"
	"github.com/oshokin/unipack/internal/logger"
	repo "github.com/oshokin/unipack/internal/repository/session"
)

const (
	// dirPermissions is used for directories created through the ledger.
	dirPermissions = 0o750
)

// errNoOpenSession is returned when a mutation is attempted outside a session.
var errNoOpenSession = errors.New("no open session")

// Ledger records every filesystem-mutating operation of a build into a
// durable session and can replay the inverse of those operations to
// restore pre-build state.
//
// Recording follows write-then-act ordering: the operation is persisted
// before its real filesystem effect proceeds, so a crash never leaves an
// un-logged mutation. The ledger is the single serialized write point
// shared by concurrent format jobs.
type Ledger struct {
	// store persists session records.
	store *repo.Store
	// mu serializes operation recording across concurrent jobs.
	mu sync.Mutex
	// sessionID is the currently open session, empty when none.
	sessionID string
	// seq is the sequence number of the last recorded operation.
	seq int
}

// New creates a ledger backed by the provided store.
func New(store *repo.Store) *Ledger {
	return &Ledger{
		store: store,
	}
}

// Store returns the backing session store.
func (l *Ledger) Store() *repo.Store {
	return l.store
}

// Begin opens a new session and persists its header immediately.
// The identifier is a UUIDv7: time-ordered and collision-resistant.
func (l *Ledger) Begin(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sessionID != "" {
		return "", fmt.Errorf("session %s is already open", l.sessionID)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	sess := &domain.Session{
		ID:        id.String(),
		Status:    domain.StatusOpen,
		CreatedAt: time.Now().UTC(),
	}

	if err = l.store.Create(ctx, sess); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}

	l.sessionID = sess.ID
	l.seq = 0

	logger.InfoKV(ctx, "Opened build session", "session_id", sess.ID)

	return sess.ID, nil
}

// SessionID returns the currently open session identifier, empty when none.
func (l *Ledger) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.sessionID
}

// Commit marks the open session committed. Its operations are retained
// for audit; rollback stays possible manually.
func (l *Ledger) Commit(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sessionID == "" {
		return errNoOpenSession
	}

	if err := l.store.SetStatus(ctx, l.sessionID, domain.StatusCommitted); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}

	logger.InfoKV(ctx, "Committed build session", "session_id", l.sessionID)
	l.sessionID = ""

	return nil
}

// List enumerates persisted sessions, most recent first.
func (l *Ledger) List(ctx context.Context) ([]domain.Summary, error) {
	return l.store.List(ctx)
}

// record assigns the next sequence number and persists the operation,
// returning the stored copy.
func (l *Ledger) record(ctx context.Context, op domain.Operation) (domain.Operation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.recordLocked(ctx, op)
}

// recordWithBackup snapshots existing content at path and records the
// operation pointing at the snapshot, all under one lock so the backup
// location cannot collide with a concurrent job's operation.
func (l *Ledger) recordWithBackup(ctx context.Context, kind domain.Kind, path string) (domain.Operation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sessionID == "" {
		return domain.Operation{}, errNoOpenSession
	}

	backup := l.store.BackupPath(l.sessionID, l.seq+1)
	if err := copyPath(path, backup); err != nil {
		return domain.Operation{}, fmt.Errorf("snapshot %s: %w", path, err)
	}

	return l.recordLocked(ctx, domain.Operation{
		Kind:   kind,
		Path:   path,
		Backup: backup,
	})
}

// recordLocked is record without locking. Callers must hold mu.
func (l *Ledger) recordLocked(ctx context.Context, op domain.Operation) (domain.Operation, error) {
	if l.sessionID == "" {
		return domain.Operation{}, errNoOpenSession
	}

	l.seq++
	op.Seq = l.seq
	op.RecordedAt = time.Now().UTC()

	if err := l.store.AppendOperation(ctx, l.sessionID, op); err != nil {
		l.seq--

		return domain.Operation{}, fmt.Errorf("record operation: %w", err)
	}

	logger.DebugKV(ctx, "Recorded operation",
		"session_id", l.sessionID, "seq", op.Seq, "kind", op.Kind, "path", op.Path)

	return op, nil
}

// MkdirAll records and creates a directory (with parents). The recorded
// target is the topmost directory that does not exist yet, so rollback
// removes the whole created chain in one inverse step.
func (l *Ledger) MkdirAll(ctx context.Context, path string) error {
	top, err := topmostMissing(path)
	if err != nil {
		return err
	}

	if top == "" {
		// Already exists, nothing to record.
		return nil
	}

	if _, err = l.record(ctx, domain.Operation{
		Kind: domain.KindCreateDir,
		Path: top,
	}); err != nil {
		return err
	}

	if err = os.MkdirAll(path, dirPermissions); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}

	return nil
}

// WriteFile records and writes a file. An existing file is snapshotted
// first and recorded as a modification; a new file is recorded as a
// creation.
func (l *Ledger) WriteFile(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	if err := l.PrepareWrite(ctx, path); err != nil {
		return err
	}

	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// PrepareWrite records the upcoming creation or overwrite of path without
// performing the write itself. It is used before handing the path to an
// external tool that produces the file.
func (l *Ledger) PrepareWrite(ctx context.Context, path string) error {
	_, statErr := os.Stat(path)

	if statErr == nil {
		_, err := l.recordWithBackup(ctx, domain.KindModifyFile, path)

		return err
	}

	if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, statErr)
	}

	_, err := l.record(ctx, domain.Operation{
		Kind: domain.KindCreateFile,
		Path: path,
	})

	return err
}

// Move records and performs a rename from src to dst.
func (l *Ledger) Move(ctx context.Context, src, dst string) error {
	if _, err := l.record(ctx, domain.Operation{
		Kind: domain.KindMove,
		Path: src,
		Dest: dst,
	}); err != nil {
		return err
	}

	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}

	return nil
}

// Remove records and removes a file or directory tree. The prior content
// is snapshotted so rollback can restore it.
func (l *Ledger) Remove(ctx context.Context, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if _, err := l.recordWithBackup(ctx, domain.KindDelete, path); err != nil {
		return err
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}

	return nil
}

// topmostMissing returns the highest ancestor of path (or path itself)
// that does not exist yet, or empty when path already exists.
func topmostMissing(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	if _, err = os.Stat(abs); err == nil {
		return "", nil
	}

	missing := abs

	for {
		parent := filepath.Dir(missing)
		if parent == missing {
			break
		}

		if _, err = os.Stat(parent); err == nil {
			break
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", parent, err)
		}

		missing = parent
	}

	return missing, nil
}
