package session

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/unipack/internal/domain/session"
)

const (
	// headerFilename stores the session header (id, status, timestamps).
	headerFilename = "session.yaml"

	// operationsFilename is the append-only operation log, one JSON
	// object per line.
	operationsFilename = "operations.jsonl"

	// backupDirname holds prior-content snapshots for modify and
	// delete operations.
	backupDirname = "backup"

	// dirPermissions is used for session record directories.
	dirPermissions = 0o750

	// filePermissions is used for session record files.
	filePermissions = 0o600
)

// ErrNotFound is returned when the requested session does not exist.
var ErrNotFound = errors.New("session not found")

// Store persists build sessions as one directory per session under a root:
// a YAML header rewritten on every status transition, an append-only JSONL
// operation log flushed before each operation's real effect proceeds, and a
// backup directory with prior-content snapshots.
//
// The store is the single serialized access point for concurrent format
// jobs: every mutation goes through one mutex.
type Store struct {
	// root is the directory holding all session records.
	root string
	// mu protects concurrent access to the session records.
	mu sync.Mutex
}

// NewStore creates a store rooted at the provided directory.
func NewStore(root string) *Store {
	return &Store{
		root: filepath.Clean(root),
	}
}

// Root returns the directory holding all session records.
func (s *Store) Root() string {
	return s.root
}

// Create persists a new session header. The session directory and its
// backup subdirectory are created as part of the call.
func (s *Store) Create(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.sessionDir(sess.ID)
	if err := os.MkdirAll(filepath.Join(dir, backupDirname), dirPermissions); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	return s.writeHeader(sess)
}

// AppendOperation appends one operation to the session's log and flushes
// it to disk before returning. Callers rely on write-then-act ordering:
// the real filesystem effect must not proceed until this call returns.
func (s *Store) AppendOperation(_ context.Context, id string, op domain.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.headerPath(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}

		return fmt.Errorf("stat session header: %w", err)
	}

	line, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("encode operation: %w", err)
	}

	path := filepath.Join(s.sessionDir(id), operationsFilename)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermissions)
	if err != nil {
		return fmt.Errorf("open operation log: %w", err)
	}

	if _, err = file.Write(append(line, '\n')); err != nil {
		_ = file.Close()

		return fmt.Errorf("append operation: %w", err)
	}

	if err = file.Sync(); err != nil {
		_ = file.Close()

		return fmt.Errorf("sync operation log: %w", err)
	}

	return file.Close()
}

// SetStatus transitions a session to a new lifecycle state and persists
// the header. Illegal transitions are rejected.
func (s *Store) SetStatus(_ context.Context, id string, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.loadHeader(id)
	if err != nil {
		return err
	}

	if !sess.Status.CanTransition(status) {
		return fmt.Errorf("session %s: illegal transition %s -> %s", id, sess.Status, status)
	}

	sess.Status = status

	return s.writeHeader(sess)
}

// Load reads a session's header and full operation list.
func (s *Store) Load(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.loadHeader(id)
	if err != nil {
		return nil, err
	}

	sess.Operations, err = s.loadOperations(id)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// List enumerates persisted sessions, most recent first.
func (s *Store) List(_ context.Context) ([]domain.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read session root: %w", err)
	}

	summaries := make([]domain.Summary, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sess, err := s.loadHeader(entry.Name())
		if err != nil {
			// Skip records that are not sessions or are damaged.
			continue
		}

		ops, err := s.loadOperations(sess.ID)
		if err != nil {
			continue
		}

		summaries = append(summaries, domain.Summary{
			ID:             sess.ID,
			Status:         sess.Status,
			CreatedAt:      sess.CreatedAt,
			OperationCount: len(ops),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	return summaries, nil
}

// MarkAbandoned transitions every session still open (left behind by a
// crashed or killed process) to the abandoned state and returns their IDs.
func (s *Store) MarkAbandoned(ctx context.Context) ([]string, error) {
	summaries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var marked []string

	for _, summary := range summaries {
		if summary.Status != domain.StatusOpen {
			continue
		}

		if err = s.SetStatus(ctx, summary.ID, domain.StatusAbandoned); err != nil {
			return marked, err
		}

		marked = append(marked, summary.ID)
	}

	return marked, nil
}

// BackupPath returns the snapshot location for the operation with the
// provided sequence number.
func (s *Store) BackupPath(id string, seq int) string {
	return filepath.Join(s.sessionDir(id), backupDirname, fmt.Sprintf("op-%04d", seq))
}

func (s *Store) sessionDir(id string) string {
	return filepath.Join(s.root, id)
}

func (s *Store) headerPath(id string) string {
	return filepath.Join(s.sessionDir(id), headerFilename)
}

// writeHeader persists the session header and syncs it to disk.
// Callers must hold the mutex.
func (s *Store) writeHeader(sess *domain.Session) error {
	data, err := yaml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session header: %w", err)
	}

	path := s.headerPath(sess.ID)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePermissions)
	if err != nil {
		return fmt.Errorf("open session header: %w", err)
	}

	if _, err = file.Write(data); err != nil {
		_ = file.Close()

		return fmt.Errorf("write session header: %w", err)
	}

	if err = file.Sync(); err != nil {
		_ = file.Close()

		return fmt.Errorf("sync session header: %w", err)
	}

	return file.Close()
}

// loadHeader reads one session header. Callers must hold the mutex.
func (s *Store) loadHeader(id string) (*domain.Session, error) {
	contents, err := os.ReadFile(s.headerPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read session header: %w", err)
	}

	var sess domain.Session
	if err = yaml.Unmarshal(contents, &sess); err != nil {
		return nil, fmt.Errorf("decode session header: %w", err)
	}

	return &sess, nil
}

// loadOperations reads the append-only operation log in recorded order.
// A missing log means the session recorded no operations yet.
// Callers must hold the mutex.
func (s *Store) loadOperations(id string) ([]domain.Operation, error) {
	path := filepath.Join(s.sessionDir(id), operationsFilename)

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("open operation log: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	var ops []domain.Operation

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var op domain.Operation
		if err = json.Unmarshal(line, &op); err != nil {
			return nil, fmt.Errorf("decode operation %d: %w", len(ops)+1, err)
		}

		ops = append(ops, op)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan operation log: %w", err)
	}

	return ops, nil
}
