package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	domain "github.com/oshokin/unipack/internal/domain/session"
	"github.com/oshokin/unipack/internal/logger"
)

// RollbackError reports a rollback where one or more inverse operations
// failed. The session is left in a clearly marked partially-rolled-back
// state; Failed lists the operations that were NOT successfully inverted.
type RollbackError struct {
	// SessionID is the session the rollback was applied to.
	SessionID string
	// Failed holds the operations whose inverses failed, in the order
	// they were attempted.
	Failed []domain.Operation
	// err aggregates the individual inverse failures.
	err error
}

// Error implements the error interface.
func (e *RollbackError) Error() string {
	paths := make([]string, 0, len(e.Failed))
	for _, op := range e.Failed {
		paths = append(paths, fmt.Sprintf("%s %s", op.Kind, op.Path))
	}

	return fmt.Sprintf("rollback of session %s left %d operation(s) un-inverted [%s]: %v",
		e.SessionID, len(e.Failed), strings.Join(paths, "; "), e.err)
}

// Unwrap exposes the aggregated inverse failures.
func (e *RollbackError) Unwrap() error {
	return e.err
}

// Rollback applies the inverse of every operation recorded in the session,
// in strict reverse order of recording. Every inverse is attempted even
// when an earlier one fails; failures are collected and reported through a
// RollbackError while the session is marked partially-rolled-back.
func (l *Ledger) Rollback(ctx context.Context, id string) error {
	sess, err := l.store.Load(ctx, id)
	if err != nil {
		return err
	}

	if sess.Status == domain.StatusRolledBack {
		return fmt.Errorf("session %s is already rolled back", id)
	}

	logger.InfoKV(ctx, "Rolling back session",
		"session_id", id, "operations", len(sess.Operations))

	var (
		failed []domain.Operation
		errs   error
	)

	for i := len(sess.Operations) - 1; i >= 0; i-- {
		op := sess.Operations[i]

		if invErr := invert(op); invErr != nil {
			failed = append(failed, op)
			errs = multierr.Append(errs,
				fmt.Errorf("invert operation %d (%s %s): %w", op.Seq, op.Kind, op.Path, invErr))

			continue
		}

		logger.DebugKV(ctx, "Inverted operation", "seq", op.Seq, "kind", op.Kind, "path", op.Path)
	}

	status := domain.StatusRolledBack
	if len(failed) > 0 {
		status = domain.StatusPartiallyRolledBack
	}

	if err = l.store.SetStatus(ctx, id, status); err != nil {
		errs = multierr.Append(errs, err)
	}

	l.mu.Lock()
	if l.sessionID == id {
		l.sessionID = ""
	}
	l.mu.Unlock()

	if len(failed) > 0 {
		return &RollbackError{
			SessionID: id,
			Failed:    failed,
			err:       errs,
		}
	}

	if errs != nil {
		return errs
	}

	logger.InfoKV(ctx, "Session rolled back", "session_id", id)

	return nil
}

// invert applies the inverse of one recorded operation.
func invert(op domain.Operation) error {
	switch op.Kind {
	case domain.KindCreateFile:
		if err := os.Remove(op.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		return nil
	case domain.KindCreateDir:
		return os.RemoveAll(op.Path)
	case domain.KindModifyFile, domain.KindDelete:
		if _, err := os.Stat(op.Backup); err != nil {
			return fmt.Errorf("backup unavailable: %w", err)
		}

		if err := os.RemoveAll(op.Path); err != nil {
			return err
		}

		return copyPath(op.Backup, op.Path)
	case domain.KindMove:
		return os.Rename(op.Dest, op.Path)
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}
