package sessions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"

	domain "github.com/oshokin/unipack/internal/domain/session"
	"github.com/oshokin/unipack/internal/ledger"
	"github.com/oshokin/unipack/internal/logger"
	repo "github.com/oshokin/unipack/internal/repository/session"
)

// Options contains inputs for the session maintenance entry points.
type Options struct {
	// ProjectDir is the project root holding the default session store.
	ProjectDir string
	// SessionRoot overrides where session records are stored.
	SessionRoot string
	// AssumeYes answers the rollback confirmation without prompting.
	AssumeYes bool
}

// errRollbackDeclined is returned when the user answers the rollback
// confirmation negatively.
var errRollbackDeclined = errors.New("rollback declined")

// List prints every recorded session, most recent first.
func List(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "unipack")

	store, err := newStore(opts)
	if err != nil {
		return err
	}

	summaries, err := store.List(ctx)
	if err != nil {
		return err
	}

	render(os.Stdout, summaries)

	return nil
}

// Rollback inverts every operation of one recorded session after
// confirmation.
func Rollback(ctx context.Context, opts *Options, id string) error {
	ctx = logger.WithName(ctx, "unipack")

	store, err := newStore(opts)
	if err != nil {
		return err
	}

	sess, err := store.Load(ctx, id)
	if err != nil {
		return err
	}

	if !confirm(opts, sess) {
		return errRollbackDeclined
	}

	return ledger.New(store).Rollback(ctx, id)
}

// newStore opens the session store for the configured location.
func newStore(opts *Options) (*repo.Store, error) {
	root := opts.SessionRoot
	if root == "" {
		projectDir := opts.ProjectDir
		if projectDir == "" {
			projectDir = "."
		}

		abs, err := filepath.Abs(projectDir)
		if err != nil {
			return nil, fmt.Errorf("resolve project directory: %w", err)
		}

		root = filepath.Join(abs, ".unipack", "sessions")
	}

	return repo.NewStore(root), nil
}

// confirm asks before inverting a session's operations. A prompt failure
// without an explicit negative answer declines: manual rollback is a
// deliberate action and must not happen by accident.
func confirm(opts *Options, sess *domain.Session) bool {
	if opts.AssumeYes {
		return true
	}

	prompt := promptui.Prompt{
		Label: fmt.Sprintf("Invert %d operation(s) of session %s (%s)",
			len(sess.Operations), sess.ID, sess.Status),
		IsConfirm: true,
	}

	_, err := prompt.Run()

	return err == nil
}

// render writes the session listing, one line per session with a
// status colored by severity.
func render(w io.Writer, summaries []domain.Summary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "no recorded sessions")

		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, summary := range summaries {
		status := string(summary.Status)

		switch summary.Status {
		case domain.StatusCommitted, domain.StatusRolledBack:
			status = green(status)
		case domain.StatusPartiallyRolledBack:
			status = red(status)
		case domain.StatusOpen, domain.StatusAbandoned:
			status = yellow(status)
		}

		fmt.Fprintf(w, "%s  %s  %-22s %d operation(s)\n",
			summary.ID,
			summary.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			summary.OperationCount)
	}
}
