package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/unipack/internal/service/sessions"
)

var (
	// sessionsFlags locates the session store for maintenance commands.
	sessionsFlags = struct {
		projectDir  string
		sessionRoot string
		assumeYes   bool
	}{}

	// sessionsCmd groups session maintenance commands.
	sessionsCmd = &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and recover recorded build sessions",
	}

	// sessionsListCmd prints every recorded session.
	sessionsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List recorded build sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			applyLogLevel()

			return sessions.List(context.Background(), sessionsOptions())
		},
	}

	// sessionsRollbackCmd inverts one recorded session.
	sessionsRollbackCmd = &cobra.Command{
		Use:   "rollback <session-id>",
		Short: "Invert every recorded operation of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			applyLogLevel()

			return sessions.Rollback(ctx, sessionsOptions(), args[0])
		},
	}
)

// sessionsOptions maps the maintenance flags to service options.
func sessionsOptions() *sessions.Options {
	return &sessions.Options{
		ProjectDir:  sessionsFlags.projectDir,
		SessionRoot: sessionsFlags.sessionRoot,
		AssumeYes:   sessionsFlags.assumeYes,
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := sessionsCmd.PersistentFlags()
	flags.StringVar(&sessionsFlags.projectDir, "project", ".", "project directory holding the session store")
	flags.StringVar(&sessionsFlags.sessionRoot, "session-root", "",
		"session record directory (default: <project>/.unipack/sessions)")
	flags.BoolVarP(&sessionsFlags.assumeYes, "yes", "y", false, "answer prompts affirmatively")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsRollbackCmd)
	rootCmd.AddCommand(sessionsCmd)
}
