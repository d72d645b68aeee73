package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/unipack/internal/config"
	"github.com/oshokin/unipack/internal/exebuilder"
	"github.com/oshokin/unipack/internal/ledger"
	"github.com/oshokin/unipack/internal/logger"
	"github.com/oshokin/unipack/internal/packager"
	"github.com/oshokin/unipack/internal/packager/builtin"
	repo "github.com/oshokin/unipack/internal/repository/session"
	"github.com/oshokin/unipack/internal/runner"
	"github.com/oshokin/unipack/internal/scheduler"
)

// Options contains inputs for the build entry point.
type Options struct {
	// ConfigPath is an optional configuration file path. When empty, the
	// project directory is probed for a unipack.{json,yaml,yml,toml} file.
	ConfigPath string
	// ProjectDir is the project root; relative configuration paths are
	// anchored here. Defaults to the current working directory.
	ProjectDir string
	// Overrides holds CLI-supplied configuration values, the highest
	// precedence layer.
	Overrides map[string]any
	// Parallel enables concurrent format jobs.
	Parallel bool
	// MaxWorkers bounds the format job pool.
	MaxWorkers int
	// FailFast skips not-yet-started format jobs after the first failure.
	FailFast bool
	// NoRollback leaves a failed build's session on disk for manual
	// rollback instead of restoring state immediately.
	NoRollback bool
	// AssumeYes answers the rollback confirmation without prompting.
	AssumeYes bool
	// SessionRoot overrides where session records are stored.
	// Defaults to <project>/.unipack/sessions.
	SessionRoot string
}

// configCandidates are the filenames probed, in order, when no explicit
// configuration path is provided.
//
//nolint:gochecknoglobals // Fixed probe order, never mutated.
var configCandidates = []string{
	"unipack.json",
	"unipack.yaml",
	"unipack.yml",
	"unipack.toml",
}

// executableBuilder is the slice of the executable-builder surface the
// orchestrator needs; satisfied by exebuilder.PyInstaller.
type executableBuilder interface {
	Build(ctx context.Context, cfg *config.EffectiveConfig) (string, error)
	ArtifactPath(cfg *config.EffectiveConfig) string
}

// builder drives one build invocation end to end. It is unexported;
// callers use Run, which encapsulates setup and validation.
type builder struct {
	// opts are the caller-supplied invocation options.
	opts *Options
	// cfg is the resolved effective configuration.
	cfg *config.EffectiveConfig
	// led records every filesystem mutation of the build.
	led *ledger.Ledger
	// exe produces the application executable.
	exe executableBuilder
	// registry resolves (platform, format) targets to packagers.
	registry *packager.Registry
}

// Run executes the build workflow: resolve configuration, open a session,
// build the executable, run the requested format jobs and commit or roll
// back depending on the outcome.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "unipack")

	if err := ensureSingleInstance(); err != nil {
		return err
	}

	projectDir, err := resolveProjectDir(opts.ProjectDir)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(ctx, opts, projectDir)
	if err != nil {
		return err
	}

	store := repo.NewStore(sessionRoot(opts, projectDir))
	surfaceAbandonedSessions(ctx, store)

	run := runner.NewExecRunner()

	registry, err := builtin.NewRegistry(run)
	if err != nil {
		return err
	}

	b := &builder{
		opts:     opts,
		cfg:      cfg,
		led:      ledger.New(store),
		exe:      exebuilder.NewPyInstaller(run),
		registry: registry,
	}

	return b.run(ctx)
}

// run performs the session-scoped part of the workflow.
func (b *builder) run(ctx context.Context) error {
	sessionID, err := b.led.Begin(ctx)
	if err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "session_id", sessionID)

	if err = b.prepareEnvironment(ctx); err != nil {
		return b.failed(ctx, fmt.Errorf("prepare build environment: %w", err))
	}

	sourcePath, err := b.buildExecutable(ctx)
	if err != nil {
		return b.failed(ctx, err)
	}

	outcome := b.runFormatJobs(ctx, sourcePath)

	printReport(b.cfg, sessionID, sourcePath, outcome)

	if !outcome.Succeeded() {
		return b.failed(ctx, fmt.Errorf("build failed: %w", outcome.Err()))
	}

	if err = b.led.Commit(ctx); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Build completed", "output_dir", b.cfg.OutputDir)

	return nil
}

// prepareEnvironment recreates the scratch directory and ensures the
// output directory exists, recording both through the ledger. When the
// executable stage is skipped, the scratch directory is kept as is: it
// holds the previous build's output the skip is meant to reuse.
func (b *builder) prepareEnvironment(ctx context.Context) error {
	if !b.cfg.SkipExeBuilder {
		if err := b.led.Remove(ctx, b.cfg.WorkDir); err != nil {
			return err
		}
	}

	if err := b.led.MkdirAll(ctx, b.cfg.WorkDir); err != nil {
		return err
	}

	return b.led.MkdirAll(ctx, b.cfg.OutputDir)
}

// buildExecutable runs the executable-builder stage, or locates the
// previous stage output when the stage is skipped. The returned path is
// verified to exist either way.
func (b *builder) buildExecutable(ctx context.Context) (string, error) {
	if b.cfg.SkipExeBuilder {
		artifact := b.exe.ArtifactPath(b.cfg)

		if _, err := os.Stat(artifact); err != nil {
			return "", fmt.Errorf("executable stage skipped but its output is missing at %s: %w", artifact, err)
		}

		logger.InfoKV(ctx, "Executable stage skipped, reusing previous output", "artifact", artifact)

		return artifact, nil
	}

	// The artifact lands inside the scratch directory whose creation is
	// already recorded, so rollback covers it without a separate record.
	artifact, err := b.exe.Build(ctx, b.cfg)
	if err != nil {
		return "", err
	}

	if _, err = os.Stat(artifact); err != nil {
		return "", fmt.Errorf("executable builder reported success but produced no output at %s: %w", artifact, err)
	}

	return artifact, nil
}

// runFormatJobs assembles and executes one job per requested installer
// format. When installers are skipped, the outcome is empty and succeeded.
func (b *builder) runFormatJobs(ctx context.Context, sourcePath string) *scheduler.Outcome {
	if b.cfg.SkipInstallers {
		logger.Info(ctx, "Installer stage skipped")

		return &scheduler.Outcome{}
	}

	jobs := b.assembleJobs(sourcePath)

	return scheduler.Run(ctx, jobs, scheduler.Options{
		Parallel:   b.opts.Parallel,
		MaxWorkers: b.opts.MaxWorkers,
		FailFast:   b.opts.FailFast,
	})
}

// failed handles an unsuccessful build: state is restored immediately,
// after confirmation, or left for manual rollback depending on options.
func (b *builder) failed(ctx context.Context, buildErr error) error {
	sessionID := b.led.SessionID()

	if b.opts.NoRollback {
		logger.WarnKV(ctx, "Rollback disabled, session kept for manual recovery",
			"session_id", sessionID, "hint", "unipack sessions rollback "+sessionID)

		return buildErr
	}

	if !confirmRollback(b.opts) {
		logger.WarnKV(ctx, "Rollback declined, session kept for manual recovery",
			"session_id", sessionID, "hint", "unipack sessions rollback "+sessionID)

		return buildErr
	}

	if err := b.led.Rollback(ctx, sessionID); err != nil {
		return fmt.Errorf("%w (rollback: %v)", buildErr, err)
	}

	return buildErr
}

// resolveProjectDir normalizes the project directory option, defaulting
// to the current working directory.
func resolveProjectDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project directory: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project directory: %w", err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("project directory %s is not a directory", abs)
	}

	return abs, nil
}

// resolveConfig loads the layered file configuration (if any) and merges
// it with the CLI overrides into the effective configuration.
func resolveConfig(ctx context.Context, opts *Options, projectDir string) (*config.EffectiveConfig, error) {
	path := opts.ConfigPath
	if path == "" {
		path = discoverConfig(projectDir)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(projectDir, path)
	}

	var (
		raw map[string]any
		err error
	)

	if path != "" {
		logger.InfoKV(ctx, "Loading configuration", "path", path)

		if raw, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	return config.Merge(ctx, config.MergeInput{
		Raw:          raw,
		Platform:     config.DetectPlatform(),
		Overrides:    opts.Overrides,
		ProjectRoot:  projectDir,
		FallbackName: filepath.Base(projectDir),
	})
}

// discoverConfig probes the project directory for a configuration file,
// returning empty when none exists (a CLI-only invocation is valid).
func discoverConfig(projectDir string) string {
	for _, name := range configCandidates {
		candidate := filepath.Join(projectDir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// sessionRoot returns where session records are stored for this invocation.
func sessionRoot(opts *Options, projectDir string) string {
	if opts.SessionRoot != "" {
		return opts.SessionRoot
	}

	return filepath.Join(projectDir, ".unipack", "sessions")
}

// surfaceAbandonedSessions marks sessions left open by a crashed process
// and tells the user how to recover them. They are never rolled back
// automatically: the user may want to inspect the half-finished state.
func surfaceAbandonedSessions(ctx context.Context, store *repo.Store) {
	marked, err := store.MarkAbandoned(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Unable to scan previous sessions", "error", err)

		return
	}

	for _, id := range marked {
		logger.WarnKV(ctx, "Found session abandoned by a previous run",
			"session_id", id, "hint", "unipack sessions rollback "+id)
	}
}

// errBuildRunning indicates another build of this tool is already running.
var errBuildRunning = errors.New("another unipack build is already running")
