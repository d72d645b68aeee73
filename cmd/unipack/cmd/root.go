package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/unipack/internal/logger"
	"github.com/oshokin/unipack/internal/service/builder"
	"github.com/oshokin/unipack/internal/version"
)

var (
	// configPath to the configuration file (json, yaml or toml).
	configPath string

	// logLevel is the minimum level for log output.
	logLevel string

	// buildFlags collects the CLI configuration overrides.
	buildFlags = struct {
		name          string
		displayName   string
		entry         string
		appVersion    string
		publisher     string
		icon          string
		license       string
		readme        string
		outputDir     string
		workDir       string
		formats       []string
		onefile       bool
		skipExe       bool
		skipInstaller bool
	}{}

	// runFlags controls scheduling and recovery behavior.
	runFlags = struct {
		parallel    bool
		maxWorkers  int
		failFast    bool
		noRollback  bool
		assumeYes   bool
		sessionRoot string
	}{}

	// rootCmd represents the base command: build every requested
	// installer for the project.
	rootCmd = &cobra.Command{
		Use:   "unipack [project-dir]",
		Short: "Package a Python project into native installers",
		Long: "Build a standalone executable from a Python project and wrap it into " +
			"native installers for the current platform (deb, rpm, AppImage and tar.gz " +
			"on Linux; dmg, pkg and zip on macOS; Inno Setup and MSI on Windows). " +
			"Every filesystem change is journaled so a failed build can be rolled back.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			applyLogLevel()

			projectDir := "."
			if len(args) > 0 {
				projectDir = args[0]
			}

			options := &builder.Options{
				ConfigPath:  configPath,
				ProjectDir:  projectDir,
				Overrides:   collectOverrides(cmd),
				Parallel:    runFlags.parallel,
				MaxWorkers:  runFlags.maxWorkers,
				FailFast:    runFlags.failFast,
				NoRollback:  runFlags.noRollback,
				AssumeYes:   runFlags.assumeYes,
				SessionRoot: runFlags.sessionRoot,
			}

			return builder.Run(ctx, options)
		},
	}
)

// Execute runs the unipack CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(&configPath, "config", "c", "",
		"path to configuration file (default: unipack.{json,yaml,yml,toml} in the project)")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	flags.StringVar(&buildFlags.name, "name", "", "application name (default: project directory name)")
	flags.StringVar(&buildFlags.displayName, "display-name", "", "human-readable application name")
	flags.StringVar(&buildFlags.entry, "entry", "", "entry point script (default: main.py)")
	flags.StringVar(&buildFlags.appVersion, "version", "", "application version (default: 1.0.0)")
	flags.StringVar(&buildFlags.publisher, "publisher", "", "publisher name")
	flags.StringVar(&buildFlags.icon, "icon", "", "application icon path")
	flags.StringVar(&buildFlags.license, "license", "", "license file path")
	flags.StringVar(&buildFlags.readme, "readme", "", "readme file path")
	flags.StringVar(&buildFlags.outputDir, "output", "", "artifact output directory (default: dist)")
	flags.StringVar(&buildFlags.workDir, "workdir", "", "scratch directory (default: .unipack_temp)")
	flags.StringSliceVar(&buildFlags.formats, "formats", nil,
		"installer formats to build (default: the platform's conventional format)")
	flags.BoolVar(&buildFlags.onefile, "onefile", false, "build a single-file executable")
	flags.BoolVar(&buildFlags.skipExe, "skip-exe", false, "reuse the previous executable build")
	flags.BoolVar(&buildFlags.skipInstaller, "skip-installer", false, "build the executable only")

	flags.BoolVar(&runFlags.parallel, "parallel", false, "build installer formats concurrently")
	flags.IntVar(&runFlags.maxWorkers, "max-workers", 2, "concurrent format job limit")
	flags.BoolVar(&runFlags.failFast, "fail-fast", false, "skip remaining formats after the first failure")
	flags.BoolVar(&runFlags.noRollback, "no-rollback", false, "keep a failed build's changes for manual recovery")
	flags.BoolVarP(&runFlags.assumeYes, "yes", "y", false, "answer prompts affirmatively")
	flags.StringVar(&runFlags.sessionRoot, "session-root", "",
		"session record directory (default: <project>/.unipack/sessions)")
}

// applyLogLevel configures the global logger from the --log-level flag.
func applyLogLevel() {
	if level, ok := logger.ParseLogLevel(logLevel); ok {
		logger.SetLevel(level)
	}
}

// collectOverrides maps only the flags the user actually set to
// configuration keys, so unset flags never shadow file values.
func collectOverrides(cmd *cobra.Command) map[string]any {
	overrides := make(map[string]any)

	setString := func(flag, key, value string) {
		if cmd.Flags().Changed(flag) {
			overrides[key] = value
		}
	}

	setBool := func(flag, key string, value bool) {
		if cmd.Flags().Changed(flag) {
			overrides[key] = value
		}
	}

	setString("name", "name", buildFlags.name)
	setString("display-name", "display_name", buildFlags.displayName)
	setString("entry", "entry", buildFlags.entry)
	setString("version", "version", buildFlags.appVersion)
	setString("publisher", "publisher", buildFlags.publisher)
	setString("icon", "icon", buildFlags.icon)
	setString("license", "license", buildFlags.license)
	setString("readme", "readme", buildFlags.readme)
	setString("output", "output_dir", buildFlags.outputDir)
	setString("workdir", "work_dir", buildFlags.workDir)
	setBool("onefile", "onefile", buildFlags.onefile)
	setBool("skip-exe", "skip_exe", buildFlags.skipExe)
	setBool("skip-installer", "skip_installer", buildFlags.skipInstaller)

	if cmd.Flags().Changed("formats") {
		list := make([]any, len(buildFlags.formats))
		for i, format := range buildFlags.formats {
			list[i] = format
		}

		overrides["formats"] = list
	}

	return overrides
}
