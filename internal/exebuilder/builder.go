package exebuilder

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/oshokin/unipack/internal/config"
	"github.com/oshokin/unipack/internal/logger"
	"github.com/oshokin/unipack/internal/runner"
)

// Builder produces the application executable from a resolved
// configuration. Implementations wrap exactly one external builder tool.
type Builder interface {
	// Build runs the tool once and returns the path of the produced
	// artifact: a single file in onefile mode, a directory otherwise.
	Build(ctx context.Context, cfg *config.EffectiveConfig) (string, error)
}

// boolFlags maps executable-builder option keys to pyinstaller flags.
//
//nolint:gochecknoglobals // Fixed option enumeration, never mutated.
var boolFlags = map[string]string{
	"clean":     "--clean",
	"noconfirm": "--noconfirm",
	"windowed":  "--windowed",
	"console":   "--console",
	"strip":     "--strip",
	"noupx":     "--noupx",
}

// PyInstaller invokes the pyinstaller tool.
type PyInstaller struct {
	// run executes the external tool.
	run runner.Runner
	// tool is the executable name, overridable for tests.
	tool string
}

// NewPyInstaller creates a pyinstaller-backed builder.
func NewPyInstaller(run runner.Runner) *PyInstaller {
	return &PyInstaller{
		run:  run,
		tool: "pyinstaller",
	}
}

// ArtifactPath returns where the builder's output will appear for the
// provided configuration, without invoking the tool.
func (b *PyInstaller) ArtifactPath(cfg *config.EffectiveConfig) string {
	dist := filepath.Join(cfg.WorkDir, "dist")

	if cfg.OneFile {
		name := cfg.Name
		if runtime.GOOS == "windows" {
			name += ".exe"
		}

		return filepath.Join(dist, name)
	}

	return filepath.Join(dist, cfg.Name)
}

// Build maps the executable-builder options block to pyinstaller
// arguments and invokes the tool once.
func (b *PyInstaller) Build(ctx context.Context, cfg *config.EffectiveConfig) (string, error) {
	if _, err := b.run.LookPath(b.tool); err != nil {
		return "", fmt.Errorf("executable builder unavailable: %w", err)
	}

	args := b.arguments(cfg)

	logger.InfoKV(ctx, "Building executable", "tool", b.tool, "entry", cfg.Entry)

	if _, err := b.run.Run(ctx, b.tool, args...); err != nil {
		return "", fmt.Errorf("executable build failed: %w", err)
	}

	return b.ArtifactPath(cfg), nil
}

// arguments derives the pyinstaller argument list from the configuration.
func (b *PyInstaller) arguments(cfg *config.EffectiveConfig) []string {
	work := filepath.Join(cfg.WorkDir, "build")
	dist := filepath.Join(cfg.WorkDir, "dist")

	args := []string{
		"--name", cfg.Name,
		"--distpath", dist,
		"--workpath", work,
		"--specpath", cfg.WorkDir,
	}

	if cfg.OneFile {
		args = append(args, "--onefile")
	} else {
		args = append(args, "--onedir")
	}

	if cfg.Icon != "" {
		args = append(args, "--icon", cfg.Icon)
	}

	// Deterministic flag order keeps reruns and logs comparable.
	keys := make([]string, 0, len(cfg.ExeBuilder))
	for key := range cfg.ExeBuilder {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		value := cfg.ExeBuilder[key]

		if flag, ok := boolFlags[key]; ok {
			if enabled, ok := value.(bool); ok && enabled {
				args = append(args, flag)
			}

			continue
		}

		switch key {
		case "add_data", "add-data":
			args = appendListFlag(args, "--add-data", value)
		case "add_binary", "add-binary":
			args = appendListFlag(args, "--add-binary", value)
		case "hidden_imports", "hidden-imports":
			args = appendListFlag(args, "--hidden-import", value)
		case "osx_bundle_identifier":
			if s, ok := value.(string); ok && s != "" {
				args = append(args, "--osx-bundle-identifier", s)
			}
		}
	}

	return append(args, cfg.Entry)
}

// appendListFlag appends one flag occurrence per list entry.
func appendListFlag(args []string, flag string, value any) []string {
	list, ok := value.([]any)
	if !ok {
		return args
	}

	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			args = append(args, flag, s)
		}
	}

	return args
}
