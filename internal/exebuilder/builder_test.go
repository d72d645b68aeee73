package exebuilder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/unipack/internal/config"
)

// fakeRunner records invocations instead of executing tools.
type fakeRunner struct {
	tool string
	args []string
	err  error
}

func (f *fakeRunner) Run(_ context.Context, tool string, args ...string) (string, error) {
	f.tool = tool
	f.args = args

	return "", f.err
}

func (f *fakeRunner) LookPath(string) (string, error) {
	return "/usr/bin/pyinstaller", nil
}

func testConfig(t *testing.T, oneFile bool) *config.EffectiveConfig {
	t.Helper()

	dir := t.TempDir()
	entry := filepath.Join(dir, "main.py")

	cfg := &config.EffectiveConfig{
		Name:    "App",
		Entry:   entry,
		OneFile: oneFile,
		WorkDir: filepath.Join(dir, ".unipack_temp"),
		ExeBuilder: map[string]any{
			"clean":     true,
			"noconfirm": true,
			"add_data":  []any{"assets:assets"},
		},
	}

	return cfg
}

// TestPyInstaller_Arguments verifies the option block maps to flags and
// the entry point comes last.
func TestPyInstaller_Arguments(t *testing.T) {
	t.Parallel()

	run := &fakeRunner{}
	builder := NewPyInstaller(run)
	cfg := testConfig(t, true)

	artifact, err := builder.Build(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, "pyinstaller", run.tool)

	require.Contains(t, run.args, "--onefile")
	require.Contains(t, run.args, "--clean")
	require.Contains(t, run.args, "--noconfirm")
	require.Contains(t, run.args, "--add-data")
	require.Equal(t, cfg.Entry, run.args[len(run.args)-1])

	require.Equal(t, builder.ArtifactPath(cfg), artifact)
}

// TestPyInstaller_ArtifactPath distinguishes onefile and directory mode.
func TestPyInstaller_ArtifactPath(t *testing.T) {
	t.Parallel()

	builder := NewPyInstaller(&fakeRunner{})

	oneFile := testConfig(t, true)
	require.Equal(t, filepath.Join(oneFile.WorkDir, "dist", "App"), builder.ArtifactPath(oneFile))

	oneDir := testConfig(t, false)
	require.Equal(t, filepath.Join(oneDir.WorkDir, "dist", "App"), builder.ArtifactPath(oneDir))
	require.Contains(t, builder.arguments(oneDir), "--onedir")
}
