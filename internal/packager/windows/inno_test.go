package windows

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/unipack/internal/config"
	"github.com/oshokin/unipack/internal/ledger"
	"github.com/oshokin/unipack/internal/packager"
	repo "github.com/oshokin/unipack/internal/repository/session"
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

func (f *fakeRunner) LookPath(tool string) (string, error) {
	return tool, nil
}

// newRequest builds a request over a temp project with an open session.
func newRequest(t *testing.T, oneFile bool, opts map[string]any) *packager.Request {
	t.Helper()

	dir := t.TempDir()

	source := filepath.Join(dir, "demo.exe")
	require.NoError(t, os.WriteFile(source, []byte("binary"), 0o600))

	outputDir := filepath.Join(dir, "dist")
	require.NoError(t, os.MkdirAll(outputDir, 0o750))

	cfg := &config.EffectiveConfig{
		Name:        "demo",
		DisplayName: "Demo App",
		Version:     "1.2.3",
		Publisher:   "Acme",
		Platform:    "windows",
		OneFile:     oneFile,
		WorkDir:     filepath.Join(dir, ".unipack_temp"),
		OutputDir:   outputDir,
		Platforms: map[string]map[string]any{
			"windows": {"inno_setup": opts},
		},
	}
	require.NoError(t, os.MkdirAll(cfg.WorkDir, 0o750))

	led := ledger.New(repo.NewStore(filepath.Join(dir, "sessions")))

	_, err := led.Begin(context.Background())
	require.NoError(t, err)

	return &packager.Request{
		Config:     cfg,
		SourcePath: source,
		OutputDir:  outputDir,
		Ledger:     led,
	}
}

// TestInno_Package verifies the rendered script and the ISCC invocation.
func TestInno_Package(t *testing.T) {
	t.Parallel()

	run := &fakeRunner{}
	req := newRequest(t, true, nil)

	out, err := NewInno(run).Package(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, ".exe", filepath.Ext(out))

	require.Equal(t, "ISCC", run.tool)
	require.Contains(t, run.args, "/Q")
	require.Contains(t, run.args, "/O"+req.OutputDir)

	scriptPath := filepath.Join(req.Config.WorkDir, "setup.iss")
	require.Equal(t, scriptPath, run.args[len(run.args)-1])

	script, err := os.ReadFile(scriptPath)
	require.NoError(t, err)
	require.Contains(t, string(script), "AppName=Demo App\n")
	require.Contains(t, string(script), "AppVersion=1.2.3\n")
	require.Contains(t, string(script), "AppPublisher=Acme\n")
	require.Contains(t, string(script), req.SourcePath)
}

// TestInno_CompilerPathOverride verifies the inno_setup.path option
// selects a non-standard compiler location.
func TestInno_CompilerPathOverride(t *testing.T) {
	t.Parallel()

	run := &fakeRunner{}
	req := newRequest(t, true, map[string]any{
		"path": `C:\Tools\InnoSetup\ISCC.exe`,
	})

	_, err := NewInno(run).Package(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, `C:\Tools\InnoSetup\ISCC.exe`, run.tool)
}

// TestIssScript_DirectoryPayload covers the onedir source clause.
func TestIssScript_DirectoryPayload(t *testing.T) {
	t.Parallel()

	script := issScript("demo", "Demo", "1.0.0", "Acme", `C:\work\dist\demo`, false, nil)

	require.True(t, strings.Contains(script, `Source: "C:\work\dist\demo\*"`))
	require.Contains(t, script, "recursesubdirs")
}
