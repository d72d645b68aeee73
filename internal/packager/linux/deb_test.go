package linux

import (
	"context"
	"os"
	"path/filepath"
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
	return "/usr/bin/" + tool, nil
}

// newRequest builds a request over a temp project with an open session.
func newRequest(t *testing.T, opts map[string]any) *packager.Request {
	t.Helper()

	dir := t.TempDir()

	source := filepath.Join(dir, "payload")
	require.NoError(t, os.WriteFile(source, []byte("binary"), 0o600))

	outputDir := filepath.Join(dir, "dist")
	require.NoError(t, os.MkdirAll(outputDir, 0o750))

	cfg := &config.EffectiveConfig{
		Name:        "demo",
		DisplayName: "Demo App",
		Version:     "1.2.3",
		Publisher:   "Acme",
		Platform:    "linux",
		WorkDir:     filepath.Join(dir, ".unipack_temp"),
		OutputDir:   outputDir,
		Platforms: map[string]map[string]any{
			"linux": {"deb": opts},
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

// TestDeb_Package verifies the staging layout, the rendered control file
// and the dpkg-deb invocation.
func TestDeb_Package(t *testing.T) {
	t.Parallel()

	run := &fakeRunner{}
	req := newRequest(t, map[string]any{"depends": "python3 (>= 3.8)"})

	out, err := NewDeb(run).Package(context.Background(), req)
	require.NoError(t, err)

	expected := filepath.Join(req.OutputDir, packager.ArtifactName(req.Config, "deb"))
	require.Equal(t, expected, out)

	require.Equal(t, "dpkg-deb", run.tool)
	require.Contains(t, run.args, "--root-owner-group")
	require.Equal(t, out, run.args[len(run.args)-1])

	staged := filepath.Join(req.Config.WorkDir, "deb", "opt", "demo", "payload")
	require.FileExists(t, staged)

	control, err := os.ReadFile(filepath.Join(req.Config.WorkDir, "deb", "DEBIAN", "control"))
	require.NoError(t, err)
	require.Contains(t, string(control), "Package: demo\n")
	require.Contains(t, string(control), "Version: 1.2.3\n")
	require.Contains(t, string(control), "Maintainer: Acme\n")
	require.Contains(t, string(control), "Depends: python3 (>= 3.8)\n")
	require.Contains(t, string(control), "Description: Demo App\n")
}

// TestControlFile_OptionOverrides verifies per-tool options override the
// derived control fields.
func TestControlFile_OptionOverrides(t *testing.T) {
	t.Parallel()

	control := controlFile("demo", "1.0.0", "Acme", "Demo", map[string]any{
		"maintainer":  "Packaging Team <pkg@acme.test>",
		"section":     "python",
		"description": "A packaged demo",
	})

	require.Contains(t, control, "Maintainer: Packaging Team <pkg@acme.test>\n")
	require.Contains(t, control, "Section: python\n")
	require.Contains(t, control, "Description: A packaged demo\n")
	require.NotContains(t, control, "Depends:")
}
